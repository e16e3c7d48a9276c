package main

import (
	"context"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/DevSmtp/internal/export"
	"github.com/lawnchairsociety/DevSmtp/internal/store"
)

func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export captured messages from the postgres store to an mbox file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Store.Driver != "postgres" {
				return fmt.Errorf("export requires the postgres store driver")
			}

			db, err := sqlx.Connect("pgx", cfg.Database.DSN())
			if err != nil {
				return fmt.Errorf("connect to postgres: %w", err)
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			msgs, err := store.NewPostgresStore(db).Get(ctx)
			if err != nil {
				return fmt.Errorf("load messages: %w", err)
			}

			out := os.Stdout
			if output != "" {
				out, err = os.Create(output)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer out.Close()
			}

			if err := export.Mbox(out, msgs); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "exported %d messages\n", len(msgs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (defaults to stdout)")
	return cmd
}
