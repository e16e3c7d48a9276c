package main

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate [up|down|version]",
		Short: "Apply database schema migrations for the postgres store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			m, err := newMigrate(cfg.Database.DSN(), migrationsPath)
			if err != nil {
				return err
			}
			defer m.Close()

			switch args[0] {
			case "up":
				steps := 0
				if len(args) > 1 {
					if steps, err = strconv.Atoi(args[1]); err != nil {
						return fmt.Errorf("invalid step count %q", args[1])
					}
				}
				if steps > 0 {
					err = m.Steps(steps)
				} else {
					err = m.Up()
				}
			case "down":
				steps := 1
				if len(args) > 1 {
					if steps, err = strconv.Atoi(args[1]); err != nil {
						return fmt.Errorf("invalid step count %q", args[1])
					}
				}
				err = m.Steps(-steps)
			case "version":
				version, dirty, verr := m.Version()
				if errors.Is(verr, migrate.ErrNilVersion) {
					fmt.Println("no migrations applied yet")
					return nil
				}
				if verr != nil {
					return verr
				}
				status := ""
				if dirty {
					status = " (dirty)"
				}
				fmt.Printf("version %d%s\n", version, status)
				return nil
			default:
				return fmt.Errorf("unknown migrate command %q", args[0])
			}

			if errors.Is(err, migrate.ErrNoChange) {
				fmt.Println("no change")
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&migrationsPath, "path", "migrations", "path to migrations directory")
	return cmd
}

// newMigrate opens the database through the pgx stdlib driver and binds
// golang-migrate to it.
func newMigrate(dsn, migrationsPath string) (*migrate.Migrate, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create migration driver: %w", err)
	}

	abs, err := filepath.Abs(migrationsPath)
	if err != nil {
		return nil, fmt.Errorf("resolve migrations path: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+abs, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return m, nil
}
