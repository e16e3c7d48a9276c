package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lawnchairsociety/DevSmtp/internal/mail"
	"github.com/lawnchairsociety/DevSmtp/internal/metrics"
)

// PostgresStore persists captured messages in PostgreSQL so they survive
// restarts. Schema lives in the migrations/ directory; run
// `devsmtp migrate up` before serving.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open sqlx handle.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// messageRow mirrors the messages table.
type messageRow struct {
	ID         string    `db:"id"`
	Sender     string    `db:"sender"`
	Data       string    `db:"data"`
	ReceivedAt time.Time `db:"received_at"`
}

// Store persists msg and its recipients in one transaction.
func (s *PostgresStore) Store(ctx context.Context, msg *mail.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.ID.IsZero() {
		return fmt.Errorf("message has no id")
	}
	defer observe("store")()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, sender, data, received_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		msg.ID.String(), msg.From.String(), msg.Data, msg.ReceivedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%q: %w", msg.ID, ErrDuplicateID)
	}

	for i, to := range msg.To {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO message_recipients (message_id, position, address)
			 VALUES ($1, $2, $3)`,
			msg.ID.String(), i, to.String())
		if err != nil {
			return fmt.Errorf("insert recipient: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Get returns all messages in insertion order.
func (s *PostgresStore) Get(ctx context.Context) ([]*mail.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer observe("get")()

	var rows []messageRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, sender, data, received_at FROM messages ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	return s.hydrate(ctx, rows)
}

// FindByID returns the message with the given id, or (nil, nil).
func (s *PostgresStore) FindByID(ctx context.Context, id mail.MessageID) (*mail.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer observe("find_by_id")()

	var row messageRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, sender, data, received_at FROM messages WHERE id = $1`,
		id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select message: %w", err)
	}

	msgs, err := s.hydrate(ctx, []messageRow{row})
	if err != nil {
		return nil, err
	}
	return msgs[0], nil
}

// FindByEmail returns all messages where addr is sender or recipient.
func (s *PostgresStore) FindByEmail(ctx context.Context, addr mail.Email) ([]*mail.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer observe("find_by_email")()

	var rows []messageRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, sender, data, received_at FROM messages
		 WHERE sender = $1
		    OR EXISTS (
		        SELECT 1 FROM message_recipients r
		        WHERE r.message_id = messages.id AND r.address = $1)
		 ORDER BY seq`,
		addr.String())
	if err != nil {
		return nil, fmt.Errorf("select messages by email: %w", err)
	}
	return s.hydrate(ctx, rows)
}

// hydrate converts table rows back into validated message values,
// attaching each message's recipient list.
func (s *PostgresStore) hydrate(ctx context.Context, rows []messageRow) ([]*mail.Message, error) {
	out := make([]*mail.Message, 0, len(rows))
	for _, row := range rows {
		id, err := mail.ParseMessageID(row.ID)
		if err != nil {
			return nil, fmt.Errorf("stored message id: %w", err)
		}
		from, err := mail.ParseEmail(row.Sender)
		if err != nil {
			return nil, fmt.Errorf("stored sender: %w", err)
		}

		var addrs []string
		err = s.db.SelectContext(ctx, &addrs,
			`SELECT address FROM message_recipients
			 WHERE message_id = $1 ORDER BY position`,
			row.ID)
		if err != nil {
			return nil, fmt.Errorf("select recipients: %w", err)
		}
		to := make([]mail.Email, 0, len(addrs))
		for _, a := range addrs {
			rcpt, err := mail.ParseEmail(a)
			if err != nil {
				return nil, fmt.Errorf("stored recipient: %w", err)
			}
			to = append(to, rcpt)
		}

		out = append(out, &mail.Message{
			ID:         id,
			From:       from,
			To:         to,
			Data:       row.Data,
			ReceivedAt: row.ReceivedAt,
		})
	}
	return out, nil
}

// Ping reports whether the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// observe times one store operation for the metrics endpoint.
func observe(op string) func() {
	start := time.Now()
	return func() {
		metrics.StoreQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}
