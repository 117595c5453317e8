// Package transcript persists conversation history to Postgres so completed
// and abandoned applications keep an auditable record beyond the Redis TTL.
package transcript

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	statex "github.com/tanpawarit/Rocket-Approval-Concierge/agent/state"
)

type Config struct {
	DSN string `split_words:"true" required:"true"`
}

type MessageRow struct {
	bun.BaseModel `bun:"table:concierge_messages"`

	ID        int64     `bun:"id,pk,autoincrement"`
	ThreadID  string    `bun:"thread_id,notnull"`
	Role      string    `bun:"role,notnull"`
	Content   string    `bun:"content,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

type Archive struct {
	db *bun.DB
}

func New(cfg Config) (*Archive, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("transcript dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	return &Archive{db: db}, nil
}

// NewWithDB wires an existing bun handle, used by tests.
func NewWithDB(db *bun.DB) *Archive {
	return &Archive{db: db}
}

func (a *Archive) Init(ctx context.Context) error {
	_, err := a.db.NewCreateTable().
		Model((*MessageRow)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (a *Archive) Append(ctx context.Context, threadID string, msgs []statex.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	rows := make([]MessageRow, 0, len(msgs))
	for _, msg := range msgs {
		createdAt := msg.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		rows = append(rows, MessageRow{
			ThreadID:  threadID,
			Role:      string(msg.Role),
			Content:   msg.Content,
			CreatedAt: createdAt,
		})
	}

	_, err := a.db.NewInsert().Model(&rows).Exec(ctx)
	return err
}

// History returns the archived messages for one thread in insertion order.
func (a *Archive) History(ctx context.Context, threadID string) ([]statex.Message, error) {
	var rows []MessageRow
	if err := a.db.NewSelect().
		Model(&rows).
		Where("thread_id = ?", threadID).
		Order("id ASC").
		Scan(ctx); err != nil {
		return nil, err
	}

	msgs := make([]statex.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, statex.Message{
			Role:      statex.Role(row.Role),
			Content:   row.Content,
			CreatedAt: row.CreatedAt,
		})
	}
	return msgs, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

// Noop discards transcripts. It keeps the turn pipeline wiring uniform when
// no archive database is configured.
type Noop struct{}

func (Noop) Append(ctx context.Context, threadID string, msgs []statex.Message) error {
	return nil
}
