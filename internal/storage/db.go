package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	Pool *pgxpool.Pool
}

func NewDB(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (d *DB) Close() {
	if d != nil && d.Pool != nil {
		d.Pool.Close()
	}
}

// InitSchema creates the three record sets on startup. Results and chat
// messages cascade with their paper so deleted papers never leave orphans.
func (d *DB) InitSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS papers (
  paper_id    TEXT PRIMARY KEY,
  title       TEXT NOT NULL DEFAULT '',
  authors     TEXT NOT NULL DEFAULT '',
  filename    TEXT NOT NULL DEFAULT '',
  pdf_path    TEXT NOT NULL DEFAULT '',
  fingerprint TEXT NOT NULL UNIQUE,
  text        TEXT NOT NULL DEFAULT '',
  page_count  INT NOT NULL DEFAULT 0,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`CREATE TABLE IF NOT EXISTS results (
  result_id   TEXT PRIMARY KEY,
  paper_id    TEXT NOT NULL REFERENCES papers(paper_id) ON DELETE CASCADE,
  lang        TEXT NOT NULL,
  content     TEXT NOT NULL DEFAULT '',
  status      TEXT NOT NULL DEFAULT 'pending',
  created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  UNIQUE (paper_id, lang)
)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
  message_id  TEXT PRIMARY KEY,
  paper_id    TEXT NOT NULL REFERENCES papers(paper_id) ON DELETE CASCADE,
  role        TEXT NOT NULL,
  content     TEXT NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	}
	for _, stmt := range stmts {
		if _, err := d.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
