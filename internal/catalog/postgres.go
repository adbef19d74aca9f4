package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/bookscraper-service/pkg/utils"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS book_records (
  url_hash   text PRIMARY KEY,
  url        text NOT NULL,
  site       text NOT NULL,
  scrape_id  text NOT NULL,
  outcome    text NOT NULL,
  title      text NOT NULL DEFAULT '',
  author     text NOT NULL DEFAULT '',
  isbn_clean text NOT NULL DEFAULT '',
  record     jsonb NOT NULL,
  fetched_at timestamptz NOT NULL,
  updated_at timestamptz NOT NULL DEFAULT now()
)`

const upsertSQL = `
INSERT INTO book_records
  (url_hash, url, site, scrape_id, outcome, title, author, isbn_clean, record, fetched_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (url_hash) DO UPDATE SET
  scrape_id  = EXCLUDED.scrape_id,
  outcome    = EXCLUDED.outcome,
  title      = EXCLUDED.title,
  author     = EXCLUDED.author,
  isbn_clean = EXCLUDED.isbn_clean,
  record     = EXCLUDED.record,
  fetched_at = EXCLUDED.fetched_at,
  updated_at = now()`

// Store persists records to PostgreSQL, one row per canonical URL.
type Store struct {
	db *pgxpool.Pool
}

// NewStore connects the pool and bootstraps the table.
func NewStore(ctx context.Context, connStr string) (*Store, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if _, err := db.Exec(ctx, createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap book_records: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Name() string { return "postgres" }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Write upserts the record keyed by the canonical URL's hash. Repeat
// scrapes of the same product replace the stored row.
func (s *Store) Write(ctx context.Context, e Entry) error {
	payload, err := json.Marshal(e.Record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	_, err = s.db.Exec(ctx, upsertSQL,
		utils.HashURL(e.URL),
		e.URL,
		e.Site,
		e.ScrapeID,
		e.Outcome,
		e.Record.Title,
		e.Record.Author,
		e.Record.ISBNClean,
		payload,
		e.FetchedAt,
	)
	return err
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}
