package report

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eventsIngestion/internal/ingest"
	"eventsIngestion/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS ingestion_runs (
	run_id        TEXT PRIMARY KEY,
	root_address  TEXT NOT NULL,
	topic         TEXT NOT NULL,
	start_block   BIGINT NOT NULL,
	state         TEXT NOT NULL,
	message       TEXT NOT NULL,
	children      INTEGER NOT NULL,
	published     INTEGER NOT NULL,
	started_at    TIMESTAMPTZ NOT NULL,
	duration_ms   BIGINT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS ingestion_run_sources (
	run_id      TEXT NOT NULL REFERENCES ingestion_runs (run_id),
	address     TEXT NOT NULL,
	role        TEXT NOT NULL,
	events      INTEGER NOT NULL,
	published   INTEGER NOT NULL,
	error_kind  TEXT,
	error       TEXT,
	PRIMARY KEY (run_id, address)
);
`

// Run describes one finished run for the report tables.
type Run struct {
	Result      ingest.Result
	RootAddress string
	Topic       string
	StartBlock  uint64
}

// Store writes run reports to Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the report tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create report schema: %w", err)
	}
	return nil
}

// SaveRun inserts the run row and one row per source in a single batch.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	batch := buildBatch(run)

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("save run %s: %w", run.Result.RunID, err)
		}
	}
	return nil
}

func buildBatch(run Run) *pgx.Batch {
	res := run.Result
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO ingestion_runs (
			run_id, root_address, topic, start_block, state, message, children, published, started_at, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		res.RunID,
		run.RootAddress,
		run.Topic,
		int64(run.StartBlock),
		res.State.String(),
		res.Message(),
		res.Snapshot.Len(),
		res.Published(),
		res.StartedAt,
		res.Duration.Milliseconds(),
	)

	for _, src := range res.Sources {
		batch.Queue(`
			INSERT INTO ingestion_run_sources (
				run_id, address, role, events, published, error_kind, error
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (run_id, address) DO NOTHING
		`,
			res.RunID,
			src.Address,
			string(src.Role),
			src.Events,
			src.Published,
			nullable(model.ErrorKind(src.Err)),
			nullable(errorText(src.Err)),
		)
	}
	return batch
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
