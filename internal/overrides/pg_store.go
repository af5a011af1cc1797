package overrides

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/bellhart/clinic-portal/internal/schedule"
)

// Querier is the slice of pgxpool.Pool the store needs.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PgStore keeps the override mapping as one jsonb row keyed by the
// blob name. Still a single-key blob: every save replaces the whole
// mapping, so partial edits cannot leave corrupted state behind.
type PgStore struct {
	pool Querier
	key  string
	log  *zap.Logger
}

func NewPgStore(pool Querier, key string, logger *zap.Logger) *PgStore {
	return &PgStore{pool: pool, key: key, log: logger}
}

// Init creates the blob table when it does not exist yet.
func (s *PgStore) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS override_blobs (
			key        text PRIMARY KEY,
			data       jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("create override_blobs table: %w", err)
	}
	return nil
}

func (s *PgStore) Load(ctx context.Context) (map[string]schedule.Override, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM override_blobs WHERE key = $1`, s.key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return map[string]schedule.Override{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select override blob: %w", err)
	}
	return decodeBlob(data, s.log), nil
}

func (s *PgStore) Save(ctx context.Context, overrides map[string]schedule.Override) error {
	data, err := json.Marshal(overrides)
	if err != nil {
		return fmt.Errorf("encode override blob: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO override_blobs (key, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`, s.key, data)
	if err != nil {
		return fmt.Errorf("upsert override blob: %w", err)
	}
	return nil
}

// Ping reports backend health for the readiness endpoint.
func (s *PgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
