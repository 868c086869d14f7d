package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sailendrachettri/polarize/internal/domain"
)

const captureSchemaSQL = `
CREATE TABLE IF NOT EXISTS captures (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	source_type TEXT NOT NULL,
	webhook_url TEXT NOT NULL DEFAULT '',
	renders JSONB NOT NULL,
	object_key TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS usage_logs (
	id BIGSERIAL PRIMARY KEY,
	user_id TEXT NOT NULL,
	capture_id TEXT NOT NULL,
	pixels_processed BIGINT NOT NULL,
	bytes_written BIGINT NOT NULL,
	compute_time_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

type PostgresCaptureStore struct {
	db *sql.DB
}

func NewPostgresCaptureStore(ctx context.Context, dsn string) (*PostgresCaptureStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresCaptureStore{db: db}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *PostgresCaptureStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, captureSchemaSQL); err != nil {
		return fmt.Errorf("ensure captures schema: %w", err)
	}
	return nil
}

func (s *PostgresCaptureStore) Close() error {
	return s.db.Close()
}

func (s *PostgresCaptureStore) Create(ctx context.Context, capture domain.Capture) error {
	rendersJSON, err := json.Marshal(capture.Renders)
	if err != nil {
		return fmt.Errorf("marshal capture renders: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO captures (id, user_id, status, source_type, webhook_url, renders, object_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		capture.ID,
		capture.UserID,
		capture.Status,
		capture.SourceType,
		capture.WebhookURL,
		rendersJSON,
		capture.ObjectKey,
		capture.CreatedAt,
		capture.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert capture: %w", err)
	}

	return nil
}

func (s *PostgresCaptureStore) Get(ctx context.Context, id string) (domain.Capture, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, status, source_type, webhook_url, renders, object_key, created_at, updated_at
		 FROM captures
		 WHERE id = $1`,
		id,
	)

	var (
		capture     domain.Capture
		rendersJSON []byte
	)
	if err := row.Scan(
		&capture.ID,
		&capture.UserID,
		&capture.Status,
		&capture.SourceType,
		&capture.WebhookURL,
		&rendersJSON,
		&capture.ObjectKey,
		&capture.CreatedAt,
		&capture.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Capture{}, false, nil
		}
		return domain.Capture{}, false, fmt.Errorf("query capture: %w", err)
	}

	if err := json.Unmarshal(rendersJSON, &capture.Renders); err != nil {
		return domain.Capture{}, false, fmt.Errorf("unmarshal capture renders: %w", err)
	}

	return capture, true, nil
}

func (s *PostgresCaptureStore) UpdateStatus(ctx context.Context, id, status string) (domain.Capture, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE captures
		 SET status = $1, updated_at = $2
		 WHERE id = $3`,
		status,
		now,
		id,
	)
	if err != nil {
		return domain.Capture{}, fmt.Errorf("update capture status: %w", err)
	}

	capture, ok, err := s.Get(ctx, id)
	if err != nil {
		return domain.Capture{}, err
	}
	if !ok {
		return domain.Capture{}, ErrCaptureNotFound
	}

	return capture, nil
}

func (s *PostgresCaptureStore) CreateUsageLog(ctx context.Context, usage domain.UsageLog) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO usage_logs (user_id, capture_id, pixels_processed, bytes_written, compute_time_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		usage.UserID,
		usage.CaptureID,
		usage.PixelsProcessed,
		usage.BytesWritten,
		usage.ComputeTimeMS,
		usage.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert usage log: %w", err)
	}
	return nil
}
