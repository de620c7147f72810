package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/vemurivi/CareerShotApi/internal/register/models"
	"github.com/vemurivi/CareerShotApi/pkg/platform/sentinel"
)

// Postgres persists registration records in PostgreSQL. The composite primary
// key (partition_key, row_key) gives atomic create-if-absent semantics.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed metadata store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the registrations table if it does not exist.
func (s *Postgres) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS registrations (
			partition_key   TEXT        NOT NULL,
			row_key         UUID        NOT NULL,
			name            TEXT        NOT NULL,
			description     TEXT        NOT NULL DEFAULT '',
			linkedin        TEXT        NOT NULL DEFAULT '',
			github          TEXT        NOT NULL DEFAULT '',
			skills          JSONB       NOT NULL DEFAULT '{}',
			file_extensions TEXT[]      NOT NULL DEFAULT '{}',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (partition_key, row_key)
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate registrations: %w", err)
	}
	return nil
}

// Create inserts the record if (PartitionKey, RowKey) is absent, returning
// sentinel.ErrConflict when the key already exists. On success the
// store-assigned CreatedAt and ETag are written back onto rec.
func (s *Postgres) Create(ctx context.Context, rec *models.Record) error {
	query := `
		INSERT INTO registrations
			(partition_key, row_key, name, description, linkedin, github, skills, file_extensions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (partition_key, row_key) DO NOTHING
		RETURNING created_at, xmin::text
	`
	err := s.db.QueryRowContext(ctx, query,
		rec.PartitionKey,
		rec.RowKey,
		rec.Name,
		rec.Description,
		rec.LinkedIn,
		rec.GitHub,
		rec.SkillsEncoded,
		pq.Array(rec.FileExtensions),
	).Scan(&rec.CreatedAt, &rec.ETag)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// ON CONFLICT DO NOTHING returns no row when the key exists.
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// FindByKey fetches a single record by its two-part key.
func (s *Postgres) FindByKey(ctx context.Context, partitionKey, rowKey string) (*models.Record, error) {
	query := `
		SELECT partition_key, row_key, name, description, linkedin, github,
		       skills, file_extensions, created_at, xmin::text
		FROM registrations
		WHERE partition_key = $1 AND row_key = $2
	`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, partitionKey, rowKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return rec, nil
}

// ListByPartition range-scans one partition, oldest first. Single-character
// partitions are exactly what makes this scan cheap.
func (s *Postgres) ListByPartition(ctx context.Context, partitionKey string) ([]*models.Record, error) {
	query := `
		SELECT partition_key, row_key, name, description, linkedin, github,
		       skills, file_extensions, created_at, xmin::text
		FROM registrations
		WHERE partition_key = $1
		ORDER BY created_at, row_key
	`
	rows, err := s.db.QueryContext(ctx, query, partitionKey)
	if err != nil {
		return nil, fmt.Errorf("list partition: %w", err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list partition: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var rec models.Record
	var extensions pq.StringArray
	err := row.Scan(
		&rec.PartitionKey,
		&rec.RowKey,
		&rec.Name,
		&rec.Description,
		&rec.LinkedIn,
		&rec.GitHub,
		&rec.SkillsEncoded,
		&extensions,
		&rec.CreatedAt,
		&rec.ETag,
	)
	if err != nil {
		return nil, err
	}
	rec.FileExtensions = []string(extensions)
	return &rec, nil
}
