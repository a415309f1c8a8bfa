package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// UploadRepository provides data access methods for the upload table.
// Payloads are stored as given; encryption is the caller's concern.
type UploadRepository struct {
	db *sql.DB
}

// NewUploadRepository creates a new UploadRepository with the provided database connection.
func NewUploadRepository(db *sql.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

// Insert stores an upload.
func (r *UploadRepository) Insert(ctx context.Context, u model.Upload) error {
	query := `
        INSERT INTO upload (id, filename, size_bytes, holding_count, skipped_rows, payload, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		u.ID,
		u.Filename,
		u.SizeBytes,
		u.HoldingCount,
		u.SkippedRows,
		u.Payload,
		FormatTime(u.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}
	return nil
}

// List returns upload metadata matching filters, newest first unless
// filters.SortDir is "asc". Payloads are not loaded.
// Returns an empty slice if nothing matches.
func (r *UploadRepository) List(ctx context.Context, filters model.UploadFilters) ([]model.Upload, error) {
	query := `
        SELECT id, filename, size_bytes, holding_count, skipped_rows, created_at
        FROM upload
    `
	var args []interface{}
	if filters.Since != nil {
		query += " WHERE created_at >= ?"
		args = append(args, FormatTime(*filters.Since))
	}
	if filters.SortDir == "asc" {
		query += " ORDER BY created_at ASC"
	} else {
		query += " ORDER BY created_at DESC"
	}
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query upload table: %w", err)
	}
	defer rows.Close()

	uploads := []model.Upload{}
	for rows.Next() {
		var (
			u         model.Upload
			createdAt string
		)
		if err := rows.Scan(&u.ID, &u.Filename, &u.SizeBytes, &u.HoldingCount, &u.SkippedRows, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload table results: %w", err)
		}
		if u.CreatedAt, err = ParseTime(createdAt); err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating upload table: %w", err)
	}

	return uploads, nil
}

// Get returns one upload including its payload.
// Returns apperrors.ErrUploadNotFound if no upload has the given id.
func (r *UploadRepository) Get(ctx context.Context, id string) (model.Upload, error) {
	query := `
        SELECT id, filename, size_bytes, holding_count, skipped_rows, payload, created_at
        FROM upload
        WHERE id = ?
    `
	var (
		u         model.Upload
		createdAt string
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Filename, &u.SizeBytes, &u.HoldingCount, &u.SkippedRows, &u.Payload, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Upload{}, apperrors.ErrUploadNotFound
	}
	if err != nil {
		return model.Upload{}, fmt.Errorf("failed to query upload: %w", err)
	}
	if u.CreatedAt, err = ParseTime(createdAt); err != nil {
		return model.Upload{}, err
	}
	return u, nil
}

// DeleteOlderThan removes uploads created before cutoff and returns how many were removed.
func (r *UploadRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM upload WHERE created_at < ?", FormatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired uploads: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted uploads: %w", err)
	}
	return n, nil
}
