package uploads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/healthkey/internal/client/models"
	"github.com/dmitrijs2005/healthkey/internal/common"
	"github.com/dmitrijs2005/healthkey/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `storage_id, owner, content_type, original_name, size,
	iv, key_salt, key_nonce, wrapped_key, created_at`

// Create inserts rec. An existing storage id yields common.ErrorAlreadyExists.
func (r *SQLiteRepository) Create(ctx context.Context, rec *models.UploadRecord) error {
	query := `INSERT INTO uploads (` + selectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		rec.StorageID, rec.Owner, rec.ContentType, rec.OriginalName, rec.Size,
		rec.IV, rec.WrappedKey.Salt, rec.WrappedKey.Nonce, rec.WrappedKey.Ciphertext,
		rec.CreatedAt.UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("upload %s: %w", rec.StorageID, common.ErrorAlreadyExists)
		}
		return fmt.Errorf("failed to insert upload: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.UploadRecord, error) {
	rec := &models.UploadRecord{}
	err := s.Scan(&rec.StorageID, &rec.Owner, &rec.ContentType, &rec.OriginalName, &rec.Size,
		&rec.IV, &rec.WrappedKey.Salt, &rec.WrappedKey.Nonce, &rec.WrappedKey.Ciphertext,
		&rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

// GetByID returns common.ErrorNotFound when no record exists.
func (r *SQLiteRepository) GetByID(ctx context.Context, storageID string) (*models.UploadRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM uploads WHERE storage_id = ?`, storageID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]*models.UploadRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select uploads: %w", err)
	}
	defer rows.Close()

	var result []*models.UploadRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListByOwner returns the owner's records, newest first.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, owner string) ([]*models.UploadRecord, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM uploads WHERE owner = ? ORDER BY created_at DESC`, owner)
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.UploadRecord, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM uploads ORDER BY created_at DESC`)
}
