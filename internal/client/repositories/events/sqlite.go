package events

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/healthkey/internal/client/models"
	"github.com/dmitrijs2005/healthkey/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Append(ctx context.Context, e *models.Event) error {
	query := `INSERT INTO events (id, kind, address, storage_id, detail, at)
			VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, e.ID, string(e.Kind), e.Address, e.StorageID, e.Detail, e.At.UTC())
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]*models.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, address, storage_id, detail, at FROM events ORDER BY at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select events: %w", err)
	}
	defer rows.Close()

	var result []*models.Event
	for rows.Next() {
		e := &models.Event{}
		var kind string
		if err := rows.Scan(&e.ID, &kind, &e.Address, &e.StorageID, &e.Detail, &e.At); err != nil {
			return nil, err
		}
		e.Kind = models.EventKind(kind)
		e.At = e.At.UTC()
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
