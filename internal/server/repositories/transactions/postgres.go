package transactions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/healthkey/internal/common"
	"github.com/dmitrijs2005/healthkey/internal/dbx"
	"github.com/dmitrijs2005/healthkey/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, tx *models.Transaction) error {
	tags := tx.Tags
	if tags == nil {
		tags = []models.Tag{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	query :=
		`INSERT INTO transactions (id, owner, size, content_type, tags, price)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at
		 `

	err = r.db.QueryRowContext(ctx, query, tx.ID, tx.Owner, tx.Size, tx.ContentType, string(raw), tx.Price).
		Scan(&tx.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	query :=
		`SELECT id, owner, size, content_type, tags, price, created_at
		 FROM transactions WHERE id = $1
		 `

	tx := &models.Transaction{}
	var raw []byte
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&tx.ID, &tx.Owner, &tx.Size, &tx.ContentType, &raw, &tx.Price, &tx.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &tx.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	return tx, nil
}
