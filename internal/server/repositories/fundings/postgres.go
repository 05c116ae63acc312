package fundings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/healthkey/internal/common"
	"github.com/dmitrijs2005/healthkey/internal/dbx"
	"github.com/dmitrijs2005/healthkey/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, f *models.Funding) error {
	query :=
		`INSERT INTO fundings (idempotency_key, address, amount)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (idempotency_key) DO NOTHING
		 `

	res, err := r.db.ExecContext(ctx, query, f.IdempotencyKey, f.Address, f.Amount)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorAlreadyExists
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, key string) (*models.Funding, error) {
	query :=
		`SELECT idempotency_key, address, amount, created_at FROM fundings
		 WHERE idempotency_key = $1
		 `

	f := &models.Funding{}
	err := r.db.QueryRowContext(ctx, query, key).Scan(&f.IdempotencyKey, &f.Address, &f.Amount, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}
