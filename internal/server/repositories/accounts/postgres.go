package accounts

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

func scanAccount(row *sql.Row, notFound error) (*models.Account, error) {
	a := &models.Account{}
	err := row.Scan(&a.Address, &a.WalletBalance, &a.CreditBalance, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Ensure(ctx context.Context, address string, grant int64) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (address, wallet_balance)
		 VALUES ($1, $2)
		 ON CONFLICT (address) DO UPDATE SET address = EXCLUDED.address
		 RETURNING address, wallet_balance, credit_balance, created_at
		 `

	return scanAccount(r.db.QueryRowContext(ctx, query, address, grant), common.ErrorNotFound)
}

func (r *PostgresRepository) Get(ctx context.Context, address string) (*models.Account, error) {
	query :=
		`SELECT address, wallet_balance, credit_balance, created_at FROM accounts
		 WHERE address = $1
		 `

	return scanAccount(r.db.QueryRowContext(ctx, query, address), common.ErrorNotFound)
}

func (r *PostgresRepository) MoveToCredit(ctx context.Context, address string, amount int64) (*models.Account, error) {
	query :=
		`UPDATE accounts
		 SET wallet_balance = wallet_balance - $2, credit_balance = credit_balance + $2
		 WHERE address = $1 AND wallet_balance >= $2
		 RETURNING address, wallet_balance, credit_balance, created_at
		 `

	return scanAccount(r.db.QueryRowContext(ctx, query, address, amount), common.ErrInsufficientFunds)
}

func (r *PostgresRepository) Debit(ctx context.Context, address string, amount int64) (*models.Account, error) {
	query :=
		`UPDATE accounts
		 SET credit_balance = credit_balance - $2
		 WHERE address = $1 AND credit_balance >= $2
		 RETURNING address, wallet_balance, credit_balance, created_at
		 `

	return scanAccount(r.db.QueryRowContext(ctx, query, address, amount), common.ErrInsufficientFunds)
}
