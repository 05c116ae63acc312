package accounts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/healthkey/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var accountColumns = []string{"address", "wallet_balance", "credit_balance", "created_at"}

func TestEnsure_ReturnsRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	q := `(?s)^INSERT\s+INTO\s+accounts\s*\(address,\s*wallet_balance\)\s*VALUES\s*\(\$1,\s*\$2\)\s*ON\s+CONFLICT.*RETURNING`
	mock.ExpectQuery(q).
		WithArgs("addr", int64(1000)).
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow("addr", int64(1000), int64(0), now))

	a, err := repo.Ensure(context.Background(), "addr", 1000)
	if err != nil {
		t.Fatalf("Ensure error: %v", err)
	}
	if a.Address != "addr" || a.WalletBalance != 1000 || a.CreditBalance != 0 {
		t.Fatalf("unexpected account: %+v", a)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+address.*FROM\s+accounts\s+WHERE\s+address\s*=\s*\$1`).
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "nobody")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestMoveToCredit(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+accounts\s+SET\s+wallet_balance\s*=\s*wallet_balance\s*-\s*\$2,\s*credit_balance\s*=\s*credit_balance\s*\+\s*\$2\s+WHERE\s+address\s*=\s*\$1\s+AND\s+wallet_balance\s*>=\s*\$2`

	mock.ExpectQuery(q).
		WithArgs("addr", int64(105)).
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow("addr", int64(895), int64(105), time.Now()))

	a, err := repo.MoveToCredit(context.Background(), "addr", 105)
	if err != nil {
		t.Fatalf("MoveToCredit error: %v", err)
	}
	if a.WalletBalance != 895 || a.CreditBalance != 105 {
		t.Fatalf("unexpected balances: %+v", a)
	}

	mock.ExpectQuery(q).
		WithArgs("addr", int64(10_000)).
		WillReturnRows(sqlmock.NewRows(accountColumns))

	_, err = repo.MoveToCredit(context.Background(), "addr", 10_000)
	if !errors.Is(err, common.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestDebit(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+accounts\s+SET\s+credit_balance\s*=\s*credit_balance\s*-\s*\$2\s+WHERE\s+address\s*=\s*\$1\s+AND\s+credit_balance\s*>=\s*\$2`

	mock.ExpectQuery(q).
		WithArgs("addr", int64(5)).
		WillReturnRows(sqlmock.NewRows(accountColumns))

	_, err := repo.Debit(context.Background(), "addr", 5)
	if !errors.Is(err, common.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	mock.ExpectQuery(q).
		WithArgs("addr", int64(5)).
		WillReturnError(errors.New("db down"))

	_, err = repo.Debit(context.Background(), "addr", 5)
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
