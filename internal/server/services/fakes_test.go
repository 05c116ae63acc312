package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/healthkey/internal/common"
	"github.com/dmitrijs2005/healthkey/internal/dbx"
	"github.com/dmitrijs2005/healthkey/internal/logging"
	"github.com/dmitrijs2005/healthkey/internal/server/blobs"
	"github.com/dmitrijs2005/healthkey/internal/server/config"
	"github.com/dmitrijs2005/healthkey/internal/server/models"
	"github.com/dmitrijs2005/healthkey/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/healthkey/internal/server/repositories/challenges"
	"github.com/dmitrijs2005/healthkey/internal/server/repositories/fundings"
	"github.com/dmitrijs2005/healthkey/internal/server/repositories/transactions"
)

// memState backs all fake repositories. Transactions are not isolated:
// the sqlmock expectations check that begin/commit/rollback happen.
type memState struct {
	mu         sync.Mutex
	accounts   map[string]*models.Account
	fundings   map[string]*models.Funding
	challenges map[string]*models.Challenge
	txs        map[string]*models.Transaction

	createTxErr error
}

func newMemState() *memState {
	return &memState{
		accounts:   map[string]*models.Account{},
		fundings:   map[string]*models.Funding{},
		challenges: map[string]*models.Challenge{},
		txs:        map[string]*models.Transaction{},
	}
}

type fakeRM struct{ st *memState }

func (f *fakeRM) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (f *fakeRM) Accounts(dbx.DBTX) accounts.Repository         { return (*fakeAccounts)(f.st) }
func (f *fakeRM) Fundings(dbx.DBTX) fundings.Repository         { return (*fakeFundings)(f.st) }
func (f *fakeRM) Challenges(dbx.DBTX) challenges.Repository     { return (*fakeChallenges)(f.st) }
func (f *fakeRM) Transactions(dbx.DBTX) transactions.Repository { return (*fakeTransactions)(f.st) }

type fakeAccounts memState

func (f *fakeAccounts) Ensure(_ context.Context, address string, grant int64) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[address]
	if !ok {
		a = &models.Account{Address: address, WalletBalance: grant, CreatedAt: time.Now()}
		f.accounts[address] = a
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) Get(_ context.Context, address string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[address]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) MoveToCredit(_ context.Context, address string, amount int64) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[address]
	if !ok || a.WalletBalance < amount {
		return nil, common.ErrInsufficientFunds
	}
	a.WalletBalance -= amount
	a.CreditBalance += amount
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) Debit(_ context.Context, address string, amount int64) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[address]
	if !ok || a.CreditBalance < amount {
		return nil, common.ErrInsufficientFunds
	}
	a.CreditBalance -= amount
	cp := *a
	return &cp, nil
}

type fakeFundings memState

func (f *fakeFundings) Create(_ context.Context, fu *models.Funding) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.fundings[fu.IdempotencyKey]; ok {
		return common.ErrorAlreadyExists
	}
	f.fundings[fu.IdempotencyKey] = fu
	return nil
}

func (f *fakeFundings) Get(_ context.Context, key string) (*models.Funding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fu, ok := f.fundings[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return fu, nil
}

type fakeChallenges memState

func (f *fakeChallenges) Create(_ context.Context, c *models.Challenge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.challenges[c.Address+"/"+c.Nonce] = c
	return nil
}

func (f *fakeChallenges) Consume(_ context.Context, address, nonce string) (*models.Challenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.challenges[address+"/"+nonce]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(f.challenges, address+"/"+nonce)
	return c, nil
}

func (f *fakeChallenges) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, c := range f.challenges {
		if c.ExpiresAt.Before(now) {
			delete(f.challenges, k)
			n++
		}
	}
	return n, nil
}

type fakeTransactions memState

func (f *fakeTransactions) Create(_ context.Context, tx *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createTxErr != nil {
		return f.createTxErr
	}
	if _, ok := f.txs[tx.ID]; ok {
		return common.ErrorAlreadyExists
	}
	f.txs[tx.ID] = tx
	return nil
}

func (f *fakeTransactions) GetByID(_ context.Context, id string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.txs[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return tx, nil
}

type fixture struct {
	svc   *GatewayService
	st    *memState
	mock  sqlmock.Sqlmock
	blobs *blobs.MemoryStore
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.InitialGrant = 1000
	return cfg
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	st := newMemState()
	store := blobs.NewMemoryStore()
	svc := NewGatewayService(db, &fakeRM{st: st}, store, testConfig(), logging.NewNopLogger())
	return &fixture{svc: svc, st: st, mock: mock, blobs: store}
}
