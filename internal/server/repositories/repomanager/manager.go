package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/healthkey/internal/dbx"
	"github.com/dmitrijs2005/healthkey/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/healthkey/internal/server/repositories/challenges"
	"github.com/dmitrijs2005/healthkey/internal/server/repositories/fundings"
	"github.com/dmitrijs2005/healthkey/internal/server/repositories/transactions"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Fundings(db dbx.DBTX) fundings.Repository
	Challenges(db dbx.DBTX) challenges.Repository
	Transactions(db dbx.DBTX) transactions.Repository
}
