// Package services contains the storage gateway business logic: session
// challenges, pricing, account funding and transaction storage.
package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/healthkey/internal/common"
	"github.com/dmitrijs2005/healthkey/internal/dbx"
	"github.com/dmitrijs2005/healthkey/internal/logging"
	"github.com/dmitrijs2005/healthkey/internal/server/auth"
	"github.com/dmitrijs2005/healthkey/internal/server/blobs"
	"github.com/dmitrijs2005/healthkey/internal/server/config"
	"github.com/dmitrijs2005/healthkey/internal/server/models"
	"github.com/dmitrijs2005/healthkey/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/healthkey/internal/wallet"
	"github.com/mr-tron/base58"
)

// StorageID derives the id of a payload stored by owner: base64url of
// sha256(owner || payload), 43 characters.
func StorageID(owner string, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(owner))
	h.Write(payload)
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// StoreResult describes an accepted transaction.
type StoreResult struct {
	ID    string
	Price int64
	// Existing is set when the same payload was already stored by the owner.
	Existing bool
}

type GatewayService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blobs.Store
	logger      logging.Logger

	jwtSecret         []byte
	sessionValidity   time.Duration
	challengeValidity time.Duration
	baseFee           int64
	perByteFee        int64
	initialGrant      int64

	now func() time.Time
}

func NewGatewayService(db *sql.DB, m repomanager.RepositoryManager, store blobs.Store, cfg *config.Config, logger logging.Logger) *GatewayService {
	return &GatewayService{
		db:                db,
		repomanager:       m,
		blobs:             store,
		logger:            logger,
		jwtSecret:         []byte(cfg.SecretKey),
		sessionValidity:   cfg.SessionValidity,
		challengeValidity: cfg.ChallengeValidity,
		baseFee:           cfg.BaseFee,
		perByteFee:        cfg.PerByteFee,
		initialGrant:      cfg.InitialGrant,
		now:               time.Now,
	}
}

// Challenge issues a one-time nonce for address.
func (s *GatewayService) Challenge(ctx context.Context, address string) (string, error) {
	if _, err := wallet.ParseAddress(address); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	nonce, err := common.MakeRandHexString(32)
	if err != nil {
		return "", common.ErrorInternal
	}

	c := &models.Challenge{
		Address:   address,
		Nonce:     nonce,
		ExpiresAt: s.now().Add(s.challengeValidity),
	}
	if err := s.repomanager.Challenges(s.db).Create(ctx, c); err != nil {
		return "", err
	}
	return c.Nonce, nil
}

// CreateSession consumes the challenge, verifies the signature over
// common.SessionChallengePrefix+nonce and returns a session token. The account
// is created with the initial grant on first use.
func (s *GatewayService) CreateSession(ctx context.Context, address, nonce, signature string) (string, error) {
	c, err := s.repomanager.Challenges(s.db).Consume(ctx, address, nonce)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrChallengeExpired
		}
		return "", err
	}
	if s.now().After(c.ExpiresAt) {
		return "", common.ErrChallengeExpired
	}

	sig, err := base58.Decode(signature)
	if err != nil || !wallet.Verify(address, []byte(common.SessionChallengePrefix+nonce), sig) {
		return "", common.ErrInvalidSignature
	}

	if _, err := s.repomanager.Accounts(s.db).Ensure(ctx, address, s.initialGrant); err != nil {
		return "", err
	}

	token, err := auth.GenerateToken(address, s.jwtSecret, s.sessionValidity)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// Authenticate returns the address a session token was issued to.
func (s *GatewayService) Authenticate(token string) (string, error) {
	return auth.GetAddressFromToken(token, s.jwtSecret)
}

// Price is the cost of storing size bytes.
func (s *GatewayService) Price(size int64) (int64, error) {
	if size < 0 {
		return 0, fmt.Errorf("%w: negative size", common.ErrorValidation)
	}
	return s.baseFee + size*s.perByteFee, nil
}

func (s *GatewayService) Balance(ctx context.Context, address string) (*models.Account, error) {
	return s.repomanager.Accounts(s.db).Get(ctx, address)
}

// Fund moves amount from the wallet balance into gateway credit. A repeated
// idempotency key is acknowledged without moving funds again.
func (s *GatewayService) Fund(ctx context.Context, address, idempotencyKey string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", common.ErrorValidation)
	}
	if idempotencyKey == "" {
		return fmt.Errorf("%w: missing idempotency key", common.ErrorValidation)
	}

	replayed := false
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		f := &models.Funding{IdempotencyKey: idempotencyKey, Address: address, Amount: amount}
		if err := s.repomanager.Fundings(tx).Create(ctx, f); err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				replayed = true
				return nil
			}
			return err
		}
		_, err := s.repomanager.Accounts(tx).MoveToCredit(ctx, address, amount)
		return err
	})
	if err != nil {
		return err
	}
	if replayed {
		s.logger.Info(ctx, "fund request replayed", "address", address, "key", idempotencyKey)
	}
	return nil
}

// Store accepts a payload from owner, charging its price to gateway credit.
func (s *GatewayService) Store(ctx context.Context, owner string, data []byte, tags []models.Tag) (*StoreResult, error) {
	id := StorageID(owner, data)
	price, err := s.Price(int64(len(data)))
	if err != nil {
		return nil, err
	}

	existing, err := s.repomanager.Transactions(s.db).GetByID(ctx, id)
	switch {
	case err == nil:
		return &StoreResult{ID: existing.ID, Price: existing.Price, Existing: true}, nil
	case !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}

	contentType := models.ContentTypeTag(tags)
	if err := s.blobs.Put(ctx, id, data, contentType); err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Accounts(tx).Debit(ctx, owner, price); err != nil {
			return err
		}
		return s.repomanager.Transactions(tx).Create(ctx, &models.Transaction{
			ID:          id,
			Owner:       owner,
			Size:        int64(len(data)),
			ContentType: contentType,
			Tags:        tags,
			Price:       price,
		})
	})
	if errors.Is(err, common.ErrorAlreadyExists) {
		return &StoreResult{ID: id, Price: price, Existing: true}, nil
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "transaction stored", "id", id, "owner", owner, "bytes", len(data), "price", price)
	return &StoreResult{ID: id, Price: price}, nil
}

// Retrieve returns the stored bytes and the recorded content type.
func (s *GatewayService) Retrieve(ctx context.Context, id string) ([]byte, string, error) {
	tx, err := s.repomanager.Transactions(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	data, err := s.blobs.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return data, tx.ContentType, nil
}

// PurgeChallenges removes expired nonces.
func (s *GatewayService) PurgeChallenges(ctx context.Context) (int64, error) {
	return s.repomanager.Challenges(s.db).DeleteExpired(ctx, s.now())
}
