// Package services contains application services for the HealthKey client.
// This file defines the vault pipeline: encrypt, pay for and upload objects,
// anchor them on the ledger, and fetch, decrypt and present them again.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/healthkey/internal/client/client"
	"github.com/dmitrijs2005/healthkey/internal/client/models"
	"github.com/dmitrijs2005/healthkey/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/healthkey/internal/client/repositories/uploads"
	"github.com/dmitrijs2005/healthkey/internal/common"
	"github.com/dmitrijs2005/healthkey/internal/cryptox"
	"github.com/dmitrijs2005/healthkey/internal/ledger"
	"github.com/dmitrijs2005/healthkey/internal/logging"
	"github.com/dmitrijs2005/healthkey/internal/mimex"
	"github.com/dmitrijs2005/healthkey/internal/wallet"
)

// Pipeline stages, used in StageError.
const (
	StageEncrypt = "encrypt"
	StageSession = "session"
	StagePrice   = "price"
	StageFund    = "fund"
	StageUpload  = "upload"
	StagePersist = "persist"
	StageFetch   = "fetch"
	StageDecrypt = "decrypt"
)

// StageError reports which step of a flow failed. StorageID is set when the
// object had already been stored.
type StageError struct {
	Stage     string
	StorageID string
	Err       error
}

func (e *StageError) Error() string {
	if e.StorageID != "" {
		return fmt.Sprintf("%s (storage id %s): %v", e.Stage, e.StorageID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Anchorer writes memo anchors. *ledger.Anchorer satisfies it.
type Anchorer interface {
	Anchor(ctx context.Context, signer ledger.Signer, memo string) (*ledger.AnchorReceipt, error)
}

// UploadRequest is a plaintext object to store. ContentType may be empty;
// it is then guessed from Name and finally sniffed from Data.
type UploadRequest struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadResult describes a stored object. Anchor and AnchorErr are both nil
// when anchoring is disabled; a non-nil AnchorErr never invalidates
// StorageID.
type UploadResult struct {
	StorageID   string
	ContentType string
	Size        int
	CipherSize  int
	Price       int64
	Funded      int64
	Record      *models.UploadRecord

	Anchor    *ledger.AnchorReceipt
	AnchorErr error
}

// Retrieved is a decrypted object ready for display.
type Retrieved struct {
	Record       *models.UploadRecord
	Presentation mimex.Presentation
}

// Pipeline is the client vault.
//
// Contract:
//   - Upload: requires a connected wallet and fails with
//     common.ErrWalletNotConnected before anything is spent otherwise.
//     Stage failures come back as *StageError.
//   - SubmitForm: Upload of the JSON encoding of form.
//   - Retrieve / RetrieveByID: fetch, decrypt, resolve content type and build
//     a Presentation. Decryption failures are common.ErrDecryptionFailed.
//   - History: local upload records of the connected wallet.
//
// Every outcome is published on the EventLog.
type Pipeline interface {
	Connect(ctx context.Context, signer wallet.Signer) error
	Disconnect(ctx context.Context)
	Address() (string, error)
	Balance(ctx context.Context) (*client.Balance, error)

	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
	SubmitForm(ctx context.Context, name string, form any) (*UploadResult, error)
	Retrieve(ctx context.Context, rec *models.UploadRecord) (*Retrieved, error)
	RetrieveByID(ctx context.Context, storageID string) (*Retrieved, error)
	History(ctx context.Context) ([]*models.UploadRecord, error)
}

// Deps wires a Pipeline. Anchorer may be nil to disable anchoring.
type Deps struct {
	Gateway  client.Gateway
	Uploads  uploads.Repository
	Metadata metadata.Repository
	Anchorer Anchorer
	Wallet   *WalletSession
	Events   *EventLog
	Queue    *FundingQueue
	Logger   logging.Logger
	Now      func() time.Time
}

type pipeline struct {
	Deps
}

func NewPipeline(d Deps) Pipeline {
	if d.Wallet == nil {
		d.Wallet = NewWalletSession()
	}
	if d.Events == nil {
		d.Events = NewEventLog()
	}
	if d.Queue == nil {
		d.Queue = NewFundingQueue()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = logging.NewNopLogger()
	}
	return &pipeline{Deps: d}
}

func (p *pipeline) Connect(ctx context.Context, signer wallet.Signer) error {
	p.Wallet.Connect(signer)
	if err := p.Metadata.Set(ctx, metadata.KeyLastAddress, []byte(signer.Address())); err != nil {
		p.Logger.Warn(ctx, "failed to remember wallet address", "error", err)
	}
	p.Events.Publish(ctx, models.Event{Kind: models.EventWalletConnected, Address: signer.Address()})
	return nil
}

func (p *pipeline) Disconnect(ctx context.Context) {
	address, err := p.Address()
	p.Wallet.Disconnect()
	if err := p.Metadata.Delete(ctx, metadata.KeyLastAddress); err != nil {
		p.Logger.Warn(ctx, "failed to forget wallet address", "error", err)
	}
	if err == nil {
		p.Events.Publish(ctx, models.Event{Kind: models.EventWalletDisconnect, Address: address})
	}
}

func (p *pipeline) Address() (string, error) {
	s, err := p.Wallet.Signer()
	if err != nil {
		return "", err
	}
	return s.Address(), nil
}

func (p *pipeline) Balance(ctx context.Context) (*client.Balance, error) {
	signer, err := p.Wallet.Signer()
	if err != nil {
		return nil, err
	}
	sess, err := p.Gateway.OpenSession(ctx, signer)
	if err != nil {
		return nil, &StageError{Stage: StageSession, Err: err}
	}
	return sess.Balance(ctx)
}

func resolveUploadType(req UploadRequest) string {
	if ct := mimex.Normalize(req.ContentType); ct != "" {
		return ct
	}
	if ct := mimex.FromFileName(req.Name); ct != "" {
		return ct
	}
	return mimex.Resolve("", req.Data)
}

func (p *pipeline) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	signer, err := p.Wallet.Signer()
	if err != nil {
		return nil, err
	}
	address := signer.Address()

	res, err := p.upload(ctx, signer, req)
	if err != nil {
		ev := models.Event{Kind: models.EventUploadFailed, Address: address, Detail: err.Error()}
		var se *StageError
		if errors.As(err, &se) {
			ev.StorageID = se.StorageID
		}
		p.Events.Publish(ctx, ev)
		return nil, err
	}

	p.Logger.Info(ctx, "upload stored", "storage_id", res.StorageID, "bytes", res.Size, "funded", res.Funded)
	p.Events.Publish(ctx, models.Event{
		Kind:      models.EventUploadSucceeded,
		Address:   address,
		StorageID: res.StorageID,
		Detail:    res.ContentType,
	})

	if p.Anchorer != nil {
		p.anchor(ctx, signer, res)
	}
	return res, nil
}

func (p *pipeline) upload(ctx context.Context, signer wallet.Signer, req UploadRequest) (*UploadResult, error) {
	ct := resolveUploadType(req)

	sealed, err := cryptox.Encrypt(req.Data)
	if err != nil {
		return nil, &StageError{Stage: StageEncrypt, Err: err}
	}

	sess, err := p.Gateway.OpenSession(ctx, signer)
	if err != nil {
		return nil, &StageError{Stage: StageSession, Err: err}
	}

	res := &UploadResult{ContentType: ct, Size: len(req.Data), CipherSize: len(sealed.Cipher)}
	err = p.Queue.Do(ctx, signer.Address(), func(ctx context.Context) error {
		price, err := sess.Price(ctx, len(sealed.Cipher))
		if err != nil {
			return &StageError{Stage: StagePrice, Err: err}
		}
		res.Price = price
		res.Funded = FundingAmount(price)

		if res.Funded > 0 {
			if err := sess.Fund(ctx, res.Funded); err != nil {
				return &StageError{Stage: StageFund, Err: err}
			}
		}

		id, err := sess.Upload(ctx, sealed.Cipher, []client.Tag{{Name: "Content-Type", Value: ct}})
		if err != nil {
			p.Logger.Warn(ctx, "session funded but upload failed", "address", signer.Address(), "funded", res.Funded, "error", err)
			return &StageError{Stage: StageUpload, Err: err}
		}
		res.StorageID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.Wallet.remember(res.StorageID, sealed.Material)

	wrapped, err := p.Wallet.WrapKey(ctx, sealed.Key)
	if err != nil {
		return nil, &StageError{Stage: StagePersist, StorageID: res.StorageID, Err: err}
	}

	rec := &models.UploadRecord{
		StorageID:    res.StorageID,
		Owner:        signer.Address(),
		ContentType:  ct,
		OriginalName: req.Name,
		Size:         int64(len(req.Data)),
		IV:           sealed.IV,
		WrappedKey:   wrapped,
		CreatedAt:    p.Now().UTC(),
	}
	if err := p.Uploads.Create(ctx, rec); err != nil {
		return nil, &StageError{Stage: StagePersist, StorageID: res.StorageID, Err: err}
	}
	res.Record = rec
	return res, nil
}

// anchor is best effort: failures are recorded on res and logged.
func (p *pipeline) anchor(ctx context.Context, signer wallet.Signer, res *UploadResult) {
	receipt, err := p.Anchorer.Anchor(ctx, signer, ledger.UploadMemo(res.StorageID))
	if err != nil {
		res.AnchorErr = err
		p.Logger.Warn(ctx, "anchor failed", "storage_id", res.StorageID, "error", err)
		p.Events.Publish(ctx, models.Event{
			Kind:      models.EventAnchorFailed,
			Address:   signer.Address(),
			StorageID: res.StorageID,
			Detail:    err.Error(),
		})
		return
	}

	res.Anchor = receipt
	if err := p.Metadata.SetJSON(ctx, metadata.KeyLastAnchor, receipt); err != nil {
		p.Logger.Warn(ctx, "failed to remember anchor", "error", err)
	}
	p.Events.Publish(ctx, models.Event{
		Kind:      models.EventAnchorSucceeded,
		Address:   signer.Address(),
		StorageID: res.StorageID,
		Detail:    receipt.Signature,
	})
}

func (p *pipeline) SubmitForm(ctx context.Context, name string, form any) (*UploadResult, error) {
	if _, err := p.Wallet.Signer(); err != nil {
		return nil, err
	}
	b, err := json.Marshal(form)
	if err != nil {
		return nil, fmt.Errorf("%w: form: %v", common.ErrorValidation, err)
	}
	return p.Upload(ctx, UploadRequest{Name: name + ".json", ContentType: mimex.JSON, Data: b})
}

func (p *pipeline) Retrieve(ctx context.Context, rec *models.UploadRecord) (*Retrieved, error) {
	out, err := p.retrieve(ctx, rec.StorageID, rec.ContentType, func(ctx context.Context) (cryptox.Material, error) {
		if m, ok := p.Wallet.material(rec.StorageID); ok {
			return m, nil
		}
		key, err := p.Wallet.UnwrapKey(ctx, rec.Owner, rec.WrappedKey)
		if err != nil {
			return cryptox.Material{}, err
		}
		return cryptox.Material{IV: rec.IV, Key: key}, nil
	})
	if err != nil {
		return nil, err
	}
	out.Record = rec
	return out, nil
}

// RetrieveByID looks the record up locally. An object uploaded in this
// session can also be opened from its cached material.
func (p *pipeline) RetrieveByID(ctx context.Context, storageID string) (*Retrieved, error) {
	rec, err := p.Uploads.GetByID(ctx, storageID)
	if err == nil {
		return p.Retrieve(ctx, rec)
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	m, ok := p.Wallet.material(storageID)
	if !ok {
		return nil, fmt.Errorf("no key for %s: %w", storageID, common.ErrorNotFound)
	}
	return p.retrieve(ctx, storageID, "", func(context.Context) (cryptox.Material, error) { return m, nil })
}

func (p *pipeline) retrieve(ctx context.Context, storageID, recorded string, material func(context.Context) (cryptox.Material, error)) (*Retrieved, error) {
	address, _ := p.Address()
	fail := func(err error) (*Retrieved, error) {
		p.Events.Publish(ctx, models.Event{Kind: models.EventRetrieveFailed, Address: address, StorageID: storageID, Detail: err.Error()})
		return nil, err
	}

	m, err := material(ctx)
	if err != nil {
		if errors.Is(err, common.ErrWalletNotConnected) || errors.Is(err, ErrNotOwner) {
			return fail(err)
		}
		return fail(&StageError{Stage: StageDecrypt, StorageID: storageID, Err: err})
	}

	obj, err := p.Gateway.Fetch(ctx, storageID)
	if err != nil {
		return fail(&StageError{Stage: StageFetch, StorageID: storageID, Err: err})
	}

	plaintext, err := cryptox.Decrypt(obj.Data, m)
	if err != nil {
		return fail(&StageError{Stage: StageDecrypt, StorageID: storageID, Err: err})
	}

	if recorded == "" && mimex.Normalize(obj.ContentType) != mimex.OctetStream {
		recorded = obj.ContentType
	}
	ct := mimex.Resolve(recorded, plaintext)

	p.Events.Publish(ctx, models.Event{Kind: models.EventRetrieveSucceeded, Address: address, StorageID: storageID, Detail: ct})
	return &Retrieved{Presentation: mimex.Present(ct, plaintext)}, nil
}

func (p *pipeline) History(ctx context.Context) ([]*models.UploadRecord, error) {
	address, err := p.Address()
	if err != nil {
		return nil, err
	}
	return p.Uploads.ListByOwner(ctx, address)
}
