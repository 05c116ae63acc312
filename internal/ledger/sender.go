package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/healthkey/internal/logging"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// ErrBlockHeightExceeded means the blockhash expired before the transaction
// was confirmed.
var ErrBlockHeightExceeded = errors.New("block height exceeded: transaction expired before confirmation")

const commitment = rpc.CommitmentConfirmed

// Receipt describes a confirmed transaction.
type Receipt struct {
	Signature            string
	Blockhash            Hash
	LastValidBlockHeight uint64
	Slot                 uint64
}

// TxError is a failed submission or confirmation. Logs come from simulating
// the same transaction after the failure.
type TxError struct {
	Signature string
	Cause     error
	Logs      []string
}

func (e *TxError) Error() string {
	var b strings.Builder
	b.WriteString(e.Cause.Error())
	if len(e.Logs) > 0 {
		b.WriteString("\nlogs:\n  ")
		b.WriteString(strings.Join(e.Logs, "\n  "))
	}
	return b.String()
}

func (e *TxError) Unwrap() error { return e.Cause }

// Sender signs, submits and confirms transactions. It never retries: a
// failed attempt is reported with simulation logs.
type Sender struct {
	rpc          RPC
	pollInterval time.Duration
	logger       logging.Logger
}

func NewSender(rpc RPC, pollInterval time.Duration, logger logging.Logger) *Sender {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Sender{rpc: rpc, pollInterval: pollInterval, logger: logger}
}

// SendAndConfirm builds a transaction from ixs with a blockhash fetched right
// before signing, submits it and waits until it is confirmed or its
// blockhash expires. The first signer pays.
func (s *Sender) SendAndConfirm(ctx context.Context, ixs []Instruction, signers ...Signer) (*Receipt, error) {
	bh, err := s.rpc.GetLatestBlockhash(ctx, commitment)
	if err != nil {
		return nil, fmt.Errorf("latest blockhash: %w", err)
	}
	if bh == nil || bh.Value == nil {
		return nil, errors.New("latest blockhash: empty response")
	}
	blockhash, lastValid := bh.Value.Blockhash, bh.Value.LastValidBlockHeight

	tx, err := NewTransaction(ctx, blockhash, ixs, signers...)
	if err != nil {
		return nil, err
	}

	sig, err := s.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{PreflightCommitment: commitment})
	if err != nil {
		return nil, s.fail(ctx, tx, fmt.Errorf("send transaction: %w", err))
	}

	s.logger.Debug(ctx, "transaction submitted", "signature", sig.String(), "last_valid_block_height", lastValid)

	slot, err := s.confirm(ctx, sig, lastValid)
	if err != nil {
		return nil, s.fail(ctx, tx, err)
	}

	return &Receipt{
		Signature:            sig.String(),
		Blockhash:            blockhash,
		LastValidBlockHeight: lastValid,
		Slot:                 slot,
	}, nil
}

func confirmed(st rpc.ConfirmationStatusType) bool {
	return st == rpc.ConfirmationStatusConfirmed || st == rpc.ConfirmationStatusFinalized
}

func (s *Sender) confirm(ctx context.Context, sig solana.Signature, lastValid uint64) (uint64, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		res, err := s.rpc.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			return 0, fmt.Errorf("signature status: %w", err)
		}
		if res != nil && len(res.Value) > 0 && res.Value[0] != nil {
			st := res.Value[0]
			if st.Err != nil {
				return 0, fmt.Errorf("transaction failed: %v", st.Err)
			}
			if confirmed(st.ConfirmationStatus) {
				return st.Slot, nil
			}
		}

		height, err := s.rpc.GetBlockHeight(ctx, commitment)
		if err != nil {
			return 0, fmt.Errorf("block height: %w", err)
		}
		if height > lastValid {
			return 0, ErrBlockHeightExceeded
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Sender) fail(ctx context.Context, tx *solana.Transaction, cause error) error {
	var sig string
	if len(tx.Signatures) > 0 {
		sig = tx.Signatures[0].String()
	}
	txErr := &TxError{Signature: sig, Cause: cause}

	// ctx may already be done; the simulation is best effort.
	simCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	sim, err := s.rpc.SimulateTransactionWithOpts(simCtx, tx, &rpc.SimulateTransactionOpts{Commitment: commitment})
	if err != nil {
		s.logger.Warn(ctx, "simulation after failure", "signature", sig, "error", err)
		return txErr
	}
	if sim != nil && sim.Value != nil {
		txErr.Logs = sim.Value.Logs
	}
	return txErr
}
