package ledger

import (
	"errors"
	"unicode/utf8"

	"github.com/gagliardetto/solana-go/programs/memo"
)

// MaxMemoLength keeps memos well inside the transaction size limit.
const MaxMemoLength = 566

var ErrInvalidMemo = errors.New("memo must be non-empty valid UTF-8 of at most 566 bytes")

// NewMemoInstruction builds a memo program instruction carrying text, signed
// by signer. No value is transferred.
func NewMemoInstruction(text string, signer PublicKey) (Instruction, error) {
	if text == "" || len(text) > MaxMemoLength || !utf8.ValidString(text) {
		return nil, ErrInvalidMemo
	}
	ix, err := memo.NewMemoInstruction([]byte(text), signer).ValidateAndBuild()
	if err != nil {
		return nil, err
	}
	return ix, nil
}

// UploadMemo is the anchor text for a stored object.
func UploadMemo(storageID string) string {
	return "uploaded:" + storageID
}
