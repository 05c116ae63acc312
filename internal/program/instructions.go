package program

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/healthkey/internal/ledger"
	"github.com/gagliardetto/solana-go"
)

// MaxFieldLength is the space the program reserves for each profile string.
const MaxFieldLength = 100

var (
	ErrInvalidAmount = errors.New("Amount must be greater than zero")
	ErrFieldTooLong  = fmt.Errorf("profile field exceeds %d bytes", MaxFieldLength)
)

func appendString(b []byte, s string) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(len(s)))
	return append(b, s...)
}

func build(name string, accounts map[string]ledger.PublicKey, args []byte) (ledger.Instruction, error) {
	d, err := LoadIDL()
	if err != nil {
		return nil, err
	}
	ix, err := d.Instruction(name)
	if err != nil {
		return nil, err
	}
	metas, err := ix.metas(accounts)
	if err != nil {
		return nil, err
	}

	disc := InstructionDiscriminator(name)
	data := append(disc[:], args...)
	return solana.NewInstruction(ID, metas, data), nil
}

// NewInitializeUserProfileInstruction creates the profile PDA of authority,
// pointing at a stored object and recording a goal.
func NewInitializeUserProfileInstruction(authority ledger.PublicKey, storagePointer, goal string) (ledger.Instruction, error) {
	if len(storagePointer) > MaxFieldLength || len(goal) > MaxFieldLength {
		return nil, ErrFieldTooLong
	}
	profile, _, err := UserProfileAddress(authority)
	if err != nil {
		return nil, err
	}

	args := appendString(nil, storagePointer)
	args = appendString(args, goal)

	return build("initialize_user_profile", map[string]ledger.PublicKey{
		"user_profile":   profile,
		"authority":      authority,
		"system_program": ledger.SystemProgramID,
	}, args)
}

// NewRewardUserInstruction transfers amount reward tokens of mint from the
// program vault to user's associated token account, creating it if needed.
func NewRewardUserInstruction(user, mint ledger.PublicKey, amount uint64) (ledger.Instruction, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}

	vault, _, err := VaultAuthorityAddress()
	if err != nil {
		return nil, err
	}
	userATA, err := AssociatedTokenAddress(user, mint)
	if err != nil {
		return nil, err
	}
	vaultATA, err := AssociatedTokenAddress(vault, mint)
	if err != nil {
		return nil, err
	}

	return build("reward_user", map[string]ledger.PublicKey{
		"vault_authority":          vault,
		"mint":                     mint,
		"user":                     user,
		"user_token_account":       userATA,
		"vault_token_account":      vaultATA,
		"system_program":           ledger.SystemProgramID,
		"associated_token_program": ledger.AssociatedTokenProgramID,
		"token_program":            ledger.TokenProgramID,
	}, binary.LittleEndian.AppendUint64(nil, amount))
}
