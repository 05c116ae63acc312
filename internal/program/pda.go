package program

import (
	"github.com/dmitrijs2005/healthkey/internal/ledger"
	"github.com/gagliardetto/solana-go"
)

// UserProfileAddress is the profile PDA of authority.
func UserProfileAddress(authority ledger.PublicKey) (ledger.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte("user_profile"), authority[:]}, ID)
}

// VaultAuthorityAddress is the PDA that owns the reward vault.
func VaultAuthorityAddress() (ledger.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte("vault")}, ID)
}

// AssociatedTokenAddress is the canonical token account of owner for mint.
func AssociatedTokenAddress(owner, mint ledger.PublicKey) (ledger.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	return ata, err
}
