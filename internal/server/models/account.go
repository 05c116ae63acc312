// Package models defines the storage gateway's persisted types.
package models

import "time"

// Account holds the two balances of a wallet address: currency still in the
// wallet and credit already moved into the gateway.
type Account struct {
	Address       string    `json:"address"`
	WalletBalance int64     `json:"wallet"`
	CreditBalance int64     `json:"credit"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Funding records one processed fund request, keyed by the client's
// idempotency key.
type Funding struct {
	IdempotencyKey string
	Address        string
	Amount         int64
	CreatedAt      time.Time
}

// Challenge is a one-time nonce a wallet must sign to open a session.
type Challenge struct {
	Address   string
	Nonce     string
	ExpiresAt time.Time
}
