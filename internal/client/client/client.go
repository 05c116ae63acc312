package client

import (
	"context"

	"github.com/dmitrijs2005/healthkey/internal/wallet"
)

// Tag is a name/value pair stored alongside an uploaded object.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Balance is the signer's position at the gateway: wallet currency that can
// still be moved in, and credit available for uploads.
type Balance struct {
	Wallet int64 `json:"wallet"`
	Credit int64 `json:"credit"`
}

// Object is a fetched stored object.
type Object struct {
	Data        []byte
	ContentType string
}

// Gateway is the storage gateway contract used by the pipeline.
type Gateway interface {
	// OpenSession authenticates signer and returns a session scoped to it.
	OpenSession(ctx context.Context, signer wallet.Signer) (Session, error)
	// Fetch downloads an object from the public retrieval endpoint.
	Fetch(ctx context.Context, id string) (*Object, error)
}

// Session is an authenticated gateway session. Price, Fund and Upload are
// the paid upload flow.
type Session interface {
	Address() string
	Price(ctx context.Context, size int) (int64, error)
	Fund(ctx context.Context, amount int64) error
	Upload(ctx context.Context, data []byte, tags []Tag) (string, error)
	Balance(ctx context.Context) (*Balance, error)
}
