// Package metadata is a small key/value store for client state that is not
// an upload record: the last anchor receipt, the profile pointer and the
// address of the connected wallet.
package metadata

import (
	"context"
)

const (
	KeyLastAnchor     = "last_anchor"
	KeyProfilePointer = "profile_pointer"
	KeyLastAddress    = "last_address"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
}
