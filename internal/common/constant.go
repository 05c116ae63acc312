// Package common contains shared constants and sentinel errors used across
// HealthKey components.
package common

// Gateway HTTP header names shared by the storage gateway and its client.
const (
	SessionHeaderName     = "Authorization"
	IdempotencyHeaderName = "Idempotency-Key"
	TagsHeaderName        = "X-Tags"
)

// KeyWrapMessage is signed by the wallet to derive the key-encryption key that
// protects per-object keys at rest. Ed25519 signatures are deterministic, so the
// same wallet always derives the same wrapping secret.
const KeyWrapMessage = "healthkey:key-wrap:v1"

// SessionChallengePrefix is prepended to gateway nonces before signing.
const SessionChallengePrefix = "healthkey-gateway-session:"
