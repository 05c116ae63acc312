// Package models defines client-side data models used by the HealthKey CLI.
package models

import "time"

// WrappedKey is an object key sealed under a wallet-derived key-encryption
// key. Salt feeds the HKDF derivation, Nonce the AES-GCM wrap.
type WrappedKey struct {
	Salt       []byte
	Nonce      []byte
	Ciphertext []byte
}

// UploadRecord is the client's durable receipt for a stored object. It is
// written once, after the gateway returned a storage id, and never updated.
type UploadRecord struct {
	// StorageID is the gateway-assigned id used for retrieval.
	StorageID string
	// Owner is the base58 address of the wallet that paid for the upload.
	Owner string

	// ContentType is the normalized MIME type of the plaintext.
	ContentType  string
	OriginalName string
	// Size is the plaintext length in bytes.
	Size int64

	// IV is the AES-GCM nonce of the object ciphertext.
	IV         []byte
	WrappedKey WrappedKey

	CreatedAt time.Time
}
