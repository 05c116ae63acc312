// Package client contains client-side building blocks for HealthKey.
//
// # Overview
//
// The package provides:
//  1. The storage gateway contract (see Gateway and Session): challenge
//     based sessions, price, fund, upload and public retrieval.
//  2. A concrete HTTP implementation (see HTTPGateway) that signs session
//     challenges with the connected wallet, injects the session token,
//     transparently re-opens expired sessions, retries transient failures
//     and maps HTTP status codes to sentinel errors.
//  3. Local persistence bootstrap utilities (InitDatabase, RunMigrations) for
//     the CLI, wiring an SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrNotFound and
// common.ErrInsufficientFunds. The underlying *netx.StatusError stays in the
// chain.
//
// Concurrency & Contexts
//
// HTTPGateway is safe for concurrent use. A Session serializes token
// refreshes internally, but callers should not interleave two paid upload
// flows on one session. All operations accept context.Context and honor
// cancellation.
package client
