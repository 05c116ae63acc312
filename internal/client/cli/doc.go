// Package cli provides the interactive HealthKey command-line client.
//
// It wires configuration, the local database, the gateway and ledger clients
// and the vault pipeline, and runs a REPL over them. A session starts with
// "connect", which unlocks (or creates) the wallet keyfile; uploads are then
// encrypted, paid for and stored, and "get" decrypts and shows them again.
// Binary results are written to a single temporary file that is replaced on
// the next retrieval and removed on exit.
package cli
