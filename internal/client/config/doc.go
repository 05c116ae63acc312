// Package config loads runtime configuration for the HealthKey CLI.
//
// Sources, in increasing precedence: built-in defaults, an optional JSON file
// selected with -c or -config, then command-line flags.
//
// Flags
//
//	-g string     storage gateway URL
//	-r string     retrieval URL (defaults to the gateway URL)
//	-n string     ledger JSON-RPC URL
//	-program      on-chain program id
//	-mint         reward token mint
//	-w string     wallet keyfile path
//	-d string     local database path
//	-b string     directory for materialized blobs
//	-anchor bool  write a memo anchor after each upload
//	-p duration   confirmation poll interval
//	-t duration   HTTP request timeout
//
// # JSON schema
//
// Intervals use timex.Duration, so "500ms" and integer nanoseconds both work:
//
//	{
//	  "gateway_url": "http://127.0.0.1:8080",
//	  "rpc_url": "http://127.0.0.1:8899",
//	  "anchor": true,
//	  "confirm_interval": "500ms"
//	}
package config
