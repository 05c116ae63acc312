// Package uploads provides the client-side persistence layer for upload
// records.
//
// # Data Model
//
// Each record stores the gateway storage id, the owner address, the
// plaintext content type and size, the object IV and the object key wrapped
// under a wallet-derived key. The plaintext key is never stored. Records are
// immutable: Create refuses to overwrite an existing storage id.
//
// # Concurrency
//
// SQLiteRepository is safe for concurrent use when backed by *sql.DB. When
// using *sql.Tx (DBTX), follow normal transaction scoping rules.
//
// Typical Usage
//
//	repo := uploads.NewSQLiteRepository(db)
//	_ = repo.Create(ctx, rec)
//	list, _ := repo.ListByOwner(ctx, owner)
//	one, _ := repo.GetByID(ctx, id)
package uploads
