package events

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/healthkey/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE events (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  address TEXT NOT NULL DEFAULT '',
  storage_id TEXT NOT NULL DEFAULT '',
  detail TEXT NOT NULL DEFAULT '',
  at TIMESTAMP NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestAppendAndRecent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, r.Append(ctx, &models.Event{
			ID:        fmt.Sprintf("e%d", i),
			Kind:      models.EventUploadSucceeded,
			Address:   "addr",
			StorageID: fmt.Sprintf("id%d", i),
			At:        base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := r.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e2", got[0].ID)
	assert.Equal(t, "e1", got[1].ID)
	assert.Equal(t, models.EventUploadSucceeded, got[0].Kind)
	assert.True(t, base.Add(2*time.Minute).Equal(got[0].At))
}

func TestAppend_DuplicateID(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	e := &models.Event{ID: "same", Kind: models.EventAnchorFailed, At: time.Now()}
	require.NoError(t, r.Append(ctx, e))
	err := r.Append(ctx, e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to append event")
}

func TestRecent_DefaultLimit(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	got, err := r.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
