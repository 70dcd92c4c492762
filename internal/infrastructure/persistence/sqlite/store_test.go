package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
	"github.com/scrimhub/scrim-lineup/internal/infrastructure/persistence/storetest"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMatchStore(t *testing.T) {
	storetest.RunMatchRecordStore(t, func(t *testing.T) lineup.MatchRecordStore {
		return NewMatchStore(openTestDB(t))
	})
}

func TestLineupRepository(t *testing.T) {
	storetest.RunLineupRepository(t, func(t *testing.T) lineup.LineupRepository {
		return NewLineupRepository(openTestDB(t))
	})
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scrims.db")
	id := shared.PlayerID("0b7e9a52-44c1-4a0e-8d2f-5c6e7f809a1b")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, NewMatchStore(db).CreatePlayer(ctx, lineup.Player{ID: id, DisplayName: "Keria"}))
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	p, err := NewMatchStore(db).GetPlayer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Keria", p.DisplayName)
}

func TestStoreError_ClosedDatabase(t *testing.T) {
	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	err = NewMatchStore(db).CreatePlayer(context.Background(), lineup.Player{ID: "0b7e9a52-44c1-4a0e-8d2f-5c6e7f809a1b"})
	assert.Error(t, err)
	assert.False(t, shared.IsAlreadyExists(err))
}
