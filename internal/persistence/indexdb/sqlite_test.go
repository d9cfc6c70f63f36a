package indexdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"leafgame/internal/ledger/catalog"
	"leafgame/internal/ledger/loop"
	"leafgame/internal/ledger/tuning"
	"leafgame/internal/persistence/snapshot"
)

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqAudit}

	require.NoError(t, s.WriteAudit(loop.AuditEntry{ID: "x"}))
	s.RecordSnapshot("/tmp/1.snap.zst", snapshot.Header{})

	st := s.Stats()
	require.Equal(t, uint64(1), st.DropAuditTotal)
	require.Equal(t, uint64(1), st.DropSnapshotTotal)
	require.Equal(t, 1, st.QueueDepth)
	require.Equal(t, 1, st.QueueCapacity)
}

func TestSQLiteIndex_AuditsAndSnapshots(t *testing.T) {
	ctx := context.Background()
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.sqlite"))
	require.NoError(t, err)
	defer idx.Close()

	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, idx.WriteAudit(loop.AuditEntry{ID: "a1", Time: base, Command: "sign_in", Actor: "u1", Group: "g1", OK: true, Text: "signed"}))
	require.NoError(t, idx.WriteAudit(loop.AuditEntry{ID: "a2", Time: base.Add(time.Second), Command: "draw", Actor: "u1", Group: "g1", Code: "E_INSUFFICIENT"}))
	require.NoError(t, idx.WriteAudit(loop.AuditEntry{ID: "a3", Time: base.Add(2 * time.Second), Command: "my_gold", Actor: "u2", OK: true}))
	idx.RecordSnapshot("/data/snapshots/ledger-1.snap.zst", snapshot.Header{Version: 1, SavedAt: base, Users: 3, Groups: 1})
	idx.RecordSnapshot("/data/snapshots/ledger-2.snap.zst", snapshot.Header{Version: 1, SavedAt: base.Add(time.Minute), Users: 4, Groups: 2})
	require.NoError(t, idx.Flush(ctx))

	got, err := idx.RecentAudits(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "a2", got[0].ID)
	require.Equal(t, "E_INSUFFICIENT", got[0].Code)
	require.Equal(t, "sign_in", got[1].Command)

	all, err := idx.RecentAudits(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "a3", all[0].ID)

	row, ok, err := idx.LatestSnapshot(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "/data/snapshots/ledger-2.snap.zst", row.Path)
	require.Equal(t, 4, row.Users)
	require.True(t, row.SavedAt.Equal(base.Add(time.Minute)))
}

func TestSQLiteIndex_LatestSnapshotEmpty(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.sqlite"))
	require.NoError(t, err)
	defer idx.Close()

	_, ok, err := idx.LatestSnapshot(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSQLiteIndex_UpsertCatalogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := OpenSQLite(path)
	require.NoError(t, err)

	cat, err := catalog.Load("../../../configs")
	require.NoError(t, err)
	require.NoError(t, idx.UpsertCatalogs("../../../configs", cat, tuning.Defaults()))
	require.NoError(t, idx.Close())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var digest string
	require.NoError(t, db.QueryRow(`SELECT digest FROM catalogs WHERE name = 'props'`).Scan(&digest))
	require.Equal(t, cat.Digest, digest)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM catalogs`).Scan(&n))
	require.Equal(t, 2, n)
}

func TestSQLiteIndex_ClosedIsNoop(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.sqlite"))
	require.NoError(t, err)
	require.NoError(t, idx.Close())
	require.NoError(t, idx.Close())

	require.NoError(t, idx.WriteAudit(loop.AuditEntry{ID: "late"}))
	require.NoError(t, idx.Flush(context.Background()))
	require.Zero(t, idx.Stats().DropAuditTotal)
}
