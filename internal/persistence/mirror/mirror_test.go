package mirror

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	mu    sync.Mutex
	fails int
	calls int
	keys  []string
}

func (f *fakeUploader) PutFile(_ context.Context, key, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fails > 0 {
		f.fails--
		return errors.New("temporary failure")
	}
	f.keys = append(f.keys, key)
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestMirror_UploadsWithPrefixAndRetries(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "snapshots", "ledger-1.snap.zst")
	writeFile(t, local)

	up := &fakeUploader{fails: 2}
	m := New(up, dir, Options{Prefix: "/prod/", Backoff: time.Millisecond}, quietLogger())
	m.Enqueue(local)
	m.Close()

	require.Equal(t, []string{"prod/snapshots/ledger-1.snap.zst"}, up.keys)
	require.Equal(t, 3, up.calls)
	st := m.Stats()
	require.Equal(t, uint64(1), st.UploadSuccessTotal)
	require.Zero(t, st.UploadFailTotal)
}

func TestMirror_GivesUpAfterAttempts(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "a.snap.zst")
	writeFile(t, local)

	up := &fakeUploader{fails: 10}
	m := New(up, dir, Options{Attempts: 2, Backoff: time.Millisecond}, quietLogger())
	m.Enqueue(local)
	m.Close()

	require.Equal(t, 2, up.calls)
	require.Equal(t, uint64(1), m.Stats().UploadFailTotal)
}

func TestMirror_ObjectKeyRejectsOutsideDataDir(t *testing.T) {
	dir := t.TempDir()
	outside := filepath.Join(t.TempDir(), "x.snap.zst")
	writeFile(t, outside)

	m := New(&fakeUploader{}, dir, Options{}, quietLogger())
	defer m.Close()
	_, err := m.ObjectKey(outside)
	require.Error(t, err)
	_, err = m.ObjectKey(filepath.Join(dir, "missing"))
	require.Error(t, err)
}

func TestMirror_NilIsNoop(t *testing.T) {
	var m *Mirror
	m.Enqueue("x")
	m.Close()
	require.Equal(t, Stats{}, m.Stats())
}

func TestContentType(t *testing.T) {
	require.Equal(t, "application/zstd", contentType("a/b.snap.zst"))
	require.Equal(t, "application/json", contentType("props.json"))
	require.Equal(t, "application/octet-stream", contentType("x"))
}
