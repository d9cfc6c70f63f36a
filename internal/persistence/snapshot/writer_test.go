package snapshot

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"leafgame/internal/ledger/model"
)

func TestWriter_WritesPrunesAndNotifies(t *testing.T) {
	dir := t.TempDir()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	w := NewWriter(dir, 2, logger)
	var written []string
	w.OnWritten(func(path string, h Header) { written = append(written, path) })
	w.Start()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		e, err := Encode(model.NewLedger(), base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		w.Sink() <- e
	}
	w.Close()

	require.Len(t, written, 3)
	all, err := List(dir)
	require.NoError(t, err)
	require.Equal(t, written[1:], all)
}
