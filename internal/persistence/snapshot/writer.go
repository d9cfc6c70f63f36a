package snapshot

import (
	"github.com/sirupsen/logrus"

	"leafgame/internal/metrics"
)

// Writer persists encoded snapshots off the ledger goroutine.
type Writer struct {
	dir  string
	keep int
	log  *logrus.Logger

	in        chan Encoded
	done      chan struct{}
	onWritten []func(path string, h Header)
}

// NewWriter keeps the newest keep snapshots in dir (all of them when keep <= 0).
func NewWriter(dir string, keep int, logger *logrus.Logger) *Writer {
	return &Writer{dir: dir, keep: keep, log: logger, in: make(chan Encoded, 2), done: make(chan struct{})}
}

func (w *Writer) Sink() chan<- Encoded { return w.in }

// OnWritten registers f to run after each successful write. Call before Start.
func (w *Writer) OnWritten(f func(path string, h Header)) { w.onWritten = append(w.onWritten, f) }

func (w *Writer) Start() { go w.run() }

// Close drains pending snapshots and waits for the writer to exit.
func (w *Writer) Close() {
	close(w.in)
	<-w.done
}

func (w *Writer) run() {
	defer close(w.done)
	for e := range w.in {
		path := PathFor(w.dir, e.Header.SavedAt)
		err := Write(path, e)
		metrics.RecordSave(err == nil, e.Header.Users, e.Header.Groups)
		if err != nil {
			w.log.Printf("snapshot write: %v", err)
			continue
		}
		if w.keep > 0 {
			if _, err := Prune(w.dir, w.keep); err != nil {
				w.log.Printf("snapshot prune: %v", err)
			}
		}
		w.log.WithFields(logrus.Fields{"path": path, "users": e.Header.Users, "groups": e.Header.Groups}).Info("snapshot saved")
		for _, f := range w.onWritten {
			f(path, e.Header)
		}
	}
}
