// Package loop runs the ledger on a single goroutine. Every mutation of the
// store happens inside Run; other goroutines talk to it through channels.
package loop

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"leafgame/internal/ledger/commands"
	"leafgame/internal/ledger/market"
	"leafgame/internal/ledger/store"
	"leafgame/internal/persistence/snapshot"
	"leafgame/internal/protocol"
)

var ErrStopped = errors.New("ledger loop stopped")

type cmdReq struct {
	msg  protocol.CmdMsg
	resp chan protocol.ResultMsg
}

type saveResp struct {
	header snapshot.Header
	err    error
}

type saveReq struct {
	resp chan saveResp
}

type quotaReq struct {
	resp chan int
}

type Loop struct {
	store   *store.Store
	handler *commands.Handler
	market  *market.Engine
	log     *logrus.Logger

	// Now is the clock; tests replace it.
	Now func() time.Time

	inbox chan cmdReq
	saves chan saveReq
	quota chan quotaReq
	stop  chan struct{}
	done  chan struct{}

	snapshotSink chan<- snapshot.Encoded
	audit        AuditSink
	dirty        bool
}

func New(s *store.Store, h *commands.Handler, m *market.Engine, logger *logrus.Logger) *Loop {
	return &Loop{
		store:   s,
		handler: h,
		market:  m,
		log:     logger,
		Now:     time.Now,
		inbox:   make(chan cmdReq, 256),
		saves:   make(chan saveReq, 4),
		quota:   make(chan quotaReq, 4),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (l *Loop) SetSnapshotSink(ch chan<- snapshot.Encoded) { l.snapshotSink = ch }
func (l *Loop) SetAuditSink(a AuditSink)                   { l.audit = a }

// Submit hands msg to the loop and waits for its result.
// It is safe to call from other goroutines (e.g. websocket readers).
func (l *Loop) Submit(ctx context.Context, msg protocol.CmdMsg) (protocol.ResultMsg, error) {
	resp := make(chan protocol.ResultMsg, 1)
	select {
	case l.inbox <- cmdReq{msg: msg, resp: resp}:
	case <-l.done:
		return protocol.ResultMsg{}, ErrStopped
	case <-ctx.Done():
		return protocol.ResultMsg{}, ctx.Err()
	}
	select {
	case r := <-resp:
		return r, nil
	case <-l.done:
		return protocol.ResultMsg{}, ErrStopped
	case <-ctx.Done():
		return protocol.ResultMsg{}, ctx.Err()
	}
}

// RequestSave asks the loop to encode the ledger and pass it to the snapshot sink.
func (l *Loop) RequestSave(ctx context.Context) (snapshot.Header, error) {
	resp := make(chan saveResp, 1)
	select {
	case l.saves <- saveReq{resp: resp}:
	case <-l.done:
		return snapshot.Header{}, ErrStopped
	case <-ctx.Done():
		return snapshot.Header{}, ctx.Err()
	}
	select {
	case r := <-resp:
		return r.header, r.err
	case <-l.done:
		return snapshot.Header{}, ErrStopped
	case <-ctx.Done():
		return snapshot.Header{}, ctx.Err()
	}
}

// RequestQuotaReset starts a new transfer quota period and reports how many
// records were cleared.
func (l *Loop) RequestQuotaReset(ctx context.Context) (int, error) {
	resp := make(chan int, 1)
	select {
	case l.quota <- quotaReq{resp: resp}:
	case <-l.done:
		return 0, ErrStopped
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case n := <-resp:
		return n, nil
	case <-l.done:
		return 0, ErrStopped
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Run serves requests until ctx is cancelled or Stop is called, then hands a
// final snapshot to the sink.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	var err error
	for err == nil {
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-l.stop:
			err = ErrStopped
		case r := <-l.inbox:
			r.resp <- l.handle(r.msg)
		case r := <-l.saves:
			h, serr := l.save(false)
			r.resp <- saveResp{header: h, err: serr}
		case r := <-l.quota:
			n := l.market.ResetQuotas()
			l.dirty = l.dirty || n > 0
			l.log.WithField("records", n).Info("transfer quotas reset")
			r.resp <- n
		}
	}
	if _, serr := l.save(true); serr != nil {
		l.log.Printf("final snapshot: %v", serr)
	}
	if errors.Is(err, ErrStopped) {
		return nil
	}
	return err
}

func (l *Loop) Stop() { close(l.stop) }

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }

func (l *Loop) handle(msg protocol.CmdMsg) protocol.ResultMsg {
	id := msg.ID
	if id == "" {
		id = uuid.NewString()
	}
	res, handled := l.handler.Dispatch(msg.Command, msg.Actor())
	out := protocol.NewResult(id)
	if !handled {
		out.Code = protocol.ErrUnknownCommand
		return out
	}
	out.OK, out.Code, out.Text = res.OK, res.Code, res.Text
	if res.Data != nil {
		// Marshal here: Data may point into the ledger.
		b, err := json.Marshal(res.Data)
		if err != nil {
			l.log.WithError(err).WithField("command", msg.Command).Warn("encode result data")
		} else {
			out.Data = json.RawMessage(b)
		}
	}
	if res.OK {
		l.dirty = true
	}
	l.writeAudit(AuditEntry{
		ID:      id,
		Time:    l.Now().UTC(),
		Command: msg.Command,
		Actor:   msg.UserID,
		Group:   msg.GroupID,
		Args:    msg.Args,
		OK:      res.OK,
		Code:    res.Code,
		Text:    res.Text,
	})
	return out
}

// save encodes the ledger. final blocks until the sink accepts it; otherwise a
// busy sink is reported as an error.
func (l *Loop) save(final bool) (snapshot.Header, error) {
	if l.snapshotSink == nil {
		return snapshot.Header{}, errors.New("snapshot sink not configured")
	}
	if final && !l.dirty {
		return snapshot.Header{}, nil
	}
	e, err := snapshot.Encode(l.store.Ledger(), l.Now())
	if err != nil {
		return snapshot.Header{}, err
	}
	if final {
		l.snapshotSink <- e
	} else {
		select {
		case l.snapshotSink <- e:
		default:
			return e.Header, errors.New("snapshot sink backpressure")
		}
	}
	l.dirty = false
	return e.Header, nil
}

func (l *Loop) writeAudit(e AuditEntry) {
	if l.audit == nil {
		return
	}
	if err := l.audit.WriteAudit(e); err != nil {
		l.log.WithError(err).Warn("audit write")
	}
}
