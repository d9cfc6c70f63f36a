package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"leafgame/internal/ledger/tuning"
	"leafgame/internal/metrics"
	"leafgame/internal/protocol"
)

// Submitter runs one command against the ledger.
type Submitter interface {
	Submit(ctx context.Context, msg protocol.CmdMsg) (protocol.ResultMsg, error)
}

// Server accepts adapter connections. Each text frame is one CMD and is
// answered with exactly one RESULT carrying the same id.
type Server struct {
	sub    Submitter
	log    *logrus.Logger
	limits tuning.RateLimits

	SubmitTimeout time.Duration

	upgrader websocket.Upgrader
}

func NewServer(sub Submitter, limits tuning.RateLimits, logger *logrus.Logger) *Server {
	return &Server{
		sub:           sub,
		log:           logger,
		limits:        limits,
		SubmitTimeout: 10 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		metrics.ConnOpened()
		defer metrics.ConnClosed()
		entry := s.log.WithField("remote", r.RemoteAddr)
		entry.Info("adapter connected")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		out := make(chan []byte, 16)
		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		lim := rate.NewLimiter(rate.Limit(s.limits.CommandsPerSecond), s.limits.Burst)
		for {
			_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					entry.WithError(err).Debug("read")
				}
				break
			}
			res := s.handleFrame(ctx, lim, msg)
			b, err := json.Marshal(res)
			if err != nil {
				entry.WithError(err).Error("marshal result")
				continue
			}
			select {
			case out <- b:
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				break
			}
		}
		cancel()
		<-writerDone
		entry.Info("adapter disconnected")
	}
}

func (s *Server) handleFrame(ctx context.Context, lim *rate.Limiter, msg []byte) protocol.ResultMsg {
	id := peekID(msg)
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return protocol.ErrorResult(id, protocol.ErrProtoBadRequest, "malformed json")
	}
	if base.Type != protocol.TypeCmd {
		return protocol.ErrorResult(id, protocol.ErrProtoBadRequest, "expected CMD")
	}
	if base.ProtocolVersion != protocol.Version {
		return protocol.ErrorResult(id, protocol.ErrProtoBadRequest, "bad protocol_version")
	}
	if err := protocol.ValidateCmd(msg); err != nil {
		return protocol.ErrorResult(id, protocol.ErrProtoBadRequest, err.Error())
	}
	var cmd protocol.CmdMsg
	if err := json.Unmarshal(msg, &cmd); err != nil {
		return protocol.ErrorResult(id, protocol.ErrProtoBadRequest, err.Error())
	}
	if !lim.Allow() {
		return protocol.ErrorResult(id, protocol.ErrRateLimit, "too many commands")
	}

	sctx, cancel := context.WithTimeout(ctx, s.SubmitTimeout)
	defer cancel()
	res, err := s.sub.Submit(sctx, cmd)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.log.WithError(err).WithField("command", cmd.Command).Warn("submit")
		}
		return protocol.ErrorResult(id, protocol.ErrBusy, "ledger unavailable")
	}
	return res
}

func peekID(msg []byte) string {
	var m struct {
		ID any `json:"id"`
	}
	if json.Unmarshal(msg, &m) != nil {
		return ""
	}
	id, _ := m.ID.(string)
	return id
}
