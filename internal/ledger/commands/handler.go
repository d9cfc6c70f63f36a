// Package commands turns chat commands into ledger operations.
package commands

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"leafgame/internal/ledger"
	"leafgame/internal/ledger/catalog"
	"leafgame/internal/ledger/gacha"
	"leafgame/internal/ledger/market"
	"leafgame/internal/ledger/store"
	"leafgame/internal/ledger/tuning"
	"leafgame/internal/metrics"
	"leafgame/internal/protocol"
)

// Result is what a command reports back to the chat adapter.
type Result struct {
	OK   bool   `json:"ok"`
	Code string `json:"code,omitempty"`
	Text string `json:"text,omitempty"`
	Data any    `json:"data,omitempty"`
}

func okResult(text string, data any) Result { return Result{OK: true, Text: text, Data: data} }

func failResult(code, format string, args ...any) Result {
	return Result{Code: code, Text: fmt.Sprintf(format, args...)}
}

// errResult maps an engine error onto a protocol code.
func errResult(err error) Result {
	r := Result{Text: err.Error()}
	switch {
	case errors.Is(err, ledger.ErrInsufficientBalance):
		r.Code = protocol.ErrInsufficient
		if have, ok := ledger.Shortfall(err); ok {
			r.Data = map[string]int{"have": have}
		}
	case errors.Is(err, ledger.ErrNotFound):
		r.Code = protocol.ErrNotFound
	case errors.Is(err, ledger.ErrPermissionDenied):
		r.Code = protocol.ErrNoPermission
	case errors.Is(err, ledger.ErrInvalidName):
		r.Code = protocol.ErrInvalidName
	case errors.Is(err, ledger.ErrRegistrationRejected):
		r.Code = protocol.ErrRejected
	case errors.Is(err, ledger.ErrQuotaExhausted):
		r.Code = protocol.ErrQuota
	case errors.Is(err, ledger.ErrCooldown):
		r.Code = protocol.ErrCooldown
	case errors.Is(err, ledger.ErrConditionUnmet):
		r.Code = protocol.ErrCondition
	case errors.Is(err, ledger.ErrInvalidArgument):
		r.Code = protocol.ErrBadRequest
	default:
		r.Code = protocol.ErrInternal
	}
	return r
}

// gate lists the preconditions a command needs before it runs.
type gate struct {
	group     bool
	toMe      bool
	at        bool
	admin     bool
	superuser bool
}

type route struct {
	name string
	gate gate
	fn   func(protocol.Actor) Result
}

type Handler struct {
	store  *store.Store
	market *market.Engine
	gacha  *gacha.Engine
	cat    *catalog.Catalog
	tuning tuning.Tuning
	rng    *rand.Rand

	// Now is the clock; tests replace it.
	Now func() time.Time

	routes map[string]route
}

func New(s *store.Store, m *market.Engine, g *gacha.Engine, cat *catalog.Catalog, t tuning.Tuning, rng *rand.Rand) *Handler {
	h := &Handler{store: s, market: m, gacha: g, cat: cat, tuning: t, rng: rng, Now: time.Now}
	h.routes = map[string]route{}
	add := func(name string, g gate, fn func(protocol.Actor) Result, aliases ...string) {
		r := route{name: name, gate: g, fn: fn}
		h.routes[name] = r
		for _, a := range aliases {
			h.routes[a] = r
		}
	}
	add("sign_in", gate{group: true}, h.SignIn, "checkin")
	add("claim_reset_bonus", gate{group: true}, h.ClaimResetBonus)
	add("revolt", gate{group: true}, h.Revolt)
	add("gift_gold", gate{group: true, at: true}, h.GiftGold, "red_pack")
	add("gift_prop", gate{group: true, at: true}, h.GiftProp)
	add("transfer_gold", gate{group: true}, h.TransferGold)
	add("vault", gate{group: true}, h.Vault)
	add("draw", gate{toMe: true}, h.Draw)
	add("register", gate{group: true, toMe: true, admin: true}, h.Register)
	add("my_gold", gate{}, h.MyGold)
	add("my_items", gate{}, h.MyItems)
	add("my_assets", gate{}, h.MyAssets)
	add("ranking", gate{}, h.Ranking)
	add("grant_gold", gate{superuser: true}, h.GrantGold)
	add("grant_prop", gate{superuser: true}, h.GrantProp)
	return h
}

// Commands lists the canonical command names.
func (h *Handler) Commands() []string {
	seen := map[string]bool{}
	for _, r := range h.routes {
		seen[r.name] = true
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dispatch runs command for a. Unknown commands report handled=false and
// the caller should stay silent.
func (h *Handler) Dispatch(command string, a protocol.Actor) (res Result, handled bool) {
	r, ok := h.routes[command]
	if !ok {
		return Result{Code: protocol.ErrUnknownCommand}, false
	}
	start := time.Now()
	defer func() { metrics.RecordCommand(r.name, res.Code, time.Since(start)) }()
	if res, ok := h.check(r.gate, a); !ok {
		return res, true
	}
	return r.fn(a), true
}

func (h *Handler) check(g gate, a protocol.Actor) (Result, bool) {
	switch {
	case g.group && a.Private():
		return failResult(protocol.ErrBadRequest, "this command only works inside a community"), false
	case g.toMe && !a.ToMe:
		return failResult(protocol.ErrBadRequest, "mention the bot to use this command"), false
	case g.at && len(a.At) != 1:
		return failResult(protocol.ErrBadRequest, "mention exactly one recipient"), false
	case g.superuser && a.Permission < h.tuning.SuperuserPermission:
		return failResult(protocol.ErrNoPermission, "superuser only"), false
	case g.admin && a.Permission < h.tuning.AdminPermission:
		return failResult(protocol.ErrNoPermission, "community admins only"), false
	}
	return Result{}, true
}

func ref(a protocol.Actor) store.ActorRef {
	return store.ActorRef{UserID: a.UserID, GroupID: a.GroupID, Name: a.Nickname, Avatar: a.Avatar}
}

// detached reports a private request from a user with no connected community,
// which has no account to charge or credit.
func (h *Handler) detached(a protocol.Actor) (Result, bool) {
	if !a.Private() {
		return Result{}, false
	}
	if u, ok := h.store.User(a.UserID); ok && u.Connect != "" {
		return Result{}, false
	}
	return failResult(protocol.ErrCondition, "join a community first"), true
}
