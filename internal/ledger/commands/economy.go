package commands

import (
	"fmt"
	"strings"
	"time"

	"leafgame/internal/ledger"
	"leafgame/internal/ledger/model"
	"leafgame/internal/metrics"
	"leafgame/internal/protocol"
)

// day maps t's calendar date to UTC midnight so date gaps are whole days even
// across a DST change in t's zone.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SignIn grants gold once per calendar day, scaled by the days since the last sign-in.
func (h *Handler) SignIn(a protocol.Actor) Result {
	_, acc := h.store.Resolve(ref(a))
	now := h.Now()
	days := 1
	if !acc.SignDate.IsZero() {
		days = int(day(now).Sub(day(acc.SignDate.In(now.Location()))) / (24 * time.Hour))
	}
	if days <= 0 {
		return failResult(protocol.ErrCooldown, "you already signed in today")
	}
	n := h.tuning.SignGold.Roll(h.rng) * days
	if err := h.cat.Gold().Deal(acc.Bank, n); err != nil {
		return errResult(err)
	}
	acc.SignDate = now
	return okResult(fmt.Sprintf("good luck! you got %d gold", n), map[string]int{"gold": n, "days": days})
}

// ClaimResetBonus pays the one-off bonus that each community reset re-arms.
func (h *Handler) ClaimResetBonus(a protocol.Actor) Result {
	_, acc := h.store.Resolve(ref(a))
	if acc.Revolution {
		return failResult(protocol.ErrCondition, "you have no reset bonus to claim")
	}
	n := h.tuning.RevoltGold.Roll(h.rng)
	if err := h.cat.Gold().Deal(acc.Bank, n); err != nil {
		return errResult(err)
	}
	acc.Revolution = true
	return okResult(fmt.Sprintf("reset bonus claimed: %d gold", n), map[string]int{"gold": n})
}

// amount returns the parsed count, or a random sign-in sized amount when absent.
func (h *Handler) amount(p protocol.ParsedArgs) int {
	if p.HasN && p.N != 0 {
		return p.N
	}
	return h.tuning.SignGold.Roll(h.rng)
}

type giftReport struct {
	Item string `json:"item"`
	From string `json:"from"`
	To   string `json:"to"`
	N    int    `json:"n"`
	Tax  int    `json:"tax"`
}

// gift moves n of it from the actor to the mentioned member. A negative n takes
// from the mentioned member instead and needs privileged permission.
func (h *Handler) gift(a protocol.Actor, it model.Transactable, n int, rate float64) Result {
	to, _ := a.Mentioned()
	if to == a.UserID {
		return failResult(protocol.ErrBadRequest, "you cannot gift yourself")
	}
	sender, _ := h.store.Resolve(ref(a))
	recv, g, _ := h.store.LocateAccount(to, a.GroupID)

	out, in := sender, recv
	who := "you"
	if n < 0 {
		if a.Permission < h.tuning.PrivilegedPermission {
			return errResult(fmt.Errorf("%w: negative gifts need permission %d", ledger.ErrPermissionDenied, h.tuning.PrivilegedPermission))
		}
		out, in = in, out
		n = -n
		who = "they"
	}

	tax := 0
	waived := out.Holding(a.GroupID, h.cat.VIPCard()) > 0
	if !waived {
		tax = int(float64(n) * rate)
	}
	if err := out.Deal(a.GroupID, it, -n); err != nil {
		have, _ := ledger.Shortfall(err)
		r := errResult(err)
		r.Text = fmt.Sprintf("not enough %s: %s only have %d", it.DisplayName(), who, have)
		return r
	}
	if err := in.Deal(a.GroupID, it, n-tax); err != nil {
		return errResult(err)
	}
	if tax > 0 {
		if err := it.Deal(g.Bank, tax); err != nil {
			return errResult(err)
		}
	}
	rep := giftReport{Item: it.ItemID(), From: out.ID, To: in.ID, N: n, Tax: tax}
	text := fmt.Sprintf("%s gave %s %d %s", out.Nickname(a.GroupID), in.Nickname(a.GroupID), n, it.DisplayName())
	if waived {
		text += fmt.Sprintf(" (%s waives the tax)", h.cat.VIPCard().Name)
	} else {
		text += fmt.Sprintf(" (tax %d, %d received)", tax, n-tax)
	}
	return okResult(text, rep)
}

func (h *Handler) GiftGold(a protocol.Actor) Result {
	var p protocol.ParsedArgs
	p.N, p.HasN = protocol.ArgsCount(a.Args)
	return h.gift(a, h.cat.Gold(), h.amount(p), h.tuning.GoldGiftTax)
}

func (h *Handler) GiftProp(a protocol.Actor) Result {
	p := protocol.ArgsParse(a.Args)
	if p.Name == "" {
		return failResult(protocol.ErrBadRequest, "usage: gift_prop <item> [count] @member")
	}
	prop, ok := h.cat.Search(p.Name)
	if !ok {
		return errResult(fmt.Errorf("%w: no item called %s", ledger.ErrNotFound, p.Name))
	}
	rate := h.tuning.PropGiftTax
	if prop.ID == h.cat.Roles.Gold {
		rate = h.tuning.GoldGiftTax
	}
	return h.gift(a, prop, h.amount(p), rate)
}

func (h *Handler) TransferGold(a protocol.Actor) Result {
	p := protocol.ArgsParse(a.Args)
	if p.Name == "" || !p.HasN {
		return failResult(protocol.ErrBadRequest, "usage: transfer_gold <community> <amount>")
	}
	h.store.Resolve(ref(a))
	res, err := h.market.Transfer(a.UserID, a.GroupID, p.Name, p.N)
	if err != nil {
		return errResult(err)
	}
	metrics.RecordTransfer(res.Out, res.In)
	from, _ := h.store.Lookup(res.From)
	to, _ := h.store.Lookup(res.To)
	text := fmt.Sprintf("%s -> %s: moved %d gold, rate %.2f, received %d", from.Name(), to.Name(), res.Out, res.Rate, res.In)
	if res.Clipped {
		text += " (clipped by the daily quota)"
	}
	return okResult(text, res)
}

type vaultView struct {
	Bank   model.Bank `json:"bank"`
	Invest model.Bank `json:"invest"`
}

// Vault shows the community bank, or moves items or shares between a member and it.
func (h *Handler) Vault(a protocol.Actor) Result {
	op := ""
	if len(a.Args) > 0 {
		op = strings.ToLower(strings.TrimSpace(a.Args[0]))
	}
	g := h.store.LocateGroup(a.GroupID)
	if op == "" || op == "view" {
		return okResult(fmt.Sprintf("%s vault: %d item kinds, %d share kinds", g.Name(), len(g.Bank), len(g.Invest)),
			vaultView{Bank: g.Bank.Clone(), Invest: g.Invest.Clone()})
	}
	p := protocol.ArgsParse(a.Args[1:])
	if p.Name == "" {
		return failResult(protocol.ErrBadRequest, "usage: vault deposit|withdraw <item|share> [count]")
	}
	name, n := p.Name, 1
	if p.HasN {
		n = p.N
	}
	if n <= 0 {
		return failResult(protocol.ErrBadRequest, "count must be positive")
	}

	u, acc := h.store.Resolve(ref(a))
	var it model.Transactable
	var userBank, groupBank model.Bank
	if prop, ok := h.cat.Search(name); ok {
		it, userBank, groupBank = prop, u.LocateBank(a.GroupID, prop.Domain()), g.Bank
	} else if st, ok := h.store.StockSearch(name); ok {
		it, userBank, groupBank = st, acc.Invest, g.Invest
	} else {
		return errResult(fmt.Errorf("%w: no item or share called %s", ledger.ErrNotFound, name))
	}

	from, to, who := userBank, groupBank, "you"
	switch op {
	case "deposit":
	case "withdraw":
		if a.Permission < h.tuning.AdminPermission {
			return failResult(protocol.ErrNoPermission, "only community admins can withdraw")
		}
		from, to, who = groupBank, userBank, "the vault"
	default:
		return failResult(protocol.ErrBadRequest, "unknown vault operation %s", op)
	}
	if err := it.Deal(from, -n); err != nil {
		have, _ := ledger.Shortfall(err)
		r := errResult(err)
		r.Text = fmt.Sprintf("%s failed: %s only has %d %s", op, who, have, it.DisplayName())
		return r
	}
	if err := it.Deal(to, n); err != nil {
		return errResult(err)
	}
	return okResult(fmt.Sprintf("%s %d %s", op, n, it.DisplayName()), map[string]any{"op": op, "item": it.ItemID(), "n": n})
}

// GrantGold adds (or with a negative count removes) gold for the caller.
func (h *Handler) GrantGold(a protocol.Actor) Result {
	n, ok := a.ArgInt(0)
	if !ok || n == 0 {
		return failResult(protocol.ErrBadRequest, "usage: grant_gold <amount>")
	}
	if r, ok := h.detached(a); ok {
		return r
	}
	u, _ := h.store.Resolve(ref(a))
	if err := u.Deal(a.GroupID, h.cat.Gold(), n); err != nil {
		return errResult(err)
	}
	return okResult(fmt.Sprintf("you got %d gold", n), map[string]int{"gold": n})
}

func (h *Handler) GrantProp(a protocol.Actor) Result {
	p := protocol.ArgsParse(a.Args)
	if p.Name == "" || !p.HasN || p.N == 0 {
		return failResult(protocol.ErrBadRequest, "usage: grant_prop <item> <count>")
	}
	prop, ok := h.cat.Search(p.Name)
	if !ok {
		return errResult(fmt.Errorf("%w: no item called %s", ledger.ErrNotFound, p.Name))
	}
	if r, ok := h.detached(a); ok {
		return r
	}
	u, _ := h.store.Resolve(ref(a))
	if err := u.Deal(a.GroupID, prop, p.N); err != nil {
		return errResult(err)
	}
	return okResult(fmt.Sprintf("you got %d %s", p.N, prop.Name), map[string]any{"item": prop.ID, "n": p.N})
}
