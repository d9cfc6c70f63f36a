// Package market implements share registration, community resets and
// cross-community gold exchange.
package market

import (
	"fmt"
	"math"
	"time"

	"leafgame/internal/ledger"
	"leafgame/internal/ledger/catalog"
	"leafgame/internal/ledger/model"
	"leafgame/internal/ledger/store"
	"leafgame/internal/ledger/tuning"
)

type Engine struct {
	store  *store.Store
	tuning tuning.Tuning
	gold   *model.Prop

	// Now is the clock; tests replace it.
	Now func() time.Time
}

func New(s *store.Store, t tuning.Tuning, cat *catalog.Catalog) *Engine {
	return &Engine{store: s, tuning: t, gold: cat.Gold(), Now: time.Now}
}

// Register lists groupID on the market under name.
func (e *Engine) Register(groupID, name string) (*model.Stock, error) {
	g := e.store.LocateGroup(groupID)
	if g.Registered() {
		return nil, fmt.Errorf("%w: community already listed as %s", ledger.ErrInvalidName, g.Stock.Name)
	}
	if err := NameRule(name); err != nil {
		return nil, err
	}
	if other, ok := e.store.GroupSearch(name); ok {
		return nil, fmt.Errorf("%w: %s is taken by %s", ledger.ErrInvalidName, name, other.ID)
	}

	wealth := e.store.GroupWealth(g, e.gold.ID)
	if wealth < e.tuning.CompanyPublicGold {
		return nil, fmt.Errorf("%w: wealth %d below %d", ledger.ErrRegistrationRejected, wealth, e.tuning.CompanyPublicGold)
	}
	if gini := Gini(e.store.MemberWealths(g, e.gold.ID)); gini > e.tuning.RegisterGiniCeiling {
		return nil, fmt.Errorf("%w: gini %.3f above %.3f", ledger.ErrRegistrationRejected, gini, e.tuning.RegisterGiniCeiling)
	}

	level := 1 + g.ResetCount()
	g.Level = level
	st := g.Stock
	if st == nil {
		st = &model.Stock{ID: g.ID}
	}
	if st.Issuance == 0 {
		st.Issuance = e.tuning.IssuancePerLevel * level
		if err := st.Deal(g.Invest, st.Issuance); err != nil {
			return nil, err
		}
	}
	st.Name = name
	st.Time = e.Now()
	st.Fixed = wealth * level
	st.Floating = wealth * level
	st.Value = wealth * level
	g.Stock = st

	e.store.OnRegistered(g)
	return st, nil
}

type TransferResult struct {
	From    string  `json:"from"`
	To      string  `json:"to"`
	Out     int     `json:"out"`
	In      int     `json:"in"`
	Rate    float64 `json:"rate"`
	Clipped bool    `json:"clipped"`
}

// Transfer moves the actor's gold from their account in srcID to their account
// in the community target resolves to. A negative amount runs the other way.
// Both directions are bounded by the per-pair quota of the community on that side.
func (e *Engine) Transfer(userID, srcID, target string, amount int) (TransferResult, error) {
	if amount == 0 {
		return TransferResult{}, fmt.Errorf("%w: amount must be non-zero", ledger.ErrInvalidArgument)
	}
	dst, ok := e.store.GroupSearch(target)
	if !ok {
		return TransferResult{}, fmt.Errorf("%w: community %s", ledger.ErrNotFound, target)
	}
	src := e.store.LocateGroup(srcID)
	if src.ID == dst.ID {
		return TransferResult{}, fmt.Errorf("%w: source and target are the same community", ledger.ErrInvalidArgument)
	}
	if amount < 0 {
		src, dst = dst, src
		amount = -amount
	}

	limit := e.tuning.DefaultTransferLimit()
	outQ := src.Quota(dst.ID, limit)
	if outQ.Remaining() <= 0 {
		return TransferResult{}, fmt.Errorf("%w: %s -> %s", ledger.ErrQuotaExhausted, src.Name(), dst.Name())
	}
	inQ := dst.Quota(src.ID, limit)
	if inQ.Remaining() <= 0 {
		return TransferResult{}, fmt.Errorf("%w: %s <- %s", ledger.ErrQuotaExhausted, dst.Name(), src.Name())
	}

	res := TransferResult{From: src.ID, To: dst.ID, Rate: float64(src.Level) / float64(dst.Level)}
	out := amount
	if out > outQ.Remaining() {
		out = outQ.Remaining()
		res.Clipped = true
	}
	in := int(math.Floor(res.Rate * float64(out)))
	if in > inQ.Remaining() {
		in = inQ.Remaining()
		out = int(math.Ceil(float64(in) / res.Rate))
		res.Clipped = true
	}
	if in <= 0 {
		return TransferResult{}, fmt.Errorf("%w: %d converts to nothing at rate %.3f", ledger.ErrInvalidArgument, out, res.Rate)
	}

	u := e.store.LocateUser(userID)
	if err := u.Deal(src.ID, e.gold, -out); err != nil {
		return TransferResult{}, err
	}
	e.store.LocateAccount(userID, dst.ID)
	if err := u.Deal(dst.ID, e.gold, in); err != nil {
		return TransferResult{}, err
	}
	outQ.Record += out
	inQ.Record += in

	res.Out, res.In = out, in
	return res, nil
}

// ResetQuotas starts a new quota period for every community pair.
func (e *Engine) ResetQuotas() int {
	n := 0
	for _, g := range e.store.Groups() {
		for _, q := range g.Transfers {
			if q.Record != 0 {
				q.Record = 0
				n++
			}
		}
	}
	return n
}

type RevoltResult struct {
	Richest string  `json:"richest"`
	Gini    float64 `json:"gini"`
	Level   int     `json:"level"`
	Cleared int     `json:"cleared"`
}

// Revolt resets a community whose gold is concentrated enough: members' gold
// is wiped, the richest member is recorded and the community levels up.
func (e *Engine) Revolt(groupID string) (RevoltResult, error) {
	cd := time.Duration(e.tuning.RevoltCDSeconds) * time.Second
	if cd <= 0 {
		return RevoltResult{}, fmt.Errorf("%w: resets are disabled", ledger.ErrConditionUnmet)
	}
	g, ok := e.store.Lookup(groupID)
	if !ok {
		return RevoltResult{}, fmt.Errorf("%w: community %s", ledger.ErrNotFound, groupID)
	}
	now := e.Now()
	if wait := g.LastReset.Add(cd).Sub(now); wait > 0 {
		return RevoltResult{}, fmt.Errorf("%w: %s left", ledger.ErrCooldown, wait.Round(time.Second))
	}

	members := e.store.Members(g)
	wealths := make([]int, len(members))
	richest, top := "", 0
	for i, u := range members {
		wealths[i] = u.Holding(g.ID, e.gold)
		if wealths[i] > top {
			richest, top = u.ID, wealths[i]
		}
	}
	gini := Gini(wealths)
	if richest == "" || gini < e.tuning.RevoltGini {
		return RevoltResult{}, fmt.Errorf("%w: gini %.3f below %.3f", ledger.ErrConditionUnmet, gini, e.tuning.RevoltGini)
	}

	g.RecordReset(richest)
	cleared := 0
	for _, u := range members {
		a := u.Account(g.ID)
		if a == nil {
			continue
		}
		cleared += a.Bank[e.gold.ID]
		delete(a.Bank, e.gold.ID)
		a.Revolution = false
	}
	g.LastReset = now
	g.Level = 1 + g.ResetCount()
	return RevoltResult{Richest: richest, Gini: gini, Level: g.Level, Cleared: cleared}, nil
}
