package commands

import (
	"fmt"
	"sort"

	"leafgame/internal/ledger/model"
	"leafgame/internal/metrics"
	"leafgame/internal/protocol"
)

type drawnItem struct {
	Code string `json:"code"`
	Name string `json:"name"`
	N    int    `json:"n"`
}

type drawReport struct {
	N        int         `json:"n"`
	Cost     int         `json:"cost"`
	Refunded bool        `json:"refunded"`
	PropN    int         `json:"prop_n"`
	PropStar int         `json:"prop_star"`
	AirN     int         `json:"air_n"`
	AirStar  int         `json:"air_star"`
	Items    []drawnItem `json:"items"`
	Missed   []drawnItem `json:"missed,omitempty"`
}

// Draw runs a multi-draw. Void items are reported but not credited; a draw that
// yields only void items is refunded and pays one air pack instead.
func (h *Handler) Draw(a protocol.Actor) Result {
	if r, ok := h.detached(a); ok {
		return r
	}
	n := 1
	if c, ok := protocol.ArgsCount(a.Args); ok {
		n = c
	}
	if n < 1 {
		n = 1
	}
	if n > h.tuning.GachaMaxDraws {
		n = h.tuning.GachaMaxDraws
	}
	cost := n * h.tuning.GachaGold

	u, _ := h.store.Resolve(ref(a))
	gold := h.cat.Gold()
	if err := u.Deal(a.GroupID, gold, -cost); err != nil {
		r := errResult(err)
		r.Text = fmt.Sprintf("%d draws cost %d gold, you have %d", n, cost, u.Holding(a.GroupID, gold))
		return r
	}

	outcomes, counts := h.gacha.DrawN(h.rng, n)
	for _, o := range outcomes {
		metrics.RecordDraw(o.Tier)
	}
	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	rep := drawReport{N: n, Cost: cost}
	for _, code := range codes {
		prop, ok := h.cat.ByCode[code]
		if !ok {
			continue
		}
		k := counts[code]
		item := drawnItem{Code: code, Name: prop.Name, N: k}
		if prop.Domain() == model.DomainVoid {
			rep.AirN += k
			rep.AirStar += prop.Rarity() * k
			rep.Missed = append(rep.Missed, item)
			continue
		}
		if err := u.Deal(a.GroupID, prop, k); err != nil {
			return errResult(err)
		}
		rep.PropN += k
		rep.PropStar += prop.Rarity() * k
		rep.Items = append(rep.Items, item)
	}

	text := fmt.Sprintf("%s drew %d times: %d items, %d air", u.Nickname(a.GroupID), n, rep.PropN, rep.AirN)
	if rep.PropN == 0 {
		if err := u.Deal(a.GroupID, gold, cost); err != nil {
			return errResult(err)
		}
		if err := u.Deal(a.GroupID, h.cat.AirPack(), 1); err != nil {
			return errResult(err)
		}
		rep.Refunded = true
		text += fmt.Sprintf("\nnothing but air, this one is free (%d gold) and comes with an %s", cost, h.cat.AirPack().Name)
	}
	return okResult(text, rep)
}
