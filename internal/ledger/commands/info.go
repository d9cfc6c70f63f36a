package commands

import (
	"fmt"
	"sort"
	"strings"

	"leafgame/internal/ledger"
	"leafgame/internal/ledger/model"
	"leafgame/internal/ledger/rank"
	"leafgame/internal/protocol"
)

const rankingSize = 20

type holding struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	N     int    `json:"n"`
	Value int    `json:"value,omitempty"`
}

func (h *Handler) MyGold(a protocol.Actor) Result {
	gold := h.cat.Gold()
	if a.Private() {
		u, ok := h.store.User(a.UserID)
		if !ok {
			return okResult("you have no accounts yet", nil)
		}
		var lines []string
		var out []holding
		for _, gid := range sortedKeys(u.Accounts) {
			n := u.Accounts[gid].Bank[gold.ID]
			if n == 0 {
				continue
			}
			name := "closed account"
			if g, ok := h.store.Lookup(gid); ok {
				name = g.Name()
			}
			lines = append(lines, fmt.Sprintf("[%s] %d gold", name, n))
			out = append(out, holding{Code: gid, Name: name, N: n})
		}
		if len(lines) > 0 {
			return okResult("your accounts:\n"+strings.Join(lines, "\n"), out)
		}
	}
	_, acc := h.store.Resolve(ref(a))
	n := acc.Bank[gold.ID]
	return okResult(fmt.Sprintf("you have %d gold", n), map[string]int{"gold": n})
}

func (h *Handler) MyItems(a protocol.Actor) Result {
	u, acc := h.store.Resolve(ref(a))
	merged := model.Bank{}
	for code, n := range u.Bank {
		merged[code] += n
	}
	for code, n := range acc.Bank {
		merged[code] += n
	}
	if len(merged) == 0 {
		return okResult("your storage is empty", nil)
	}
	items := make([]holding, 0, len(merged))
	for code, n := range merged {
		name := code
		if p, ok := h.cat.ByCode[code]; ok {
			name = p.Name
		}
		items = append(items, holding{Code: code, Name: name, N: n})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Code[0] != items[j].Code[0] {
			return items[i].Code[0] > items[j].Code[0]
		}
		return items[i].Code < items[j].Code
	})
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = fmt.Sprintf("%s x%d", it.Name, it.N)
	}
	return okResult(strings.Join(lines, "\n"), items)
}

func (h *Handler) MyAssets(a protocol.Actor) Result {
	_, acc := h.store.Resolve(ref(a))
	var out []holding
	total := 0
	for _, code := range sortedKeys(acc.Invest) {
		g, ok := h.store.Lookup(code)
		if !ok || g.Stock == nil {
			continue
		}
		n := acc.Invest[code]
		v := g.Stock.HoldingValue(n)
		total += v
		out = append(out, holding{Code: code, Name: g.Name(), N: n, Value: v})
	}
	if len(out) == 0 {
		return okResult("you hold no shares", nil)
	}
	lines := make([]string, 0, len(out)+1)
	for _, s := range out {
		lines = append(lines, fmt.Sprintf("%s x%d (%d gold)", s.Name, s.N, s.Value))
	}
	lines = append(lines, fmt.Sprintf("total %d gold", total))
	return okResult(strings.Join(lines, "\n"), out)
}

// Ranking kinds.
const (
	RankTotalGold   = "total_gold"
	RankTotalAssets = "total_assets"
	RankGold        = "gold"
	RankAssets      = "assets"
	RankWins        = "wins"
	RankLosses      = "losses"
	RankWinRate     = "win_rate"
	RankResets      = "resets"
)

type rankRow struct {
	UserID string  `json:"user_id"`
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
}

func (h *Handler) Ranking(a protocol.Actor) Result {
	if len(a.Args) == 0 {
		return failResult(protocol.ErrBadRequest, "usage: ranking <kind> [community]")
	}
	kind := a.Args[0]
	target := a.GroupID
	if len(a.Args) > 1 {
		target = a.Args[1]
	}
	if target == "" {
		if u, ok := h.store.User(a.UserID); ok {
			target = u.Connect
		}
	}
	if target == "" {
		return failResult(protocol.ErrBadRequest, "your account is not linked to any community")
	}
	g, ok := h.store.GroupSearch(target)
	if !ok {
		return errResult(fmt.Errorf("%w: community %s", ledger.ErrNotFound, target))
	}
	score, ok := h.scorer(kind, g)
	if !ok {
		return failResult(protocol.ErrBadRequest, "unknown ranking %s", kind)
	}
	entries := rank.Top(rank.Rank(g.Namelist.Sorted(), score, true), rankingSize)
	if len(entries) == 0 {
		return okResult("", nil)
	}
	rows := make([]rankRow, len(entries))
	lines := make([]string, len(entries))
	for i, e := range entries {
		name := e.ID
		if u, ok := h.store.User(e.ID); ok {
			name = u.Nickname(g.ID)
		}
		rows[i] = rankRow{UserID: e.ID, Name: name, Score: e.Score}
		lines[i] = fmt.Sprintf("%d. %s %s", i+1, name, formatScore(kind, e.Score))
	}
	return okResult(fmt.Sprintf("%s %s ranking\n%s", g.Name(), kind, strings.Join(lines, "\n")), rows)
}

func formatScore(kind string, s float64) string {
	if kind == RankWinRate {
		return fmt.Sprintf("%.1f%%", s*100)
	}
	return fmt.Sprintf("%.0f", s)
}

func (h *Handler) scorer(kind string, g *model.Group) (func(string) float64, bool) {
	gold := h.cat.Gold().ID
	withUser := func(f func(u *model.User) float64) func(string) float64 {
		return func(id string) float64 {
			u, ok := h.store.User(id)
			if !ok {
				return 0
			}
			return f(u)
		}
	}
	switch kind {
	case RankTotalGold:
		return withUser(func(u *model.User) float64 {
			total := 0
			for gid, acc := range u.Accounts {
				total += acc.Bank[gold] * h.level(gid)
			}
			return float64(total)
		}), true
	case RankTotalAssets:
		return withUser(func(u *model.User) float64 {
			total := 0
			for gid, acc := range u.Accounts {
				total += acc.Bank[gold]*h.level(gid) + h.investValue(acc.Invest)
			}
			return float64(total)
		}), true
	case RankGold:
		return withUser(func(u *model.User) float64 { return float64(u.Holding(g.ID, h.cat.Gold())) }), true
	case RankAssets:
		return withUser(func(u *model.User) float64 {
			if acc := u.Account(g.ID); acc != nil {
				return float64(h.investValue(acc.Invest))
			}
			return 0
		}), true
	case RankWins:
		return withUser(func(u *model.User) float64 { return float64(u.Win) }), true
	case RankLosses:
		return withUser(func(u *model.User) float64 { return float64(u.Lose) }), true
	case RankWinRate:
		return withUser(func(u *model.User) float64 {
			games := u.Win + u.Lose
			if games < 3 {
				return 0
			}
			return float64(u.Win) / float64(games)
		}), true
	case RankResets:
		return func(id string) float64 { return float64(g.Resets[id]) }, true
	}
	return nil, false
}

func (h *Handler) level(groupID string) int {
	if g, ok := h.store.Lookup(groupID); ok && g.Level > 0 {
		return g.Level
	}
	return 1
}

func (h *Handler) investValue(b model.Bank) int {
	total := 0
	for code, n := range b {
		if g, ok := h.store.Lookup(code); ok && g.Stock != nil {
			total += g.Stock.HoldingValue(n)
		}
	}
	return total
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
