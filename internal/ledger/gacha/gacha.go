// Package gacha draws catalog items by rarity tier.
package gacha

import (
	"math/rand"

	"leafgame/internal/ledger/catalog"
)

// FirstTier is the rarity tier the first probability slice belongs to.
const FirstTier = 3

// Outcome is a single draw. Tier 0 means the draw degraded to air.
type Outcome struct {
	Tier int    `json:"tier"`
	Code string `json:"code"`
}

func (o Outcome) Air() bool { return o.Tier == 0 }

type Engine struct {
	probs []float64
	pools map[int][]string
	air   string
}

func New(probs []float64, cat *catalog.Catalog) *Engine {
	return &Engine{
		probs: append([]float64(nil), probs...),
		pools: cat.Pools,
		air:   cat.Roles.Air,
	}
}

// Draw is a pure function of r.
func (e *Engine) Draw(r *rand.Rand) Outcome {
	v := r.Float64()
	for i, p := range e.probs {
		v -= p
		if v > 0 {
			continue
		}
		tier := FirstTier + i
		pool := e.pools[tier]
		if len(pool) == 0 {
			break
		}
		return Outcome{Tier: tier, Code: pool[r.Intn(len(pool))]}
	}
	return Outcome{Code: e.air}
}

// DrawN draws n times and counts the outcomes by code.
func (e *Engine) DrawN(r *rand.Rand, n int) ([]Outcome, map[string]int) {
	out := make([]Outcome, 0, n)
	counts := map[string]int{}
	for i := 0; i < n; i++ {
		o := e.Draw(r)
		out = append(out, o)
		counts[o.Code]++
	}
	return out, counts
}
