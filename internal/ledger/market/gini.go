package market

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"unicode"

	"leafgame/internal/ledger"
)

const maxNameWidth = 24

// Gini returns the Gini coefficient of ws: one minus twice the area under the
// normalized Lorenz curve, integrated with the trapezoid rule.
func Gini(ws []int) float64 {
	n := len(ws)
	if n == 0 {
		return 0
	}
	sorted := append([]int(nil), ws...)
	sort.Ints(sorted)

	cum := make([]float64, n+1)
	for i, w := range sorted {
		cum[i+1] = cum[i] + float64(w)
	}
	total := cum[n]
	if total == 0 {
		return 0
	}
	dx := 1 / float64(n)
	area := 0.0
	for i := 0; i < n; i++ {
		area += (cum[i] + cum[i+1]) / 2 / total * dx
	}
	return 1 - 2*area
}

// NameWidth counts characters below U+0200 as one column and everything else as two.
func NameWidth(name string) int {
	w := 0
	for _, r := range name {
		if r < 0x200 {
			w++
		} else {
			w += 2
		}
	}
	return w
}

// NameRule validates a candidate share name.
func NameRule(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ledger.ErrInvalidName)
	}
	for _, r := range name {
		if unicode.IsSpace(r) {
			return fmt.Errorf("%w: contains whitespace", ledger.ErrInvalidName)
		}
	}
	if NameWidth(name) > maxNameWidth {
		return fmt.Errorf("%w: longer than %d", ledger.ErrInvalidName, maxNameWidth)
	}
	if _, err := strconv.ParseInt(name, 10, 64); err == nil || errors.Is(err, strconv.ErrRange) {
		return fmt.Errorf("%w: purely numeric", ledger.ErrInvalidName)
	}
	return nil
}
