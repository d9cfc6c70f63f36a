package rank

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRank(t *testing.T) {
	balances := map[string]float64{"a": 50, "b": 0, "c": 120}
	score := func(id string) float64 { return balances[id] }

	got := Rank([]string{"a", "b", "c"}, score, true)
	require.Equal(t, []Entry[string]{{"c", 120}, {"a", 50}}, got)

	got = Rank([]string{"a", "b", "c"}, score, false)
	require.Equal(t, []Entry[string]{{"a", 50}, {"c", 120}}, got)
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	score := func(id int) float64 { return 1 }
	got := Rank([]int{3, 1, 2}, score, true)
	require.Equal(t, []int{3, 1, 2}, []int{got[0].ID, got[1].ID, got[2].ID})
	require.Len(t, Top(got, 2), 2)
	require.Len(t, Top(got, 10), 3)
	require.Empty(t, Rank(nil, score, true))
}
