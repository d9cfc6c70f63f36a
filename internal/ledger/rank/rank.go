// Package rank orders ids by a score.
package rank

import "sort"

type Entry[K comparable] struct {
	ID    K       `json:"id"`
	Score float64 `json:"score"`
}

// Rank scores every id, drops zero scores and sorts stably by score.
func Rank[K comparable](ids []K, score func(K) float64, descending bool) []Entry[K] {
	out := make([]Entry[K], 0, len(ids))
	for _, id := range ids {
		if s := score(id); s != 0 {
			out = append(out, Entry[K]{ID: id, Score: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return out[i].Score > out[j].Score
		}
		return out[i].Score < out[j].Score
	})
	return out
}

// Top returns at most n leading entries.
func Top[K comparable](entries []Entry[K], n int) []Entry[K] {
	if n >= 0 && len(entries) > n {
		return entries[:n]
	}
	return entries
}
