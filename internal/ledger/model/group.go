package model

import (
	"encoding/json"
	"sort"
	"time"
)

// IDSet is a set of identity ids, persisted as a sorted array.
type IDSet map[string]struct{}

func (s IDSet) Add(id string) { s[id] = struct{}{} }

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s IDSet) MarshalJSON() ([]byte, error) { return json.Marshal(s.Sorted()) }

func (s *IDSet) UnmarshalJSON(b []byte) error {
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set.Add(id)
	}
	*s = set
	return nil
}

// TransferQuota bounds gold moved between an ordered pair of communities per period.
type TransferQuota struct {
	Limit  int `json:"limit"`
	Record int `json:"record"`
}

func (q *TransferQuota) Remaining() int { return q.Limit - q.Record }

// Group is a community.
type Group struct {
	ID       string `json:"group_id"`
	Namelist IDSet  `json:"namelist"`
	Stock    *Stock `json:"stock,omitempty"`
	Level    int    `json:"level"`
	Bank     Bank   `json:"bank"`
	Invest   Bank   `json:"invest"`
	Intro    string `json:"intro,omitempty"`

	// Resets counts, per member, how often that member was the richest one
	// when the community was reset.
	Resets    map[string]int `json:"resets,omitempty"`
	LastReset time.Time      `json:"last_reset"`
	// Transfers holds outgoing and incoming quota records keyed by counterparty id.
	Transfers map[string]*TransferQuota `json:"transfers,omitempty"`
}

func NewGroup(id string) *Group {
	return &Group{ID: id, Namelist: IDSet{}, Level: 1, Bank: Bank{}, Invest: Bank{}}
}

// Name is the registered share name, or the raw id for unregistered communities.
func (g *Group) Name() string {
	if g.Stock != nil && g.Stock.Name != "" {
		return g.Stock.Name
	}
	return g.ID
}

func (g *Group) Registered() bool { return g.Stock != nil && g.Stock.Name != "" }

func (g *Group) ResetCount() int {
	n := 0
	for _, c := range g.Resets {
		n += c
	}
	return n
}

func (g *Group) RecordReset(userID string) {
	if g.Resets == nil {
		g.Resets = map[string]int{}
	}
	g.Resets[userID]++
}

// Quota returns the quota record for counterparty, creating it with defaultLimit.
// A zero limit is treated as unset.
func (g *Group) Quota(counterparty string, defaultLimit int) *TransferQuota {
	if g.Transfers == nil {
		g.Transfers = map[string]*TransferQuota{}
	}
	q := g.Transfers[counterparty]
	if q == nil {
		q = &TransferQuota{}
		g.Transfers[counterparty] = q
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	return q
}

func (g *Group) normalize(id string) {
	if g.ID == "" {
		g.ID = id
	}
	if g.Namelist == nil {
		g.Namelist = IDSet{}
	}
	if g.Bank == nil {
		g.Bank = Bank{}
	}
	if g.Invest == nil {
		g.Invest = Bank{}
	}
	if g.Level < 1 {
		g.Level = 1
	}
}
