// Package store owns the in-memory ledger and the share-name index over it.
package store

import (
	"sort"

	"github.com/patrickmn/go-cache"

	"leafgame/internal/ledger/model"
)

// Store wraps a Ledger. It is not safe for concurrent use; the runtime loop is
// its only writer.
type Store struct {
	ledger *model.Ledger

	// names maps registered share names to community ids. It may lag behind the
	// ledger; GroupSearch rebuilds it once on a miss.
	names    *cache.Cache
	rebuilds int
}

func New(l *model.Ledger) *Store {
	if l == nil {
		l = model.NewLedger()
	}
	l.Normalize()
	s := &Store{ledger: l, names: cache.New(cache.NoExpiration, 0)}
	s.RebuildIndex()
	return s
}

func (s *Store) Ledger() *model.Ledger { return s.ledger }

func (s *Store) LocateUser(id string) *model.User {
	u := s.ledger.Users[id]
	if u == nil {
		u = model.NewUser(id)
		s.ledger.Users[id] = u
	}
	return u
}

func (s *Store) LocateGroup(id string) *model.Group {
	g := s.ledger.Groups[id]
	if g == nil {
		g = model.NewGroup(id)
		s.ledger.Groups[id] = g
	}
	return g
}

// LocateAccount makes userID a member of groupID and returns the records involved.
func (s *Store) LocateAccount(userID, groupID string) (*model.User, *model.Group, *model.Account) {
	u := s.LocateUser(userID)
	g := s.LocateGroup(groupID)
	g.Namelist.Add(userID)
	return u, g, u.Connecting(groupID)
}

// User returns an existing user without creating it.
func (s *Store) User(id string) (*model.User, bool) {
	u, ok := s.ledger.Users[id]
	return u, ok
}

func (s *Store) RebuildIndex() {
	s.names.Flush()
	for id, g := range s.ledger.Groups {
		if g.Registered() {
			s.names.Set(g.Stock.Name, id, cache.NoExpiration)
		}
	}
	s.rebuilds++
}

// Rebuilds reports how many times the name index was rebuilt.
func (s *Store) Rebuilds() int { return s.rebuilds }

// Lookup resolves a raw community id or a share name against the current index.
// A stale index entry is reported as a miss.
func (s *Store) Lookup(name string) (*model.Group, bool) {
	if g, ok := s.ledger.Groups[name]; ok {
		return g, true
	}
	v, ok := s.names.Get(name)
	if !ok {
		return nil, false
	}
	g, ok := s.ledger.Groups[v.(string)]
	if !ok || !g.Registered() || g.Stock.Name != name {
		return nil, false
	}
	return g, true
}

// GroupSearch is Lookup with at most one index rebuild.
func (s *Store) GroupSearch(name string) (*model.Group, bool) {
	if g, ok := s.Lookup(name); ok {
		return g, true
	}
	s.RebuildIndex()
	return s.Lookup(name)
}

func (s *Store) StockSearch(name string) (*model.Stock, bool) {
	g, ok := s.GroupSearch(name)
	if !ok || g.Stock == nil {
		return nil, false
	}
	return g.Stock, true
}

// OnRegistered is called by the market engine after a successful registration.
func (s *Store) OnRegistered(g *model.Group) {
	if g.Registered() {
		s.names.Set(g.Stock.Name, g.ID, cache.NoExpiration)
	}
}

// MemberWealths returns each member's balance of code in the community, ordered by member id.
// It never creates accounts.
func (s *Store) MemberWealths(g *model.Group, code string) []int {
	ids := g.Namelist.Sorted()
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		n := 0
		if u := s.ledger.Users[id]; u != nil {
			if a := u.Account(g.ID); a != nil {
				n = a.Bank[code]
			}
		}
		out = append(out, n)
	}
	return out
}

// GroupWealth is the community's own balance of code plus every member's.
func (s *Store) GroupWealth(g *model.Group, code string) int {
	total := g.Bank[code]
	for _, n := range s.MemberWealths(g, code) {
		total += n
	}
	return total
}

// Members returns the users of a community that exist in the ledger.
func (s *Store) Members(g *model.Group) []*model.User {
	var out []*model.User
	for _, id := range g.Namelist.Sorted() {
		if u := s.ledger.Users[id]; u != nil {
			out = append(out, u)
		}
	}
	return out
}

// Groups returns every community ordered by id.
func (s *Store) Groups() []*model.Group {
	out := make([]*model.Group, 0, len(s.ledger.Groups))
	for _, g := range s.ledger.Groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
