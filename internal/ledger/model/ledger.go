package model

// Ledger is the whole persisted state.
type Ledger struct {
	Users  map[string]*User  `json:"user_dict"`
	Groups map[string]*Group `json:"group_dict"`
}

func NewLedger() *Ledger {
	return &Ledger{Users: map[string]*User{}, Groups: map[string]*Group{}}
}

// Normalize fills defaults a decoded document may be missing.
func (l *Ledger) Normalize() {
	if l.Users == nil {
		l.Users = map[string]*User{}
	}
	if l.Groups == nil {
		l.Groups = map[string]*Group{}
	}
	for id, u := range l.Users {
		if u == nil {
			delete(l.Users, id)
			continue
		}
		u.normalize(id)
	}
	for id, g := range l.Groups {
		if g == nil {
			delete(l.Groups, id)
			continue
		}
		g.normalize(id)
	}
}
