package store

import "leafgame/internal/ledger/model"

// ActorRef identifies who issued a command and from where.
// An empty GroupID means a private context.
type ActorRef struct {
	UserID  string
	GroupID string
	Name    string
	Avatar  string
}

func (r ActorRef) Private() bool { return r.GroupID == "" }

// Resolve returns the actor's user and the account the command operates on.
//
// In a private context the display name is refreshed and the account of the
// connected community is returned. In a community context the global name is
// first-write-wins, the actor joins the namelist, the community becomes the
// connected one and the per-community nickname is always refreshed.
func (s *Store) Resolve(ref ActorRef) (*model.User, *model.Account) {
	u := s.LocateUser(ref.UserID)
	if ref.Avatar != "" {
		u.Avatar = ref.Avatar
	}
	if ref.Private() {
		if ref.Name != "" {
			u.Name = ref.Name
		}
		return u, u.Connecting("")
	}
	if u.Name == "" {
		u.Name = ref.Name
	}
	_, _, acc := s.LocateAccount(ref.UserID, ref.GroupID)
	u.Connect = ref.GroupID
	if ref.Name != "" {
		acc.Nickname = ref.Name
	}
	return u, acc
}
