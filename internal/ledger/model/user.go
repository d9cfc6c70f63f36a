package model

// User is a global identity.
type User struct {
	ID       string              `json:"user_id"`
	Name     string              `json:"name,omitempty"`
	Avatar   string              `json:"avatar_url,omitempty"`
	Win      int                 `json:"win"`
	Lose     int                 `json:"lose"`
	Accounts map[string]*Account `json:"accounts"`

	// Connect is the community used when a request carries none.
	Connect string `json:"connect,omitempty"`
	Bank    Bank   `json:"bank"`
}

func NewUser(id string) *User {
	return &User{ID: id, Accounts: map[string]*Account{}, Bank: Bank{}}
}

// Connecting returns the account for groupID (or the connected community when
// groupID is empty), creating it on first use.
func (u *User) Connecting(groupID string) *Account {
	if groupID == "" {
		groupID = u.Connect
	}
	if a := u.Accounts[groupID]; a != nil {
		return a
	}
	a := NewAccount(u.Name)
	u.Accounts[groupID] = a
	return a
}

// Account returns the existing account for groupID without creating one.
func (u *User) Account(groupID string) *Account {
	if u == nil {
		return nil
	}
	return u.Accounts[groupID]
}

// LocateBank resolves the bank a balance of the given domain lives in:
// personal items in the user's own bank, everything else in the community account.
func (u *User) LocateBank(groupID string, d Domain) Bank {
	if d == DomainPersonal {
		return u.Bank
	}
	return u.Connecting(groupID).Bank
}

func (u *User) Deal(groupID string, it Transactable, delta int) error {
	return it.Deal(u.LocateBank(groupID, it.Domain()), delta)
}

// Holding reads the routed balance of it without creating accounts.
func (u *User) Holding(groupID string, it Transactable) int {
	if it.Domain() == DomainPersonal {
		return u.Bank[it.ItemID()]
	}
	if groupID == "" {
		groupID = u.Connect
	}
	if a := u.Accounts[groupID]; a != nil {
		return a.Bank[it.ItemID()]
	}
	return 0
}

func (u *User) Nickname(groupID string) string {
	if a := u.Accounts[groupID]; a != nil && a.Nickname != "" {
		return a.Nickname
	}
	return u.Name
}

func (u *User) normalize(id string) {
	if u.ID == "" {
		u.ID = id
	}
	if u.Accounts == nil {
		u.Accounts = map[string]*Account{}
	}
	if u.Bank == nil {
		u.Bank = Bank{}
	}
	for k, a := range u.Accounts {
		if a == nil {
			delete(u.Accounts, k)
			continue
		}
		a.normalize()
	}
}
