package model

import "time"

// Account is a user's presence inside one community.
type Account struct {
	Nickname string    `json:"nickname,omitempty"`
	SignDate time.Time `json:"sign_date"`

	// Revolution is set once the reset bonus has been claimed; a community reset re-arms it.
	Revolution bool `json:"revolution"`
	Bank       Bank `json:"bank"`
	Invest     Bank `json:"invest"`
}

func NewAccount(nickname string) *Account {
	return &Account{Nickname: nickname, Bank: Bank{}, Invest: Bank{}}
}

func (a *Account) normalize() {
	if a.Bank == nil {
		a.Bank = Bank{}
	}
	if a.Invest == nil {
		a.Invest = Bank{}
	}
}
