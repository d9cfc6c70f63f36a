package model

import "time"

// Stock is a community's tradable share. Its ID is the issuing community id,
// which is also the key share holdings use in investment banks.
type Stock struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Issuance int       `json:"issuance"`
	Time     time.Time `json:"time"`
	Floating int       `json:"floating"`
	Fixed    int       `json:"fixed"`
	Value    int       `json:"stock_value"`
}

func (s *Stock) ItemID() string      { return s.ID }
func (s *Stock) DisplayName() string { return s.Name }
func (s *Stock) Rarity() int         { return 0 }
func (s *Stock) Domain() Domain      { return DomainGroup }
func (s *Stock) Flow() Flow          { return FlowPermanent }

func (s *Stock) Deal(b Bank, delta int) error { return b.Deal(s.ID, delta) }

// UnitValue is the valuation of a single share.
func (s *Stock) UnitValue() float64 {
	if s == nil || s.Issuance <= 0 {
		return 0
	}
	return float64(s.Value) / float64(s.Issuance)
}

// HoldingValue values n shares.
func (s *Stock) HoldingValue(n int) int {
	if s == nil || s.Issuance <= 0 {
		return 0
	}
	return s.Value * n / s.Issuance
}
