package model

import (
	"fmt"
	"strconv"
)

// Domain selects the bank an item's balance lives in.
type Domain int

const (
	DomainVoid     Domain = 0
	DomainGroup    Domain = 1
	DomainPersonal Domain = 2
)

type Flow int

const (
	FlowPermanent Flow = 0
	FlowTimed     Flow = 1
)

// Code is the positional decoding of a catalog item code:
// rarity digit, domain digit, flow digit, then the sequence number.
type Code struct {
	Rarity int
	Domain Domain
	Flow   Flow
	Number int
}

func ParseCode(code string) (Code, error) {
	if len(code) < 4 {
		return Code{}, fmt.Errorf("item code %q: too short", code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return Code{}, fmt.Errorf("item code %q: not numeric", code)
		}
	}
	c := Code{
		Rarity: int(code[0] - '0'),
		Domain: Domain(code[1] - '0'),
		Flow:   Flow(code[2] - '0'),
	}
	if c.Rarity < 3 {
		return Code{}, fmt.Errorf("item code %q: rarity %d out of range", code, c.Rarity)
	}
	if c.Domain > DomainPersonal {
		return Code{}, fmt.Errorf("item code %q: domain %d out of range", code, c.Domain)
	}
	if c.Flow > FlowTimed {
		return Code{}, fmt.Errorf("item code %q: flow %d out of range", code, c.Flow)
	}
	n, err := strconv.Atoi(code[3:])
	if err != nil {
		return Code{}, fmt.Errorf("item code %q: %w", code, err)
	}
	c.Number = n
	return c, nil
}

// Transactable is anything whose balance can be moved through a Bank.
type Transactable interface {
	ItemID() string
	DisplayName() string
	Rarity() int
	Domain() Domain
	Flow() Flow
	Deal(b Bank, delta int) error
}

// Prop is a fungible catalog item.
type Prop struct {
	ID    string `json:"code"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Intro string `json:"intro"`
	Tip   string `json:"tip"`

	code Code
}

func NewProp(id, name, color, intro, tip string) (*Prop, error) {
	c, err := ParseCode(id)
	if err != nil {
		return nil, err
	}
	return &Prop{ID: id, Name: name, Color: color, Intro: intro, Tip: tip, code: c}, nil
}

func (p *Prop) ItemID() string      { return p.ID }
func (p *Prop) DisplayName() string { return p.Name }
func (p *Prop) Rarity() int         { return p.code.Rarity }
func (p *Prop) Domain() Domain      { return p.code.Domain }
func (p *Prop) Flow() Flow          { return p.code.Flow }
func (p *Prop) Number() int         { return p.code.Number }

func (p *Prop) Deal(b Bank, delta int) error { return b.Deal(p.ID, delta) }
