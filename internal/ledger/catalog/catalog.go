package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"leafgame/internal/ledger/model"
)

// PropsFile is the catalog file name inside the config directory.
const PropsFile = "props.json"

// Roles names the catalog entries the engines treat specially.
type Roles struct {
	Gold    string `json:"gold"`
	Air     string `json:"air"`
	AirPack string `json:"air_pack"`
	VIPCard string `json:"vip_card"`
	License string `json:"license"`
	RedPack string `json:"red_pack"`
}

type fileFormat struct {
	Props []model.Prop        `json:"props"`
	Pools map[string][]string `json:"pools"`
	Roles Roles               `json:"roles"`
}

// Catalog is the immutable prop table loaded at startup.
type Catalog struct {
	ByCode map[string]*model.Prop
	byName map[string]*model.Prop
	Pools  map[int][]string
	Roles  Roles
	Digest string
}

func Load(configDir string) (*Catalog, error) {
	path := filepath.Join(configDir, PropsFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileFormat
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", PropsFile, err)
	}
	c, err := build(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", PropsFile, err)
	}
	sum := sha256.Sum256(raw)
	c.Digest = hex.EncodeToString(sum[:])
	return c, nil
}

func build(f fileFormat) (*Catalog, error) {
	c := &Catalog{
		ByCode: map[string]*model.Prop{},
		byName: map[string]*model.Prop{},
		Pools:  map[int][]string{},
		Roles:  f.Roles,
	}
	for _, def := range f.Props {
		p, err := model.NewProp(def.ID, def.Name, def.Color, def.Intro, def.Tip)
		if err != nil {
			return nil, err
		}
		if _, dup := c.ByCode[p.ID]; dup {
			return nil, fmt.Errorf("duplicate prop code %s", p.ID)
		}
		if _, dup := c.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate prop name %q", p.Name)
		}
		c.ByCode[p.ID] = p
		c.byName[p.Name] = p
	}
	for tierStr, members := range f.Pools {
		tier, err := strconv.Atoi(tierStr)
		if err != nil {
			return nil, fmt.Errorf("pool %q: tier must be numeric", tierStr)
		}
		for _, code := range members {
			p, ok := c.ByCode[code]
			if !ok {
				return nil, fmt.Errorf("pool %d: unknown prop %s", tier, code)
			}
			if p.Rarity() != tier {
				return nil, fmt.Errorf("pool %d: prop %s has rarity %d", tier, code, p.Rarity())
			}
		}
		sorted := append([]string(nil), members...)
		sort.Strings(sorted)
		c.Pools[tier] = sorted
	}
	for role, code := range map[string]string{
		"gold": f.Roles.Gold, "air": f.Roles.Air, "air_pack": f.Roles.AirPack,
		"vip_card": f.Roles.VIPCard, "license": f.Roles.License, "red_pack": f.Roles.RedPack,
	} {
		if _, ok := c.ByCode[code]; !ok {
			return nil, fmt.Errorf("role %s: unknown prop %q", role, code)
		}
	}
	return c, nil
}

// Search resolves a prop by display name first, then by code.
func (c *Catalog) Search(name string) (*model.Prop, bool) {
	if p, ok := c.byName[name]; ok {
		return p, true
	}
	p, ok := c.ByCode[name]
	return p, ok
}

func (c *Catalog) Gold() *model.Prop    { return c.ByCode[c.Roles.Gold] }
func (c *Catalog) Air() *model.Prop     { return c.ByCode[c.Roles.Air] }
func (c *Catalog) AirPack() *model.Prop { return c.ByCode[c.Roles.AirPack] }
func (c *Catalog) VIPCard() *model.Prop { return c.ByCode[c.Roles.VIPCard] }
func (c *Catalog) License() *model.Prop { return c.ByCode[c.Roles.License] }
func (c *Catalog) RedPack() *model.Prop { return c.ByCode[c.Roles.RedPack] }

// Codes returns every prop code in sorted order.
func (c *Catalog) Codes() []string {
	out := make([]string, 0, len(c.ByCode))
	for code := range c.ByCode {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
