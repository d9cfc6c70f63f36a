package tuning

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

// Range is an inclusive [min, max] integer range.
type Range [2]int

// Roll draws uniformly from the range.
func (r Range) Roll(rng *rand.Rand) int {
	if r[1] <= r[0] {
		return r[0]
	}
	return r[0] + rng.Intn(r[1]-r[0]+1)
}

type Tuning struct {
	SignGold        Range   `yaml:"sign_gold" json:"sign_gold"`
	RevoltGold      Range   `yaml:"revolt_gold" json:"revolt_gold"`
	RevoltCDSeconds int     `yaml:"revolt_cd_seconds" json:"revolt_cd_seconds"`
	RevoltGini      float64 `yaml:"revolt_gini" json:"revolt_gini"`

	CompanyPublicGold   int     `yaml:"company_public_gold" json:"company_public_gold"`
	RegisterGiniCeiling float64 `yaml:"register_gini_ceiling" json:"register_gini_ceiling"`
	IssuancePerLevel    int     `yaml:"issuance_per_level" json:"issuance_per_level"`

	GachaGold          int       `yaml:"gacha_gold" json:"gacha_gold"`
	GachaMaxDraws      int       `yaml:"gacha_max_draws" json:"gacha_max_draws"`
	GachaProbabilities []float64 `yaml:"gacha_probabilities" json:"gacha_probabilities"`

	GoldGiftTax float64 `yaml:"gold_gift_tax" json:"gold_gift_tax"`
	PropGiftTax float64 `yaml:"prop_gift_tax" json:"prop_gift_tax"`

	AdminPermission      int `yaml:"admin_permission" json:"admin_permission"`
	PrivilegedPermission int `yaml:"privileged_permission" json:"privileged_permission"`
	SuperuserPermission  int `yaml:"superuser_permission" json:"superuser_permission"`

	SaveSchedule       string `yaml:"save_schedule" json:"save_schedule"`
	QuotaResetSchedule string `yaml:"quota_reset_schedule" json:"quota_reset_schedule"`

	RateLimits RateLimits `yaml:"rate_limits" json:"rate_limits"`
}

type RateLimits struct {
	CommandsPerSecond float64 `yaml:"commands_per_second" json:"commands_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

func Defaults() Tuning {
	return Tuning{
		SignGold:        Range{200, 500},
		RevoltGold:      Range{1000, 2000},
		RevoltCDSeconds: 28800,
		RevoltGini:      0.68,

		CompanyPublicGold:   20000,
		RegisterGiniCeiling: 0.56,
		IssuancePerLevel:    20000,

		GachaGold:          50,
		GachaMaxDraws:      200,
		GachaProbabilities: []float64{0.30, 0.10, 0.10, 0.02},

		GoldGiftTax: 0.02,
		PropGiftTax: 0.10,

		AdminPermission:      1,
		PrivilegedPermission: 2,
		SuperuserPermission:  3,

		SaveSchedule:       "@every 5m",
		QuotaResetSchedule: "0 0 * * *",

		RateLimits: RateLimits{CommandsPerSecond: 5, Burst: 10},
	}
}

// Load reads path over Defaults, so a partial file only overrides what it names.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	for name, r := range map[string]Range{"sign_gold": t.SignGold, "revolt_gold": t.RevoltGold} {
		if r[0] < 0 || r[1] < r[0] {
			return fmt.Errorf("%s: bad range %v", name, r)
		}
	}
	if t.CompanyPublicGold <= 0 {
		return errors.New("company_public_gold must be > 0")
	}
	if t.IssuancePerLevel <= 0 {
		return errors.New("issuance_per_level must be > 0")
	}
	if t.GachaGold < 0 || t.GachaMaxDraws <= 0 {
		return errors.New("gacha_gold must be >= 0 and gacha_max_draws > 0")
	}
	sum := 0.0
	for _, p := range t.GachaProbabilities {
		if p < 0 {
			return fmt.Errorf("gacha_probabilities: negative entry %v", p)
		}
		sum += p
	}
	if sum > 1 {
		return fmt.Errorf("gacha_probabilities: sum %.3f exceeds 1", sum)
	}
	if t.GoldGiftTax < 0 || t.GoldGiftTax > 1 || t.PropGiftTax < 0 || t.PropGiftTax > 1 {
		return errors.New("gift taxes must be within [0,1]")
	}
	return nil
}

// DefaultTransferLimit is the per-period cross-community quota for a pair without one.
func (t Tuning) DefaultTransferLimit() int { return t.CompanyPublicGold / 20 }
