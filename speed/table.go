package speed

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/mawasi/wayfarer/common"
)

// Tier is a named discrete speed setting.
type Tier string

const (
	TierIdle   Tier = "idle"
	TierWalk   Tier = "walk"
	TierRun    Tier = "run"
	TierSprint Tier = "sprint"
)

// multiplierFloor keeps a debuffed character from being fully immobilized.
const multiplierFloor = 0.2

// TableSpec is the yaml shape of a speed profile file.
type TableSpec struct {
	DefaultTier string             `yaml:"default_tier"`
	EaseRate    float64            `yaml:"ease_rate"`
	Tiers       map[string]float64 `yaml:"tiers"`
}

// Table maps speed tiers to base magnitudes. Immutable after load.
type Table struct {
	defaultTier Tier
	easeRate    float64
	base        map[Tier]float64
}

// ParseTable decodes a profile spec and validates it.
func ParseTable(data []byte) (*Table, error) {
	var spec TableSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("speed: unmarshal profile: %w", err)
	}
	return NewTable(spec)
}

// NewTable builds a table from a spec. The idle tier and the default tier
// must be present; magnitudes must be non-negative.
func NewTable(spec TableSpec) (*Table, error) {
	if len(spec.Tiers) == 0 {
		return nil, fmt.Errorf("speed: profile has no tiers")
	}
	base := make(map[Tier]float64, len(spec.Tiers))
	for name, mag := range spec.Tiers {
		if mag < 0 {
			return nil, fmt.Errorf("speed: tier %q has negative magnitude %v", name, mag)
		}
		base[Tier(name)] = mag
	}
	if _, ok := base[TierIdle]; !ok {
		base[TierIdle] = 0
	}
	def := Tier(spec.DefaultTier)
	if def == "" {
		def = TierRun
	}
	if _, ok := base[def]; !ok {
		return nil, fmt.Errorf("speed: default tier %q not defined", def)
	}
	rate := spec.EaseRate
	if rate <= 0 {
		rate = defaultEaseRate
	}
	return &Table{defaultTier: def, easeRate: rate, base: base}, nil
}

const defaultEaseRate = 600.0

// Base returns the unmodified magnitude for a tier.
func (t *Table) Base(tier Tier) (float64, bool) {
	mag, ok := t.base[tier]
	return mag, ok
}

// DefaultTier is the tier selected while full movement is permitted.
func (t *Table) DefaultTier() Tier {
	return t.defaultTier
}

// EaseRate is the speed-easing rate in units per second.
func (t *Table) EaseRate() float64 {
	return t.easeRate
}

// Tiers returns the defined tier names in sorted order.
func (t *Table) Tiers() []Tier {
	tiers := make([]Tier, 0, len(t.base))
	for tier := range t.base {
		tiers = append(tiers, tier)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })
	return tiers
}

// Target computes the effective target speed for a tier under a modifier
// multiplier. The multiplier is clamped into [0,1] and floored so a debuff
// can never reduce speed below 20% of base.
func (t *Table) Target(tier Tier, multiplier float64) float64 {
	mag, ok := t.base[tier]
	if !ok {
		return 0
	}
	return mag * common.Lerp(multiplierFloor, 1.0, common.Clamp01(multiplier))
}
