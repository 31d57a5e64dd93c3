package emission

import (
	"context"
	"fmt"

	"carp-service/internal/domain/emission"
	xerrors "carp-service/internal/pkg/errors"
)

// Names of the rules that can decide a resolution.
const (
	RuleSingleCandidate = "single_candidate"
	RuleEngineSize      = "engine_size"
	RuleFuelEfficiency  = "fuel_efficiency"
	RuleInsertionOrder  = "insertion_order"
)

// Engine bracket bounds in litres, efficiency bounds in L/100km.
const (
	smallEngineBelow = 1.4
	mediumEngineUpTo = 2.0
	efficientBelow   = 5.0
	inefficientAbove = 8.0
)

// Resolution is the single factor chosen for a vehicle, and why.
type Resolution struct {
	Factor emission.EmissionFactor `json:"factor"`
	Rule   string                  `json:"rule"`
	// Approximate is set when several candidates remained and the first was taken.
	Approximate bool `json:"approximate"`
}

type narrowingRule struct {
	name  string
	label func(p emission.Profile) (string, bool)
}

var narrowingRules = []narrowingRule{
	{name: RuleEngineSize, label: EngineSizeLabel},
	{name: RuleFuelEfficiency, label: FuelEfficiencyLabel},
}

// EngineSizeLabel maps an engine size onto small, medium or large.
func EngineSizeLabel(p emission.Profile) (string, bool) {
	if p.EngineSize == nil || *p.EngineSize <= 0 {
		return "", false
	}
	switch size := *p.EngineSize; {
	case size < smallEngineBelow:
		return emission.TagSmall, true
	case size <= mediumEngineUpTo:
		return emission.TagMedium, true
	default:
		return emission.TagLarge, true
	}
}

// FuelEfficiencyLabel maps consumption onto efficient or inefficient. Average
// consumption carries no label, so the rule is skipped.
func FuelEfficiencyLabel(p emission.Profile) (string, bool) {
	if p.FuelEfficiency == nil || *p.FuelEfficiency <= 0 {
		return "", false
	}
	switch eff := *p.FuelEfficiency; {
	case eff < efficientBelow:
		return emission.TagEfficient, true
	case eff > inefficientAbove:
		return emission.TagInefficient, true
	default:
		return "", false
	}
}

// Resolve picks one factor for the profile out of candidates. Candidates
// that are inactive or cover another pair are ignored. The result depends
// only on the inputs.
func Resolve(p emission.Profile, candidates []emission.EmissionFactor) (*Resolution, error) {
	if err := emission.ValidateProfile(p.VehicleType, p.FuelType); err != nil {
		return nil, err
	}

	pool := make([]emission.EmissionFactor, 0, len(candidates))
	for _, c := range candidates {
		if c.IsActive && c.Covers(p.VehicleType, p.FuelType) {
			pool = append(pool, c)
		}
	}

	switch len(pool) {
	case 0:
		return nil, fmt.Errorf("%s/%s: %w", p.VehicleType, p.FuelType, xerrors.ErrNoFactorAvailable)
	case 1:
		return &Resolution{Factor: pool[0], Rule: RuleSingleCandidate}, nil
	}

	for _, rule := range narrowingRules {
		label, ok := rule.label(p)
		if !ok {
			continue
		}
		matched := pool[:0:0]
		for _, c := range pool {
			if c.HasLabel(label) {
				matched = append(matched, c)
			}
		}
		if len(matched) == 0 {
			continue
		}
		pool = matched
		if len(pool) == 1 {
			return &Resolution{Factor: pool[0], Rule: rule.name}, nil
		}
	}

	return &Resolution{Factor: pool[0], Rule: RuleInsertionOrder, Approximate: true}, nil
}

// Resolver resolves profiles against a factor store.
type Resolver struct {
	store CandidateFinder
}

func NewResolver(store CandidateFinder) *Resolver {
	return &Resolver{store: store}
}

func (r *Resolver) Resolve(ctx context.Context, p emission.Profile) (*Resolution, error) {
	if err := emission.ValidateProfile(p.VehicleType, p.FuelType); err != nil {
		return nil, err
	}
	candidates, err := r.store.FindCandidates(ctx, p.VehicleType, p.FuelType)
	if err != nil {
		return nil, fmt.Errorf("failed to load emission factor candidates: %w", err)
	}
	return Resolve(p, candidates)
}
