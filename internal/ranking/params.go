// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

// Package ranking implements the scoring engine and the diversity-capped
// selector. Both are pure: given the same candidate pool, signals and
// parameters they produce the same ordered result, with ties broken by
// stable input order. Every surface (home, explore, search, top stories,
// recommendations) shares this one engine instead of carrying its own
// scoring formula.
package ranking

import "fmt"

// QueryParams are the tuning constants for query relevance scoring.
// The defaults are product-tuned values; override individual fields rather
// than re-deriving them.
type QueryParams struct {
	// Full-query match weights on the title field, in decreasing order of
	// specificity. A match of a more specific kind also counts as the less
	// specific kinds, so an exact title accumulates all three.
	ExactMatchWeight     float64 `koanf:"exact_match_weight"`
	PrefixMatchWeight    float64 `koanf:"prefix_match_weight"`
	SubstringMatchWeight float64 `koanf:"substring_match_weight"`

	// Per-token substring weights across fields, decreasing by field.
	TitleTokenWeight       float64 `koanf:"title_token_weight"`
	DescriptionTokenWeight float64 `koanf:"description_token_weight"`
	SourceTokenWeight      float64 `koanf:"source_token_weight"`
	KeywordTokenWeight     float64 `koanf:"keyword_token_weight"`

	// Recency boost: exp(-ageHours/RecencyTauHours) * RecencyBoostWeight,
	// applied only to items that already matched the query.
	RecencyBoostWeight float64 `koanf:"recency_boost_weight"`
	RecencyTauHours    float64 `koanf:"recency_tau_hours"`
}

// PersonalParams are the tuning constants for personalization scoring.
type PersonalParams struct {
	// Recency decay: exp(-ageHours/RecencyTauHours) * RecencyWeight.
	// Tau is tuned per surface (24h for home, 36h for recommendations).
	RecencyWeight   float64 `koanf:"recency_weight"`
	RecencyTauHours float64 `koanf:"recency_tau_hours"`

	// Popularity: log(1 + likes + 2*shares + 1.5*comments) * PopularityWeight.
	PopularityWeight float64 `koanf:"popularity_weight"`

	// Affinity contribution caps, so one runaway weight cannot dominate.
	CategoryAffinityCap float64 `koanf:"category_affinity_cap"`
	KeywordAffinityCap  float64 `koanf:"keyword_affinity_cap"`

	// Flat bonus for items from a source the user explicitly follows.
	SourceFollowBonus float64 `koanf:"source_follow_bonus"`
}

// SignalWeights control how interaction history accumulates into affinity
// weights. Ordering invariant: Read < Saved < Shared = Commented < Liked,
// with Floor > 0 so every interacted item contributes something.
type SignalWeights struct {
	Read      float64 `koanf:"read"`
	Saved     float64 `koanf:"saved"`
	Shared    float64 `koanf:"shared"`
	Commented float64 `koanf:"commented"`
	Liked     float64 `koanf:"liked"`

	// Floor is the minimum weight any interaction contributes.
	Floor float64 `koanf:"floor"`

	// FollowBonus is added to the source weight of every followed source.
	FollowBonus float64 `koanf:"follow_bonus"`
}

// SelectorParams are the diversity caps applied by the greedy selector.
type SelectorParams struct {
	// PerSourceCap is the maximum accepted items per source.
	PerSourceCap int `koanf:"per_source_cap"`

	// PerCategoryCap is the maximum accepted items per category.
	PerCategoryCap int `koanf:"per_category_cap"`
}

// Params bundles every tuning constant of the ranking engine.
type Params struct {
	Query    QueryParams    `koanf:"query"`
	Personal PersonalParams `koanf:"personal"`
	Signals  SignalWeights  `koanf:"signals"`
	Selector SelectorParams `koanf:"selector"`
}

// DefaultParams returns the tuned production defaults.
func DefaultParams() Params {
	return Params{
		Query: QueryParams{
			ExactMatchWeight:       10.0,
			PrefixMatchWeight:      6.0,
			SubstringMatchWeight:   4.0,
			TitleTokenWeight:       2.0,
			DescriptionTokenWeight: 1.0,
			SourceTokenWeight:      0.7,
			KeywordTokenWeight:     0.5,
			RecencyBoostWeight:     2.0,
			RecencyTauHours:        72.0,
		},
		Personal: PersonalParams{
			RecencyWeight:       3.0,
			RecencyTauHours:     36.0,
			PopularityWeight:    1.0,
			CategoryAffinityCap: 5.0,
			KeywordAffinityCap:  3.0,
			SourceFollowBonus:   2.0,
		},
		Signals: SignalWeights{
			Read:        0.5,
			Saved:       1.0,
			Shared:      1.5,
			Commented:   1.5,
			Liked:       2.0,
			Floor:       0.25,
			FollowBonus: 2.0,
		},
		Selector: SelectorParams{
			PerSourceCap:   2,
			PerCategoryCap: 3,
		},
	}
}

// WithTau returns a copy of the personalization parameters with the recency
// decay constant replaced. Surfaces use this to tune freshness pressure
// without copying the rest of the parameter set.
func (p PersonalParams) WithTau(tauHours float64) PersonalParams {
	p.RecencyTauHours = tauHours
	return p
}

// weightFor maps an interaction type to its accumulation weight, floored.
func (w SignalWeights) weightFor(t string) float64 {
	var weight float64
	switch t {
	case "read":
		weight = w.Read
	case "saved":
		weight = w.Saved
	case "shared":
		weight = w.Shared
	case "commented":
		weight = w.Commented
	case "liked":
		weight = w.Liked
	default:
		weight = 0
	}
	if weight < w.Floor {
		weight = w.Floor
	}
	return weight
}

// Validate checks the parameter set for contract violations.
func (p *Params) Validate() error {
	if p.Query.RecencyTauHours <= 0 {
		return fmt.Errorf("query recency tau must be positive, got %v", p.Query.RecencyTauHours)
	}
	if p.Personal.RecencyTauHours <= 0 {
		return fmt.Errorf("personal recency tau must be positive, got %v", p.Personal.RecencyTauHours)
	}
	if p.Signals.Floor <= 0 {
		return fmt.Errorf("signal weight floor must be positive, got %v", p.Signals.Floor)
	}
	if p.Selector.PerSourceCap < 1 {
		return fmt.Errorf("per-source cap must be at least 1, got %d", p.Selector.PerSourceCap)
	}
	if p.Selector.PerCategoryCap < 1 {
		return fmt.Errorf("per-category cap must be at least 1, got %d", p.Selector.PerCategoryCap)
	}
	return nil
}
