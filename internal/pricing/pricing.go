// Package pricing computes the expected margin for a candidate listing and
// the advisory quality score derived from its description.
package pricing

import (
	"math"
	"strings"

	"dealfinder/internal/bundle"
	"dealfinder/internal/catalog"
	"dealfinder/internal/filter"
)

const (
	qualityBaseline  = 50
	qualityIncrement = 10
	qualityCap       = 100
)

// TargetFor returns the resale target for a variant of spec, falling back to
// the family's standard target when the variant has no configured override.
func TargetFor(spec catalog.ProductSpec, variant string) float64 {
	if variant != bundle.StandardTag {
		if t, ok := spec.VariantTargets[variant]; ok {
			return t
		}
	}
	return spec.Band.TargetList
}

// Score returns the expected profit and margin for buying at price and
// reselling at the variant's target. Profit is target - price at the
// configured two-decimal currency precision; negative values are valid here,
// the price-bounded search query is what filters them upstream.
func Score(spec catalog.ProductSpec, variant string, price float64) (profit float64, margin float64) {
	target := TargetFor(spec, variant)
	profit = round2(target - price)
	if target > 0 {
		margin = profit / target
	}
	return profit, margin
}

// QualityScore is a 0-100 heuristic: a neutral baseline plus a fixed
// increment per distinct positive-condition phrase found in the description,
// capped. An absent or placeholder description scores exactly the baseline.
// This is advisory metadata attached to the notification, not a filter gate.
func QualityScore(description string, indicators []string) int {
	score := qualityBaseline
	if filter.PlaceholderDescription(description) {
		return score
	}
	norm := filter.Normalize(description)
	seen := make(map[string]struct{}, len(indicators))
	for _, phrase := range indicators {
		p := filter.Normalize(phrase)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		if !strings.Contains(norm, p) {
			continue
		}
		seen[p] = struct{}{}
		score += qualityIncrement
		if score >= qualityCap {
			return qualityCap
		}
	}
	return score
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
