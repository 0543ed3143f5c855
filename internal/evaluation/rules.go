package evaluation

import (
	"fmt"
	"sort"

	"bookingeda/internal/errors"
)

// Rule sort keys
const (
	SortByLift       = "lift"
	SortByConfidence = "confidence"
	SortBySupport    = "support"
)

// Rule is one mined association rule
type Rule struct {
	Antecedents []string `json:"antecedents"`
	Consequents []string `json:"consequents"`
	Support     float64  `json:"support"`
	Confidence  float64  `json:"confidence"`
	Lift        float64  `json:"lift"`
}

func (r Rule) metric(key string) float64 {
	switch key {
	case SortByConfidence:
		return r.Confidence
	case SortBySupport:
		return r.Support
	}
	return r.Lift
}

// SummarizeRules returns the topN rules by the given metric, descending.
// Equal scores keep their input order.
func SummarizeRules(rules []Rule, topN int, sortBy string) ([]Rule, error) {
	switch sortBy {
	case SortByLift, SortByConfidence, SortBySupport:
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("cannot sort rules by %q: use lift, confidence or support", sortBy))
	}
	if topN < 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("topN must be >= 0, got %d", topN))
	}

	out := append([]Rule(nil), rules...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].metric(sortBy) > out[j].metric(sortBy)
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}

// RuleFilter holds inclusive lower bounds
type RuleFilter struct {
	MinSupport    float64 `json:"min_support"`
	MinConfidence float64 `json:"min_confidence"`
	MinLift       float64 `json:"min_lift"`
}

// DefaultRuleFilter keeps rules with support >= 0.01, confidence >= 0.3
// and lift >= 1.1
func DefaultRuleFilter() RuleFilter {
	return RuleFilter{MinSupport: 0.01, MinConfidence: 0.3, MinLift: 1.1}
}

// FilterRules keeps the rules meeting every bound, in input order
func FilterRules(rules []Rule, f RuleFilter) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.Support >= f.MinSupport && r.Confidence >= f.MinConfidence && r.Lift >= f.MinLift {
			out = append(out, r)
		}
	}
	return out
}
