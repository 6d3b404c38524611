package learner

import (
	"math"
	"sort"
	"time"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

// itemsOf extracts the aggregation keys from one interaction
// (e.g. its category, or its source).
type itemsOf func(domain.Interaction) []string

func categoryOf(in domain.Interaction) []string {
	if in.Article.Category == "" {
		return nil
	}
	return []string{in.Article.Category}
}

func sourceOf(in domain.Interaction) []string {
	if in.Article.Source == "" {
		return nil
	}
	return []string{in.Article.Source}
}

// aggregateAffinities folds the analysis window into per-item engagement
// statistics. The window must be in chronological order (oldest first);
// the trend compares the recent half against the older half.
func aggregateAffinities(window []domain.Interaction, items itemsOf) []domain.Affinity {
	type acc struct {
		total, positive, negative int
		recent, older             int
		last                      time.Time
	}

	mid := len(window) / 2
	byItem := make(map[string]*acc)

	for i, in := range window {
		for _, item := range items(in) {
			a := byItem[item]
			if a == nil {
				a = &acc{}
				byItem[item] = a
			}
			a.total++
			if in.Action.Positive() {
				a.positive++
			}
			if in.Action.Negative() {
				a.negative++
			}
			if i >= mid {
				a.recent++
			} else {
				a.older++
			}
			if in.CreatedAt.After(a.last) {
				a.last = in.CreatedAt
			}
		}
	}

	out := make([]domain.Affinity, 0, len(byItem))
	for item, a := range byItem {
		out = append(out, domain.Affinity{
			Item:            item,
			Total:           a.total,
			Positive:        a.positive,
			Negative:        a.negative,
			PositiveRatio:   float64(a.positive) / float64(a.total),
			LastInteraction: a.last,
			Trend:           trendOf(a.recent, a.older),
		})
	}
	return out
}

// trendOf classifies activity movement between window halves. The margin
// scales with volume so one extra interaction on a busy item does not flip
// the trend.
func trendOf(recent, older int) domain.Trend {
	margin := older / 4
	if margin < 1 {
		margin = 1
	}
	switch {
	case recent > older+margin:
		return domain.TrendIncreasing
	case older > recent+margin:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

// sortAffinities orders by positive ratio (descending). Ratios within
// epsilon of each other are treated as equal and broken by volume, so an
// item with one enthusiastic interaction cannot outrank a consistently
// liked high-volume item. Item name breaks exact ties for determinism.
func sortAffinities(list []domain.Affinity, epsilon float64, significantVolume int) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if diff := a.PositiveRatio - b.PositiveRatio; math.Abs(diff) > epsilon {
			return diff > 0
		}
		aSig := a.Total >= significantVolume
		bSig := b.Total >= significantVolume
		if aSig != bSig {
			return aSig
		}
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.Item < b.Item
	})
}
