package analysis

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/market-analysis-service/internal/models"
)

const (
	// levelWindow is the number of candles on each side an extremum must dominate
	levelWindow = 5
	// maxLevels caps the support and resistance lists
	maxLevels = 3
)

// levelMergePercent is the relative distance under which adjacent levels merge
var levelMergePercent = decimal.NewFromFloat(0.5)

// FindLevels returns support levels (local lows) and resistance levels
// (local highs), each ascending and merged into at most three clusters.
func FindLevels(candles []models.Candle) (support, resistance []decimal.Decimal) {
	highs := make([]decimal.Decimal, len(candles))
	lows := make([]decimal.Decimal, len(candles))
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
	}

	resistance = []decimal.Decimal{}
	support = []decimal.Decimal{}
	for i := levelWindow; i < len(candles)-levelWindow; i++ {
		if isLocalExtremum(highs, i, 1) {
			resistance = append(resistance, highs[i])
		}
		if isLocalExtremum(lows, i, -1) {
			support = append(support, lows[i])
		}
	}

	return MergeLevels(support), MergeLevels(resistance)
}

// isLocalExtremum reports whether no value within levelWindow of index compares
// beyond it in direction dir (1 for maximum, -1 for minimum). Ties count.
func isLocalExtremum(values []decimal.Decimal, index, dir int) bool {
	lo := max(0, index-levelWindow)
	hi := min(len(values), index+levelWindow+1)
	for i := lo; i < hi; i++ {
		if i != index && values[i].Cmp(values[index]) == dir {
			return false
		}
	}
	return true
}

// MergeLevels sorts levels ascending and folds neighbours within 0.5% of the
// first member of their cluster into the cluster mean, keeping the lowest
// three clusters. Lists of three or fewer are only sorted.
func MergeLevels(levels []decimal.Decimal) []decimal.Decimal {
	sorted := make([]decimal.Decimal, len(levels))
	copy(sorted, levels)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	if len(sorted) <= maxLevels {
		return sorted
	}

	merged := make([]decimal.Decimal, 0, maxLevels)
	anchor := sorted[0]
	total := anchor
	count := int64(1)

	for _, next := range sorted[1:] {
		if withinMergeDistance(anchor, next) {
			total = total.Add(next)
			count++
			continue
		}
		merged = append(merged, total.DivRound(decimal.NewFromInt(count), Scale))
		anchor = next
		total = next
		count = 1
	}
	merged = append(merged, total.DivRound(decimal.NewFromInt(count), Scale))

	if len(merged) > maxLevels {
		merged = merged[:maxLevels]
	}
	return merged
}

func withinMergeDistance(anchor, next decimal.Decimal) bool {
	if anchor.IsZero() {
		return next.IsZero()
	}
	percent := next.Sub(anchor).DivRound(anchor, Scale).Mul(hundred).Abs()
	return percent.LessThanOrEqual(levelMergePercent)
}
