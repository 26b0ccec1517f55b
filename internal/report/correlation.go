package report

import (
	"maps"
	"math"
	"slices"

	"github.com/shopspring/decimal"
)

const (
	// correlationScale is the number of fractional digits kept for means and coefficients
	correlationScale = 10

	// sqrtPrecision is the number of significant digits kept for variance square roots
	sqrtPrecision = 10

	// DefaultMinCorrelationPoints is the minimum buffer length for a symbol to enter the matrix
	DefaultMinCorrelationPoints = 30
)

// Pearson returns the Pearson correlation coefficient of two equally sized
// series at scale 10. Mismatched lengths, fewer than two points or a zero
// variance on either side yield zero.
func Pearson(a, b []decimal.Decimal) decimal.Decimal {
	n := len(a)
	if n != len(b) || n < 2 {
		return decimal.Zero
	}

	count := decimal.NewFromInt(int64(n))
	meanA := decimal.Sum(decimal.Zero, a...).DivRound(count, correlationScale)
	meanB := decimal.Sum(decimal.Zero, b...).DivRound(count, correlationScale)

	covariance := decimal.Zero
	varianceA := decimal.Zero
	varianceB := decimal.Zero
	for i := range n {
		diffA := a[i].Sub(meanA)
		diffB := b[i].Sub(meanB)

		covariance = covariance.Add(diffA.Mul(diffB))
		varianceA = varianceA.Add(diffA.Mul(diffA))
		varianceB = varianceB.Add(diffB.Mul(diffB))
	}

	if varianceA.IsZero() || varianceB.IsZero() {
		return decimal.Zero
	}

	denominator := sqrtSignificant(varianceA).Mul(sqrtSignificant(varianceB))
	return covariance.DivRound(denominator, correlationScale)
}

// sqrtSignificant returns the square root of a positive d rounded to
// sqrtPrecision significant digits.
func sqrtSignificant(d decimal.Decimal) decimal.Decimal {
	root := decimal.NewFromFloat(math.Sqrt(d.InexactFloat64()))
	if root.IsZero() {
		return root
	}
	intDigits := int32(len(root.Coefficient().String())) + root.Exponent()
	return root.Round(sqrtPrecision - intDigits)
}

// CorrelationMatrix correlates every ordered pair of symbols holding at least
// minPoints buffered prices. Each pair uses the trailing window both buffers
// share and is computed on its own, so m[a][b] and m[b][a] may differ in the
// last digit. The diagonal is exactly one.
func CorrelationMatrix(buffers map[string][]decimal.Decimal, minPoints int) map[string]map[string]decimal.Decimal {
	symbols := qualifyingSymbols(buffers, minPoints)

	matrix := make(map[string]map[string]decimal.Decimal, len(symbols))
	for _, symbolA := range symbols {
		row := make(map[string]decimal.Decimal, len(symbols))
		matrix[symbolA] = row

		pricesA := buffers[symbolA]
		for _, symbolB := range symbols {
			if symbolA == symbolB {
				row[symbolB] = decimal.NewFromInt(1)
				continue
			}

			pricesB := buffers[symbolB]
			size := min(len(pricesA), len(pricesB))
			row[symbolB] = Pearson(pricesA[len(pricesA)-size:], pricesB[len(pricesB)-size:])
		}
	}
	return matrix
}

func qualifyingSymbols(buffers map[string][]decimal.Decimal, minPoints int) []string {
	symbols := make([]string, 0, len(buffers))
	for _, symbol := range slices.Sorted(maps.Keys(buffers)) {
		if len(buffers[symbol]) >= minPoints {
			symbols = append(symbols, symbol)
		}
	}
	return symbols
}
