// Package analysis computes technical indicators, candlestick patterns,
// support/resistance levels and a composite trend score from a candle series.
//
// All arithmetic is exact decimal arithmetic. Divisions round half away from
// zero to Scale fractional digits. An indicator derived from fewer points than
// its window is returned invalid, never zero.
package analysis

import (
	"math"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept by every indicator division
const Scale = 8

// Indicator windows
const (
	SMAPeriod       = 20
	EMAPeriod       = 14
	RSIPeriod       = 14
	MACDFastPeriod  = 12
	MACDSlowPeriod  = 26
	BollingerPeriod = 20
	VolumeSMAPeriod = 5
)

var (
	hundred        = decimal.NewFromInt(100)
	bollingerWidth = decimal.NewFromInt(2)
	signalWeightA  = decimal.NewFromFloat(0.2)
	signalWeightB  = decimal.NewFromFloat(0.8)
)

func valid(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// mean of the trailing period values, rounded to Scale
func trailingMean(values []decimal.Decimal, period int) decimal.Decimal {
	window := values[len(values)-period:]
	return sum(window).DivRound(decimal.NewFromInt(int64(period)), Scale)
}

// multiplier is 2/(period+1) taken through a float64, as the smoothing constant
func multiplier(period int) decimal.Decimal {
	return decimal.NewFromFloat(2.0 / float64(period+1))
}

// SMA returns the arithmetic mean of the last period values
func SMA(values []decimal.Decimal, period int) decimal.NullDecimal {
	if period <= 0 || len(values) < period {
		return decimal.NullDecimal{}
	}
	return valid(trailingMean(values, period))
}

// EMA seeds with the SMA of the last period values and then re-smooths over
// every value of that same trailing window, the first one included.
// History older than the window is ignored.
func EMA(values []decimal.Decimal, period int) decimal.NullDecimal {
	if period <= 0 || len(values) < period {
		return decimal.NullDecimal{}
	}
	return valid(smoothWindow(values, period, len(values)-period))
}

// windowEMA is the EMA used by MACD: same seed, but smoothing starts at the
// second value of the trailing window.
func windowEMA(values []decimal.Decimal, period int) decimal.NullDecimal {
	if period <= 0 || len(values) < period {
		return decimal.NullDecimal{}
	}
	return valid(smoothWindow(values, period, len(values)-period+1))
}

func smoothWindow(values []decimal.Decimal, period, from int) decimal.Decimal {
	k := multiplier(period)
	ema := trailingMean(values, period)
	for i := from; i < len(values); i++ {
		ema = values[i].Sub(ema).Mul(k).Add(ema)
	}
	return ema
}

// RSI computes the Relative Strength Index with Wilder smoothing.
// It needs period+1 closes. A zero average loss yields 100.
func RSI(closes []decimal.Decimal, period int) decimal.NullDecimal {
	if period <= 0 || len(closes) < period+1 {
		return decimal.NullDecimal{}
	}

	gains := make([]decimal.Decimal, 0, len(closes)-1)
	losses := make([]decimal.Decimal, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i].Sub(closes[i-1])
		switch change.Sign() {
		case 1:
			gains = append(gains, change)
			losses = append(losses, decimal.Zero)
		case -1:
			gains = append(gains, decimal.Zero)
			losses = append(losses, change.Abs())
		default:
			gains = append(gains, decimal.Zero)
			losses = append(losses, decimal.Zero)
		}
	}

	p := decimal.NewFromInt(int64(period))
	prev := decimal.NewFromInt(int64(period - 1))

	avgGain := sum(gains[:period]).DivRound(p, Scale)
	avgLoss := sum(losses[:period]).DivRound(p, Scale)
	for i := period; i < len(gains); i++ {
		avgGain = avgGain.Mul(prev).Add(gains[i]).DivRound(p, Scale)
		avgLoss = avgLoss.Mul(prev).Add(losses[i]).DivRound(p, Scale)
	}

	if avgLoss.IsZero() {
		return valid(hundred)
	}
	rs := avgGain.DivRound(avgLoss, Scale)
	return valid(hundred.Sub(hundred.DivRound(decimal.NewFromInt(1).Add(rs), Scale)))
}

// MACDResult holds the MACD line, signal line and histogram
type MACDResult struct {
	MACD      decimal.NullDecimal
	Signal    decimal.NullDecimal
	Histogram decimal.NullDecimal
}

// MACD computes EMA(12) - EMA(26) over the trailing windows.
// No history of past MACD values is kept, so the signal line is the blend
// macd*0.2 + macd*0.8, which equals the MACD line, and the histogram is zero.
func MACD(closes []decimal.Decimal) MACDResult {
	if len(closes) < MACDSlowPeriod {
		return MACDResult{}
	}

	fast := windowEMA(closes, MACDFastPeriod)
	slow := windowEMA(closes, MACDSlowPeriod)
	macd := fast.Decimal.Sub(slow.Decimal)
	signal := macd.Mul(signalWeightA).Add(macd.Mul(signalWeightB))

	return MACDResult{
		MACD:      valid(macd),
		Signal:    valid(signal),
		Histogram: valid(macd.Sub(signal)),
	}
}

// BollingerBands holds the upper, middle and lower bands
type BollingerBands struct {
	Upper  decimal.NullDecimal
	Middle decimal.NullDecimal
	Lower  decimal.NullDecimal
}

// Bollinger computes bands two population standard deviations around the
// 20 period SMA. The square root is taken in float64.
func Bollinger(closes []decimal.Decimal, sma decimal.NullDecimal) BollingerBands {
	if len(closes) < BollingerPeriod || !sma.Valid {
		return BollingerBands{}
	}

	middle := sma.Decimal
	sumSquared := decimal.Zero
	for _, c := range closes[len(closes)-BollingerPeriod:] {
		diff := c.Sub(middle)
		sumSquared = sumSquared.Add(diff.Mul(diff))
	}
	variance := sumSquared.DivRound(decimal.NewFromInt(BollingerPeriod), Scale)
	stdDev := decimal.NewFromFloat(math.Sqrt(variance.InexactFloat64()))
	width := stdDev.Mul(bollingerWidth)

	return BollingerBands{
		Upper:  valid(middle.Add(width)),
		Middle: valid(middle),
		Lower:  valid(middle.Sub(width)),
	}
}

// OBV accumulates volume on up closes and removes it on down closes,
// starting from the first volume. Needs at least two points.
func OBV(closes, volumes []decimal.Decimal) decimal.NullDecimal {
	n := len(volumes)
	if len(closes) < n {
		n = len(closes)
	}
	if n < 2 {
		return decimal.NullDecimal{}
	}

	obv := volumes[0]
	for i := 1; i < n; i++ {
		switch closes[i].Cmp(closes[i-1]) {
		case 1:
			obv = obv.Add(volumes[i])
		case -1:
			obv = obv.Sub(volumes[i])
		}
	}
	return valid(obv)
}
