package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrend_Family(t *testing.T) {
	assert.True(t, TrendBullish.IsBullish())
	assert.True(t, TrendBullishOverbought.IsBullish())
	assert.True(t, TrendBearishOversold.IsBearish())
	assert.False(t, TrendNeutral.IsBullish())
	assert.False(t, TrendNeutral.IsBearish())
	assert.False(t, Trend("").IsBullish())
}

func TestKlineAnalysis_ActivePatterns(t *testing.T) {
	a := &KlineAnalysis{}
	assert.Empty(t, a.ActivePatterns())
	assert.NotNil(t, a.ActivePatterns())

	a.HammerPattern = true
	a.Doji = true
	assert.Equal(t, []string{PatternHammer, PatternDoji}, a.ActivePatterns())
}
