package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordConfigValidate(t *testing.T) {
	require.NoError(t, testKeywords.Validate())

	overlap := testKeywords
	overlap.General = append([]string{"KEO DÁN GẠCH CAO CẤP"}, testKeywords.General...)
	err := overlap.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "appears in both secondary and general")

	bad := KeywordConfig{
		Primary: []string{"  "},
		Weights: KeywordWeights{Primary: -1},
	}
	err = bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty keyword in primary set")
	assert.Contains(t, err.Error(), "weight primary is negative")

	negative := KeywordConfig{Weights: KeywordWeights{Primary: -1, Brand: -2, General: -3}}
	assert.EqualError(t, negative.Validate(),
		"weight primary is negative (-1)\nweight brand is negative (-2)\nweight general is negative (-3)")

	// Repeats inside one set are tolerated
	dup := KeywordConfig{Brand: []string{"BRICON", "bricon"}}
	assert.NoError(t, dup.Validate())
}

func TestKeywordHits(t *testing.T) {
	h := testKeywords.hits("Keo chà ron chống ố mốc BRICON")
	assert.Equal(t, "", h.primary)
	assert.True(t, h.secondary)
	assert.True(t, h.brand)
	assert.False(t, h.general)

	tier, _ := testKeywords.matchTier("Keo chà ron chống ố mốc BRICON")
	require.NotNil(t, tier)
	assert.Equal(t, "secondary_brand", tier.name)

	tier, _ = testKeywords.matchTier("")
	assert.Nil(t, tier)
}

func TestTopPrimary(t *testing.T) {
	assert.Equal(t, []string{"keo dán gạch BRICON", "keo chà ron BRICON"}, testKeywords.topPrimary(2))
	assert.Len(t, testKeywords.topPrimary(10), 3)
	assert.Empty(t, KeywordConfig{}.topPrimary(2))
}

func TestAltKeywordPointsAreCapped(t *testing.T) {
	kw := testKeywords
	kw.Weights.Primary = 40
	got := rulePoints(func(s *scoreSheet) { scoreAltText(s, "keo dán gạch BRICON chính hãng giá tốt", kw) })
	assert.Equal(t, 30+maxAltKeywordPoints, got)
}
