package analyzer

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// KeywordWeights are the points awarded per keyword tier
type KeywordWeights struct {
	Primary        int `yaml:"primary" json:"primary"`
	SecondaryBrand int `yaml:"secondary_brand" json:"secondary_brand"`
	Secondary      int `yaml:"secondary" json:"secondary"`
	Brand          int `yaml:"brand" json:"brand"`
	General        int `yaml:"general" json:"general"`
}

// KeywordConfig is the keyword dictionary used for alt text scoring
type KeywordConfig struct {
	Primary   []string       `yaml:"primary" json:"primary"`
	Secondary []string       `yaml:"secondary" json:"secondary"`
	Brand     []string       `yaml:"brand" json:"brand"`
	General   []string       `yaml:"general" json:"general"`
	Weights   KeywordWeights `yaml:"weights" json:"weights"`
}

// Validate checks that the four keyword sets are disjoint and that no
// weight is negative
func (k KeywordConfig) Validate() error {
	var errs []error

	w := k.Weights
	for _, weight := range []struct {
		name  string
		value int
	}{
		{"primary", w.Primary},
		{"secondary_brand", w.SecondaryBrand},
		{"secondary", w.Secondary},
		{"brand", w.Brand},
		{"general", w.General},
	} {
		if weight.value < 0 {
			errs = append(errs, fmt.Errorf("weight %s is negative (%d)", weight.name, weight.value))
		}
	}

	owner := make(map[string]string)
	sets := []struct {
		name     string
		keywords []string
	}{
		{"primary", k.Primary},
		{"secondary", k.Secondary},
		{"brand", k.Brand},
		{"general", k.General},
	}
	for _, set := range sets {
		for _, kw := range set.keywords {
			key := foldKeyword(kw)
			if key == "" {
				errs = append(errs, fmt.Errorf("empty keyword in %s set", set.name))
				continue
			}
			if prev, ok := owner[key]; ok && prev != set.name {
				errs = append(errs, fmt.Errorf("keyword %q appears in both %s and %s", kw, prev, set.name))
				continue
			}
			owner[key] = set.name
		}
	}

	return errors.Join(errs...)
}

// foldKeyword normalizes text for case-insensitive substring matching.
// Vietnamese text may arrive precomposed or decomposed, so both sides are
// brought to NFC first.
func foldKeyword(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}

// firstKeyword returns the first keyword of set contained in folded text
func firstKeyword(folded string, set []string) (string, bool) {
	for _, kw := range set {
		k := foldKeyword(kw)
		if k != "" && strings.Contains(folded, k) {
			return kw, true
		}
	}
	return "", false
}

// keywordHits records which tiers matched a piece of text
type keywordHits struct {
	primary   string
	secondary bool
	brand     bool
	general   bool
}

func (k KeywordConfig) hits(text string) keywordHits {
	folded := foldKeyword(text)
	var h keywordHits
	h.primary, _ = firstKeyword(folded, k.Primary)
	_, h.secondary = firstKeyword(folded, k.Secondary)
	_, h.brand = firstKeyword(folded, k.Brand)
	_, h.general = firstKeyword(folded, k.General)
	return h
}

// keywordTier is one row of the alt text keyword rule table
type keywordTier struct {
	name     string
	matches  func(h keywordHits) bool
	weight   func(w KeywordWeights) int
	severity Severity
	message  func(h keywordHits) string
	advice   string
}

// altKeywordTiers is evaluated top to bottom; the first matching tier is
// the only one that awards points
var altKeywordTiers = []keywordTier{
	{
		name:     "primary",
		matches:  func(h keywordHits) bool { return h.primary != "" },
		weight:   func(w KeywordWeights) int { return w.Primary },
		severity: SeveritySuccess,
		message:  func(h keywordHits) string { return fmt.Sprintf("✓ Contains primary keyword %q", h.primary) },
	},
	{
		name:     "secondary_brand",
		matches:  func(h keywordHits) bool { return h.secondary && h.brand },
		weight:   func(w KeywordWeights) int { return w.SecondaryBrand },
		severity: SeveritySuccess,
		message:  func(keywordHits) string { return "✓ Contains secondary keyword and brand" },
	},
	{
		name:     "secondary",
		matches:  func(h keywordHits) bool { return h.secondary },
		weight:   func(w KeywordWeights) int { return w.Secondary },
		severity: SeverityInfo,
		message:  func(keywordHits) string { return "ℹ Contains secondary keyword (add the brand)" },
		advice:   "Add the brand name to raise the score",
	},
	{
		name:     "brand",
		matches:  func(h keywordHits) bool { return h.brand },
		weight:   func(w KeywordWeights) int { return w.Brand },
		severity: SeverityWarning,
		message:  func(keywordHits) string { return "⚠ Brand only" },
		advice:   "Add a keyword describing the product",
	},
	{
		name:     "general",
		matches:  func(h keywordHits) bool { return h.general },
		weight:   func(w KeywordWeights) int { return w.General },
		severity: SeverityWarning,
		message:  func(keywordHits) string { return "⚠ General keyword only" },
	},
}

// matchTier returns the first tier matching text, or nil
func (k KeywordConfig) matchTier(text string) (*keywordTier, keywordHits) {
	h := k.hits(text)
	for i := range altKeywordTiers {
		if altKeywordTiers[i].matches(h) {
			return &altKeywordTiers[i], h
		}
	}
	return nil, h
}

// topPrimary returns up to n primary keywords
func (k KeywordConfig) topPrimary(n int) []string {
	if len(k.Primary) < n {
		n = len(k.Primary)
	}
	return k.Primary[:n]
}
