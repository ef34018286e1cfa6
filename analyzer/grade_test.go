package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMediaGradeBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  Grade
	}{
		{100, GradeAPlus}, {90, GradeAPlus}, {89, GradeA},
		{80, GradeA}, {79, GradeBPlus}, {70, GradeBPlus},
		{69, GradeB}, {60, GradeB}, {59, GradeC},
		{50, GradeC}, {49, GradeD}, {40, GradeD},
		{39, GradeF}, {0, GradeF},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MediaGradeScale.Grade(tc.score), "score %d", tc.score)
	}
}

func TestArticleGradeBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  Grade
	}{
		{90, GradeAPlus}, {89, GradeA},
		{85, GradeA}, {84, GradeBPlus},
		{75, GradeBPlus}, {74, GradeB},
		{65, GradeB}, {64, GradeC},
		{55, GradeC}, {54, GradeD},
		{45, GradeD}, {44, GradeF},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ArticleGradeScale.Grade(tc.score), "score %d", tc.score)
	}
}

func TestGradeMonotonic(t *testing.T) {
	rank := map[Grade]int{GradeF: 0, GradeD: 1, GradeC: 2, GradeB: 3, GradeBPlus: 4, GradeA: 5, GradeAPlus: 6}
	for _, scale := range []GradeScale{MediaGradeScale, ArticleGradeScale} {
		for score := 1; score <= MaxScore; score++ {
			assert.GreaterOrEqual(t, rank[scale.Grade(score)], rank[scale.Grade(score-1)], "score %d", score)
		}
	}
}

func TestGradeLabelsAndClasses(t *testing.T) {
	classes := map[Grade]Severity{
		GradeAPlus: SeveritySuccess,
		GradeA:     SeveritySuccess,
		GradeBPlus: SeverityInfo,
		GradeB:     SeverityInfo,
		GradeC:     SeverityWarning,
		GradeD:     SeverityWarning,
		GradeF:     SeverityDanger,
	}
	for g, class := range classes {
		assert.Equal(t, class, g.Class(), "grade %s", g)
		assert.NotEmpty(t, g.Label(), "grade %s", g)
	}
	assert.Equal(t, SeverityDanger, Grade("Z").Class())
}
