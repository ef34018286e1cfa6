package analyzer

// MaxScore is the upper bound of every score
const MaxScore = 100

// Grade is a letter tier summarizing a score
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

var gradeLabels = map[Grade]string{
	GradeAPlus: "Excellent",
	GradeA:     "Very good",
	GradeBPlus: "Good",
	GradeB:     "Fair",
	GradeC:     "Average",
	GradeD:     "Weak",
	GradeF:     "Needs urgent improvement",
}

var gradeClasses = map[Grade]Severity{
	GradeAPlus: SeveritySuccess,
	GradeA:     SeveritySuccess,
	GradeBPlus: SeverityInfo,
	GradeB:     SeverityInfo,
	GradeC:     SeverityWarning,
	GradeD:     SeverityWarning,
	GradeF:     SeverityDanger,
}

// Label returns the human readable tier name
func (g Grade) Label() string {
	return gradeLabels[g]
}

// Class returns the presentation bucket of the grade
func (g Grade) Class() Severity {
	if c, ok := gradeClasses[g]; ok {
		return c
	}
	return SeverityDanger
}

type gradeBand struct {
	min   int
	grade Grade
}

// GradeScale maps scores to grades. Bands are ordered by descending
// minimum; anything below the last band is an F.
type GradeScale []gradeBand

// MediaGradeScale grades media asset scores
var MediaGradeScale = GradeScale{
	{90, GradeAPlus},
	{80, GradeA},
	{70, GradeBPlus},
	{60, GradeB},
	{50, GradeC},
	{40, GradeD},
}

// ArticleGradeScale grades article scores
var ArticleGradeScale = GradeScale{
	{90, GradeAPlus},
	{85, GradeA},
	{75, GradeBPlus},
	{65, GradeB},
	{55, GradeC},
	{45, GradeD},
}

// Grade returns the grade for score
func (s GradeScale) Grade(score int) Grade {
	for _, band := range s {
		if score >= band.min {
			return band.grade
		}
	}
	return GradeF
}
