package analyzer

import (
	"encoding/json"
	"fmt"
)

// Severity classifies a checklist entry and the overall grade
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// CheckItem is one line of the scoring audit trail
type CheckItem struct {
	Severity Severity
	Message  string
}

// MarshalJSON encodes the item as a [severity, message] pair
func (c CheckItem) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{string(c.Severity), c.Message})
}

// UnmarshalJSON decodes a [severity, message] pair
func (c *CheckItem) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("checklist item: want 2 elements, got %d", len(pair))
	}
	c.Severity = Severity(pair[0])
	c.Message = pair[1]
	return nil
}

// ScoreResult is the outcome of scoring a media asset or an article
type ScoreResult struct {
	Score           int         `json:"score"`
	Grade           Grade       `json:"grade"`
	GradeLabel      string      `json:"grade_text"`
	GradeClass      Severity    `json:"grade_class"`
	Issues          []string    `json:"issues"`
	Recommendations []string    `json:"recommendations"`
	Checklist       []CheckItem `json:"checklist"`
}

// MediaAsset holds the descriptive metadata of an image.
// Zero values mean the field is absent.
type MediaAsset struct {
	AltText  string `json:"alt_text"`
	Title    string `json:"title"`
	Caption  string `json:"caption"`
	Album    string `json:"album"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	FileSize int64  `json:"file_size"`
}

// ImageSEO is the SEO metadata of the image attached to an article
type ImageSEO struct {
	AltText string `json:"alt_text"`
	Title   string `json:"title"`
	Caption string `json:"caption"`
}

// Article is a long-form post to be scored
type Article struct {
	Title           string    `json:"title"`
	MetaDescription string    `json:"meta_description"`
	FocusKeyword    string    `json:"focus_keyword"`
	Content         string    `json:"content"`
	Image           string    `json:"image"`
	ImageSEO        *ImageSEO `json:"image_seo,omitempty"`
}

// HasImage reports whether the article has an associated image
func (a Article) HasImage() bool {
	return a.Image != "" || a.ImageSEO != nil
}

// scoreSheet accumulates points and findings while rules are evaluated
type scoreSheet struct {
	score           int
	issues          []string
	recommendations []string
	checklist       []CheckItem
}

func newScoreSheet() *scoreSheet {
	return &scoreSheet{
		issues:          make([]string, 0),
		recommendations: make([]string, 0),
		checklist:       make([]CheckItem, 0, 12),
	}
}

func (s *scoreSheet) add(points int) {
	s.score += points
}

func (s *scoreSheet) check(sev Severity, format string, args ...any) {
	s.checklist = append(s.checklist, CheckItem{Severity: sev, Message: fmt.Sprintf(format, args...)})
}

func (s *scoreSheet) issue(msg string) {
	s.issues = append(s.issues, msg)
}

func (s *scoreSheet) recommend(format string, args ...any) {
	s.recommendations = append(s.recommendations, fmt.Sprintf(format, args...))
}

func (s *scoreSheet) result(scale GradeScale) ScoreResult {
	score := s.score
	if score > MaxScore {
		score = MaxScore
	}
	if score < 0 {
		score = 0
	}
	grade := scale.Grade(score)
	return ScoreResult{
		Score:           score,
		Grade:           grade,
		GradeLabel:      grade.Label(),
		GradeClass:      grade.Class(),
		Issues:          s.issues,
		Recommendations: s.recommendations,
		Checklist:       s.checklist,
	}
}
