package store

import (
	"time"

	"github.com/bricon/seo-engine/analyzer"
)

// SEOState is the cached score stored alongside a scored entity
type SEOState struct {
	Score       int        `json:"seo_score"`
	Grade       string     `json:"seo_grade"`
	LastChecked *time.Time `json:"seo_last_checked"`
}

// Media is an image in the media library
type Media struct {
	ID               int64     `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	Filepath         string    `json:"filepath"`
	FileType         string    `json:"file_type"`
	FileSize         int64     `json:"file_size"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	AltText          string    `json:"alt_text"`
	Title            string    `json:"title"`
	Caption          string    `json:"caption"`
	Album            string    `json:"album"`
	SEO              SEOState  `json:"seo"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Asset returns the scoring input of the media item
func (m Media) Asset() analyzer.MediaAsset {
	return analyzer.MediaAsset{
		AltText:  m.AltText,
		Title:    m.Title,
		Caption:  m.Caption,
		Album:    m.Album,
		Width:    m.Width,
		Height:   m.Height,
		FileSize: m.FileSize,
	}
}

// SizeMB returns the file size in megabytes rounded to two decimals
func (m Media) SizeMB() float64 {
	return roundMB(m.FileSize)
}

// Article is a blog post
type Article struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Excerpt         string    `json:"excerpt"`
	Content         string    `json:"content"`
	Image           string    `json:"image"`
	Author          string    `json:"author"`
	MetaTitle       string    `json:"meta_title"`
	MetaDescription string    `json:"meta_description"`
	MetaKeywords    string    `json:"meta_keywords"`
	FocusKeyword    string    `json:"focus_keyword"`
	WordCount       int       `json:"word_count"`
	ReadingTime     int       `json:"reading_time"`
	SEO             SEOState  `json:"seo"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ScoringInput returns the scoring input of the article. Image metadata
// is resolved later through the media library.
func (a Article) ScoringInput() analyzer.Article {
	return analyzer.Article{
		Title:           a.Title,
		MetaDescription: a.MetaDescription,
		FocusKeyword:    a.FocusKeyword,
		Content:         a.Content,
		Image:           a.Image,
	}
}

// UpdateReadingMetrics recomputes word count and reading time from content
func (a *Article) UpdateReadingMetrics() {
	if a.Content == "" {
		a.WordCount = 0
		a.ReadingTime = 1
		return
	}
	a.WordCount = analyzer.WordCount(a.Content)
	a.ReadingTime = analyzer.ReadingTime(a.Content)
}

// SEOBucket groups media by score for library filtering
type SEOBucket string

const (
	BucketExcellent SEOBucket = "excellent"
	BucketGood      SEOBucket = "good"
	BucketFair      SEOBucket = "fair"
	BucketPoor      SEOBucket = "poor"
)

// Buckets lists every bucket from best to worst
var Buckets = []SEOBucket{BucketExcellent, BucketGood, BucketFair, BucketPoor}

// Valid reports whether b is a known bucket
func (b SEOBucket) Valid() bool {
	switch b {
	case BucketExcellent, BucketGood, BucketFair, BucketPoor:
		return true
	}
	return false
}

// BucketFor returns the bucket of a score
func BucketFor(score int) SEOBucket {
	switch {
	case score >= 85:
		return BucketExcellent
	case score >= 65:
		return BucketGood
	case score >= 50:
		return BucketFair
	default:
		return BucketPoor
	}
}

// MediaFilter narrows a media listing
type MediaFilter struct {
	Album  string
	Bucket SEOBucket
	Limit  int
	Offset int
}

// LibraryStats summarizes the media library
type LibraryStats struct {
	TotalFiles  int               `json:"total_files"`
	TotalSizeMB float64           `json:"total_size_mb"`
	Buckets     map[SEOBucket]int `json:"seo_stats"`
	Albums      []string          `json:"albums"`
}

func roundMB(size int64) float64 {
	mb := float64(size) / (1024 * 1024)
	return float64(int64(mb*100+0.5)) / 100
}
