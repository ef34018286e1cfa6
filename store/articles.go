package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	sq "github.com/Masterminds/squirrel"
	"golang.org/x/text/unicode/norm"

	"github.com/bricon/seo-engine/analyzer"
)

// CreateArticle inserts a, deriving its slug and reading metrics
func (s *Store) CreateArticle(ctx context.Context, a *Article) error {
	if a.Slug == "" {
		a.Slug = Slugify(a.Title)
	}
	if a.Slug == "" {
		return ErrEmptySlug
	}
	a.UpdateReadingMetrics()
	now := s.now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	if a.SEO.Grade == "" {
		a.SEO.Grade = string(analyzer.GradeF)
	}

	query, args, err := s.sb.Insert("articles").
		Columns(articleColumns[1:]...).
		Values(
			a.Title, a.Slug, a.Excerpt, a.Content, a.Image, a.Author,
			a.MetaTitle, a.MetaDescription, a.MetaKeywords, a.FocusKeyword,
			a.WordCount, a.ReadingTime,
			a.SEO.Score, a.SEO.Grade, nullableMillis(a.SEO.LastChecked),
			toMillis(now), toMillis(now),
		).ToSql()
	if err != nil {
		return fmt.Errorf("build insert article: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return fmt.Errorf("insert article %q: %w", a.Slug, ErrSlugTaken)
	}
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("article id: %w", err)
	}
	return nil
}

var (
	// ErrEmptySlug is returned when an article title yields no usable slug
	ErrEmptySlug = errors.New("title produces an empty slug")
	// ErrSlugTaken is returned when another article already uses the slug
	ErrSlugTaken = errors.New("slug is already in use")
)

// UpdateArticle writes every editable field of a
func (s *Store) UpdateArticle(ctx context.Context, a *Article) error {
	if a.Slug == "" {
		a.Slug = Slugify(a.Title)
	}
	if a.Slug == "" {
		return ErrEmptySlug
	}
	a.UpdateReadingMetrics()
	a.UpdatedAt = s.now().UTC()

	query, args, err := s.sb.Update("articles").SetMap(map[string]any{
		"title":            a.Title,
		"slug":             a.Slug,
		"excerpt":          a.Excerpt,
		"content":          a.Content,
		"image":            a.Image,
		"author":           a.Author,
		"meta_title":       a.MetaTitle,
		"meta_description": a.MetaDescription,
		"meta_keywords":    a.MetaKeywords,
		"focus_keyword":    a.FocusKeyword,
		"word_count":       a.WordCount,
		"reading_time":     a.ReadingTime,
		"seo_score":        a.SEO.Score,
		"seo_grade":        a.SEO.Grade,
		"seo_last_checked": nullableMillis(a.SEO.LastChecked),
		"updated_at":       toMillis(a.UpdatedAt),
	}).Where(sq.Eq{"id": a.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("build update article: %w", err)
	}

	err = s.execOne(ctx, "update article", query, args)
	if isUniqueViolation(err) {
		return fmt.Errorf("update article %q: %w", a.Slug, ErrSlugTaken)
	}
	return err
}

// GetArticle returns the article with the given ID
func (s *Store) GetArticle(ctx context.Context, id int64) (*Article, error) {
	query, args, err := s.sb.Select(articleColumns...).From("articles").
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select article: %w", err)
	}

	a, err := scanArticle(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select article: %w", err)
	}
	return a, nil
}

// ListArticles returns articles newest first
func (s *Store) ListArticles(ctx context.Context, limit, offset int) ([]Article, error) {
	q := s.sb.Select(articleColumns...).From("articles").OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
		if offset > 0 {
			q = q.Offset(uint64(offset))
		}
	}
	return s.queryArticles(ctx, q)
}

// StaleArticles returns articles never scored or last scored before cutoff
func (s *Store) StaleArticles(ctx context.Context, cutoff time.Time, limit int) ([]Article, error) {
	q := s.sb.Select(articleColumns...).From("articles").
		Where(staleCondition(cutoff)).OrderBy("id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return s.queryArticles(ctx, q)
}

// SaveArticleScore stores a freshly computed score
func (s *Store) SaveArticleScore(ctx context.Context, id int64, score int, grade string, checkedAt time.Time) error {
	return s.saveScore(ctx, "articles", id, score, grade, checkedAt)
}

func (s *Store) queryArticles(ctx context.Context, q sq.SelectBuilder) ([]Article, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list articles: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	items := make([]Article, 0)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return items, nil
}

// Slugify turns a title into a URL slug. Vietnamese diacritics are
// removed and đ becomes d.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range norm.NFD.String(strings.ToLower(title)) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r == 'đ':
			r = 'd'
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
