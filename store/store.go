// Package store persists media, articles and their cached SEO scores in
// SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/bricon/seo-engine/analyzer"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("not found")

// isUniqueViolation reports whether err is a UNIQUE constraint failure
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS media (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	filename TEXT NOT NULL,
	original_filename TEXT NOT NULL DEFAULT '',
	filepath TEXT NOT NULL,
	file_type TEXT NOT NULL DEFAULT '',
	file_size INTEGER NOT NULL DEFAULT 0,
	width INTEGER NOT NULL DEFAULT 0,
	height INTEGER NOT NULL DEFAULT 0,
	alt_text TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	caption TEXT NOT NULL DEFAULT '',
	album TEXT NOT NULL DEFAULT '',
	seo_score INTEGER NOT NULL DEFAULT 0,
	seo_grade TEXT NOT NULL DEFAULT 'F',
	seo_last_checked INTEGER,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_media_filename ON media(filename);
CREATE INDEX IF NOT EXISTS idx_media_filepath ON media(filepath);
CREATE INDEX IF NOT EXISTS idx_media_seo_score ON media(seo_score);

CREATE TABLE IF NOT EXISTS articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	excerpt TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	image TEXT NOT NULL DEFAULT '',
	author TEXT NOT NULL DEFAULT '',
	meta_title TEXT NOT NULL DEFAULT '',
	meta_description TEXT NOT NULL DEFAULT '',
	meta_keywords TEXT NOT NULL DEFAULT '',
	focus_keyword TEXT NOT NULL DEFAULT '',
	word_count INTEGER NOT NULL DEFAULT 0,
	reading_time INTEGER NOT NULL DEFAULT 1,
	seo_score INTEGER NOT NULL DEFAULT 0,
	seo_grade TEXT NOT NULL DEFAULT 'F',
	seo_last_checked INTEGER,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
`

var mediaColumns = []string{
	"id", "filename", "original_filename", "filepath", "file_type", "file_size",
	"width", "height", "alt_text", "title", "caption", "album",
	"seo_score", "seo_grade", "seo_last_checked", "created_at", "updated_at",
}

var articleColumns = []string{
	"id", "title", "slug", "excerpt", "content", "image", "author",
	"meta_title", "meta_description", "meta_keywords", "focus_keyword",
	"word_count", "reading_time",
	"seo_score", "seo_grade", "seo_last_checked", "created_at", "updated_at",
}

// Store provides SQLite-backed persistence
type Store struct {
	db  *sql.DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

// New opens the SQLite database at dbPath and creates missing tables
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create tables: %w", err)
	}

	return &Store{
		db:  db,
		sb:  sq.StatementBuilder.PlaceholderFormat(sq.Question),
		now: time.Now,
	}, nil
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullableMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func scanSEO(score int, grade string, checked sql.NullInt64) SEOState {
	state := SEOState{Score: score, Grade: grade}
	if checked.Valid {
		t := fromMillis(checked.Int64)
		state.LastChecked = &t
	}
	return state
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedia(row rowScanner) (*Media, error) {
	var (
		m                Media
		score            int
		grade            string
		checked          sql.NullInt64
		created, updated int64
	)
	err := row.Scan(
		&m.ID, &m.Filename, &m.OriginalFilename, &m.Filepath, &m.FileType, &m.FileSize,
		&m.Width, &m.Height, &m.AltText, &m.Title, &m.Caption, &m.Album,
		&score, &grade, &checked, &created, &updated,
	)
	if err != nil {
		return nil, err
	}
	m.SEO = scanSEO(score, grade, checked)
	m.CreatedAt = fromMillis(created)
	m.UpdatedAt = fromMillis(updated)
	return &m, nil
}

func scanArticle(row rowScanner) (*Article, error) {
	var (
		a                Article
		score            int
		grade            string
		checked          sql.NullInt64
		created, updated int64
	)
	err := row.Scan(
		&a.ID, &a.Title, &a.Slug, &a.Excerpt, &a.Content, &a.Image, &a.Author,
		&a.MetaTitle, &a.MetaDescription, &a.MetaKeywords, &a.FocusKeyword,
		&a.WordCount, &a.ReadingTime,
		&score, &grade, &checked, &created, &updated,
	)
	if err != nil {
		return nil, err
	}
	a.SEO = scanSEO(score, grade, checked)
	a.CreatedAt = fromMillis(created)
	a.UpdatedAt = fromMillis(updated)
	return &a, nil
}

// CreateMedia inserts m and sets its ID and timestamps
func (s *Store) CreateMedia(ctx context.Context, m *Media) error {
	if m.Filename == "" && m.Filepath != "" {
		m.Filename = m.Filepath[strings.LastIndex(m.Filepath, "/")+1:]
	}
	now := s.now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	if m.SEO.Grade == "" {
		m.SEO.Grade = string(analyzer.GradeF)
	}

	query, args, err := s.sb.Insert("media").
		Columns(mediaColumns[1:]...).
		Values(
			m.Filename, m.OriginalFilename, m.Filepath, m.FileType, m.FileSize,
			m.Width, m.Height, m.AltText, m.Title, m.Caption, m.Album,
			m.SEO.Score, m.SEO.Grade, nullableMillis(m.SEO.LastChecked),
			toMillis(now), toMillis(now),
		).ToSql()
	if err != nil {
		return fmt.Errorf("build insert media: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert media: %w", err)
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("media id: %w", err)
	}
	return nil
}

// UpdateMedia writes the descriptive fields and cached score of m
func (s *Store) UpdateMedia(ctx context.Context, m *Media) error {
	m.UpdatedAt = s.now().UTC()

	query, args, err := s.sb.Update("media").SetMap(map[string]any{
		"filename":          m.Filename,
		"original_filename": m.OriginalFilename,
		"filepath":          m.Filepath,
		"file_type":         m.FileType,
		"file_size":         m.FileSize,
		"width":             m.Width,
		"height":            m.Height,
		"alt_text":          m.AltText,
		"title":             m.Title,
		"caption":           m.Caption,
		"album":             m.Album,
		"seo_score":         m.SEO.Score,
		"seo_grade":         m.SEO.Grade,
		"seo_last_checked":  nullableMillis(m.SEO.LastChecked),
		"updated_at":        toMillis(m.UpdatedAt),
	}).Where(sq.Eq{"id": m.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("build update media: %w", err)
	}

	return s.execOne(ctx, "update media", query, args)
}

// GetMedia returns the media item with the given ID
func (s *Store) GetMedia(ctx context.Context, id int64) (*Media, error) {
	return s.getMedia(ctx, sq.Eq{"id": id})
}

func (s *Store) getMedia(ctx context.Context, where sq.Sqlizer) (*Media, error) {
	query, args, err := s.sb.Select(mediaColumns...).From("media").
		Where(where).OrderBy("id").Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select media: %w", err)
	}

	m, err := scanMedia(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select media: %w", err)
	}
	return m, nil
}

// bucketCondition is the score range of a bucket
func bucketCondition(b SEOBucket) sq.Sqlizer {
	switch b {
	case BucketExcellent:
		return sq.GtOrEq{"seo_score": 85}
	case BucketGood:
		return sq.And{sq.GtOrEq{"seo_score": 65}, sq.LtOrEq{"seo_score": 84}}
	case BucketFair:
		return sq.And{sq.GtOrEq{"seo_score": 50}, sq.LtOrEq{"seo_score": 64}}
	default:
		return sq.Lt{"seo_score": 50}
	}
}

// ListMedia returns media newest first, filtered by album and SEO bucket
func (s *Store) ListMedia(ctx context.Context, f MediaFilter) ([]Media, error) {
	q := s.sb.Select(mediaColumns...).From("media").OrderBy("created_at DESC", "id DESC")
	if f.Album != "" {
		q = q.Where(sq.Eq{"album": f.Album})
	}
	if f.Bucket != "" {
		q = q.Where(bucketCondition(f.Bucket))
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
		if f.Offset > 0 {
			q = q.Offset(uint64(f.Offset))
		}
	}
	return s.queryMedia(ctx, q)
}

func (s *Store) queryMedia(ctx context.Context, q sq.SelectBuilder) ([]Media, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list media: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	items := make([]Media, 0)
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media: %w", err)
	}
	return items, nil
}

// MediaLibraryStats counts files, total size, SEO buckets and albums
func (s *Store) MediaLibraryStats(ctx context.Context) (LibraryStats, error) {
	stats := LibraryStats{Buckets: make(map[SEOBucket]int, len(Buckets))}

	query, args, err := s.sb.Select("COUNT(*)", "COALESCE(SUM(file_size), 0)").From("media").ToSql()
	if err != nil {
		return stats, fmt.Errorf("build media totals: %w", err)
	}
	var totalSize int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&stats.TotalFiles, &totalSize); err != nil {
		return stats, fmt.Errorf("media totals: %w", err)
	}
	stats.TotalSizeMB = roundMB(totalSize)

	for _, b := range Buckets {
		query, args, err := s.sb.Select("COUNT(*)").From("media").Where(bucketCondition(b)).ToSql()
		if err != nil {
			return stats, fmt.Errorf("build bucket count: %w", err)
		}
		var n int
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
			return stats, fmt.Errorf("count %s media: %w", b, err)
		}
		stats.Buckets[b] = n
	}

	albums, err := s.Albums(ctx)
	if err != nil {
		return stats, err
	}
	stats.Albums = albums
	return stats, nil
}

// Albums lists the distinct non-empty album names
func (s *Store) Albums(ctx context.Context) ([]string, error) {
	query, args, err := s.sb.Select("DISTINCT album").From("media").
		Where(sq.NotEq{"album": ""}).OrderBy("album").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build albums: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}
	defer rows.Close()

	albums := make([]string, 0)
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scan album: %w", err)
		}
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

// FindMediaByImageURL finds the library entry behind an image reference.
// Absolute URLs match the stored path exactly; local paths match by file
// name first, then by the path normalized under /static/.
func (s *Store) FindMediaByImageURL(ctx context.Context, imageURL string) (*Media, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, ErrNotFound
	}

	if strings.HasPrefix(imageURL, "http://") || strings.HasPrefix(imageURL, "https://") {
		return s.getMedia(ctx, sq.Eq{"filepath": imageURL})
	}

	filename := imageURL[strings.LastIndex(imageURL, "/")+1:]
	m, err := s.getMedia(ctx, sq.Eq{"filename": filename})
	if err == nil || !errors.Is(err, ErrNotFound) {
		return m, err
	}

	return s.getMedia(ctx, sq.Eq{"filepath": normalizeStaticPath(imageURL)})
}

func normalizeStaticPath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if strings.HasPrefix(p, "/static/") {
		return p
	}
	if strings.HasPrefix(p, "/uploads/") {
		return "/static" + p
	}
	return "/static/" + strings.TrimLeft(p, "/")
}

// ResolveImageSEO implements analyzer.ImageResolver over the media library
func (s *Store) ResolveImageSEO(ctx context.Context, imageURL string) (*analyzer.ImageSEO, error) {
	m, err := s.FindMediaByImageURL(ctx, imageURL)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &analyzer.ImageSEO{AltText: m.AltText, Title: m.Title, Caption: m.Caption}, nil
}

// SaveMediaScore stores a freshly computed score
func (s *Store) SaveMediaScore(ctx context.Context, id int64, score int, grade string, checkedAt time.Time) error {
	return s.saveScore(ctx, "media", id, score, grade, checkedAt)
}

// StaleMedia returns media never scored or last scored before cutoff
func (s *Store) StaleMedia(ctx context.Context, cutoff time.Time, limit int) ([]Media, error) {
	q := s.sb.Select(mediaColumns...).From("media").
		Where(staleCondition(cutoff)).OrderBy("id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return s.queryMedia(ctx, q)
}

func staleCondition(cutoff time.Time) sq.Sqlizer {
	return sq.Or{sq.Eq{"seo_last_checked": nil}, sq.Lt{"seo_last_checked": toMillis(cutoff)}}
}

func (s *Store) saveScore(ctx context.Context, table string, id int64, score int, grade string, checkedAt time.Time) error {
	query, args, err := s.sb.Update(table).
		Set("seo_score", score).
		Set("seo_grade", grade).
		Set("seo_last_checked", toMillis(checkedAt)).
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build save %s score: %w", table, err)
	}
	return s.execOne(ctx, "save "+table+" score", query, args)
}

func (s *Store) execOne(ctx context.Context, op, query string, args []any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
