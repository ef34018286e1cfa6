// Package scoring keeps persisted SEO scores of library entities current.
package scoring

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bricon/seo-engine/analyzer"
	"github.com/bricon/seo-engine/metrics"
	"github.com/bricon/seo-engine/stats"
	"github.com/bricon/seo-engine/store"
)

// Refresh reasons reported to metrics
const (
	ReasonUnscored = "unscored"
	ReasonStale    = "stale"
	ReasonChanged  = "changed"
	ReasonSaved    = "saved"
)

// Repository is the persistence the service needs
type Repository interface {
	GetMedia(ctx context.Context, id int64) (*store.Media, error)
	CreateMedia(ctx context.Context, m *store.Media) error
	UpdateMedia(ctx context.Context, m *store.Media) error
	SaveMediaScore(ctx context.Context, id int64, score int, grade string, checkedAt time.Time) error
	StaleMedia(ctx context.Context, cutoff time.Time, limit int) ([]store.Media, error)

	GetArticle(ctx context.Context, id int64) (*store.Article, error)
	CreateArticle(ctx context.Context, a *store.Article) error
	UpdateArticle(ctx context.Context, a *store.Article) error
	SaveArticleScore(ctx context.Context, id int64, score int, grade string, checkedAt time.Time) error
	StaleArticles(ctx context.Context, cutoff time.Time, limit int) ([]store.Article, error)
}

// Options configures a Service
type Options struct {
	Analyzer *analyzer.Analyzer
	Repo     Repository
	// ScoreTTL is how long a persisted score is trusted without rewriting
	ScoreTTL time.Duration
	Stats    *stats.Storage
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Now      func() time.Time
}

// Service scores stored entities and writes the results back
type Service struct {
	analyzer *analyzer.Analyzer
	repo     Repository
	ttl      time.Duration
	stats    *stats.Storage
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// RefreshReport summarizes one RefreshStale run
type RefreshReport struct {
	Media    int `json:"media"`
	Articles int `json:"articles"`
	Failed   int `json:"failed"`
}

// New creates a Service
func New(opts Options) *Service {
	if opts.ScoreTTL <= 0 {
		opts.ScoreTTL = time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		analyzer: opts.Analyzer,
		repo:     opts.Repo,
		ttl:      opts.ScoreTTL,
		stats:    opts.Stats,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		now:      opts.Now,
	}
}

// refreshReason decides whether a freshly computed score must be
// persisted. It returns "" when the stored score can stay.
func (s *Service) refreshReason(state store.SEOState, result analyzer.ScoreResult, now time.Time) string {
	switch {
	case state.LastChecked == nil:
		return ReasonUnscored
	case now.Sub(*state.LastChecked) > s.ttl:
		return ReasonStale
	case state.Score != result.Score || state.Grade != string(result.Grade):
		return ReasonChanged
	}
	return ""
}

func (s *Service) countLookup(refreshed bool) {
	if s.stats == nil {
		return
	}
	if refreshed {
		s.stats.IncrementStats(stats.Counters{ScoreCacheMisses: 1})
	} else {
		s.stats.IncrementStats(stats.Counters{ScoreCacheHits: 1})
	}
}

func (s *Service) observeRefresh(kind, reason string) {
	if s.metrics != nil {
		s.metrics.ObserveRefresh(kind, reason)
	}
}

// MediaSEOInfo scores a stored media item and persists the result when the
// stored score is missing, older than the TTL, or different
func (s *Service) MediaSEOInfo(ctx context.Context, id int64) (*store.Media, analyzer.ScoreResult, error) {
	m, err := s.repo.GetMedia(ctx, id)
	if err != nil {
		return nil, analyzer.ScoreResult{}, err
	}

	result := s.analyzer.ScoreMedia(m.Asset())
	now := s.now().UTC()
	reason := s.refreshReason(m.SEO, result, now)
	s.countLookup(reason != "")

	if reason != "" {
		if err := s.repo.SaveMediaScore(ctx, m.ID, result.Score, string(result.Grade), now); err != nil {
			return nil, analyzer.ScoreResult{}, fmt.Errorf("save media %d score: %w", m.ID, err)
		}
		m.SEO = store.SEOState{Score: result.Score, Grade: string(result.Grade), LastChecked: &now}
		s.observeRefresh(analyzer.KindMedia, reason)
		s.logger.Debug("media score refreshed",
			zap.Int64("id", m.ID),
			zap.Int("score", result.Score),
			zap.String("reason", reason))
	}
	return m, result, nil
}

// ArticleSEOInfo is MediaSEOInfo for articles
func (s *Service) ArticleSEOInfo(ctx context.Context, id int64) (*store.Article, analyzer.ScoreResult, error) {
	a, err := s.repo.GetArticle(ctx, id)
	if err != nil {
		return nil, analyzer.ScoreResult{}, err
	}

	result := s.analyzer.ScoreArticle(ctx, a.ScoringInput())
	now := s.now().UTC()
	reason := s.refreshReason(a.SEO, result, now)
	s.countLookup(reason != "")

	if reason != "" {
		if err := s.repo.SaveArticleScore(ctx, a.ID, result.Score, string(result.Grade), now); err != nil {
			return nil, analyzer.ScoreResult{}, fmt.Errorf("save article %d score: %w", a.ID, err)
		}
		a.SEO = store.SEOState{Score: result.Score, Grade: string(result.Grade), LastChecked: &now}
		s.observeRefresh(analyzer.KindArticle, reason)
		s.logger.Debug("article score refreshed",
			zap.Int64("id", a.ID),
			zap.Int("score", result.Score),
			zap.String("reason", reason))
	}
	return a, result, nil
}

func (s *Service) stamp(state *store.SEOState, result analyzer.ScoreResult) {
	now := s.now().UTC()
	*state = store.SEOState{Score: result.Score, Grade: string(result.Grade), LastChecked: &now}
}

// CreateMedia scores m and inserts it with the score attached
func (s *Service) CreateMedia(ctx context.Context, m *store.Media) (analyzer.ScoreResult, error) {
	result := s.analyzer.ScoreMedia(m.Asset())
	s.stamp(&m.SEO, result)
	if err := s.repo.CreateMedia(ctx, m); err != nil {
		return analyzer.ScoreResult{}, err
	}
	s.observeRefresh(analyzer.KindMedia, ReasonSaved)
	return result, nil
}

// UpdateMedia re-scores m and writes it back
func (s *Service) UpdateMedia(ctx context.Context, m *store.Media) (analyzer.ScoreResult, error) {
	result := s.analyzer.ScoreMedia(m.Asset())
	s.stamp(&m.SEO, result)
	if err := s.repo.UpdateMedia(ctx, m); err != nil {
		return analyzer.ScoreResult{}, err
	}
	s.observeRefresh(analyzer.KindMedia, ReasonSaved)
	return result, nil
}

// CreateArticle scores a and inserts it with the score attached
func (s *Service) CreateArticle(ctx context.Context, a *store.Article) (analyzer.ScoreResult, error) {
	result := s.analyzer.ScoreArticle(ctx, a.ScoringInput())
	s.stamp(&a.SEO, result)
	if err := s.repo.CreateArticle(ctx, a); err != nil {
		return analyzer.ScoreResult{}, err
	}
	s.observeRefresh(analyzer.KindArticle, ReasonSaved)
	return result, nil
}

// UpdateArticle re-scores a and writes it back
func (s *Service) UpdateArticle(ctx context.Context, a *store.Article) (analyzer.ScoreResult, error) {
	result := s.analyzer.ScoreArticle(ctx, a.ScoringInput())
	s.stamp(&a.SEO, result)
	if err := s.repo.UpdateArticle(ctx, a); err != nil {
		return analyzer.ScoreResult{}, err
	}
	s.observeRefresh(analyzer.KindArticle, ReasonSaved)
	return result, nil
}

// RefreshStale re-scores up to limit media items and limit articles whose
// persisted score is missing or older than the TTL. Individual failures are
// logged and counted, and only a failed listing aborts the run.
func (s *Service) RefreshStale(ctx context.Context, limit int) (RefreshReport, error) {
	var report RefreshReport
	cutoff := s.now().UTC().Add(-s.ttl)

	media, err := s.repo.StaleMedia(ctx, cutoff, limit)
	if err != nil {
		return report, fmt.Errorf("list stale media: %w", err)
	}
	for _, m := range media {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, _, err := s.MediaSEOInfo(ctx, m.ID); err != nil {
			report.Failed++
			s.logger.Warn("refresh media score failed", zap.Int64("id", m.ID), zap.Error(err))
			continue
		}
		report.Media++
	}

	articles, err := s.repo.StaleArticles(ctx, cutoff, limit)
	if err != nil {
		return report, fmt.Errorf("list stale articles: %w", err)
	}
	for _, a := range articles {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, _, err := s.ArticleSEOInfo(ctx, a.ID); err != nil {
			report.Failed++
			s.logger.Warn("refresh article score failed", zap.Int64("id", a.ID), zap.Error(err))
			continue
		}
		report.Articles++
	}

	return report, nil
}
