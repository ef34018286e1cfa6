package scoring

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bricon/seo-engine/analyzer"
	"github.com/bricon/seo-engine/metrics"
	"github.com/bricon/seo-engine/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var testKeywords = analyzer.KeywordConfig{
	Primary:   []string{"keo dán gạch BRICON"},
	Secondary: []string{"keo chà ron"},
	Brand:     []string{"BRICON"},
	General:   []string{"gạch"},
	Weights: analyzer.KeywordWeights{
		Primary: 25, SecondaryBrand: 20, Secondary: 15, Brand: 10, General: 5,
	},
}

type fixture struct {
	svc     *Service
	repo    *store.Store
	clock   *fakeClock
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo, err := store.New(filepath.Join(t.TempDir(), "seo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	a := analyzer.New(analyzer.Options{
		Keywords:   testKeywords,
		SiteDomain: "bricon.com.vn",
		Resolver:   repo,
	})
	t.Cleanup(a.Shutdown)

	clock := &fakeClock{now: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	m := metrics.New()
	svc := New(Options{
		Analyzer: a,
		Repo:     repo,
		ScoreTTL: time.Hour,
		Metrics:  m,
		Now:      clock.Now,
	})
	return fixture{svc: svc, repo: repo, clock: clock, metrics: m}
}

func TestMediaSEOInfoRefreshPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m := &store.Media{
		Filepath: "/static/uploads/tile.jpg",
		AltText:  "Keo dán gạch BRICON cho phòng tắm hiện đại",
		Width:    1200,
		Height:   800,
		FileSize: 150 * 1024,
	}
	require.NoError(t, f.repo.CreateMedia(ctx, m))

	t.Run("Unscored", func(t *testing.T) {
		got, result, err := f.svc.MediaSEOInfo(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, analyzer.ScoreMedia(m.Asset(), testKeywords), result)
		require.NotNil(t, got.SEO.LastChecked)
		assert.True(t, f.clock.Now().Equal(*got.SEO.LastChecked))

		stored, err := f.repo.GetMedia(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, result.Score, stored.SEO.Score)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ScoreRefreshes.WithLabelValues("media", ReasonUnscored)))
	})

	t.Run("FreshAndUnchanged", func(t *testing.T) {
		checked := f.clock.Now()
		f.clock.Advance(30 * time.Minute)

		_, _, err := f.svc.MediaSEOInfo(ctx, m.ID)
		require.NoError(t, err)

		stored, err := f.repo.GetMedia(ctx, m.ID)
		require.NoError(t, err)
		assert.True(t, checked.Equal(*stored.SEO.LastChecked), "fresh score must not be rewritten")
	})

	t.Run("Changed", func(t *testing.T) {
		stored, err := f.repo.GetMedia(ctx, m.ID)
		require.NoError(t, err)
		stored.Caption = "Thi công keo dán gạch cho phòng tắm gia đình tại Hà Nội"
		require.NoError(t, f.repo.UpdateMedia(ctx, stored))

		_, result, err := f.svc.MediaSEOInfo(ctx, m.ID)
		require.NoError(t, err)

		stored, err = f.repo.GetMedia(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, result.Score, stored.SEO.Score)
		assert.True(t, f.clock.Now().Equal(*stored.SEO.LastChecked))
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ScoreRefreshes.WithLabelValues("media", ReasonChanged)))
	})

	t.Run("Stale", func(t *testing.T) {
		f.clock.Advance(2 * time.Hour)
		_, _, err := f.svc.MediaSEOInfo(ctx, m.ID)
		require.NoError(t, err)

		stored, err := f.repo.GetMedia(ctx, m.ID)
		require.NoError(t, err)
		assert.True(t, f.clock.Now().Equal(*stored.SEO.LastChecked))
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ScoreRefreshes.WithLabelValues("media", ReasonStale)))
	})

	t.Run("NotFound", func(t *testing.T) {
		_, _, err := f.svc.MediaSEOInfo(ctx, 404)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestCreateAndUpdateRescore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m := &store.Media{Filepath: "/static/a.jpg"}
	result, err := f.svc.CreateMedia(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, analyzer.GradeF, result.Grade)
	require.NotNil(t, m.SEO.LastChecked)

	m.AltText = "Keo dán gạch BRICON cho phòng tắm hiện đại"
	m.Album = "Sản phẩm"
	result, err = f.svc.UpdateMedia(ctx, m)
	require.NoError(t, err)
	assert.Greater(t, result.Score, 0)

	stored, err := f.repo.GetMedia(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Score, stored.SEO.Score)
	assert.Equal(t, string(result.Grade), stored.SEO.Grade)

	_, err = f.svc.UpdateMedia(ctx, &store.Media{ID: 999, Filepath: "/x.jpg"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestArticleUsesLibraryImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	img := &store.Media{Filepath: "/static/uploads/cover.jpg", AltText: "Keo dán gạch cho sàn"}
	require.NoError(t, f.repo.CreateMedia(ctx, img))

	a := &store.Article{
		Title:        "Cách chọn keo dán gạch bền đẹp cho gia đình",
		FocusKeyword: "keo dán gạch",
		Content:      "<p>Keo dán gạch giúp gạch bám chắc.</p>",
		Image:        "/uploads/cover.jpg",
	}
	result, err := f.svc.CreateArticle(ctx, a)
	require.NoError(t, err)
	assert.Contains(t, checklistMessages(result), "✓ Image alt text contains the keyword")

	got, info, err := f.svc.ArticleSEOInfo(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Score, info.Score)
	assert.Equal(t, result.Score, got.SEO.Score)

	a.Image = ""
	updated, err := f.svc.UpdateArticle(ctx, a)
	require.NoError(t, err)
	assert.Less(t, updated.Score, result.Score)
}

func TestRefreshStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, f.repo.CreateMedia(ctx, &store.Media{Filepath: "/static/m.jpg"}))
	}
	require.NoError(t, f.repo.CreateArticle(ctx, &store.Article{Title: "Bài viết đầu tiên"}))

	report, err := f.svc.RefreshStale(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, RefreshReport{Media: 2, Articles: 1}, report)

	report, err = f.svc.RefreshStale(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, RefreshReport{Media: 1}, report)

	f.clock.Advance(90 * time.Minute)
	report, err = f.svc.RefreshStale(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, RefreshReport{Media: 3, Articles: 1}, report)
}

func checklistMessages(r analyzer.ScoreResult) []string {
	out := make([]string, 0, len(r.Checklist))
	for _, c := range r.Checklist {
		out = append(out, c.Message)
	}
	return out
}
