package analyzer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bricon/seo-engine/stats"
)

// Kinds of scored entities, used for cache keys, statistics and metrics
const (
	KindMedia   = "media"
	KindArticle = "article"
)

// ImageResolver looks up the SEO metadata of an image by reference.
// It returns nil, nil when the image is not in the library.
type ImageResolver interface {
	ResolveImageSEO(ctx context.Context, imageURL string) (*ImageSEO, error)
}

// Options configures an Analyzer
type Options struct {
	Keywords        KeywordConfig
	SiteDomain      string
	Resolver        ImageResolver
	CacheTTL        time.Duration
	MaxCacheSize    int
	CleanupInterval time.Duration
	Stats           *stats.Storage
	Logger          *zap.Logger
	// Observe is called with every computed (non-cached) result
	Observe func(kind string, result ScoreResult)
}

// Cache entry with expiration
type cacheEntry struct {
	result    ScoreResult
	timestamp time.Time
}

// CacheStats provides statistics about the preview cache
type CacheStats struct {
	Entries  int           `json:"entries"`
	Hits     int           `json:"hits"`
	Misses   int           `json:"misses"`
	CacheTTL time.Duration `json:"cacheTTL"`
}

// Analyzer binds the scoring rules to a keyword dictionary, a site domain
// and an image resolver, and caches live-preview results
type Analyzer struct {
	keywords        KeywordConfig
	siteDomain      string
	resolver        ImageResolver
	cache           map[string]cacheEntry
	cacheMutex      sync.RWMutex
	cacheTTL        time.Duration
	maxCacheSize    int
	cleanupInterval time.Duration
	stats           *stats.Storage
	logger          *zap.Logger
	observe         func(kind string, result ScoreResult)
	done            chan struct{}
	stopOnce        sync.Once
}

// New creates a new Analyzer instance and starts its cache cleanup loop
func New(opts Options) *Analyzer {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	if opts.MaxCacheSize <= 0 {
		opts.MaxCacheSize = 1000
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	a := &Analyzer{
		keywords:        opts.Keywords,
		siteDomain:      opts.SiteDomain,
		resolver:        opts.Resolver,
		cache:           make(map[string]cacheEntry),
		cacheTTL:        opts.CacheTTL,
		maxCacheSize:    opts.MaxCacheSize,
		cleanupInterval: opts.CleanupInterval,
		stats:           opts.Stats,
		logger:          opts.Logger,
		observe:         opts.Observe,
		done:            make(chan struct{}),
	}

	go a.periodicCleanup()

	return a
}

// ScoreMedia scores an image with the configured keywords
func (a *Analyzer) ScoreMedia(asset MediaAsset) ScoreResult {
	result := ScoreMedia(asset, a.keywords)
	a.record(KindMedia, result)
	return result
}

// ScoreArticle resolves the article's image metadata if needed and scores it
func (a *Analyzer) ScoreArticle(ctx context.Context, article Article) ScoreResult {
	article = a.resolveImage(ctx, article)
	result := ScoreArticle(article, a.keywords, a.siteDomain)
	a.record(KindArticle, result)
	return result
}

// PreviewMedia is ScoreMedia behind the preview cache
func (a *Analyzer) PreviewMedia(asset MediaAsset) ScoreResult {
	key := generateCacheKey(KindMedia, asset)
	if result, ok := a.cached(key); ok {
		return result
	}
	result := a.ScoreMedia(asset)
	a.store(key, result)
	return result
}

// PreviewArticle is ScoreArticle behind the preview cache
func (a *Analyzer) PreviewArticle(ctx context.Context, article Article) ScoreResult {
	key := generateCacheKey(KindArticle, article)
	if result, ok := a.cached(key); ok {
		return result
	}
	result := a.ScoreArticle(ctx, article)
	a.store(key, result)
	return result
}

// ScorePage extracts an article from an HTML page and scores it
func (a *Analyzer) ScorePage(ctx context.Context, page io.Reader, focusKeyword string) (Article, ScoreResult, error) {
	article, err := ArticleFromHTML(page, focusKeyword)
	if err != nil {
		return Article{}, ScoreResult{}, err
	}
	return article, a.ScoreArticle(ctx, article), nil
}

// resolveImage fills ImageSEO from the resolver. Library entries without
// alt text or title fall back to the article title, as do images that are
// not in the library at all. Resolver failures leave ImageSEO empty.
func (a *Analyzer) resolveImage(ctx context.Context, article Article) Article {
	if article.Image == "" || article.ImageSEO != nil || a.resolver == nil {
		return article
	}

	seo, err := a.resolver.ResolveImageSEO(ctx, article.Image)
	if err != nil {
		a.logger.Warn("image metadata lookup failed",
			zap.String("image", article.Image),
			zap.Error(err))
		return article
	}

	resolved := ImageSEO{}
	if seo != nil {
		resolved = *seo
	}
	if resolved.AltText == "" {
		resolved.AltText = article.Title
	}
	if resolved.Title == "" {
		resolved.Title = article.Title
	}
	article.ImageSEO = &resolved
	return article
}

func (a *Analyzer) record(kind string, result ScoreResult) {
	if a.stats != nil {
		switch kind {
		case KindMedia:
			a.stats.IncrementStats(stats.Counters{MediaScored: 1, Grade: string(result.Grade)})
		case KindArticle:
			a.stats.IncrementStats(stats.Counters{ArticlesScored: 1, Grade: string(result.Grade)})
		}
	}
	if a.observe != nil {
		a.observe(kind, result)
	}
}

func (a *Analyzer) cached(key string) (ScoreResult, bool) {
	a.cacheMutex.RLock()
	entry, found := a.cache[key]
	ttl := a.cacheTTL
	a.cacheMutex.RUnlock()

	if found && time.Since(entry.timestamp) < ttl {
		if a.stats != nil {
			a.stats.IncrementStats(stats.Counters{PreviewCacheHits: 1})
		}
		return entry.result, true
	}
	if a.stats != nil {
		a.stats.IncrementStats(stats.Counters{PreviewCacheMisses: 1})
	}
	return ScoreResult{}, false
}

func (a *Analyzer) store(key string, result ScoreResult) {
	a.cacheMutex.Lock()
	a.cache[key] = cacheEntry{result: result, timestamp: time.Now()}
	a.cacheMutex.Unlock()
}

// generateCacheKey creates a unique key for a scoring input
func generateCacheKey(kind string, input any) string {
	data, err := json.Marshal(input)
	if err != nil {
		data = []byte(fmt.Sprintf("%#v", input))
	}
	hash := md5.Sum(append([]byte(kind+":"), data...))
	return hex.EncodeToString(hash[:])
}

// periodicCleanup removes expired entries from the cache periodically
func (a *Analyzer) periodicCleanup() {
	ticker := time.NewTicker(a.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.cleanup()
		case <-a.done:
			return
		}
	}
}

// cleanup removes expired entries and enforces the cache size limit
func (a *Analyzer) cleanup() {
	a.cacheMutex.Lock()
	defer a.cacheMutex.Unlock()
	a.cleanupLocked(time.Now())
}

func (a *Analyzer) cleanupLocked(now time.Time) {
	for key, entry := range a.cache {
		if now.Sub(entry.timestamp) > a.cacheTTL {
			delete(a.cache, key)
		}
	}

	if len(a.cache) <= a.maxCacheSize {
		return
	}

	// Still over the limit: drop the oldest entries
	type keyed struct {
		key       string
		timestamp time.Time
	}
	entries := make([]keyed, 0, len(a.cache))
	for key, entry := range a.cache {
		entries = append(entries, keyed{key, entry.timestamp})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].timestamp.Before(entries[j].timestamp)
	})
	for i := 0; i < len(entries)-a.maxCacheSize; i++ {
		delete(a.cache, entries[i].key)
	}
}

// GetCacheStats returns statistics about the preview cache
func (a *Analyzer) GetCacheStats() CacheStats {
	a.cacheMutex.RLock()
	cs := CacheStats{Entries: len(a.cache), CacheTTL: a.cacheTTL}
	a.cacheMutex.RUnlock()

	if a.stats != nil {
		current := a.stats.GetCurrentStats()
		cs.Hits = current.PreviewCacheHits
		cs.Misses = current.PreviewCacheMisses
	}
	return cs
}

// Shutdown stops the cleanup loop and drops the cache
func (a *Analyzer) Shutdown() {
	if a == nil {
		return
	}
	a.stopOnce.Do(func() { close(a.done) })
	a.clearCache()
}

func (a *Analyzer) clearCache() {
	a.cacheMutex.Lock()
	a.cache = make(map[string]cacheEntry)
	a.cacheMutex.Unlock()
}
