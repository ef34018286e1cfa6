// Package stats keeps monthly scoring counters in a JSON file under the
// data directory.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	monthLayout   = "2006-01"
	fileName      = "stats.json"
	flushInterval = 5 * time.Minute
	// months kept on disk, counting the current one
	defaultRetention = 12
	// minimum spacing between write requests triggered by increments
	writeDebounce = time.Minute
)

// Counters is a set of increments applied to the current month.
// Grade, when set, is added to the month's grade distribution.
type Counters struct {
	MediaScored        int
	ArticlesScored     int
	PreviewCacheHits   int
	PreviewCacheMisses int
	ScoreCacheHits     int
	ScoreCacheMisses   int
	Grade              string
}

// MonthlyStats are the counters of one calendar month
type MonthlyStats struct {
	MediaScored        int            `json:"media_scored"`
	ArticlesScored     int            `json:"articles_scored"`
	PreviewCacheHits   int            `json:"preview_hits"`
	PreviewCacheMisses int            `json:"preview_misses"`
	ScoreCacheHits     int            `json:"score_cache_hits"`
	ScoreCacheMisses   int            `json:"score_cache_misses"`
	Grades             map[string]int `json:"grades,omitempty"`
	LastUpdated        time.Time      `json:"last_updated"`
}

func (m *MonthlyStats) add(c Counters, at time.Time) {
	m.MediaScored += c.MediaScored
	m.ArticlesScored += c.ArticlesScored
	m.PreviewCacheHits += c.PreviewCacheHits
	m.PreviewCacheMisses += c.PreviewCacheMisses
	m.ScoreCacheHits += c.ScoreCacheHits
	m.ScoreCacheMisses += c.ScoreCacheMisses
	if c.Grade != "" {
		if m.Grades == nil {
			m.Grades = make(map[string]int)
		}
		m.Grades[c.Grade]++
	}
	m.LastUpdated = at
}

func (m MonthlyStats) clone() MonthlyStats {
	if m.Grades != nil {
		grades := make(map[string]int, len(m.Grades))
		for g, n := range m.Grades {
			grades[g] = n
		}
		m.Grades = grades
	}
	return m
}

// Option configures a Storage
type Option func(*Storage)

// WithLogger sets the logger used to report failed writes
func WithLogger(logger *zap.Logger) Option {
	return func(s *Storage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRetention sets how many months are kept, counting the current one
func WithRetention(months int) Option {
	return func(s *Storage) {
		if months > 0 {
			s.retain = months
		}
	}
}

// WithClock replaces time.Now, which decides the current month
func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		if now != nil {
			s.now = now
		}
	}
}

// Storage holds monthly statistics in memory and writes them to disk in
// the background
type Storage struct {
	mu        sync.RWMutex
	months    map[string]*MonthlyStats // keyed by YYYY-MM
	path      string
	lastWrite time.Time
	retain    int
	now       func() time.Time
	logger    *zap.Logger

	pending  chan struct{}
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewStorage loads dataDir/stats.json if it exists and starts the writer
func NewStorage(dataDir string, opts ...Option) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &Storage{
		months:  make(map[string]*MonthlyStats),
		path:    filepath.Join(dataDir, fileName),
		retain:  defaultRetention,
		now:     time.Now,
		logger:  zap.NewNop(),
		pending: make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	s.prune()

	go s.writer()

	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read stats: %w", err)
	}
	if err := json.Unmarshal(data, &s.months); err != nil {
		return fmt.Errorf("decode stats %s: %w", s.path, err)
	}
	return nil
}

// save replaces the stats file atomically
func (s *Storage) save() error {
	s.mu.RLock()
	data, err := json.Marshal(s.months)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace stats: %w", err)
	}
	return nil
}

func (s *Storage) flush() {
	if err := s.save(); err != nil {
		s.logger.Error("failed to save statistics", zap.String("path", s.path), zap.Error(err))
	}
}

func (s *Storage) writer() {
	defer close(s.stopped)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.pending:
			s.flush()
		case <-ticker.C:
			s.prune()
			s.flush()
		case <-s.done:
			return
		}
	}
}

func (s *Storage) currentMonth() string {
	return s.now().Format(monthLayout)
}

func (s *Storage) requestWrite() {
	select {
	case s.pending <- struct{}{}:
	default:
	}
}

// IncrementStats adds c to the current month
func (s *Storage) IncrementStats(c Counters) {
	now := s.now()
	month := now.Format(monthLayout)

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.months[month]
	if !ok {
		m = &MonthlyStats{}
		s.months[month] = m
	}
	m.add(c, now)

	if now.Sub(s.lastWrite) > writeDebounce {
		s.lastWrite = now
		s.requestWrite()
	}
}

// GetCurrentStats returns a copy of the current month's statistics
func (s *Storage) GetCurrentStats() MonthlyStats {
	ms, _ := s.GetMonthlyStats(s.currentMonth())
	return ms
}

// GetMonthlyStats returns a copy of the statistics for a YYYY-MM month
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.months[yearMonth]
	if !ok {
		return MonthlyStats{}, false
	}
	return m.clone(), true
}

// GetAllMonths returns every month with statistics, newest first
func (s *Storage) GetAllMonths() []string {
	s.mu.RLock()
	months := make([]string, 0, len(s.months))
	for month := range s.months {
		months = append(months, month)
	}
	s.mu.RUnlock()

	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// prune drops months outside the retention window
func (s *Storage) prune() {
	now := s.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	keep := make(map[string]bool, s.retain)
	for i := 0; i < s.retain; i++ {
		keep[first.AddDate(0, -i, 0).Format(monthLayout)] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for month := range s.months {
		if !keep[month] {
			delete(s.months, month)
		}
	}
}

// Shutdown stops the writer and flushes statistics to disk
func (s *Storage) Shutdown() error {
	s.stopOnce.Do(func() { close(s.done) })
	<-s.stopped
	return s.save()
}
