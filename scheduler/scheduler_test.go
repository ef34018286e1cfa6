package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bricon/seo-engine/scoring"
)

type stubRefresher struct {
	mu     sync.Mutex
	calls  int
	limits []int
	err    error
}

func (r *stubRefresher) RefreshStale(_ context.Context, limit int) (scoring.RefreshReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.limits = append(r.limits, limit)
	return scoring.RefreshReport{Media: 1}, r.err
}

func TestScheduleAndStop(t *testing.T) {
	s := New(&stubRefresher{}, 50, nil)
	defer s.Stop()

	require.NoError(t, s.Schedule("@hourly"))
	s.Start()
	assert.Len(t, s.cron.Entries(), 1)

	// Rescheduling replaces the existing entry
	require.NoError(t, s.Schedule("*/15 * * * *"))
	assert.Len(t, s.cron.Entries(), 1)
}

func TestScheduleInvalidSpec(t *testing.T) {
	s := New(&stubRefresher{}, 50, nil)
	defer s.Stop()

	for _, spec := range []string{"", "every hour", "61 * * * *"} {
		assert.Error(t, s.Schedule(spec), "spec %q", spec)
	}
}

func TestRunOnce(t *testing.T) {
	r := &stubRefresher{}
	s := New(r, 0, nil)

	s.RunOnce()
	r.err = errors.New("database is locked")
	s.RunOnce()

	assert.Equal(t, 2, r.calls)
	assert.Equal(t, []int{200, 200}, r.limits)
}
