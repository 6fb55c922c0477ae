package service

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenfx/greenfx/config"
	"github.com/greenfx/greenfx/internal/adapter/storage/sqlite"
	"github.com/greenfx/greenfx/internal/domain"
	"github.com/greenfx/greenfx/internal/monitor"
	"github.com/greenfx/greenfx/internal/ratelimit"
)

func newTestAdmission(t *testing.T, cfg *config.Config) (*Admission, *sqlite.Store) {
	t.Helper()
	store := newTestStore(t, cfg)
	limiter := ratelimit.NewWindowLimiter(cfg.RateLimitPerMinute, time.Minute)
	mon := monitor.New(cfg.DataDir, cfg.MonitorInterval, cfg.MinFreeDiskBytes,
		func() (int, int) { return 0, 0 })
	return NewAdmission(cfg, store, limiter, mon), store
}

func TestAdmission_TryAdmit_EnqueuesJob(t *testing.T) {
	cfg := testConfig(t)
	adm, store := newTestAdmission(t, cfg)

	job, err := adm.TryAdmit("client1", domain.EffectTyping, domain.RenderParams{})
	require.NoError(t, err)

	got, err := store.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusQueued, got.Status)
}

func TestAdmission_ConcurrentSubmissionsRespectQueueDepth(t *testing.T) {
	cfg := testConfig(t)
	cfg.QueueDepthLimit = 2
	cfg.RateLimitPerMinute = 100
	adm, store := newTestAdmission(t, cfg)

	var wg sync.WaitGroup
	var accepted, exhausted atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := adm.TryAdmit("client1", domain.EffectMatrix, domain.RenderParams{})
			if err == nil {
				accepted.Add(1)
				return
			}
			var rej *domain.Rejection
			if errors.As(err, &rej) && rej.Reason == domain.RejectResourceExhausted {
				exhausted.Add(1)
			}
		}()
	}
	wg.Wait()

	// The ceiling holds even when every submission races the depth check.
	assert.Equal(t, int32(2), accepted.Load())
	assert.Equal(t, int32(8), exhausted.Load())

	queued, err := store.CountByStatus(domain.JobStatusQueued)
	require.NoError(t, err)
	assert.Equal(t, 2, queued)
}
