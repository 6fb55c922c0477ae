package service

import (
	"fmt"
	"sync"

	"github.com/greenfx/greenfx/config"
	"github.com/greenfx/greenfx/internal/domain"
	"github.com/greenfx/greenfx/internal/monitor"
	"github.com/greenfx/greenfx/internal/port"
	"github.com/greenfx/greenfx/internal/ratelimit"
	"github.com/greenfx/greenfx/internal/render/fonts"
)

// Admission decides whether a submission becomes a queued job. Checks run
// cheapest-first: rate limit, parameter validation, then resource gating.
// A rejection leaves no job record behind.
type Admission struct {
	cfg     *config.Config
	store   port.JobStore
	limiter *ratelimit.WindowLimiter
	monitor *monitor.Monitor

	// enqueueMu makes the depth check and the insert one atomic step, so
	// concurrent submissions cannot overshoot the queue ceiling.
	enqueueMu sync.Mutex
}

func NewAdmission(cfg *config.Config, store port.JobStore, limiter *ratelimit.WindowLimiter, mon *monitor.Monitor) *Admission {
	return &Admission{
		cfg:     cfg,
		store:   store,
		limiter: limiter,
		monitor: mon,
	}
}

// TryAdmit validates and enqueues one submission. The returned error is a
// *domain.Rejection for every refusal the client caused.
func (a *Admission) TryAdmit(clientID string, effect domain.EffectKind, params domain.RenderParams) (*domain.Job, error) {
	allowed, st := a.limiter.Allow(clientID)
	if !allowed {
		rej := domain.NewRejection(domain.RejectRateLimited,
			"rate limit of %d submissions per window exceeded", st.Limit)
		rej.RetryAfter = st.RetryAfter
		return nil, rej
	}

	params.ApplyDefaults(effect)
	if err := params.Validate(effect, fonts.Exists); err != nil {
		return nil, err
	}

	if rej := a.monitor.Gate(); rej != nil {
		return nil, rej
	}

	a.enqueueMu.Lock()
	defer a.enqueueMu.Unlock()

	queued, err := a.store.CountByStatus(domain.JobStatusQueued)
	if err != nil {
		return nil, fmt.Errorf("count queued jobs: %w", err)
	}
	if queued >= a.cfg.QueueDepthLimit {
		return nil, domain.NewRejection(domain.RejectResourceExhausted,
			"queue is full (%d jobs waiting)", queued)
	}

	job := domain.NewJob(effect, params)
	if err := a.store.Save(job); err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	return job, nil
}
