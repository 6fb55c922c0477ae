package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/greenfx/greenfx/config"
	"github.com/greenfx/greenfx/internal/domain"
	"github.com/greenfx/greenfx/internal/infrastructure/logger"
	"github.com/greenfx/greenfx/internal/monitor"
	"github.com/greenfx/greenfx/internal/port"
	"github.com/greenfx/greenfx/internal/ratelimit"
)

// RenderService is the submission front door: admission control, job
// lookups, cancellation, and artifact retention all go through it.
type RenderService struct {
	cfg       *config.Config
	store     port.JobStore
	admission *Admission
	limiter   *ratelimit.WindowLimiter
	monitor   *monitor.Monitor
	scheduler *Scheduler
	estimator *Estimator
	eventBus  *EventBus
}

func NewRenderService(
	cfg *config.Config,
	store port.JobStore,
	limiter *ratelimit.WindowLimiter,
	mon *monitor.Monitor,
	scheduler *Scheduler,
	estimator *Estimator,
	eventBus *EventBus,
) *RenderService {
	return &RenderService{
		cfg:       cfg,
		store:     store,
		admission: NewAdmission(cfg, store, limiter, mon),
		limiter:   limiter,
		monitor:   mon,
		scheduler: scheduler,
		estimator: estimator,
		eventBus:  eventBus,
	}
}

// Submit runs the admission pipeline and, on acceptance, returns the queued
// job together with an estimated render duration.
func (s *RenderService) Submit(clientID string, effect domain.EffectKind, params domain.RenderParams) (*domain.Job, time.Duration, error) {
	job, err := s.admission.TryAdmit(clientID, effect, params)
	if err != nil {
		return nil, 0, err
	}

	estimate := s.estimator.Estimate(job.Effect, job.Params.DurationSeconds, s.cfg.FPS)
	logger.Info.Printf("accepted job %s (effect=%s, duration=%ds, estimate=%s)",
		job.ID, job.Effect, job.Params.DurationSeconds, estimate.Round(time.Second))
	return job, estimate, nil
}

// GetStatus looks up a job. A well-formed id whose record has been purged
// maps to ErrGone; an id that never existed maps to ErrNotFound.
func (s *RenderService) GetStatus(id string) (*domain.Job, error) {
	job, err := s.store.Get(id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, s.resolveMissing(id)
	}
	return job, err
}

// GetArtifact returns a completed job whose artifact is ready to serve.
func (s *RenderService) GetArtifact(id string) (*domain.Job, error) {
	job, err := s.GetStatus(id)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobStatusCompleted {
		return nil, fmt.Errorf("job %s is %s: %w", id, job.Status, domain.ErrNotReady)
	}
	if _, err := os.Stat(job.ArtifactPath); err != nil {
		return nil, domain.ErrGone
	}
	return job, nil
}

// Cancel stops a job that has not finished. A queued job is terminalized
// before any worker claims it; a running job has its render context
// cancelled and the worker cleans up.
func (s *RenderService) Cancel(id string) error {
	canceled, err := s.store.CancelQueued(id, errCanceled.Error())
	if err != nil {
		return err
	}
	if canceled {
		// A queued job never advanced, so its progress stays at zero.
		s.eventBus.Publish(id, Event{
			Type: "status", Status: string(domain.JobStatusFailed),
			Progress: 0, Message: errCanceled.Error(),
		})
		logger.Info.Printf("canceled queued job %s", id)
		return nil
	}

	if s.scheduler.CancelRunning(id) {
		logger.Info.Printf("canceling running job %s", id)
		return nil
	}

	job, err := s.GetStatus(id)
	if err != nil {
		return err
	}
	if job.IsTerminal() {
		return fmt.Errorf("job %s already %s", id, job.Status)
	}
	// Claimed between our checks; the worker has it registered by now.
	if s.scheduler.CancelRunning(id) {
		return nil
	}
	return fmt.Errorf("job %s could not be canceled", id)
}

func (s *RenderService) RateStatus(clientID string) ratelimit.Status {
	return s.limiter.Peek(clientID)
}

func (s *RenderService) Snapshot() domain.ResourceSnapshot {
	return s.monitor.Snapshot()
}

func (s *RenderService) Subscribe(jobID string) chan Event {
	return s.eventBus.Subscribe(jobID)
}

func (s *RenderService) Unsubscribe(jobID string, ch chan Event) {
	s.eventBus.Unsubscribe(jobID, ch)
}

// Cleanup purges terminal jobs older than the retention window, artifact
// and record together, so both expire at the same instant.
func (s *RenderService) Cleanup() error {
	cutoff := time.Now().UTC().Add(-s.cfg.RetentionDuration)
	expired, err := s.store.ListExpired(cutoff)
	if err != nil {
		return err
	}

	for _, job := range expired {
		if job.ArtifactPath != "" {
			if err := os.Remove(job.ArtifactPath); err != nil && !os.IsNotExist(err) {
				logger.Error.Printf("failed to remove artifact for %s: %v", job.ID, err)
				continue
			}
		}
		if err := s.store.Delete(job.ID); err != nil {
			logger.Error.Printf("failed to delete job %s: %v", job.ID, err)
			continue
		}
		logger.Debug.Printf("reaped job %s", job.ID)
	}

	if len(expired) > 0 {
		logger.Info.Printf("reaped %d expired jobs", len(expired))
	}
	return nil
}

// RunReaper calls Cleanup on an interval until the context is cancelled.
func (s *RenderService) RunReaper(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Cleanup(); err != nil {
				logger.Error.Printf("cleanup failed: %v", err)
			}
		}
	}
}

func (s *RenderService) resolveMissing(id string) error {
	ts, ok := domain.ParseJobIDTime(id)
	if ok && time.Since(ts) > s.cfg.RetentionDuration {
		return domain.ErrGone
	}
	return domain.ErrNotFound
}
