package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/greenfx/greenfx/config"
	"github.com/greenfx/greenfx/internal/domain"
	"github.com/greenfx/greenfx/internal/infrastructure/logger"
	"github.com/greenfx/greenfx/internal/port"
	"github.com/greenfx/greenfx/internal/render/matrixrain"
	"github.com/greenfx/greenfx/internal/render/typing"
)

// Progress milestones. Rendering advances 5 to 90, finalize sits at 95,
// terminal states at 100.
const (
	progressRenderStart = 5
	progressRenderEnd   = 90
	progressFinalize    = 95
)

var errCanceled = errors.New("canceled")

// EventPublisher decouples the scheduler from the concrete bus.
type EventPublisher interface {
	Publish(jobID string, event Event)
}

// Scheduler drains the queued-job FIFO with a fixed pool of workers. Each
// worker claims, renders, encodes, and terminalizes one job at a time.
type Scheduler struct {
	store     port.JobStore
	encoder   port.FrameEncoder
	history   port.GenerationHistory
	eventBus  EventPublisher
	cfg       *config.Config
	outputDir string

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	active  int
}

func NewScheduler(
	store port.JobStore,
	encoder port.FrameEncoder,
	history port.GenerationHistory,
	eventBus EventPublisher,
	cfg *config.Config,
) *Scheduler {
	return &Scheduler{
		store:     store,
		encoder:   encoder,
		history:   history,
		eventBus:  eventBus,
		cfg:       cfg,
		outputDir: filepath.Join(cfg.DataDir, "output"),
		cancels:   make(map[string]context.CancelFunc),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	// Reset any stalled jobs from previous runs
	if err := s.store.ResetStalled(); err != nil {
		logger.Error.Printf("failed to reset stalled jobs: %v", err)
	}

	for i := 0; i < s.cfg.Workers; i++ {
		go s.runWorker(ctx, i)
	}
	logger.Info.Printf("started %d workers", s.cfg.Workers)
}

func (s *Scheduler) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			logger.Info.Printf("worker %d shutting down", id)
			return
		default:
		}

		job, err := s.store.Claim()
		if err != nil {
			logger.Error.Printf("worker %d: failed to claim job: %v", id, err)
			time.Sleep(2 * time.Second)
			continue
		}

		if job == nil {
			// No pending jobs, wait before polling again
			time.Sleep(500 * time.Millisecond)
			continue
		}

		logger.Info.Printf("worker %d: processing job %s (effect=%s, duration=%ds)",
			id, job.ID, job.Effect, job.Params.DurationSeconds)
		s.processJob(ctx, job)
	}
}

// Active reports how many jobs are being rendered right now.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// CancelRunning aborts an in-flight render. Returns false if the job is not
// currently running on any worker.
func (s *Scheduler) CancelRunning(id string) bool {
	s.mu.Lock()
	cancel, ok := s.cancels[id]
	s.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

func (s *Scheduler) processJob(ctx context.Context, job *domain.Job) {
	started := time.Now()

	jobCtx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout(job.Params.DurationSeconds))
	s.mu.Lock()
	s.cancels[job.ID] = cancel
	s.active++
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		delete(s.cancels, job.ID)
		s.active--
		s.mu.Unlock()

		if r := recover(); r != nil {
			logger.Error.Printf("job %s panicked: %v", job.ID, r)
			s.fail(job, started, 0, fmt.Errorf("internal render error"))
		}
	}()

	s.publish(job.ID, "status", string(domain.JobStatusRunning), 0, "")

	frames, err := s.render(jobCtx, job)
	if err != nil {
		logger.Error.Printf("job %s failed: %v", job.ID, err)
		s.fail(job, started, frames, err)
		return
	}

	logger.Info.Printf("job %s completed in %s", job.ID, time.Since(started).Round(time.Millisecond))
	s.publish(job.ID, "status", string(domain.JobStatusCompleted), 100, "")
	s.record(job, started, frames, true)
}

func (s *Scheduler) render(ctx context.Context, job *domain.Job) (int, error) {
	gen, err := s.buildGenerator(job)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}
	outputPath := filepath.Join(s.outputDir, job.ID+".mp4")

	session, err := s.encoder.Open(outputPath)
	if err != nil {
		return 0, fmt.Errorf("open encode session: %w", err)
	}

	// Abort on every exit that did not complete the job, a panic unwinding
	// out of the render loop included, so the encoder child dies and the
	// partial artifact is removed. Abort after Finalize is a no-op.
	completed := false
	defer func() {
		if !completed {
			session.Abort()
		}
	}()

	total := gen.TotalFrames()
	lastProgress := 0
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return i, fmt.Errorf("render timed out after %d/%d frames", i, total)
			}
			return i, errCanceled
		}

		frame, err := gen.Frame(i)
		if err != nil {
			return i, fmt.Errorf("generate frame %d: %w", i, err)
		}
		if err := session.Push(frame); err != nil {
			return i, err
		}

		progress := progressRenderStart +
			(progressRenderEnd-progressRenderStart)*(i+1)/total
		if progress != lastProgress {
			lastProgress = progress
			_ = s.store.UpdateProgress(job.ID, progress)
			s.publish(job.ID, "progress", string(domain.JobStatusRunning), progress, "")
		}
	}

	_ = s.store.UpdateProgress(job.ID, progressFinalize)
	s.publish(job.ID, "progress", string(domain.JobStatusRunning), progressFinalize, "")

	artifactPath, size, err := session.Finalize()
	if err != nil {
		return total, fmt.Errorf("finalize encode: %w", err)
	}

	checksum, err := checksumFile(artifactPath)
	if err != nil {
		_ = os.Remove(artifactPath)
		return total, fmt.Errorf("checksum artifact: %w", err)
	}

	job.MarkAsCompleted(artifactPath, checksum, size)
	if err := s.store.Complete(job); err != nil {
		// An artifact must never outlive a job that is not completed.
		_ = os.Remove(artifactPath)
		return total, fmt.Errorf("persist completion: %w", err)
	}
	completed = true
	return total, nil
}

func (s *Scheduler) buildGenerator(job *domain.Job) (port.FrameGenerator, error) {
	c, err := domain.ParseHexColor(job.Params.TextColor)
	if err != nil {
		return nil, err
	}

	switch job.Effect {
	case domain.EffectTyping:
		return typing.New(typing.Options{
			Width:           s.cfg.VideoWidth,
			Height:          s.cfg.VideoHeight,
			FPS:             s.cfg.FPS,
			DurationSeconds: job.Params.DurationSeconds,
			FontID:          job.Params.FontID,
			FontSize:        job.Params.FontSize,
			Color:           c,
			Text:            job.Params.Text(),
		})
	case domain.EffectMatrix:
		return matrixrain.New(matrixrain.Options{
			Width:           s.cfg.VideoWidth,
			Height:          s.cfg.VideoHeight,
			FPS:             s.cfg.FPS,
			DurationSeconds: job.Params.DurationSeconds,
			FontID:          job.Params.FontID,
			BaseFontSize:    job.Params.FontSize,
			Color:           c,
		})
	default:
		return nil, fmt.Errorf("unknown effect %q", job.Effect)
	}
}

// fail terminalizes the job and publishes the failure with the job's last
// recorded progress; progress freezes where the render stopped.
func (s *Scheduler) fail(job *domain.Job, started time.Time, frames int, err error) {
	_ = s.store.Fail(job.ID, err.Error())
	progress := job.Progress
	if got, gerr := s.store.Get(job.ID); gerr == nil {
		progress = got.Progress
	}
	s.publish(job.ID, "status", string(domain.JobStatusFailed), progress, err.Error())
	s.record(job, started, frames, false)
}

func (s *Scheduler) record(job *domain.Job, started time.Time, frames int, success bool) {
	if s.history == nil {
		return
	}
	err := s.history.Record(domain.GenerationRecord{
		JobID:           job.ID,
		Effect:          job.Effect,
		DurationSeconds: job.Params.DurationSeconds,
		Frames:          frames,
		WallSeconds:     time.Since(started).Seconds(),
		Success:         success,
		RecordedAt:      time.Now().UTC(),
	})
	if err != nil {
		logger.Warn.Printf("failed to record generation history for %s: %v", job.ID, err)
	}
}

func (s *Scheduler) publish(jobID, eventType, status string, progress int, message string) {
	if s.eventBus != nil {
		s.eventBus.Publish(jobID, Event{
			Type:     eventType,
			Status:   status,
			Progress: progress,
			Message:  message,
		})
	}
}

func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
