// Package monitor samples host resources on an interval and exposes the
// latest snapshot for admission gating and status reporting.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/greenfx/greenfx/internal/domain"
	"github.com/greenfx/greenfx/internal/infrastructure/logger"
)

// Gating thresholds. Above these, accepting another job would degrade the
// jobs already running.
const (
	cpuThresholdPercent    = 90.0
	memoryThresholdPercent = 90.0
)

// Counters supplies the queue figures sampled alongside host metrics.
type Counters func() (queueDepth, activeJobs int)

type Monitor struct {
	path        string
	interval    time.Duration
	minFreeDisk int64
	counters    Counters

	mu       sync.RWMutex
	snapshot domain.ResourceSnapshot

	// sample is swappable in tests.
	sample func() (cpuPct, memPct float64, diskFree uint64, err error)
}

func New(path string, interval time.Duration, minFreeDisk int64, counters Counters) *Monitor {
	m := &Monitor{
		path:        path,
		interval:    interval,
		minFreeDisk: minFreeDisk,
		counters:    counters,
	}
	m.sample = m.sampleHost
	return m
}

func (m *Monitor) sampleHost() (float64, float64, uint64, error) {
	percents, err := cpu.Percent(0, false)
	if err != nil {
		return 0, 0, 0, err
	}
	cpuPct := 0.0
	if len(percents) > 0 {
		cpuPct = percents[0]
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, 0, err
	}

	usage, err := disk.Usage(m.path)
	if err != nil {
		return 0, 0, 0, err
	}

	return cpuPct, vm.UsedPercent, usage.Free, nil
}

// Refresh takes one sample immediately and stores it.
func (m *Monitor) Refresh() error {
	cpuPct, memPct, diskFree, err := m.sample()
	if err != nil {
		return err
	}
	queueDepth, activeJobs := m.counters()

	m.mu.Lock()
	m.snapshot = domain.ResourceSnapshot{
		CPUPercent:    cpuPct,
		MemoryPercent: memPct,
		DiskFreeBytes: diskFree,
		QueueDepth:    queueDepth,
		ActiveJobs:    activeJobs,
		SampledAt:     time.Now().UTC(),
	}
	m.mu.Unlock()
	return nil
}

// Run samples until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	if err := m.Refresh(); err != nil {
		logger.Warn.Printf("resource sample failed: %v", err)
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Refresh(); err != nil {
				logger.Warn.Printf("resource sample failed: %v", err)
			}
		}
	}
}

func (m *Monitor) Snapshot() domain.ResourceSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// Gate returns a rejection when the host is too loaded to take another job,
// nil otherwise. It reads the latest sample rather than sampling inline, so
// admission stays cheap.
func (m *Monitor) Gate() *domain.Rejection {
	snap := m.Snapshot()

	if snap.SampledAt.IsZero() {
		return nil
	}
	if snap.DiskFreeBytes < uint64(m.minFreeDisk) {
		return domain.NewRejection(domain.RejectResourceExhausted,
			"insufficient disk space: %d bytes free", snap.DiskFreeBytes)
	}
	if snap.CPUPercent > cpuThresholdPercent {
		return domain.NewRejection(domain.RejectResourceExhausted,
			"cpu utilization at %.1f%%", snap.CPUPercent)
	}
	if snap.MemoryPercent > memoryThresholdPercent {
		return domain.NewRejection(domain.RejectResourceExhausted,
			"memory utilization at %.1f%%", snap.MemoryPercent)
	}
	return nil
}
