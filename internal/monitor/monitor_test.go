package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenfx/greenfx/internal/domain"
)

func newTestMonitor(cpuPct, memPct float64, diskFree uint64) *Monitor {
	m := New("/tmp", time.Second, 512*1024*1024, func() (int, int) { return 3, 1 })
	m.sample = func() (float64, float64, uint64, error) {
		return cpuPct, memPct, diskFree, nil
	}
	return m
}

func TestMonitor_Refresh_StoresSnapshot(t *testing.T) {
	m := newTestMonitor(42.5, 60.0, 10*1024*1024*1024)

	require.NoError(t, m.Refresh())

	snap := m.Snapshot()
	assert.Equal(t, 42.5, snap.CPUPercent)
	assert.Equal(t, 60.0, snap.MemoryPercent)
	assert.Equal(t, 3, snap.QueueDepth)
	assert.Equal(t, 1, snap.ActiveJobs)
	assert.False(t, snap.SampledAt.IsZero())
}

func TestMonitor_Gate_Healthy(t *testing.T) {
	m := newTestMonitor(50.0, 50.0, 10*1024*1024*1024)
	require.NoError(t, m.Refresh())

	assert.Nil(t, m.Gate())
}

func TestMonitor_Gate_BeforeFirstSample(t *testing.T) {
	m := newTestMonitor(99.0, 99.0, 0)

	// No sample yet: fail open rather than refusing every submission.
	assert.Nil(t, m.Gate())
}

func TestMonitor_Gate_LowDisk(t *testing.T) {
	m := newTestMonitor(10.0, 10.0, 100*1024*1024)
	require.NoError(t, m.Refresh())

	rej := m.Gate()
	require.NotNil(t, rej)
	assert.Equal(t, domain.RejectResourceExhausted, rej.Reason)
	assert.Contains(t, rej.Message, "disk")
}

func TestMonitor_Gate_HighCPU(t *testing.T) {
	m := newTestMonitor(95.0, 10.0, 10*1024*1024*1024)
	require.NoError(t, m.Refresh())

	rej := m.Gate()
	require.NotNil(t, rej)
	assert.Equal(t, domain.RejectResourceExhausted, rej.Reason)
	assert.Contains(t, rej.Message, "cpu")
}

func TestMonitor_Gate_HighMemory(t *testing.T) {
	m := newTestMonitor(10.0, 95.0, 10*1024*1024*1024)
	require.NoError(t, m.Refresh())

	rej := m.Gate()
	require.NotNil(t, rej)
	assert.Equal(t, domain.RejectResourceExhausted, rej.Reason)
	assert.Contains(t, rej.Message, "memory")
}
