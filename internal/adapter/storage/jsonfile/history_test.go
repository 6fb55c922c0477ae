package jsonfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenfx/greenfx/internal/domain"
)

func record(effect domain.EffectKind, jobID string) domain.GenerationRecord {
	return domain.GenerationRecord{
		JobID:           jobID,
		Effect:          effect,
		DurationSeconds: 15,
		Frames:          900,
		WallSeconds:     12.5,
		Success:         true,
		RecordedAt:      time.Now().UTC(),
	}
}

func TestHistory_RecordAndRecent(t *testing.T) {
	hist, err := NewHistory(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, hist.Record(record(domain.EffectMatrix, "m1")))
	require.NoError(t, hist.Record(record(domain.EffectTyping, "t1")))
	require.NoError(t, hist.Record(record(domain.EffectMatrix, "m2")))

	recs, err := hist.Recent(domain.EffectMatrix, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "m2", recs[0].JobID)
	assert.Equal(t, "m1", recs[1].JobID)
}

func TestHistory_RecentHonorsLimit(t *testing.T) {
	hist, err := NewHistory(t.TempDir())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, hist.Record(record(domain.EffectMatrix, "m")))
	}

	recs, err := hist.Recent(domain.EffectMatrix, 3)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestHistory_SurvivesReload(t *testing.T) {
	dir := t.TempDir()

	hist, err := NewHistory(dir)
	require.NoError(t, err)
	require.NoError(t, hist.Record(record(domain.EffectTyping, "t1")))

	reloaded, err := NewHistory(dir)
	require.NoError(t, err)

	recs, err := reloaded.Recent(domain.EffectTyping, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "t1", recs[0].JobID)
}

func TestHistory_BoundsFileSize(t *testing.T) {
	hist, err := NewHistory(t.TempDir())
	require.NoError(t, err)

	for i := 0; i < maxRecords+50; i++ {
		require.NoError(t, hist.Record(record(domain.EffectMatrix, "m")))
	}

	recs, err := hist.Recent(domain.EffectMatrix, maxRecords*2)
	require.NoError(t, err)
	assert.Len(t, recs, maxRecords)
}

func TestHistory_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()

	hist, err := NewHistory(dir)
	require.NoError(t, err)
	require.NoError(t, hist.Record(record(domain.EffectMatrix, "m1")))

	_, err = os.Stat(filepath.Join(dir, "history.json"))
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "history.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}
