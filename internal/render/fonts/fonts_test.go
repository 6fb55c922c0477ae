package fonts

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExists(t *testing.T) {
	assert.True(t, Exists("mono"))
	assert.True(t, Exists("mono-bold"))
	assert.True(t, Exists("regular"))
	assert.True(t, Exists("bold"))
	assert.False(t, Exists("comic-sans"))
	assert.False(t, Exists(""))
}

func TestIDs_SortedAndComplete(t *testing.T) {
	ids := IDs()

	assert.Equal(t, []string{"bold", "mono", "mono-bold", "regular"}, ids)
}

func TestFace_KnownFont(t *testing.T) {
	face, err := Face("mono", 16)

	require.NoError(t, err)
	require.NotNil(t, face)
	assert.Greater(t, face.Metrics().Height.Ceil(), 0)
}

func TestFace_UnknownFont(t *testing.T) {
	_, err := Face("comic-sans", 16)

	assert.Error(t, err)
}

func TestFace_ConcurrentConstruction(t *testing.T) {
	// Faces are built per call because a Face is not safe for concurrent
	// use; concurrent construction must be.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			face, err := Face("mono", 12)
			assert.NoError(t, err)
			assert.NotNil(t, face)
		}()
	}
	wg.Wait()
}
