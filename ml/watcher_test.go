package ml

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactWatcherMarksStale(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SaveArtifact(dir, testArtifact(KindCrop)))
	reg := NewRegistry(dir)
	require.NoError(t, reg.EnsureLoaded(context.Background(), KindCrop))

	aw, err := NewArtifactWatcher(reg, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	aw.Start(ctx)
	defer aw.Close()

	require.NoError(t, os.WriteFile(ArtifactPath(dir, KindCrop, partFeatures), []byte(`["N","P"]`), 0o600))

	assert.Eventually(t, func() bool {
		return reg.Status()[0].Stale
	}, 2*time.Second, 10*time.Millisecond)

	art, err := reg.Artifact(context.Background(), KindCrop)
	require.NoError(t, err)
	assert.Equal(t, []string{"N", "P"}, art.Features)
}

func TestArtifactWatcherCloseWithoutStart(t *testing.T) {
	reg := NewRegistry(t.TempDir())
	aw, err := NewArtifactWatcher(reg, nil)
	require.NoError(t, err)
	assert.NoError(t, aw.Close())
	assert.NoError(t, aw.Close())
}
