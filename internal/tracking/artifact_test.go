package tracking

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractIDsFromArtifactURI(t *testing.T) {
	t.Parallel()

	c := &Client{}

	t.Run("standard uri", func(t *testing.T) {
		experimentID, runID, err := c.extractIDsFromArtifactURI("mlflow-artifacts:/0/47485d6a0b734e37aaddc60be04b7371/artifacts")
		require.NoError(t, err)
		require.Equal(t, "0", experimentID)
		require.Equal(t, "47485d6a0b734e37aaddc60be04b7371", runID)
	})

	t.Run("malformed uri", func(t *testing.T) {
		_, _, err := c.extractIDsFromArtifactURI("mlflow-artifacts:/0")
		require.Error(t, err)
	})
}

func TestUploadToLocalFS(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "episode.mp4")
	require.NoError(t, os.WriteFile(src, []byte("frames"), 0o644))

	dest := t.TempDir()
	c := &Client{}
	require.NoError(t, c.uploadToLocalFS("file://"+dest, src, "videos/HalfCheetah/episode.mp4"))

	copied, err := os.ReadFile(filepath.Join(dest, "videos", "HalfCheetah", "episode.mp4"))
	require.NoError(t, err)
	require.Equal(t, []byte("frames"), copied)
}
