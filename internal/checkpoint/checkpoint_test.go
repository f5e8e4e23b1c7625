package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	t.Parallel()

	got := Path("runs/training", 0, "Ant", "99942400")
	require.Equal(t, "runs/training/seed_0/Ant/checkpoints/99942400.pth", got)

	got = Path("runs/training", 3, "ContextualAntTrain_with_oracle_sys_params", "12800")
	require.Equal(t, "runs/training/seed_3/ContextualAntTrain_with_oracle_sys_params/checkpoints/12800.pth", got)
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		path := Path("runs/training", 0, "ContextualAntTrain", "99942400")
		ref, err := Parse(path)
		require.NoError(t, err)
		require.Equal(t, Ref{SeedID: "seed_0", RunName: "ContextualAntTrain", Step: "99942400"}, ref)
	})

	t.Run("rejects non checkpoint files", func(t *testing.T) {
		_, err := Parse("runs/training/seed_0/Ant/checkpoints/model.onnx")
		require.Error(t, err)
	})
}

func TestTestRunName(t *testing.T) {
	t.Parallel()

	ref := Ref{SeedID: "seed_0", RunName: "Ant", Step: "99942400"}
	require.Equal(t, "test/seed_0/HalfCheetah/99942400", ref.TestRunName("HalfCheetah"))
}

func TestListSteps(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"999.pth", "1000.pth", "100.pth", "best.pth", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "512.pth"), 0o755))

	steps, err := ListSteps(dir)
	require.NoError(t, err)

	// numeric order, not lexicographic: 1000 sorts after 999
	require.Equal(t, []int64{100, 999, 1000}, steps)
}

func TestLatest(t *testing.T) {
	t.Parallel()

	t.Run("picks highest step", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"6400.pth", "99942400.pth", "12800.pth"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
		}

		step, err := Latest(dir)
		require.NoError(t, err)
		require.Equal(t, int64(99942400), step)
	})

	t.Run("empty directory", func(t *testing.T) {
		_, err := Latest(t.TempDir())
		require.Error(t, err)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := Latest(filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err)
	})
}
