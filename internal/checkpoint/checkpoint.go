package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Training output layout:
//
//	<run root>/seed_<train seed>/<run name>/checkpoints/<global step>.pth

const Suffix = ".pth"

// StepLatest asks for per-run resolution of the highest saved step.
const StepLatest = "latest"

// RunDir returns the training run directory for runName.
func RunDir(runRoot string, trainSeed int, runName string) string {
	return filepath.Join(runRoot, fmt.Sprintf("seed_%d", trainSeed), runName)
}

// Dir returns the checkpoints directory of a training run.
func Dir(runRoot string, trainSeed int, runName string) string {
	return filepath.Join(RunDir(runRoot, trainSeed, runName), "checkpoints")
}

// Path returns the checkpoint file saved at a given global step.
func Path(runRoot string, trainSeed int, runName, step string) string {
	return filepath.Join(Dir(runRoot, trainSeed, runName), step+Suffix)
}

// Ref is the identity a checkpoint path encodes. The evaluation entry
// points recover the same fields to name their test runs.
type Ref struct {
	SeedID  string
	RunName string
	Step    string
}

// Parse recovers a Ref from a checkpoint path.
func Parse(path string) (Ref, error) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, Suffix) {
		return Ref{}, fmt.Errorf("not a checkpoint file: %s", path)
	}

	// seed directory is three levels up from the file
	ckptDir := filepath.Dir(path)
	runDir := filepath.Dir(ckptDir)
	seedDir := filepath.Dir(runDir)

	return Ref{
		SeedID:  filepath.Base(seedDir),
		RunName: filepath.Base(runDir),
		Step:    strings.TrimSuffix(base, Suffix),
	}, nil
}

// TestRunName returns the run name the evaluation entry points derive
// when replaying this checkpoint on envID.
func (r Ref) TestRunName(envID string) string {
	return fmt.Sprintf("test/%s/%s/%s", r.SeedID, envID, r.Step)
}

// ListSteps returns the global steps saved under dir in ascending
// numeric order. Entries that do not parse as steps are skipped.
func ListSteps(dir string) ([]int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoints directory: %w", err)
	}

	var steps []int64
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Suffix) {
			continue
		}
		step, err := strconv.ParseInt(strings.TrimSuffix(entry.Name(), Suffix), 10, 64)
		if err != nil {
			continue
		}
		steps = append(steps, step)
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i] < steps[j] })

	return steps, nil
}

// Latest returns the highest saved step under dir.
func Latest(dir string) (int64, error) {
	steps, err := ListSteps(dir)
	if err != nil {
		return 0, err
	}
	if len(steps) == 0 {
		return 0, fmt.Errorf("no checkpoints under %s", dir)
	}
	return steps[len(steps)-1], nil
}
