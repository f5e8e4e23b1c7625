// Package plan renders evaluation batches: which training runs get
// replayed, through which entry point, with which child arguments.
package plan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cw-kang/rleval-cli/internal/checkpoint"
)

// Variant selects the evaluation entry point a run is replayed through.
type Variant string

const (
	VariantStandard        Variant = "standard"
	VariantOracleSysParams Variant = "oracle_sys_params"
)

// Python modules the variants launch.
const (
	moduleStandard        = "src.test"
	moduleOracleSysParams = "src.test_with_oracle_sys_params"
)

// Run names every default batch evaluates besides the target
// environment's own run.
const (
	RunNameAnt           = "Ant"
	RunNameContextualAnt = "ContextualAntTrain"
	RunNameOracle        = "ContextualAntTrain_with_oracle_sys_params"
)

func (v Variant) Module() string {
	if v == VariantOracleSysParams {
		return moduleOracleSysParams
	}
	return moduleStandard
}

// Run identifies one training run to evaluate.
type Run struct {
	RunName string
	EnvID   string
	Variant Variant
	Seed    int
}

// BatchParams are the knobs shared by every invocation of a batch.
type BatchParams struct {
	RunRoot       string
	TrainSeed     int
	TestSeed      int
	Step          string
	ProjectPrefix string
	Entity        string
	Track         bool
	CaptureVideo  bool
}

// Invocation is one fully rendered evaluation process.
type Invocation struct {
	RunName        string
	Variant        Variant
	CheckpointPath string
	EnvID          string
	Seed           int
	Track          bool
	WandbProject   string
	WandbEntity    string
	CaptureVideo   bool
}

func (inv Invocation) Module() string {
	return inv.Variant.Module()
}

// Args renders the child flags in the order the evaluation entry
// points document them.
func (inv Invocation) Args() []string {
	args := []string{
		"--checkpoint_path", inv.CheckpointPath,
		"--env_id", inv.EnvID,
		"--seed", strconv.Itoa(inv.Seed),
	}
	if inv.Track {
		args = append(args, "--track")
	}
	args = append(args,
		"--wandb_project_name", inv.WandbProject,
		"--wandb_entity", inv.WandbEntity,
	)
	if inv.CaptureVideo {
		args = append(args, "--capture_video")
	}
	return args
}

// Argv is the full argument vector handed to the Python interpreter.
func (inv Invocation) Argv() []string {
	return append([]string{"-m", inv.Module()}, inv.Args()...)
}

// CommandLine renders the invocation for display.
func (inv Invocation) CommandLine(python string) string {
	return strings.Join(append([]string{python}, inv.Argv()...), " ")
}

// DefaultRuns returns the run list a batch for envID evaluates: the two
// fixed training runs, the environment's own run, and the oracle
// system-parameters replay. Duplicates are kept when envID names one of
// the fixed runs.
func DefaultRuns(envID string, seed int) []Run {
	return []Run{
		{RunName: RunNameAnt, EnvID: envID, Variant: VariantStandard, Seed: seed},
		{RunName: RunNameContextualAnt, EnvID: envID, Variant: VariantStandard, Seed: seed},
		{RunName: envID, EnvID: envID, Variant: VariantStandard, Seed: seed},
		{RunName: RunNameOracle, EnvID: envID, Variant: VariantOracleSysParams, Seed: seed},
	}
}

// Build renders the default batch for envID.
func Build(params BatchParams, envID string) ([]Invocation, error) {
	if strings.TrimSpace(envID) == "" {
		return nil, fmt.Errorf("env id must not be empty")
	}
	return BuildRuns(params, DefaultRuns(envID, params.TestSeed))
}

// BuildRuns renders an explicit run list with the shared params.
func BuildRuns(params BatchParams, runs []Run) ([]Invocation, error) {
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs to evaluate")
	}

	invocations := make([]Invocation, 0, len(runs))
	for i, run := range runs {
		if strings.TrimSpace(run.RunName) == "" {
			return nil, fmt.Errorf("run %d: run name must not be empty", i)
		}
		if strings.TrimSpace(run.EnvID) == "" {
			return nil, fmt.Errorf("run %d (%s): env id must not be empty", i, run.RunName)
		}
		switch run.Variant {
		case VariantStandard, VariantOracleSysParams:
		default:
			return nil, fmt.Errorf("run %d (%s): invalid variant: %s (valid: %s, %s)",
				i, run.RunName, run.Variant, VariantStandard, VariantOracleSysParams)
		}

		invocations = append(invocations, Invocation{
			RunName:        run.RunName,
			Variant:        run.Variant,
			CheckpointPath: checkpoint.Path(params.RunRoot, params.TrainSeed, run.RunName, params.Step),
			EnvID:          run.EnvID,
			Seed:           run.Seed,
			Track:          params.Track,
			WandbProject:   params.ProjectPrefix + "_" + run.EnvID,
			WandbEntity:    params.Entity,
			CaptureVideo:   params.CaptureVideo,
		})
	}

	return invocations, nil
}
