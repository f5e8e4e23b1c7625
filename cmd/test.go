package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cw-kang/rleval-cli/internal/checkpoint"
	"github.com/cw-kang/rleval-cli/internal/config"
	"github.com/cw-kang/rleval-cli/internal/launcher"
	"github.com/cw-kang/rleval-cli/internal/models"
	"github.com/cw-kang/rleval-cli/internal/parser"
	"github.com/cw-kang/rleval-cli/internal/plan"
	"github.com/cw-kang/rleval-cli/internal/results"
	"github.com/cw-kang/rleval-cli/internal/tracking"
)

// Valid suite variants
var validVariants = map[string]plan.Variant{
	"":                  plan.VariantStandard,
	"standard":          plan.VariantStandard,
	"oracle_sys_params": plan.VariantOracleSysParams,
}

var testCmd = &cobra.Command{
	Use:   "test <env-id>",
	Short: "Evaluate trained checkpoints on an environment",
	Long: `Launch the Python evaluation entry points for every run of the batch:
the fixed training runs, the environment's own run, and the oracle
system-parameters replay. Invocations run one at a time and a failure
never stops the batch. The command exits with the exit code of the last
invocation.`,
	Example: `  # Evaluate the default batch on HalfCheetah
  rleval-cli test HalfCheetah

  # Evaluate the newest checkpoints instead of the default step
  rleval-cli test HalfCheetah --checkpoint-step latest

  # Replace the default run list with a suite file
  rleval-cli test HalfCheetah --suite suites/ablation.yaml

  # Record the whole batch on an MLflow tracking server
  rleval-cli test HalfCheetah --track-batch`,
	Args: cobra.ExactArgs(1),
	RunE: runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)
	addEvalFlags(testCmd)

	testCmd.Flags().Bool("track-batch", false, "Record the batch on the MLflow tracking server")
	testCmd.Flags().String("batch-name", "", "MLflow run name for the batch (default: timestamp-based)")
}

// addEvalFlags registers the flags shared by commands that render a batch
func addEvalFlags(cmd *cobra.Command) {
	cmd.Flags().String("python", "", "Python interpreter used to launch evaluations")
	cmd.Flags().Int("seed", 0, "Evaluation seed passed to the entry points")
	cmd.Flags().String("checkpoint-step", "", "Global step to evaluate, or 'latest'")
	cmd.Flags().String("project-prefix", "", "wandb project name prefix")
	cmd.Flags().String("wandb-entity", "", "wandb entity the children report to")
	cmd.Flags().String("suite", "", "Suite file replacing the default run list (JSON/YAML)")
	cmd.Flags().Bool("no-track", false, "Do not pass --track to the children")
	cmd.Flags().Bool("no-video", false, "Do not pass --capture_video to the children")
}

func runTest(cmd *cobra.Command, args []string) error {
	envID := args[0]
	if strings.TrimSpace(envID) == "" {
		return fmt.Errorf("env id must not be empty")
	}

	cfg := config.New()
	applyEvalFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	invocations, err := buildInvocations(cmd, cfg, envID)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("starting batch",
		zap.String("env_id", envID),
		zap.Int("invocations", len(invocations)),
		zap.String("python", cfg.Python))

	l := launcher.New(cfg.Python, logger)
	outcomes, runErr := l.Run(ctx, invocations)

	printSummary(outcomes)

	if trackBatch, _ := cmd.Flags().GetBool("track-batch"); trackBatch && len(outcomes) > 0 {
		batchName, _ := cmd.Flags().GetString("batch-name")
		// Recording must survive an interrupt, so it gets its own context
		recordBatch(context.Background(), cfg, envID, batchName, outcomes, runErr)
	}

	if runErr != nil {
		return fmt.Errorf("batch interrupted: %w", runErr)
	}

	// The batch exits with the last invocation's exit code
	if code := launcher.LastExitCode(outcomes); code != 0 {
		logger.Sync()
		os.Exit(code)
	}

	return nil
}

// applyEvalFlags overlays per-command flags on the loaded configuration
func applyEvalFlags(cmd *cobra.Command, cfg *config.Config) {
	if python, _ := cmd.Flags().GetString("python"); python != "" {
		cfg.Python = python
	}
	if cmd.Flags().Changed("seed") {
		cfg.TestSeed, _ = cmd.Flags().GetInt("seed")
	}
	if step, _ := cmd.Flags().GetString("checkpoint-step"); step != "" {
		cfg.CheckpointStep = step
	}
	if prefix, _ := cmd.Flags().GetString("project-prefix"); prefix != "" {
		cfg.ProjectPrefix = prefix
	}
	if entity, _ := cmd.Flags().GetString("wandb-entity"); entity != "" {
		cfg.WandbEntity = entity
	}
}

func buildInvocations(cmd *cobra.Command, cfg *config.Config, envID string) ([]plan.Invocation, error) {
	noTrack, _ := cmd.Flags().GetBool("no-track")
	noVideo, _ := cmd.Flags().GetBool("no-video")

	params := plan.BatchParams{
		RunRoot:       cfg.RunRoot,
		TrainSeed:     cfg.TrainSeed,
		TestSeed:      cfg.TestSeed,
		Step:          cfg.CheckpointStep,
		ProjectPrefix: cfg.ProjectPrefix,
		Entity:        cfg.WandbEntity,
		Track:         !noTrack,
		CaptureVideo:  !noVideo,
	}

	var (
		invocations []plan.Invocation
		err         error
	)
	if suitePath, _ := cmd.Flags().GetString("suite"); suitePath != "" {
		runs, suiteErr := loadSuite(suitePath, envID, cfg.TestSeed)
		if suiteErr != nil {
			return nil, suiteErr
		}
		invocations, err = plan.BuildRuns(params, runs)
	} else {
		invocations, err = plan.Build(params, envID)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CheckpointStep == checkpoint.StepLatest {
		resolveLatestSteps(invocations, cfg.RunRoot, cfg.TrainSeed)
	}

	return invocations, nil
}

// loadSuite reads a suite file and fills in batch-level defaults
func loadSuite(path, envID string, defaultSeed int) ([]plan.Run, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open suite file %s: %w", path, err)
	}
	defer file.Close()

	var suite *models.SuiteFile
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".json":
		suite, err = parser.ParseJSONSuite(file)
	case ".yaml", ".yml":
		suite, err = parser.ParseYAMLSuite(file)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .json, .yaml, .yml)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse suite file: %w", err)
	}

	if len(suite.Runs) == 0 {
		return nil, fmt.Errorf("suite file %s has no runs", path)
	}

	runs := make([]plan.Run, 0, len(suite.Runs))
	for i, entry := range suite.Runs {
		variant, valid := validVariants[entry.Variant]
		if !valid {
			return nil, fmt.Errorf("suite run %d (%s): invalid variant: %s (valid: standard, oracle_sys_params)",
				i, entry.RunName, entry.Variant)
		}

		run := plan.Run{
			RunName: entry.RunName,
			EnvID:   entry.EnvID,
			Variant: variant,
			Seed:    defaultSeed,
		}
		if run.EnvID == "" {
			run.EnvID = envID
		}
		if entry.Seed != nil {
			run.Seed = *entry.Seed
		}
		runs = append(runs, run)
	}

	return runs, nil
}

// resolveLatestSteps swaps each invocation's checkpoint for the highest
// step saved under its run. Runs with nothing to list keep the
// placeholder path and fail through the child process like any other
// missing checkpoint.
func resolveLatestSteps(invocations []plan.Invocation, runRoot string, trainSeed int) {
	for i := range invocations {
		inv := &invocations[i]
		dir := checkpoint.Dir(runRoot, trainSeed, inv.RunName)

		step, err := checkpoint.Latest(dir)
		if err != nil {
			logger.Warn("could not resolve latest checkpoint",
				zap.String("run_name", inv.RunName),
				zap.Error(err))
			continue
		}
		inv.CheckpointPath = checkpoint.Path(runRoot, trainSeed, inv.RunName, strconv.FormatInt(step, 10))
	}
}

func printSummary(outcomes []launcher.Result) {
	if len(outcomes) == 0 {
		return
	}

	failed := 0
	fmt.Println()
	fmt.Println("Batch summary:")
	for _, outcome := range outcomes {
		status := "ok"
		if outcome.ExitCode != 0 || outcome.Err != nil {
			status = fmt.Sprintf("failed (exit %d)", outcome.ExitCode)
			failed++
		}
		fmt.Printf("  %-44s %s", outcome.Invocation.RunName, status)
		if r := outcome.Stats.Return; r != nil {
			fmt.Printf("  return mean=%.2f std=%.2f", r.Mean, r.Std)
		}
		fmt.Println()
	}

	stats := make([]results.Stats, 0, len(outcomes))
	for _, outcome := range outcomes {
		stats = append(stats, outcome.Stats)
	}
	if pooled, n := results.AggregateReturns(stats); n > 0 {
		fmt.Printf("Pooled episodic return over %d runs: mean=%.2f, std=%.2f\n", n, pooled.Mean, pooled.Std)
	}
	if failed > 0 {
		fmt.Printf("%d/%d invocations failed\n", failed, len(outcomes))
	}
}

// recordBatch reports the finished batch to the tracking server. Every
// failure here is a warning; the batch result stands on its own.
func recordBatch(ctx context.Context, cfg *config.Config, envID, batchName string, outcomes []launcher.Result, runErr error) {
	client, err := tracking.NewClient(cfg)
	if err != nil {
		logger.Warn("batch tracking disabled", zap.Error(err))
		return
	}

	info, err := client.CreateBatchRun(ctx, batchName, map[string]string{
		"env_id": envID,
		"tool":   "rleval-cli",
	})
	if err != nil {
		logger.Warn("failed to create batch run", zap.Error(err))
		return
	}

	runNames := make([]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		runNames = append(runNames, outcome.Invocation.RunName)
	}
	params := map[string]string{
		"env_id":          envID,
		"run_root":        cfg.RunRoot,
		"train_seed":      strconv.Itoa(cfg.TrainSeed),
		"test_seed":       strconv.Itoa(cfg.TestSeed),
		"checkpoint_step": cfg.CheckpointStep,
		"project_prefix":  cfg.ProjectPrefix,
		"wandb_entity":    cfg.WandbEntity,
		"runs":            strings.Join(runNames, ","),
	}
	if err := client.LogParams(ctx, info.RunID, params); err != nil {
		logger.Warn("failed to log batch parameters", zap.Error(err))
	}

	// One metric step per invocation, in batch order
	for i, outcome := range outcomes {
		metrics := outcome.Stats.Metrics()
		metrics["exit_code"] = float64(outcome.ExitCode)
		metrics["duration_seconds"] = outcome.Duration.Seconds()

		if err := client.LogMetrics(ctx, info.RunID, metrics, int64(i)); err != nil {
			logger.Warn("failed to log invocation metrics",
				zap.String("run_name", outcome.Invocation.RunName),
				zap.Error(err))
		}
	}

	uploadVideos(ctx, client, info.RunID, cfg.VideoDir, outcomes)

	// FINISHED only when every invocation succeeded
	status := models.RunStatusFinished
	for _, outcome := range outcomes {
		if outcome.ExitCode != 0 || outcome.Err != nil {
			status = models.RunStatusFailed
			break
		}
	}
	if runErr != nil {
		status = models.RunStatusKilled
	}
	if err := client.UpdateRun(ctx, info.RunID, status); err != nil {
		logger.Warn("failed to close batch run", zap.Error(err))
	}

	fmt.Printf("Batch recorded as MLflow run %s\n", info.RunID)
}

// uploadVideos attaches the captures the children saved under the video
// directory to the batch run.
func uploadVideos(ctx context.Context, client *tracking.Client, runID, videoDir string, outcomes []launcher.Result) {
	seen := make(map[string]bool)
	uploaded := 0

	for _, outcome := range outcomes {
		if !outcome.Invocation.CaptureVideo {
			continue
		}
		ref, err := checkpoint.Parse(outcome.Invocation.CheckpointPath)
		if err != nil {
			continue
		}

		// The entry points save captures under videos/test/<seed>/<env>/...
		dir := filepath.Join(videoDir, "test", ref.SeedID, outcome.Invocation.EnvID)
		if seen[dir] {
			continue
		}
		seen[dir] = true

		if _, err := os.Stat(dir); err != nil {
			continue
		}

		filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".mp4") {
				return nil
			}
			rel, relErr := filepath.Rel(videoDir, path)
			if relErr != nil {
				return nil
			}

			artifactPath := filepath.ToSlash(filepath.Join("videos", rel))
			if uploadErr := client.UploadArtifact(ctx, runID, path, artifactPath); uploadErr != nil {
				logger.Warn("failed to upload video",
					zap.String("file", path),
					zap.Error(uploadErr))
				return nil
			}
			uploaded++
			return nil
		})
	}

	if uploaded > 0 {
		logger.Info("uploaded videos", zap.Int("count", uploaded))
	}
}
