package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cw-kang/rleval-cli/internal/checkpoint"
	"github.com/cw-kang/rleval-cli/internal/config"
)

var checkpointsCmd = &cobra.Command{
	Use:   "checkpoints <run-name>",
	Short: "List the saved checkpoints of a training run",
	Long:  "List every global step saved under a training run, in ascending order.",
	Example: `  # Steps saved for the Ant run
  rleval-cli checkpoints Ant

  # Newest checkpoint path of a run
  rleval-cli checkpoints ContextualAntTrain --paths | tail -1`,
	Args: cobra.ExactArgs(1),
	RunE: runCheckpoints,
}

func init() {
	rootCmd.AddCommand(checkpointsCmd)

	checkpointsCmd.Flags().Bool("paths", false, "Print full checkpoint paths instead of bare steps")
}

func runCheckpoints(cmd *cobra.Command, args []string) error {
	runName := args[0]

	cfg := config.New()
	dir := checkpoint.Dir(cfg.RunRoot, cfg.TrainSeed, runName)

	steps, err := checkpoint.ListSteps(dir)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		return fmt.Errorf("no checkpoints under %s", dir)
	}

	paths, _ := cmd.Flags().GetBool("paths")
	for _, step := range steps {
		if paths {
			fmt.Println(checkpoint.Path(cfg.RunRoot, cfg.TrainSeed, runName, strconv.FormatInt(step, 10)))
		} else {
			fmt.Println(step)
		}
	}

	return nil
}
