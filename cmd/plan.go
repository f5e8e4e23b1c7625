package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cw-kang/rleval-cli/internal/checkpoint"
	"github.com/cw-kang/rleval-cli/internal/config"
)

var planCmd = &cobra.Command{
	Use:   "plan <env-id>",
	Short: "Print the batch without launching anything",
	Long: `Render the invocations a test batch would launch and print one command
line per row, in launch order.`,
	Example: `  # Inspect what "test HalfCheetah" would run
  rleval-cli plan HalfCheetah

  # Pipe the rendered commands somewhere else
  rleval-cli plan HalfCheetah | sbatch-wrap.sh`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
	addEvalFlags(planCmd)

	planCmd.Flags().Bool("names", false, "Also print the run name each child derives")
}

func runPlan(cmd *cobra.Command, args []string) error {
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

	names, _ := cmd.Flags().GetBool("names")
	for _, inv := range invocations {
		if names {
			if ref, refErr := checkpoint.Parse(inv.CheckpointPath); refErr == nil {
				fmt.Printf("# %s\n", ref.TestRunName(inv.EnvID))
			}
		}
		fmt.Println(inv.CommandLine(cfg.Python))
	}

	return nil
}
