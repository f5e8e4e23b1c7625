package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose bool
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "rleval-cli",
	Short: "Batch evaluation runner for trained RL policies",
	Long: `A command line tool that replays trained policy checkpoints through the
Python evaluation entry points, one environment batch at a time.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("run-root", "", "Training output root (overrides RLEVAL_RUN_ROOT)")
	rootCmd.PersistentFlags().Int("train-seed", 0, "Training seed the checkpoints were saved under")
	rootCmd.PersistentFlags().String("tracking-uri", "", "MLflow tracking URI (overrides MLFLOW_TRACKING_URI)")
	rootCmd.PersistentFlags().String("experiment-id", "", "Experiment ID (overrides MLFLOW_EXPERIMENT_ID)")
	viper.BindPFlag("run_root", rootCmd.PersistentFlags().Lookup("run-root"))
	viper.BindPFlag("train_seed", rootCmd.PersistentFlags().Lookup("train-seed"))
	viper.BindPFlag("tracking_uri", rootCmd.PersistentFlags().Lookup("tracking-uri"))
	viper.BindPFlag("experiment_id", rootCmd.PersistentFlags().Lookup("experiment-id"))
}

func initConfig() {
	// Pick up a local .env before reading the environment
	godotenv.Load()

	// Environment variables
	viper.SetEnvPrefix("RLEVAL")
	viper.AutomaticEnv()

	// Also bind MLflow and Databricks environment variables
	viper.BindEnv("tracking_uri", "RLEVAL_TRACKING_URI", "MLFLOW_TRACKING_URI")
	viper.BindEnv("experiment_id", "RLEVAL_EXPERIMENT_ID", "MLFLOW_EXPERIMENT_ID")
	viper.BindEnv("databricks_host", "DATABRICKS_HOST")
	viper.BindEnv("databricks_token", "DATABRICKS_TOKEN")

	// Set defaults
	viper.SetDefault("python", "python")
	viper.SetDefault("run_root", "runs/training")
	viper.SetDefault("train_seed", 0)
	viper.SetDefault("test_seed", 100)
	viper.SetDefault("checkpoint_step", "99942400")
	viper.SetDefault("project_prefix", "Ant_test")
	viper.SetDefault("wandb_entity", "cw-kang")
	viper.SetDefault("video_dir", "videos")
}

func initLogger() {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.DisableStacktrace = true

	l, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger = l
}
