package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/cw-kang/rleval-cli/internal/checkpoint"
)

// Databricks domain suffixes for URL detection
var databricksDomains = []string{
	".cloud.databricks.com",
	".azuredatabricks.net",
	".gcp.databricks.com",
}

var validStep = regexp.MustCompile(`^[0-9]+$`)

type Config struct {
	Python          string
	RunRoot         string
	TrainSeed       int
	TestSeed        int
	CheckpointStep  string
	ProjectPrefix   string
	WandbEntity     string
	VideoDir        string
	TrackingURI     string
	ExperimentID    string
	DatabricksHost  string
	DatabricksToken string
}

func New() *Config {
	return &Config{
		Python:          viper.GetString("python"),
		RunRoot:         viper.GetString("run_root"),
		TrainSeed:       viper.GetInt("train_seed"),
		TestSeed:        viper.GetInt("test_seed"),
		CheckpointStep:  viper.GetString("checkpoint_step"),
		ProjectPrefix:   viper.GetString("project_prefix"),
		WandbEntity:     viper.GetString("wandb_entity"),
		VideoDir:        viper.GetString("video_dir"),
		TrackingURI:     viper.GetString("tracking_uri"),
		ExperimentID:    viper.GetString("experiment_id"),
		DatabricksHost:  viper.GetString("databricks_host"),
		DatabricksToken: viper.GetString("databricks_token"),
	}
}

func (c *Config) Validate() error {
	if c.Python == "" {
		return fmt.Errorf("python interpreter is required")
	}

	if c.RunRoot == "" {
		return fmt.Errorf("run root is required")
	}

	// Validate seeds
	if c.TrainSeed < 0 {
		return fmt.Errorf("invalid train seed: %d (must be >= 0)", c.TrainSeed)
	}
	if c.TestSeed < 0 {
		return fmt.Errorf("invalid test seed: %d (must be >= 0)", c.TestSeed)
	}

	// Validate checkpoint step
	if c.CheckpointStep != checkpoint.StepLatest && !validStep.MatchString(c.CheckpointStep) {
		return fmt.Errorf("invalid checkpoint step: %s (valid: a global step, %s)", c.CheckpointStep, checkpoint.StepLatest)
	}

	if c.ProjectPrefix == "" {
		return fmt.Errorf("project prefix is required")
	}
	if c.WandbEntity == "" {
		return fmt.Errorf("wandb entity is required")
	}

	return nil
}

// IsDatabricks checks if the tracking URI points to Databricks
func (c *Config) IsDatabricks() bool {
	if c.TrackingURI == "databricks" {
		return true
	}

	// Check for databricks:// protocol
	if strings.HasPrefix(c.TrackingURI, "databricks://") {
		return true
	}

	// Check for Databricks URLs
	if strings.HasPrefix(c.TrackingURI, "https://") {
		host := c.extractHostFromURL(c.TrackingURI)
		return c.isDatabricksHost(host)
	}

	return false
}

// extractHostFromURL extracts the hostname from a URL
func (c *Config) extractHostFromURL(url string) string {
	host := strings.TrimPrefix(url, "https://")
	// Remove any path components
	if idx := strings.Index(host, "/"); idx != -1 {
		host = host[:idx]
	}
	return host
}

// isDatabricksHost checks if a hostname belongs to Databricks
func (c *Config) isDatabricksHost(host string) bool {
	for _, domain := range databricksDomains {
		if strings.HasSuffix(host, domain) {
			return true
		}
	}
	return false
}

// GetDatabricksProfile extracts the profile name from databricks://{profile} URI
func (c *Config) GetDatabricksProfile() string {
	if !strings.HasPrefix(c.TrackingURI, "databricks://") {
		return ""
	}

	profile := strings.TrimPrefix(c.TrackingURI, "databricks://")
	// Remove any trailing slashes or paths
	if idx := strings.Index(profile, "/"); idx != -1 {
		profile = profile[:idx]
	}
	return profile
}
