package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Python:         "python",
		RunRoot:        "runs/training",
		TrainSeed:      0,
		TestSeed:       100,
		CheckpointStep: "99942400",
		ProjectPrefix:  "Ant_test",
		WandbEntity:    "cw-kang",
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("latest checkpoint step", func(t *testing.T) {
		cfg := validConfig()
		cfg.CheckpointStep = "latest"
		require.NoError(t, cfg.Validate())
	})

	t.Run("malformed checkpoint step", func(t *testing.T) {
		cfg := validConfig()
		cfg.CheckpointStep = "99942400.pth"
		require.Error(t, cfg.Validate())
	})

	t.Run("negative test seed", func(t *testing.T) {
		cfg := validConfig()
		cfg.TestSeed = -1
		require.Error(t, cfg.Validate())
	})

	t.Run("missing python", func(t *testing.T) {
		cfg := validConfig()
		cfg.Python = ""
		require.Error(t, cfg.Validate())
	})

	t.Run("missing wandb entity", func(t *testing.T) {
		cfg := validConfig()
		cfg.WandbEntity = ""
		require.Error(t, cfg.Validate())
	})
}

func TestIsDatabricks(t *testing.T) {
	t.Parallel()

	cases := []struct {
		uri  string
		want bool
	}{
		{"databricks", true},
		{"databricks://myprofile", true},
		{"https://myworkspace.cloud.databricks.com", true},
		{"https://myworkspace.azuredatabricks.net/path", true},
		{"http://localhost:5000", false},
		{"https://mlflow.example.com", false},
		{"", false},
	}
	for _, tc := range cases {
		cfg := &Config{TrackingURI: tc.uri}
		require.Equal(t, tc.want, cfg.IsDatabricks(), "uri: %s", tc.uri)
	}
}

func TestGetDatabricksProfile(t *testing.T) {
	t.Parallel()

	cfg := &Config{TrackingURI: "databricks://team/extra"}
	require.Equal(t, "team", cfg.GetDatabricksProfile())

	cfg = &Config{TrackingURI: "http://localhost:5000"}
	require.Equal(t, "", cfg.GetDatabricksProfile())
}
