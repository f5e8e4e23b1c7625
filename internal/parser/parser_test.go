package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseYAMLSuite(t *testing.T) {
	t.Parallel()

	t.Run("full suite", func(t *testing.T) {
		in := `
runs:
  - run_name: Ant
  - run_name: ContextualAntTrain
    variant: oracle_sys_params
    env_id: HalfCheetah
    seed: 7
`
		suite, err := ParseYAMLSuite(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, suite.Runs, 2)

		require.Equal(t, "Ant", suite.Runs[0].RunName)
		require.Empty(t, suite.Runs[0].Variant)
		require.Nil(t, suite.Runs[0].Seed)

		require.Equal(t, "oracle_sys_params", suite.Runs[1].Variant)
		require.Equal(t, "HalfCheetah", suite.Runs[1].EnvID)
		require.NotNil(t, suite.Runs[1].Seed)
		require.Equal(t, 7, *suite.Runs[1].Seed)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseYAMLSuite(strings.NewReader("runs: [--"))
		require.Error(t, err)
	})
}

func TestParseJSONSuite(t *testing.T) {
	t.Parallel()

	t.Run("full suite", func(t *testing.T) {
		in := `{"runs": [{"run_name": "Walker", "seed": 3}]}`
		suite, err := ParseJSONSuite(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, suite.Runs, 1)
		require.Equal(t, "Walker", suite.Runs[0].RunName)
		require.Equal(t, 3, *suite.Runs[0].Seed)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseJSONSuite(strings.NewReader(`{"runs": `))
		require.Error(t, err)
	})
}
