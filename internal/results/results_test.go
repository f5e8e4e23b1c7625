package results

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	t.Parallel()

	t.Run("full transcript", func(t *testing.T) {
		c := NewCollector()
		for _, line := range []string{
			"test/seed_0/HalfCheetah/99942400",
			"wandb: Currently logged in as: cw-kang",
			"",
			"1 episodes done",
			"2 episodes done",
			"3 episodes done",
			"episodic_return: mean=5241.183, std=103.25",
			"episodic_length: mean=1000.0, std=0.0",
			"consecutive_successes: mean=8.4, std=1.2",
		} {
			c.Line(line)
		}

		stats := c.Stats()
		require.Equal(t, "test/seed_0/HalfCheetah/99942400", stats.TestRunName)
		require.Equal(t, 3, stats.Episodes)
		require.NotNil(t, stats.Return)
		require.InDelta(t, 5241.183, stats.Return.Mean, 1e-9)
		require.InDelta(t, 103.25, stats.Return.Std, 1e-9)
		require.NotNil(t, stats.Length)
		require.InDelta(t, 1000.0, stats.Length.Mean, 1e-9)
		require.NotNil(t, stats.Successes)
		require.InDelta(t, 8.4, stats.Successes.Mean, 1e-9)
	})

	t.Run("keeps the first run name", func(t *testing.T) {
		c := NewCollector()
		c.Line("test/seed_0/Ant/99942400")
		c.Line("test/seed_0/Ant/12800")
		require.Equal(t, "test/seed_0/Ant/99942400", c.Stats().TestRunName)
	})

	t.Run("nan std", func(t *testing.T) {
		c := NewCollector()
		c.Line("episodic_return: mean=12.5, std=nan")

		stats := c.Stats()
		require.NotNil(t, stats.Return)
		require.InDelta(t, 12.5, stats.Return.Mean, 1e-9)
		require.True(t, math.IsNaN(stats.Return.Std))
	})

	t.Run("ignores unrelated output", func(t *testing.T) {
		c := NewCollector()
		for _, line := range []string{
			"Loading checkpoint runs/training/seed_0/Ant/checkpoints/99942400.pth",
			"episodic_return mean 12.5",
			"episodes done",
			"x episodes done",
		} {
			c.Line(line)
		}
		stats := c.Stats()
		require.Zero(t, stats.Episodes)
		require.Nil(t, stats.Return)
	})
}

func TestStatsMetrics(t *testing.T) {
	t.Parallel()

	stats := Stats{
		Episodes: 3,
		Return:   &MeanStd{Mean: 100, Std: 10},
		Length:   &MeanStd{Mean: 1000, Std: 0},
	}
	metrics := stats.Metrics()

	require.Equal(t, 3.0, metrics["episodes"])
	require.Equal(t, 100.0, metrics["episodic_return_mean"])
	require.Equal(t, 10.0, metrics["episodic_return_std"])
	require.Equal(t, 1000.0, metrics["episodic_length_mean"])
	require.NotContains(t, metrics, "consecutive_successes_mean")
}

func TestAggregateReturns(t *testing.T) {
	t.Parallel()

	t.Run("pools run means", func(t *testing.T) {
		all := []Stats{
			{Return: &MeanStd{Mean: 100}},
			{Return: &MeanStd{Mean: 200}},
			{},
			{Return: &MeanStd{Mean: 300}},
		}
		pooled, n := AggregateReturns(all)
		require.Equal(t, 3, n)
		require.InDelta(t, 200.0, pooled.Mean, 1e-9)
		require.InDelta(t, 100.0, pooled.Std, 1e-9)
	})

	t.Run("single run", func(t *testing.T) {
		pooled, n := AggregateReturns([]Stats{{Return: &MeanStd{Mean: 42}}})
		require.Equal(t, 1, n)
		require.InDelta(t, 42.0, pooled.Mean, 1e-9)
		require.Zero(t, pooled.Std)
	})

	t.Run("nothing reported", func(t *testing.T) {
		pooled, n := AggregateReturns(nil)
		require.Zero(t, n)
		require.Zero(t, pooled.Mean)
	})
}
