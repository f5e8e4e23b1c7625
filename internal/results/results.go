// Package results extracts the figures the evaluation entry points
// print on stdout and pools them across a batch.
package results

import (
	"regexp"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Lines the entry points print while evaluating:
//
//	test/seed_0/HalfCheetah/99942400
//	3 episodes done
//	episodic_return: mean=5241.18, std=103.2
//	episodic_length: mean=1000.0, std=0.0
//	consecutive_successes: mean=8.4, std=1.2
var (
	episodesRe = regexp.MustCompile(`^(\d+) episodes done$`)
	statRe     = regexp.MustCompile(`^(episodic_return|episodic_length|consecutive_successes): mean=([^,]+), std=(.+)$`)
)

type MeanStd struct {
	Mean float64
	Std  float64
}

// Stats are the figures one evaluation process reported.
type Stats struct {
	TestRunName string
	Episodes    int
	Return      *MeanStd
	Length      *MeanStd
	Successes   *MeanStd
}

// Metrics flattens the reported figures into loggable key/value pairs.
func (s Stats) Metrics() map[string]float64 {
	metrics := make(map[string]float64)
	if s.Episodes > 0 {
		metrics["episodes"] = float64(s.Episodes)
	}
	if s.Return != nil {
		metrics["episodic_return_mean"] = s.Return.Mean
		metrics["episodic_return_std"] = s.Return.Std
	}
	if s.Length != nil {
		metrics["episodic_length_mean"] = s.Length.Mean
		metrics["episodic_length_std"] = s.Length.Std
	}
	if s.Successes != nil {
		metrics["consecutive_successes_mean"] = s.Successes.Mean
		metrics["consecutive_successes_std"] = s.Successes.Std
	}
	return metrics
}

// Collector consumes child stdout line by line.
type Collector struct {
	stats Stats
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Line(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	// The entry points print their derived run name before anything else.
	if c.stats.TestRunName == "" && strings.HasPrefix(line, "test/") {
		c.stats.TestRunName = line
		return
	}

	if m := episodesRe.FindStringSubmatch(line); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			c.stats.Episodes = n
		}
		return
	}

	if m := statRe.FindStringSubmatch(line); m != nil {
		mean, meanErr := strconv.ParseFloat(strings.TrimSpace(m[2]), 64)
		std, stdErr := strconv.ParseFloat(strings.TrimSpace(m[3]), 64)
		if meanErr != nil || stdErr != nil {
			return
		}
		value := &MeanStd{Mean: mean, Std: std}
		switch m[1] {
		case "episodic_return":
			c.stats.Return = value
		case "episodic_length":
			c.stats.Length = value
		case "consecutive_successes":
			c.stats.Successes = value
		}
	}
}

func (c *Collector) Stats() Stats {
	return c.stats
}

// AggregateReturns pools the mean episodic returns reported across a
// batch. The second return value is the number of contributing runs.
func AggregateReturns(all []Stats) (MeanStd, int) {
	var means []float64
	for _, s := range all {
		if s.Return != nil {
			means = append(means, s.Return.Mean)
		}
	}
	if len(means) == 0 {
		return MeanStd{}, 0
	}

	pooled := MeanStd{Mean: stat.Mean(means, nil)}
	if len(means) > 1 {
		pooled.Std = stat.StdDev(means, nil)
	}
	return pooled, len(means)
}
