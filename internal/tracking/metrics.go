package tracking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/databricks/databricks-sdk-go/service/ml"
)

func (c *Client) LogMetric(ctx context.Context, runID string, key string, value float64, step int64) error {
	err := c.client.Experiments.LogMetric(ctx, ml.LogMetric{
		RunId:     runID,
		Key:       key,
		Value:     value,
		Timestamp: time.Now().UnixMilli(),
		Step:      step,
	})
	if err != nil {
		return fmt.Errorf("failed to log metric %s: %w", key, err)
	}

	return nil
}

// LogMetrics logs a metric map in key order so repeated batches hit the
// server in a stable sequence.
func (c *Client) LogMetrics(ctx context.Context, runID string, metrics map[string]float64, step int64) error {
	keys := make([]string, 0, len(metrics))
	for key := range metrics {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := c.LogMetric(ctx, runID, key, metrics[key], step); err != nil {
			return err
		}
	}

	return nil
}
