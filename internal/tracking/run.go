package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/databricks/databricks-sdk-go/service/ml"

	"github.com/cw-kang/rleval-cli/internal/models"
)

// CreateBatchRun opens the run a whole batch reports under. An empty
// name falls back to a timestamped one.
func (c *Client) CreateBatchRun(ctx context.Context, runName string, tags map[string]string) (*models.RunInfo, error) {
	if c.config.ExperimentID == "" {
		return nil, fmt.Errorf("experiment ID is required (set RLEVAL_EXPERIMENT_ID or MLFLOW_EXPERIMENT_ID)")
	}
	experimentID := c.config.ExperimentID

	if runName == "" {
		runName = "batch-" + time.Now().Format("2006-01-02-15-04-05")
	}

	// Prepare tags
	mlTags := make([]ml.RunTag, 0, len(tags)+1)
	for key, value := range tags {
		mlTags = append(mlTags, ml.RunTag{
			Key:   key,
			Value: value,
		})
	}

	// Add run name as tag
	mlTags = append(mlTags, ml.RunTag{
		Key:   "mlflow.runName",
		Value: runName,
	})

	startTime := time.Now()
	resp, err := c.client.Experiments.CreateRun(ctx, ml.CreateRun{
		ExperimentId: experimentID,
		RunName:      runName,
		StartTime:    startTime.UnixMilli(),
		Tags:         mlTags,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return &models.RunInfo{
		RunID:        resp.Run.Info.RunId,
		ExperimentID: experimentID,
		RunName:      runName,
		Status:       string(models.RunStatusRunning),
		StartTime:    startTime,
		Tags:         tags,
	}, nil
}

func (c *Client) UpdateRun(ctx context.Context, runID string, status models.RunStatus) error {
	// Convert status to MLflow status type
	var mlStatus ml.UpdateRunStatus
	switch status {
	case models.RunStatusRunning:
		mlStatus = ml.UpdateRunStatusRunning
	case models.RunStatusFinished:
		mlStatus = ml.UpdateRunStatusFinished
	case models.RunStatusFailed:
		mlStatus = ml.UpdateRunStatusFailed
	case models.RunStatusKilled:
		mlStatus = ml.UpdateRunStatusKilled
	default:
		mlStatus = ml.UpdateRunStatusFinished
	}

	updateRun := ml.UpdateRun{
		RunId:  runID,
		Status: mlStatus,
	}

	// Set end time for terminal statuses
	if status == models.RunStatusFinished || status == models.RunStatusFailed || status == models.RunStatusKilled {
		updateRun.EndTime = time.Now().UnixMilli()
	}

	_, err := c.client.Experiments.UpdateRun(ctx, updateRun)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	return nil
}
