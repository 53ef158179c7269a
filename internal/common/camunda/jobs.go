package camunda

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "commerce-workers/internal/common/errors"
	"commerce-workers/internal/common/logger"
	"commerce-workers/internal/common/metrics"
	"commerce-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// DecodeVariables validates the job variables against schema and decodes them into v.
func DecodeVariables(job entities.Job, schema *validation.Schema, v interface{}) error {
	if result := schema.Validate([]byte(job.Variables)); !result.Valid {
		return apperrors.NewInvalidInputError(result.Summary())
	}
	if err := json.Unmarshal([]byte(job.Variables), v); err != nil {
		return apperrors.NewInvalidInputError(fmt.Sprintf("decode variables: %v", err))
	}
	return nil
}

// JobReporter completes or fails jobs for one task type and records the outcome.
type JobReporter struct {
	taskType   string
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func NewJobReporter(taskType string, log logger.Logger) *JobReporter {
	return &JobReporter{
		taskType:   taskType,
		logger:     log,
		errHandler: apperrors.NewErrorHandler(log),
	}
}

func (r *JobReporter) Complete(client worker.JobClient, job entities.Job, started time.Time, output interface{}) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		r.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		r.Fail(client, job, started, apperrors.NewInternalError(err))
		return
	}

	if _, err := cmd.Send(context.Background()); err != nil {
		r.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	metrics.ObserveJob(r.taskType, time.Since(started).Seconds(), "")
	r.logger.Info("job completed", map[string]interface{}{
		"jobKey":     job.Key,
		"durationMs": time.Since(started).Milliseconds(),
	})
}

func (r *JobReporter) Fail(client worker.JobClient, job entities.Job, started time.Time, err error) {
	code := apperrors.FromError(err).Code
	metrics.ObserveJob(r.taskType, time.Since(started).Seconds(), string(code))
	r.errHandler.HandleJobError(context.Background(), client, job, err)
}
