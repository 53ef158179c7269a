package classifyactionitems

import (
	"context"
	"time"

	"commerce-workers/internal/common/camunda"
	"commerce-workers/internal/common/logger"
	"commerce-workers/internal/common/metrics"
	"commerce-workers/internal/common/validation"
	"commerce-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "classify-action-items"
)

type Handler struct {
	config   *Config
	logger   logger.Logger
	reporter *camunda.JobReporter
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		logger:   scoped,
		reporter: camunda.NewJobReporter(TaskType, scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	started := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := camunda.DecodeVariables(job, validation.ActionItems, &input); err != nil {
		h.reporter.Fail(client, job, started, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.reporter.Fail(client, job, started, err)
		return
	}

	h.reporter.Complete(client, job, started, output)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	items := Classify(input.ActionItems)

	output := &Output{
		Items:   make([]models.ItemView, 0, len(items)),
		Counts:  map[string]int{},
		Dropped: len(input.ActionItems) - len(items),
	}
	for _, item := range items {
		output.Items = append(output.Items, models.ViewOf(item))
		output.Counts[string(item.Variant())]++
		metrics.ActionItemsClassified.WithLabelValues(string(item.Variant())).Inc()
	}

	h.logger.Info("action items classified", map[string]interface{}{
		"itemCount": len(items),
		"counts":    output.Counts,
		"dropped":   output.Dropped,
	})

	return output, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
