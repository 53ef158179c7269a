package parseassistantresponse

import (
	"context"
	"time"

	"commerce-workers/internal/common/camunda"
	"commerce-workers/internal/common/logger"
	"commerce-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "parse-assistant-response"
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
	if err := camunda.DecodeVariables(job, validation.AssistantMessage, &input); err != nil {
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

// execute never fails on bad payloads; a message that cannot be split is
// returned whole as narrative.
func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	parsed, outcome := Split(input.Message)

	fields := map[string]interface{}{
		"outcome":   outcome,
		"itemCount": len(parsed.ActionItems),
	}
	if outcome == OutcomeMalformed {
		h.logger.Warn("assistant payload ignored", fields)
	} else {
		h.logger.Debug("assistant message parsed", fields)
	}

	return &Output{
		Narrative:   parsed.Narrative,
		ActionItems: parsed.ActionItems,
		Outcome:     outcome,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
