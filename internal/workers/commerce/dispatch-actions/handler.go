package dispatchactions

import (
	"context"
	"time"

	"commerce-workers/internal/common/camunda"
	"commerce-workers/internal/common/database"
	"commerce-workers/internal/common/logger"
	"commerce-workers/internal/common/validation"
	"commerce-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "dispatch-actions"
)

// Handler presents classified items inside a process. Selection needs a
// user and is served by the HTTP API instead.
type Handler struct {
	config     *Config
	dispatcher *Dispatcher
	logger     logger.Logger
	reporter   *camunda.JobReporter
}

func NewHandler(config *Config, dispatcher *Dispatcher, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		dispatcher: dispatcher,
		logger:     scoped,
		reporter:   camunda.NewJobReporter(TaskType, scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	started := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := camunda.DecodeVariables(job, validation.ClassifiedItems, &input); err != nil {
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	ctx = database.WithSession(ctx, input.SessionID)
	items := make([]models.ActionItem, 0, len(input.Items))
	for _, view := range input.Items {
		item, err := view.ActionItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	output := &Output{Outcomes: h.dispatcher.Present(ctx, items)}
	for _, o := range output.Outcomes {
		switch o.Kind {
		case OutcomeOrderFound:
			output.Found++
		case OutcomeOrderNotFound:
			output.NotFound++
		}
	}

	h.logger.Info("action items dispatched", map[string]interface{}{
		"itemCount": len(items),
		"found":     output.Found,
		"notFound":  output.NotFound,
	})

	return output, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
