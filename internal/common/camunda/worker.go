package camunda

import (
	"time"

	"commerce-workers/internal/common/config"
	"commerce-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Workers tracks the job workers opened against one broker client.
type Workers struct {
	client  zbc.Client
	logger  logger.Logger
	workers map[string]worker.JobWorker
}

func NewWorkers(client zbc.Client, log logger.Logger) *Workers {
	return &Workers{
		client:  client,
		logger:  log,
		workers: make(map[string]worker.JobWorker),
	}
}

// Start opens a worker for taskType unless it is disabled in cfg.
func (w *Workers) Start(taskType string, cfg config.WorkerConfig, handler JobHandler) {
	if !cfg.Enabled {
		w.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return
	}

	w.workers[taskType] = w.client.NewJobWorker().
		JobType(taskType).
		Handler(capRetries(handler.Handle, cfg.MaxRetries)).
		MaxJobsActive(cfg.MaxJobsActive).
		Timeout(time.Duration(cfg.Timeout) * time.Millisecond).
		Open()

	w.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": cfg.MaxJobsActive,
		"timeoutMs":     cfg.Timeout,
		"maxRetries":    cfg.MaxRetries,
	})
}

// capRetries lowers the retries a job arrives with so that a failure leaves
// at most maxRetries further attempts.
func capRetries(handle worker.JobHandler, maxRetries int) worker.JobHandler {
	limit := int32(maxRetries) + 1
	return func(client worker.JobClient, job entities.Job) {
		if maxRetries >= 0 && job.ActivatedJob != nil && job.Retries > limit {
			job.Retries = limit
		}
		handle(client, job)
	}
}

// Active lists the task types with an open worker.
func (w *Workers) Active() []string {
	out := make([]string, 0, len(w.workers))
	for taskType := range w.workers {
		out = append(out, taskType)
	}
	return out
}

func (w *Workers) Close() {
	for taskType, jw := range w.workers {
		w.logger.Info("stopping worker", map[string]interface{}{"taskType": taskType})
		jw.Close()
		jw.AwaitClose()
	}
	w.workers = make(map[string]worker.JobWorker)
}
