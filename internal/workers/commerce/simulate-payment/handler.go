package simulatepayment

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
	TaskType = "simulate-payment"
)

// Service starts a fresh Workflow for every checkout attempt, writing to
// the order store of the session carried by the context.
type Service struct {
	orders   database.OrderSource
	settings Settings
	logger   logger.Logger
}

func NewService(config *Config, orders database.OrderSource, log logger.Logger) *Service {
	s := &Service{
		orders: orders,
		logger: log,
		settings: Settings{
			ProcessingDelay: config.ProcessingDelay,
			MaxIDAttempts:   config.MaxIDAttempts,
		},
	}
	s.settings.OnTransition = s.logTransition
	return s
}

// WithSettings replaces the workflow settings, keeping transition logging
// when none is given. Intended for tests and tools.
func (s *Service) WithSettings(settings Settings) *Service {
	if settings.OnTransition == nil {
		settings.OnTransition = s.logTransition
	}
	s.settings = settings
	return s
}

// Checkout runs one attempt for product to completion or cancellation.
func (s *Service) Checkout(ctx context.Context, product models.ProductRef) (*Output, error) {
	wf := NewWorkflow(s.orders.Orders(ctx), s.settings)

	order, err := wf.Submit(ctx, product)
	if err != nil {
		s.logger.Warn("payment attempt ended without order", map[string]interface{}{
			"attemptId": wf.AttemptID(),
			"product":   product.Name,
			"error":     err.Error(),
		})
		return nil, err
	}

	s.logger.Info("order placed", map[string]interface{}{
		"attemptId": wf.AttemptID(),
		"orderId":   order.ID,
		"product":   product.Name,
	})

	return &Output{AttemptID: wf.AttemptID(), State: wf.State(), Order: order}, nil
}

func (s *Service) logTransition(attemptID string, from, to State) {
	s.logger.Debug("payment state changed", map[string]interface{}{
		"attemptId": attemptID,
		"from":      from,
		"to":        to,
	})
}

type Handler struct {
	config   *Config
	service  *Service
	logger   logger.Logger
	reporter *camunda.JobReporter
}

func NewHandler(config *Config, service *Service, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		service:  service,
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
	if err := camunda.DecodeVariables(job, validation.SimulatePayment, &input); err != nil {
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

// execute ignores input.Payment: card fields are accepted but never used.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	return h.service.Checkout(database.WithSession(ctx, input.SessionID), input.Product)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
