package chatturn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"commerce-workers/internal/common/camunda"
	"commerce-workers/internal/common/database"
	"commerce-workers/internal/common/logger"
	"commerce-workers/internal/common/metrics"
	"commerce-workers/internal/common/validation"
	"commerce-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "chat-turn"

	DefaultSessionID = database.DefaultSessionID

	ApologyError   = "I'm sorry, I encountered an error. Please try again."
	ApologyTimeout = "I'm sorry, the search is taking too long. Please try again."

	pong = "pong 🏓"
)

var (
	ErrEmptyMessage   = errors.New("EMPTY_MESSAGE")
	ErrBackendFailed  = errors.New("CHAT_BACKEND_FAILED")
	ErrBackendTimeout = errors.New("CHAT_BACKEND_TIMEOUT")

	errNoChoices = errors.New("model returned no choices")
)

// Service runs chat turns against a backend and keeps each session's
// transcript. Failed turns are answered with an apology and leave the
// transcript untouched.
type Service struct {
	backend      Backend
	transcript   database.Transcript
	historyLimit int
	logger       logger.Logger
}

func NewService(config *Config, backend Backend, transcript database.Transcript, log logger.Logger) *Service {
	return &Service{
		backend:      backend,
		transcript:   transcript,
		historyLimit: config.HistoryLimit,
		logger:       log,
	}
}

func (s *Service) Turn(ctx context.Context, sessionID, message string) (*Output, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	if strings.EqualFold(message, "ping") {
		metrics.ChatTurns.WithLabelValues("ping").Inc()
		return &Output{SessionID: sessionID, Response: pong}, nil
	}

	history, err := s.transcript.History(ctx, sessionID, s.historyLimit)
	if err != nil {
		s.logger.Warn("transcript unavailable, continuing without history", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		history = nil
	}

	reply, err := s.backend.Reply(ctx, history, message)
	if err != nil {
		return s.degraded(ctx, sessionID, err), nil
	}

	if err := s.transcript.Append(ctx, sessionID,
		models.Turn{Role: models.RoleUser, Content: message},
		models.Turn{Role: models.RoleAssistant, Content: reply},
	); err != nil {
		s.logger.Warn("failed to record chat turn", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
	}

	metrics.ChatTurns.WithLabelValues("ok").Inc()
	s.logger.Info("chat turn completed", map[string]interface{}{
		"sessionId":      sessionID,
		"historyTurns":   len(history),
		"responseLength": len(reply),
	})

	return &Output{SessionID: sessionID, Response: reply}, nil
}

func (s *Service) degraded(ctx context.Context, sessionID string, cause error) *Output {
	response, outcome := ApologyError, "failed"
	err := fmt.Errorf("%w: %v", ErrBackendFailed, cause)
	if errors.Is(cause, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		response, outcome = ApologyTimeout, "timeout"
		err = fmt.Errorf("%w: %v", ErrBackendTimeout, cause)
	}

	metrics.ChatTurns.WithLabelValues(outcome).Inc()
	s.logger.Error("assistant backend failed", map[string]interface{}{
		"sessionId": sessionID,
		"error":     err.Error(),
	})

	return &Output{SessionID: sessionID, Response: response, Degraded: true}
}

// Reset forgets the session's conversation.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	if err := s.transcript.Reset(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Info("conversation reset", map[string]interface{}{"sessionId": sessionID})
	return nil
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
	if err := camunda.DecodeVariables(job, validation.ChatTurn, &input); err != nil {
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
	return h.service.Turn(ctx, input.SessionID, input.Message)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
