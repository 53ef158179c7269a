package main

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"commerce-workers/internal/api"
	"commerce-workers/internal/common/camunda"
	"commerce-workers/internal/common/config"
	"commerce-workers/internal/common/database"
	"commerce-workers/internal/common/logger"
	"commerce-workers/internal/common/observability"
	chatturn "commerce-workers/internal/workers/ai-conversation/chat-turn"
	classifyactionitems "commerce-workers/internal/workers/commerce/classify-action-items"
	dispatchactions "commerce-workers/internal/workers/commerce/dispatch-actions"
	parseassistantresponse "commerce-workers/internal/workers/commerce/parse-assistant-response"
	simulatepayment "commerce-workers/internal/workers/commerce/simulate-payment"
	trackorder "commerce-workers/internal/workers/commerce/track-order"
	"commerce-workers/pkg/registry"

	"github.com/prometheus/client_golang/prometheus"
)

// app holds every long-lived component of the worker manager.
type app struct {
	cfg      *config.Config
	logger   logger.Logger
	obs      *observability.Observability
	registry *registry.ActivityRegistry

	orders     *database.OrderStores
	redis      *database.RedisClient
	transcript database.Transcript

	tracker    *trackorder.Tracker
	payments   *simulatepayment.Service
	chat       *chatturn.Service
	dispatcher *dispatchactions.Dispatcher

	camunda *camunda.Client
	workers *camunda.Workers
}

// newApp builds the services shared by the HTTP API and the job workers.
func newApp(ctx context.Context, cfg *config.Config, log logger.Logger, obs *observability.Observability) (*app, error) {
	reg, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("load activity registry: %w", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   log,
		obs:      obs,
		registry: reg,
		orders:   database.NewOrderStores(),
	}

	if err := a.openTranscript(ctx); err != nil {
		return nil, err
	}

	backend, err := newBackend(cfg.Assistant)
	if err != nil {
		a.close()
		return nil, err
	}

	a.tracker = trackorder.NewTracker(a.orders, config.GetDuration(cfg.Commerce.TrackingLatency))

	paymentCfg := simulatepayment.LoadConfig()
	paymentCfg.ProcessingDelay = config.GetDuration(cfg.Commerce.PaymentDelay)
	paymentCfg.MaxIDAttempts = cfg.Commerce.OrderIDAttempts
	a.payments = simulatepayment.NewService(paymentCfg, a.orders, log.WithFields(map[string]interface{}{"component": "payments"}))

	chatCfg := chatturn.LoadConfig()
	chatCfg.Timeout = config.GetDuration(cfg.Assistant.Timeout)
	chatCfg.HistoryLimit = cfg.Assistant.HistoryLimit
	a.chat = chatturn.NewService(chatCfg, backend, a.transcript, log.WithFields(map[string]interface{}{"component": "chat"}))

	a.dispatcher = dispatchactions.NewDispatcher(a.tracker, a.payments, cfg.Commerce.DefaultShopName,
		log.WithFields(map[string]interface{}{"component": "dispatch"}), obs)

	log.Info("services ready", map[string]interface{}{
		"assistantProvider": cfg.Assistant.Provider,
		"redisTranscript":   a.redis != nil,
		"activities":        len(reg.Activities),
	})
	return a, nil
}

func (a *app) openTranscript(ctx context.Context) error {
	if !a.cfg.Redis.Enabled {
		a.transcript = database.NewMemoryTranscript()
		return nil
	}

	err := retryWithBackoff(func() error {
		var err error
		a.redis, err = database.NewRedis(ctx, a.cfg.Redis)
		return err
	}, 5, time.Second, a.logger, "redis connection")
	if err != nil {
		return err
	}

	a.transcript = database.NewRedisTranscript(a.redis.Client, config.GetDuration(a.cfg.Redis.TranscriptTTL))
	return nil
}

func newBackend(cfg config.AssistantConfig) (chatturn.Backend, error) {
	switch cfg.Provider {
	case "openai":
		model, err := chatturn.NewOpenAIModel(cfg.APIKey, cfg.Model, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		return chatturn.NewLLMBackend(model), nil
	default:
		return chatturn.NewHTTPBackend(cfg.BaseURL, config.GetDuration(cfg.Timeout), cfg.MaxRetries), nil
	}
}

// jobHandlers maps every task type this build can serve to its handler.
func (a *app) jobHandlers() map[string]camunda.JobHandler {
	log := a.logger

	chatCfg := chatturn.LoadConfig()
	chatCfg.Timeout = config.GetDuration(a.cfg.Assistant.Timeout)

	return map[string]camunda.JobHandler{
		parseassistantresponse.TaskType: parseassistantresponse.NewHandler(parseassistantresponse.LoadConfig(), log),
		classifyactionitems.TaskType:    classifyactionitems.NewHandler(classifyactionitems.LoadConfig(), log),
		trackorder.TaskType:             trackorder.NewHandler(trackorder.LoadConfig(), a.tracker, log),
		simulatepayment.TaskType:        simulatepayment.NewHandler(simulatepayment.LoadConfig(), a.payments, log),
		dispatchactions.TaskType:        dispatchactions.NewHandler(dispatchactions.LoadConfig(), a.dispatcher, log),
		chatturn.TaskType:               chatturn.NewHandler(chatCfg, a.chat, log),
	}
}

// workerConfig prefers an explicit workers.<taskType> section over the
// settings the registry declares.
func (a *app) workerConfig(activity registry.Activity) config.WorkerConfig {
	if _, ok := a.cfg.Workers[activity.TaskType]; ok {
		return config.GetWorkerConfig(a.cfg, activity.TaskType)
	}
	wc := activity.WorkerConfig(a.cfg.Camunda.MaxJobsActive)
	if wc.Timeout == 0 {
		wc.Timeout = a.cfg.Camunda.Timeout
	}
	return wc
}

// startWorkers connects to the broker and opens one job worker per
// registered activity that has a handler.
func (a *app) startWorkers(ctx context.Context) error {
	client, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         a.cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(a.cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	a.camunda = client
	a.workers = camunda.NewWorkers(client.GetClient(), a.logger)

	handlers := a.jobHandlers()
	for _, activity := range a.registry.Activities {
		handler, ok := handlers[activity.TaskType]
		if !ok {
			a.logger.Warn("no handler for registered activity", map[string]interface{}{
				"taskType": activity.TaskType,
				"status":   activity.ImplementationStatus,
			})
			continue
		}
		a.workers.Start(activity.TaskType, a.workerConfig(activity), handler)
	}

	active := a.workers.Active()
	sort.Strings(active)
	a.logger.Info("workers registered", map[string]interface{}{"count": len(active), "taskTypes": active})
	return nil
}

func (a *app) readinessChecks() []api.ReadinessCheck {
	checks := []api.ReadinessCheck{{Name: "orders", Check: a.orders.Ping}}
	if a.redis != nil {
		checks = append(checks, api.ReadinessCheck{Name: "redis", Check: a.redis.Ping})
	}
	if a.camunda != nil {
		checks = append(checks, api.ReadinessCheck{Name: "camunda", Check: a.camunda.HealthCheck})
	}
	return checks
}

func (a *app) router(gatherer prometheus.Gatherer) http.Handler {
	return api.NewRouter(api.Deps{
		Chat:       a.chat,
		Dispatcher: a.dispatcher,
		Payments:   a.payments,
		Orders:     a.orders,
		Checks:     a.readinessChecks(),
		Gatherer:   gatherer,
		Logger:     a.logger,
	})
}

// close releases workers before the stores they write to.
func (a *app) close() {
	if a.workers != nil {
		a.workers.Close()
	}
	if a.camunda != nil {
		if err := a.camunda.Close(); err != nil {
			a.logger.Error("error closing broker client", map[string]interface{}{"error": err.Error()})
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("error closing redis", map[string]interface{}{"error": err.Error()})
		}
	}
	a.orders.Close()
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(operationName+" failed, retrying", map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
