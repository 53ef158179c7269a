package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"commerce-workers/internal/common/config"
	"commerce-workers/internal/common/database"
	"commerce-workers/internal/common/logger"
	"commerce-workers/internal/common/observability"
	chatturn "commerce-workers/internal/workers/ai-conversation/chat-turn"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roseReply = "Try this one:\n```json\n[{\"name\":\"Rose\",\"price\":10,\"action\":\"buy\"}]\n```"

func testConfig(assistantURL string) *config.Config {
	return &config.Config{
		App:    config.AppConfig{Name: "commerce-workers-test"},
		Server: config.ServerConfig{Address: ":0", ReadTimeout: 1000, WriteTimeout: 1000, ShutdownTimeout: 1000},
		Camunda: config.CamundaConfig{
			MaxJobsActive: 4,
			Timeout:       30000,
		},
		Assistant: config.AssistantConfig{
			Provider:     "http",
			BaseURL:      assistantURL,
			Timeout:      2000,
			HistoryLimit: 10,
		},
		Commerce: config.CommerceConfig{
			OrderIDAttempts: 5,
			DefaultShopName: "UCP Shop",
		},
	}
}

func assistantServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"response": reply})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, cfg *config.Config) *app {
	t.Helper()

	obs, err := observability.New("worker-manager-test", observability.WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = obs.Shutdown(context.Background()) })

	a, err := newApp(context.Background(), cfg, logger.NewTestLogger(t), obs)
	require.NoError(t, err)
	return a
}

func call(t *testing.T, h http.Handler, method, path, body string) (int, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

// ==========================
// Wiring
// ==========================

func TestNewApp_ChatToOrder(t *testing.T) {
	a := newTestApp(t, testConfig(assistantServer(t, roseReply).URL))
	t.Cleanup(a.close)
	router := a.router(prometheus.NewRegistry())

	status, body := call(t, router, http.MethodPost, "/chat", `{"message":"a rose please"}`)
	require.Equal(t, http.StatusOK, status)
	outcomes := body["outcomes"].([]interface{})
	require.Len(t, outcomes, 1)
	assert.Equal(t, "Buy Now", outcomes[0].(map[string]interface{})["label"])

	status, body = call(t, router, http.MethodPost, "/actions/select", `{"item":{"variant":"buy","product":{"name":"Rose","price":10}}}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "payment", body["kind"])

	assert.Equal(t, 1, a.orders.Session(database.DefaultSessionID).Len())

	status, body = call(t, router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]interface{}{"orders": "ok"}, body["checks"])
}

func TestNewApp_RedisTranscript(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(assistantServer(t, "Hello!").URL)
	cfg.Redis = config.RedisConfig{Enabled: true, Address: mr.Addr(), TranscriptTTL: 60000}

	a := newTestApp(t, cfg)
	t.Cleanup(a.close)
	require.NotNil(t, a.redis)

	out, err := a.chat.Turn(context.Background(), "s1", "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello!", out.Response)

	history, err := a.transcript.History(context.Background(), "s1", 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	names := make([]string, 0)
	for _, c := range a.readinessChecks() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"orders", "redis"}, names)
}

func TestNewApp_BadRegistryPath(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.RegistryPath = "does/not/exist.json"

	_, err := newApp(context.Background(), cfg, logger.NewNoOpLogger(), nil)
	assert.ErrorContains(t, err, "load activity registry")
}

func TestClose_MarksOrdersNotReady(t *testing.T) {
	a := newTestApp(t, testConfig("http://unused"))
	router := a.router(prometheus.NewRegistry())

	a.close()

	status, body := call(t, router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "not_ready", body["status"])
}

// ==========================
// Workers
// ==========================

func TestJobHandlers_CoverRegistry(t *testing.T) {
	a := newTestApp(t, testConfig("http://unused"))
	t.Cleanup(a.close)

	handlers := a.jobHandlers()

	var registered []string
	for _, activity := range a.registry.Activities {
		registered = append(registered, activity.TaskType)
	}
	var served []string
	for taskType, h := range handlers {
		assert.NotNil(t, h, taskType)
		served = append(served, taskType)
	}
	sort.Strings(registered)
	sort.Strings(served)
	assert.Equal(t, registered, served)
}

func TestWorkerConfig(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.Workers = map[string]config.WorkerConfig{
		"track-order": {Enabled: false, MaxJobsActive: 1, Timeout: 500, MaxRetries: 9},
	}
	a := newTestApp(t, cfg)
	t.Cleanup(a.close)

	tests := []struct {
		taskType string
		want     config.WorkerConfig
	}{
		{
			taskType: "track-order",
			want:     config.WorkerConfig{Enabled: false, MaxJobsActive: 1, Timeout: 500, MaxRetries: 9},
		},
		{
			taskType: "simulate-payment",
			want:     config.WorkerConfig{Enabled: true, MaxJobsActive: 4, Timeout: 30000, MaxRetries: 1},
		},
		{
			taskType: "parse-assistant-response",
			want:     config.WorkerConfig{Enabled: true, MaxJobsActive: 4, Timeout: 5000, MaxRetries: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.taskType, func(t *testing.T) {
			activity, ok := a.registry.Find(tt.taskType)
			require.True(t, ok)
			assert.Equal(t, tt.want, a.workerConfig(activity))
		})
	}
}

// ==========================
// Helpers
// ==========================

func TestNewBackend(t *testing.T) {
	b, err := newBackend(config.AssistantConfig{Provider: "http", BaseURL: "http://localhost:8000", Timeout: 1000})
	require.NoError(t, err)
	assert.IsType(t, &chatturn.HTTPBackend{}, b)

	b, err = newBackend(config.AssistantConfig{Provider: "openai", APIKey: "sk-test", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.IsType(t, &chatturn.LLMBackend{}, b)
}

func TestRetryWithBackoff(t *testing.T) {
	log := logger.NewNoOpLogger()

	calls := 0
	err := retryWithBackoff(func() error {
		calls++
		if calls < 3 {
			return stderrors.New("connection refused")
		}
		return nil
	}, 5, time.Millisecond, log, "redis connection")
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = retryWithBackoff(func() error {
		calls++
		return stderrors.New("connection refused")
	}, 2, time.Millisecond, log, "redis connection")
	assert.ErrorContains(t, err, "redis connection failed after 2 attempts")
	assert.Equal(t, 2, calls)
}
