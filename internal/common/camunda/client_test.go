package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	apperrors "commerce-workers/internal/common/errors"
	"commerce-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() *RetryConfig {
	return &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestExecuteWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantCode  apperrors.ErrorCode
	}{
		{
			name:      "succeeds first time",
			wantCalls: 1,
		},
		{
			name:      "recovers from transient failure",
			failures:  []error{stderrors.New("rpc error: code = Unavailable")},
			wantCalls: 2,
		},
		{
			name: "gives up after retry budget",
			failures: []error{
				stderrors.New("connection refused"),
				stderrors.New("connection refused"),
				stderrors.New("connection refused"),
			},
			wantCalls: 3,
			wantCode:  apperrors.ErrCodeBrokerUnavailable,
		},
		{
			name:      "non transient error is not retried",
			failures:  []error{stderrors.New("permission denied")},
			wantCalls: 1,
			wantCode:  apperrors.ErrCodeBrokerUnavailable,
		},
		{
			name: "timeouts map to broker timeout",
			failures: []error{
				stderrors.New("context deadline exceeded"),
				stderrors.New("context deadline exceeded"),
				stderrors.New("context deadline exceeded"),
			},
			wantCalls: 3,
			wantCode:  apperrors.ErrCodeBrokerTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := ExecuteWithRetry(context.Background(), fastRetry(), "topology", func(context.Context) error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.FromError(err).Code)
		})
	}
}

func TestExecuteWithRetry_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}

	err := ExecuteWithRetry(ctx, cfg, "topology", func(context.Context) error {
		cancel()
		return stderrors.New("unavailable")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeVariables(t *testing.T) {
	var out struct {
		OrderID string `json:"orderId"`
	}

	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Variables: `{"orderId":"ORD-1234"}`}}
	require.NoError(t, DecodeVariables(job, validation.TrackOrder, &out))
	assert.Equal(t, "ORD-1234", out.OrderID)

	bad := entities.Job{ActivatedJob: &pb.ActivatedJob{Variables: `{"orderId":42}`}}
	err := DecodeVariables(bad, validation.TrackOrder, &out)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.FromError(err).Code)
}
