package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"commerce-workers/internal/common/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Built-in registry
// ==========================

func TestCommerce_Valid(t *testing.T) {
	reg := Commerce()

	require.NoError(t, reg.Validate())
	assert.Len(t, reg.Activities, 6)

	for _, a := range reg.Activities {
		t.Run(a.TaskType, func(t *testing.T) {
			assert.Equal(t, StatusImplemented, a.ImplementationStatus)
			assert.Equal(t, commerceVersion, a.Version)
			assert.Positive(t, a.TimeoutDuration())
			assert.Contains(t, a.ErrorCodes, "INVALID_INPUT")

			_, err := validation.Compile(a.InputSchema)
			assert.NoError(t, err)
		})
	}
}

func TestFind(t *testing.T) {
	reg := Commerce()

	a, ok := reg.Find("simulate-payment")
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, a.TimeoutDuration())
	assert.Contains(t, a.ErrorCodes, "PAYMENT_CANCELLED")

	_, ok = reg.Find("validate-subscription")
	assert.False(t, ok)
}

func TestWorkerConfig(t *testing.T) {
	a, ok := Commerce().Find("track-order")
	require.True(t, ok)

	cfg := a.WorkerConfig(7)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 7, cfg.MaxJobsActive)
	assert.Equal(t, 10000, cfg.Timeout)
	assert.Equal(t, 2, cfg.MaxRetries)
}

// ==========================
// Validation
// ==========================

func TestValidate(t *testing.T) {
	valid := func() Activity {
		return Activity{ID: "a", DisplayName: "A", TaskType: "a", Category: "commerce", Timeout: "1s"}
	}

	tests := []struct {
		name    string
		mutate  func(reg *ActivityRegistry)
		wantErr string
	}{
		{
			name:    "empty",
			mutate:  func(reg *ActivityRegistry) { reg.Activities = nil },
			wantErr: "no activities",
		},
		{
			name:    "missing id",
			mutate:  func(reg *ActivityRegistry) { reg.Activities[0].ID = "" },
			wantErr: "missing required field: ID",
		},
		{
			name: "duplicate id",
			mutate: func(reg *ActivityRegistry) {
				dup := valid()
				dup.TaskType = "b"
				reg.Activities = append(reg.Activities, dup)
			},
			wantErr: "duplicate activity ID",
		},
		{
			name: "duplicate task type",
			mutate: func(reg *ActivityRegistry) {
				dup := valid()
				dup.ID = "b"
				reg.Activities = append(reg.Activities, dup)
			},
			wantErr: "duplicate task type",
		},
		{
			name:    "missing category",
			mutate:  func(reg *ActivityRegistry) { reg.Activities[0].Category = "" },
			wantErr: "missing required field: Category",
		},
		{
			name:    "bad timeout",
			mutate:  func(reg *ActivityRegistry) { reg.Activities[0].Timeout = "soon" },
			wantErr: "invalid timeout",
		},
		{
			name:    "unknown status",
			mutate:  func(reg *ActivityRegistry) { reg.Activities[0].ImplementationStatus = "verified" },
			wantErr: "unknown status",
		},
		{
			name:    "negative retries",
			mutate:  func(reg *ActivityRegistry) { reg.Activities[0].Retries = -1 },
			wantErr: "negative retries",
		},
		{
			name:   "valid",
			mutate: func(reg *ActivityRegistry) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &ActivityRegistry{Version: "1.0.0", Activities: []Activity{valid()}}
			tt.mutate(reg)

			err := reg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAdd(t *testing.T) {
	reg := Commerce()

	err := reg.Add(Activity{ID: "gift-wrap", DisplayName: "Gift Wrap", TaskType: "gift-wrap", Category: "commerce"})
	require.NoError(t, err)
	assert.NotEqual(t, "2026-10-01T00:00:00Z", reg.LastUpdated)

	err = reg.Add(Activity{ID: "gift-wrap", TaskType: "other"})
	assert.ErrorContains(t, err, "already exists")

	err = reg.Add(Activity{ID: "tracker", TaskType: "track-order"})
	assert.ErrorContains(t, err, "already registered")
}

// ==========================
// Files
// ==========================

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configs", "activity-registry.json")

	require.NoError(t, Save(Commerce(), path))

	reg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, reg.Activities, 6)

	a, ok := reg.Find("track-order")
	require.True(t, ok)

	schema, err := validation.Compile(a.InputSchema)
	require.NoError(t, err)
	assert.True(t, schema.Validate([]byte(`{"orderId":"ORD-1234"}`)).Valid)
	assert.False(t, schema.Validate([]byte(`{}`)).Valid)
}

func TestLoad_EmptyPathUsesBuiltIn(t *testing.T) {
	reg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Commerce().Activities[0].TaskType, reg.Activities[0].TaskType)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.True(t, os.IsNotExist(err))

	garbled := filepath.Join(dir, "garbled.json")
	require.NoError(t, os.WriteFile(garbled, []byte("{"), 0644))
	_, err = Load(garbled)
	assert.ErrorContains(t, err, "parse registry")

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"version":"1.0.0","activities":[]}`), 0644))
	_, err = Load(empty)
	assert.ErrorContains(t, err, "no activities")
}
