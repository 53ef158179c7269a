package main

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"commerce-workers/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	activity, ok := registry.Commerce().Find("track-order")
	require.True(t, ok)
	activity.ID = "track-order-v2"
	activity.TaskType = "track-order-v2"

	out := t.TempDir()
	files, err := Generate(activity, out, false)
	require.NoError(t, err)
	require.Len(t, files, 4)

	dir := filepath.Join(out, "commerce", "track-order-v2")
	fset := token.NewFileSet()
	for _, name := range []string{"config.go", "handler.go", "handler_test.go", "models.go"} {
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, 0)
		require.NoError(t, err, name)
		assert.Equal(t, "trackorderv2", f.Name.Name)
	}

	models, err := os.ReadFile(filepath.Join(dir, "models.go"))
	require.NoError(t, err)
	assert.Contains(t, string(models), "OrderId string `json:\"orderId\"`")
	assert.Contains(t, string(models), `"required":["orderId"]`)

	config, err := os.ReadFile(filepath.Join(dir, "config.go"))
	require.NoError(t, err)
	assert.Contains(t, string(config), "10 * time.Second")

	handler, err := os.ReadFile(filepath.Join(dir, "handler.go"))
	require.NoError(t, err)
	assert.Contains(t, string(handler), `TaskType = "track-order-v2"`)
}

func TestGenerate_RefusesOverwrite(t *testing.T) {
	activity, ok := registry.Commerce().Find("chat-turn")
	require.True(t, ok)

	out := t.TempDir()
	_, err := Generate(activity, out, false)
	require.NoError(t, err)

	_, err = Generate(activity, out, false)
	assert.ErrorContains(t, err, "already exists")

	_, err = Generate(activity, out, true)
	assert.NoError(t, err)
}

func TestGenerateStructFields(t *testing.T) {
	fields := generateStructFields(map[string]interface{}{
		"session_id": map[string]interface{}{"type": "string"},
		"count":      map[string]interface{}{"type": "integer"},
		"tags":       map[string]interface{}{"type": "array"},
	})

	assert.Equal(t, "\tCount int `json:\"count\"`\n"+
		"\tSessionId string `json:\"session_id\"`\n"+
		"\tTags []interface{} `json:\"tags\"`", fields)
}

func TestPackageName(t *testing.T) {
	assert.Equal(t, "simulatepayment", packageName("simulate-payment"))
	assert.Equal(t, "giftwrap", packageName("Gift_Wrap"))
}
