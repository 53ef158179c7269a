package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"commerce-workers/pkg/registry"
)

// WorkerData holds data for templates
type WorkerData struct {
	Name        string
	PackageName string
	TaskType    string
	Description string
	InputFields string
	SchemaJSON  string
	TimeoutGo   string
}

func newWorkerData(a registry.Activity) (WorkerData, error) {
	schema, err := json.Marshal(a.InputSchema)
	if err != nil {
		return WorkerData{}, fmt.Errorf("encode input schema: %w", err)
	}
	if strings.Contains(string(schema), "`") {
		return WorkerData{}, fmt.Errorf("input schema of %s contains a backquote", a.ID)
	}

	timeoutGo := "10 * time.Second"
	switch timeout := a.TimeoutDuration(); {
	case timeout <= 0:
	case timeout%time.Second == 0:
		timeoutGo = fmt.Sprintf("%d * time.Second", timeout/time.Second)
	default:
		timeoutGo = fmt.Sprintf("%d * time.Millisecond", timeout/time.Millisecond)
	}

	return WorkerData{
		Name:        a.DisplayName,
		PackageName: packageName(a.ID),
		TaskType:    a.TaskType,
		Description: strings.TrimSuffix(a.Description, "."),
		InputFields: generateStructFields(parseSchema(a.InputSchema)),
		SchemaJSON:  string(schema),
		TimeoutGo:   timeoutGo,
	}, nil
}

func packageName(id string) string {
	return strings.NewReplacer("-", "", "_", "", ".", "").Replace(strings.ToLower(id))
}

// parseSchema extracts properties from a JSON schema object
func parseSchema(schema map[string]interface{}) map[string]interface{} {
	if props, ok := schema["properties"].(map[string]interface{}); ok {
		return props
	}
	return map[string]interface{}{}
}

// goTypeFromJSONType maps JSON schema types to Go types
func goTypeFromJSONType(jsonType interface{}) string {
	jt, _ := jsonType.(string)
	switch jt {
	case "string":
		return "string"
	case "integer":
		return "int"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		return "[]interface{}"
	default:
		return "interface{}"
	}
}

// generateStructFields renders one field per schema property, in name order.
func generateStructFields(properties map[string]interface{}) string {
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var fields []string
	for _, name := range names {
		details, _ := properties[name].(map[string]interface{})
		fields = append(fields, fmt.Sprintf("\t%s %s `json:\"%s\"`", exportedName(name), goTypeFromJSONType(details["type"]), name))
	}
	return strings.Join(fields, "\n")
}

func exportedName(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' })
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "")
}

var templates = map[string]string{
	"config.go":       configTemplate,
	"models.go":       modelsTemplate,
	"handler.go":      handlerTemplate,
	"handler_test.go": testTemplate,
}

// Generate writes the worker package for a into outputDir/<category>/<id>
// and returns the written paths.
func Generate(a registry.Activity, outputDir string, force bool) ([]string, error) {
	data, err := newWorkerData(a)
	if err != nil {
		return nil, err
	}

	workerDir := filepath.Join(outputDir, strings.ToLower(a.Category), a.ID)
	if err := os.MkdirAll(workerDir, 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)

	written := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(workerDir, name)
		if _, err := os.Stat(path); err == nil && !force {
			return written, fmt.Errorf("%s already exists, pass -force to overwrite", path)
		}

		src, err := render(name, templates[name], data)
		if err != nil {
			return written, err
		}
		if err := os.WriteFile(path, src, 0644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func render(name, tmplStr string, data WorkerData) ([]byte, error) {
	tmpl, err := template.New(name).Parse(tmplStr)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", name, err)
	}
	return src, nil
}

const configTemplate = `package {{ .PackageName }}

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: {{ .TimeoutGo }},
	}
}
`

const modelsTemplate = `package {{ .PackageName }}

import (
	"encoding/json"

	"commerce-workers/internal/common/validation"
)

type Input struct {
{{ .InputFields }}
}

type Output struct {
	Status string ` + "`json:\"status\"`" + `
}

var inputSchema = mustSchema(` + "`{{ .SchemaJSON }}`" + `)

func mustSchema(src string) *validation.Schema {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(src), &doc); err != nil {
		panic(err)
	}
	return validation.MustCompile(doc)
}
`

const handlerTemplate = `package {{ .PackageName }}

import (
	"context"
	"time"

	"commerce-workers/internal/common/camunda"
	"commerce-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "{{ .TaskType }}"
)

// Handler runs {{ .Name }} jobs.{{ if .Description }} {{ .Description }}.{{ end }}
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
	if err := camunda.DecodeVariables(job, inputSchema, &input); err != nil {
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
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Output{Status: "ok"}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
`

const testTemplate = `package {{ .PackageName }}

import (
	"context"
	"testing"

	"commerce-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Status)
}

func TestHandler_Cancelled(t *testing.T) {
	h := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Execute(ctx, &Input{})
	assert.ErrorIs(t, err, context.Canceled)
}
`
