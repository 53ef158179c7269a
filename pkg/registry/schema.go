package registry

import (
	"time"

	"commerce-workers/internal/common/config"
)

type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus string                 `json:"implementationStatus"`
	InputSchema          map[string]interface{} `json:"inputSchema"`
	ErrorCodes           []string               `json:"errorCodes"`
	Timeout              string                 `json:"timeout"`
	Retries              int                    `json:"retries"`
	Tags                 []string               `json:"tags"`
}

// TimeoutDuration parses Timeout, returning 0 when it is empty or invalid.
func (a Activity) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// WorkerConfig derives the job worker settings an activity asks for.
func (a Activity) WorkerConfig(maxJobsActive int) config.WorkerConfig {
	return config.WorkerConfig{
		Enabled:       true,
		MaxJobsActive: maxJobsActive,
		Timeout:       int(a.TimeoutDuration() / time.Millisecond),
		MaxRetries:    a.Retries,
	}
}
