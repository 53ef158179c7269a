package config

type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Server       ServerConfig            `mapstructure:"server"`
	Camunda      CamundaConfig           `mapstructure:"camunda"`
	Redis        RedisConfig             `mapstructure:"redis"`
	Assistant    AssistantConfig         `mapstructure:"assistant"`
	Commerce     CommerceConfig          `mapstructure:"commerce"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	RegistryPath string                  `mapstructure:"registry_path"`
	Logging      LoggingConfig           `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// RedisConfig backs the chat transcript. When disabled transcripts are kept in memory.
type RedisConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Address       string `mapstructure:"address"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	TranscriptTTL int    `mapstructure:"transcript_ttl"` // milliseconds
}

type AssistantConfig struct {
	Provider     string `mapstructure:"provider"` // "http" or "openai"
	BaseURL      string `mapstructure:"base_url"`
	APIKey       string `mapstructure:"api_key"`
	Model        string `mapstructure:"model"`
	Timeout      int    `mapstructure:"timeout"` // milliseconds
	MaxRetries   int    `mapstructure:"max_retries"`
	HistoryLimit int    `mapstructure:"history_limit"`
}

type CommerceConfig struct {
	PaymentDelay    int    `mapstructure:"payment_delay"`    // milliseconds
	TrackingLatency int    `mapstructure:"tracking_latency"` // milliseconds
	OrderIDAttempts int    `mapstructure:"order_id_attempts"`
	DefaultShopName string `mapstructure:"default_shop_name"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
