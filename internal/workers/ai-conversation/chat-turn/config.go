package chatturn

import "time"

type Config struct {
	Timeout      time.Duration
	HistoryLimit int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		HistoryLimit: 20,
	}
}
