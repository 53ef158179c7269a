package simulatepayment

import "time"

type Config struct {
	ProcessingDelay time.Duration
	MaxIDAttempts   int
	Timeout         time.Duration
}

func LoadConfig() *Config {
	return &Config{
		ProcessingDelay: 2 * time.Second,
		MaxIDAttempts:   5,
		Timeout:         30 * time.Second,
	}
}
