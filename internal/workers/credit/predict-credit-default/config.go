// internal/workers/credit/predict-credit-default/config.go
package predictcreditdefault

import (
	"time"

	"credit-default-risk/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

// LoadConfig derives the job timeout from the worker section, defaulting to 30s.
func LoadConfig(wcfg config.WorkerConfig) *Config {
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Config{Timeout: timeout}
}
