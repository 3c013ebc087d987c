package config

import (
	"fmt"
	"strings"
	"time"
)

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// NormalizeRetryBackoff converts arbitrary user input (case-insensitive) into a typed mode, returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(RetryBackoffFixed):
		return RetryBackoffFixed
	case string(RetryBackoffLinear):
		return RetryBackoffLinear
	case string(RetryBackoffExponential):
		return RetryBackoffExponential
	default:
		return ""
	}
}

// RetryConfig is the YAML form of a retry policy.
type RetryConfig struct {
	Backoff      RetryBackoffMode `yaml:"backoff"`
	InitialDelay string           `yaml:"initial_delay"`
	MaxDelay     string           `yaml:"max_delay"`
	MaxRetries   *int             `yaml:"max_retries"`
}

// Delays parses the initial and max delay strings.
func (r RetryConfig) Delays() (initial, maxDelay time.Duration, err error) {
	if initial, err = time.ParseDuration(r.InitialDelay); err != nil {
		return 0, 0, fmt.Errorf("initial_delay: %w", err)
	}
	if maxDelay, err = time.ParseDuration(r.MaxDelay); err != nil {
		return 0, 0, fmt.Errorf("max_delay: %w", err)
	}
	return initial, maxDelay, nil
}
