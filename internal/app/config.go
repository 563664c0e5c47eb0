package app

import (
	"errors"
	"time"
)

// Config holds everything an App instance needs to run.
type Config struct {
	FlowPath string // relaxed-JSON flow definition

	JobDate      string // "2006-01-02" or "2006-01-02 15:04:05"; empty means today
	Placeholders map[string]string

	VarsPath  string // optional variable declarations hydrated from the store
	StorePath string // badger directory; empty opens an in-memory store

	NodeTimeout time.Duration
	Visualize   bool

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.FlowPath == "" {
		return nil, errors.New("FlowPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
