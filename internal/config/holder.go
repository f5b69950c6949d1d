package config

import (
	"fmt"
	"sync/atomic"
)

// Holder keeps the live Config and swaps it atomically on Reload.
type Holder struct {
	cfg      atomic.Pointer[Config]
	yamlPath string
	envPath  string
}

// NewHolder wraps an already loaded cfg. Reload re-reads yamlPath and the
// default .env file.
func NewHolder(cfg *Config, yamlPath string) *Holder {
	h := &Holder{yamlPath: yamlPath, envPath: DefaultEnvFile}
	h.cfg.Store(cfg)
	return h
}

// Get returns the current configuration. Callers must not mutate it.
func (h *Holder) Get() *Config {
	return h.cfg.Load()
}

// Reload re-reads configuration. On failure the previous config stays live.
func (h *Holder) Reload() error {
	cfg, err := LoadFiles(h.yamlPath, h.envPath)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	h.cfg.Store(cfg)
	return nil
}

// MinContentLength returns the current template advisory threshold.
func (h *Holder) MinContentLength() int {
	return h.Get().Template.MinContentLength
}
