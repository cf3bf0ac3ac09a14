package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"creditdesk/internal/domain"
)

// marshalIndent and writeFile are used by WriteDefault and Save; tests may replace to force errors.
var (
	marshalIndent = json.MarshalIndent
	writeFile     = os.WriteFile
)

// Default returns the built-in configuration used when no config file exists.
// The local provider and in-memory stores let the daemon start with nothing
// external running.
func Default() *domain.Config {
	return &domain.Config{
		Gateway: domain.GatewayConfig{
			Port:           8080,
			Auth:           domain.AuthConfig{},
			AllowedOrigins: []string{},
		},
		Model: domain.ModelConfig{
			Provider:     "ollama",
			DefaultModel: "gpt-oss:20b",
		},
		Store: domain.StoreConfig{
			DatabaseURL: "",
			PendingPath: "creditdesk-pending.db",
		},
		Workflow: domain.WorkflowConfig{
			PipelineURL:    "",
			CreateItemURL:  "",
			TimeoutSeconds: 10,
		},
		Infra: domain.InfraConfig{LogFormat: "text", LogLevel: "info"},
		Retry: domain.RetryConfig{
			MaxRetries:     3,
			InitialBackoff: 500,
			MaxBackoff:     30000,
			Multiplier:     2,
		},
	}
}

// WriteDefault writes the default Config to path (e.g. creditdesk.json). Parent
// directories are not created.
func WriteDefault(path string) error {
	data, err := marshalIndent(Default(), "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, data, 0644)
}

// Load reads path (e.g. creditdesk.json), unmarshals into domain.Config, and
// cleans all path fields to mitigate path traversal. Returns an error if the
// file is missing or invalid JSON.
func Load(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	var c domain.Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config parse: %w", err)
	}
	CleanPaths(&c)
	return &c, nil
}

// CleanPaths applies filepath.Clean to all path fields in cfg.
func CleanPaths(cfg *domain.Config) {
	if cfg == nil {
		return
	}
	if cfg.Store.PendingPath != "" {
		cfg.Store.PendingPath = filepath.Clean(cfg.Store.PendingPath)
	}
	if cfg.Router.RulesPath != "" {
		cfg.Router.RulesPath = filepath.Clean(cfg.Router.RulesPath)
	}
}

// Save writes cfg to path as JSON.
func Save(path string, cfg *domain.Config) error {
	if cfg == nil {
		return fmt.Errorf("config save: nil config")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("config save mkdir: %w", err)
	}
	data, err := marshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config save marshal: %w", err)
	}
	if err := writeFile(path, data, 0644); err != nil {
		return fmt.Errorf("config save write: %w", err)
	}
	return nil
}
