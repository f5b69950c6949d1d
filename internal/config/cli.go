package config

import "fmt"

// CLIFlags holds command-line overrides. Nil fields were not set.
type CLIFlags struct {
	ConfigPath *string
	EnvPath    *string
	Port       *string
	LogLevel   *string
	DSN        *string
	NatsURL    *string
}

// LoadWithCLI loads configuration with CLI flags as the highest layer:
// defaults < YAML < .env < ENV < CLI. It returns the YAML path used.
func LoadWithCLI(flags CLIFlags) (*Config, string, error) {
	yamlPath := DefaultConfigFile
	if flags.ConfigPath != nil {
		yamlPath = *flags.ConfigPath
	}
	envPath := DefaultEnvFile
	if flags.EnvPath != nil {
		envPath = *flags.EnvPath
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, "", fmt.Errorf("config yaml: %w", err)
	}
	dotenv, err := readDotEnv(envPath)
	if err != nil {
		return nil, "", fmt.Errorf("config dotenv: %w", err)
	}
	loadEnv(&cfg, envLookup(dotenv))
	applyCLI(&cfg, flags)

	if err := validate(&cfg); err != nil {
		return nil, "", fmt.Errorf("config validate: %w", err)
	}
	return &cfg, yamlPath, nil
}

func applyCLI(cfg *Config, f CLIFlags) {
	if f.Port != nil {
		cfg.Server.Port = *f.Port
	}
	if f.LogLevel != nil {
		cfg.Logging.Level = *f.LogLevel
	}
	if f.DSN != nil {
		cfg.Postgres.DSN = *f.DSN
	}
	if f.NatsURL != nil {
		cfg.NATS.URL = *f.NatsURL
	}
}
