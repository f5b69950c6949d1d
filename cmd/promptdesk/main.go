package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/Strob0t/PromptDesk/internal/config"
)

var (
	// version is set at build time with -ldflags "-X main.version=...".
	version = "dev"
	cli     struct {
		Config  string           `help:"path to YAML config file" short:"c" type:"path"`
		EnvFile string           `help:"path to .env file" type:"path"`
		Version kong.VersionFlag `help:"Print version and exit"`

		Serve   ServeCmd   `cmd:"" default:"withargs" help:"Run the HTTP API and MCP prompt server (default)"`
		Migrate MigrateCmd `cmd:"" help:"Apply, roll back or inspect schema migrations"`
		Admin   AdminCmd   `cmd:"" help:"Operator commands for tenants and users"`
	}
)

// Globals carries the flags shared by every command.
type Globals struct {
	ConfigPath string
	EnvPath    string
	Version    string
}

// configFlags returns the config file overrides given on the command line.
func (g *Globals) configFlags() config.CLIFlags {
	return config.CLIFlags{
		ConfigPath: optional(g.ConfigPath),
		EnvPath:    optional(g.EnvPath),
	}
}

// loadConfig loads configuration for the one-shot commands.
func (g *Globals) loadConfig() (*config.Config, error) {
	cfg, _, err := config.LoadWithCLI(g.configFlags())
	return cfg, err
}

// optional maps an empty flag value to "not given".
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("promptdesk"),
		kong.Description("Multi-tenant prompt, rule and template service."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&Globals{ConfigPath: cli.Config, EnvPath: cli.EnvFile, Version: version})
	cmd.FatalIfErrorf(err)
}
