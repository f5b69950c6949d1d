package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Strob0t/PromptDesk/internal/adapter/postgres"
)

// MigrateCmd applies, rolls back or reports schema migrations.
type MigrateCmd struct {
	Direction string `arg:"" optional:"" default:"up" enum:"up,down,status" help:"up, down or status"`
	Steps     int    `help:"number of migrations to roll back" default:"1"`
}

func (c *MigrateCmd) Run(ctx context.Context, g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	m, err := postgres.OpenMigrator(cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	var changed []int64
	switch c.Direction {
	case "up":
		changed, err = m.Up(ctx)
	case "down":
		changed, err = m.Down(ctx, c.Steps)
	}
	if err != nil {
		return err
	}

	v, err := m.Version(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s: %d migration(s), schema version %d\n", c.Direction, len(changed), v)
	return nil
}
