// Package main applies the journal schema migrations.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"

	"github.com/cory-johannsen/rogue/internal/config"
	"github.com/cory-johannsen/rogue/migrations"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	direction := flag.String("direction", "up", "up, down, status, or force")
	steps := flag.Int("steps", 0, "number of steps for up and down (0 = all)")
	version := flag.Int("version", -1, "schema version recorded by force")
	flag.Parse()

	if err := run(os.Stdout, *configPath, *direction, *steps, *version); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer, configPath, direction string, steps, version int) error {
	switch {
	case direction != "up" && direction != "down" && direction != "status" && direction != "force":
		return fmt.Errorf("unknown direction %q", direction)
	case direction == "force" && version < 0:
		return errors.New("force needs -version")
	}
	start := time.Now()
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	m, err := migrations.New(cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer m.Close()

	switch direction {
	case "up", "down":
		err = apply(m, direction, steps)
	case "status":
	case "force":
		err = m.Force(version)
	}
	unchanged := errors.Is(err, migrate.ErrNoChange)
	if err != nil && !unchanged {
		return fmt.Errorf("%s: %w", direction, err)
	}

	current, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		fmt.Fprintf(out, "%s: schema empty [%s]\n", direction, time.Since(start))
		return nil
	case err != nil:
		return fmt.Errorf("reading version: %w", err)
	}
	state := "migrated"
	if unchanged || direction == "status" {
		state = "at"
	}
	fmt.Fprintf(out, "%s: %s version=%d dirty=%v [%s]\n", direction, state, current, dirty, time.Since(start))
	return nil
}

func apply(m *migrate.Migrate, direction string, steps int) error {
	switch {
	case steps > 0 && direction == "down":
		return m.Steps(-steps)
	case steps > 0:
		return m.Steps(steps)
	case direction == "down":
		return m.Down()
	default:
		return m.Up()
	}
}
