// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/authd/internal/config"
	"github.com/holomush/authd/internal/store"
	"github.com/holomush/authd/internal/xdg"
)

// migrator wraps the methods used by migrate from store.Migrator.
type migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	Close() error
}

// newMigrator opens a migrator for databaseURL. Tests replace it.
var newMigrator = func(databaseURL string) (migrator, error) {
	return store.NewMigrator(databaseURL)
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL user schema",
		Long: `Manage the users table of the PostgreSQL store. Without a
subcommand, all pending migrations are applied. MongoDB indexes are created
by serve and need no migration.`,
		RunE: withMigrator(func(cmd *cobra.Command, m migrator, _ []string) error {
			return runMigrateUp(cmd, m)
		}),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m migrator, _ []string) error {
			return runMigrateUp(cmd, m)
		}),
	})

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back every migration, dropping all users",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m migrator, _ []string) error {
			yes, err := cmd.Flags().GetBool("yes")
			if err != nil {
				return oops.Wrap(err)
			}
			if !yes {
				return oops.Code("CONFIRMATION_REQUIRED").Errorf("migrate down drops all users; pass --yes to confirm")
			}
			if err := m.Down(); err != nil {
				return err
			}
			cmd.Println("All migrations rolled back")
			return nil
		}),
	}
	down.Flags().Bool("yes", false, "confirm dropping all user data")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m migrator, _ []string) error {
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			pending, err := m.PendingMigrations()
			if err != nil {
				return err
			}
			cmd.Printf("version: %d", version)
			if dirty {
				cmd.Print(" (dirty)")
			}
			cmd.Printf("\npending: %d\n", len(pending))
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Record VERSION as applied without running it (clears dirty state)",
		Args:  cobra.ExactArgs(1),
		RunE: withMigrator(func(cmd *cobra.Command, m migrator, args []string) error {
			version, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			if err := m.Force(version); err != nil {
				return err
			}
			cmd.Printf("Forced schema version to %d\n", version)
			return nil
		}),
	})

	return cmd
}

func runMigrateUp(cmd *cobra.Command, m migrator) error {
	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		cmd.Println("No pending migrations")
		return nil
	}

	cmd.Printf("Applying %d migration(s)...\n", len(pending))
	if err := m.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	cmd.Println("Migrations completed successfully")
	return nil
}

// withMigrator loads the store configuration, opens a migrator and closes
// it after run returns.
func withMigrator(run func(cmd *cobra.Command, m migrator, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		storeCfg, err := config.LoadStore(xdg.ResolveConfigFile(configFile), nil)
		if err != nil {
			return err
		}
		if storeCfg.Driver != config.DriverPostgres {
			return oops.Code("MIGRATE_UNSUPPORTED_DRIVER").
				With("driver", storeCfg.Driver).
				Errorf("migrations only apply to the postgres driver, got %q", storeCfg.Driver)
		}

		m, err := newMigrator(storeCfg.URL)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := m.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()
		return run(cmd, m, args)
	}
}

// parseForceVersion parses the VERSION argument of migrate force.
func parseForceVersion(arg string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(arg, "%d", &version); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", arg).Wrap(err)
	}
	return version, nil
}
