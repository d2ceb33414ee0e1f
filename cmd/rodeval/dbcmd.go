package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/banshee-data/rodeval/internal/db"
)

func newDBCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the results database",
	}
	migrate := &cobra.Command{
		Use:   "migrate <up|down|status|to VERSION|force VERSION>",
		Short: "Apply or inspect schema migrations",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.opts.DBPath == "" {
				return errors.New("no results database: set --db")
			}
			database, err := db.OpenDB(a.opts.DBPath)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer database.Close()
			return runMigrate(cmd, database, args)
		},
	}
	cmd.AddCommand(migrate)
	return cmd
}

func runMigrate(cmd *cobra.Command, database *db.DB, args []string) error {
	migrations := db.MigrationsFS()
	out := cmd.OutOrStdout()

	versionArg := func() (int, error) {
		if len(args) < 2 {
			return 0, fmt.Errorf("%s needs a version number", args[0])
		}
		v, err := strconv.Atoi(args[1])
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid version number: %s", args[1])
		}
		return v, nil
	}

	switch args[0] {
	case "up":
		if err := database.MigrateUp(migrations); err != nil {
			return err
		}
	case "down":
		if err := database.MigrateDown(migrations); err != nil {
			return err
		}
	case "to":
		v, err := versionArg()
		if err != nil {
			return err
		}
		if err := database.MigrateTo(migrations, uint(v)); err != nil {
			return err
		}
	case "force":
		v, err := versionArg()
		if err != nil {
			return err
		}
		if err := database.MigrateForce(migrations, v); err != nil {
			return err
		}
		printWarning("migration version forced to %d", v)
	case "status":
	default:
		return fmt.Errorf("unknown migrate action %q", args[0])
	}

	version, dirty, err := database.MigrateVersion(migrations)
	if err != nil {
		return err
	}
	latest, err := db.LatestMigrationVersion(migrations)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "current version: %d (latest %d, dirty: %v)\n", version, latest, dirty)
	if dirty {
		printWarning("database is in a dirty state; inspect it and run `rodeval db migrate force <version>`")
	}
	return nil
}
