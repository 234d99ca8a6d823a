package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	intconfig "medrec/internal/config"
	"medrec/internal/migrations"
)

// openDB is replaced in tests.
var openDB = func(cmd *cobra.Command) (*sql.DB, error) {
	env, err := intconfig.ReadEnv()
	if err != nil {
		return nil, err
	}
	return intconfig.OpenDB(cmd.Context(), env.DatabaseDSN)
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "migrate",
		Short:   "Manage the database schema",
		GroupID: "admin",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := migrations.Up(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive")
			}
			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := migrations.Down(db, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			v, dirty, err := migrations.Version(db)
			if err != nil {
				return err
			}
			if dirty {
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty)\n", v)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d\n", v)
			return nil
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}
