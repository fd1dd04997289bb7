package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"subscout/infrastructure/config"
	"subscout/infrastructure/persistence/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the PostgreSQL schema",
	Long:  `Create every table and index the postgres backend needs. Existing tables are left alone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}

		db, err := postgres.Open(cmd.Context(), cfg.DatabaseURL, postgres.PoolConfig{MaxOpenConns: 1})
		if err != nil {
			return err
		}
		defer db.Close()

		if err := postgres.Migrate(cmd.Context(), db); err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Schema is up to date\n", green("✓"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
