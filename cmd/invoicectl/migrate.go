package main

import (
	"fmt"

	"go-invoice-ws/internal/logger"
	"go-invoice-ws/internal/model"
	"go-invoice-ws/internal/repository"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and seed privileges",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("migrate")

	if err := current.db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := repository.NewPrivilegeRepo(current.db).SeedDefaults(cmd.Context()); err != nil {
		return fmt.Errorf("seed privileges: %w", err)
	}

	log.Info().Int("models", len(model.All())).Msg("Schema is up to date")
	fmt.Println("Migration complete")
	return nil
}
