package main

import (
	"fmt"

	"go-invoice-ws/internal/logger"
	"go-invoice-ws/internal/repository"
	"go-invoice-ws/internal/service"

	"github.com/spf13/cobra"
)

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a user's password and end their current session",
	RunE:  runResetPassword,
}

func init() {
	rootCmd.AddCommand(resetPasswordCmd)
	resetPasswordCmd.Flags().String("email", "", "Email of the user (required)")
	resetPasswordCmd.Flags().String("password", "", "New password (required)")
	_ = resetPasswordCmd.MarkFlagRequired("email")
	_ = resetPasswordCmd.MarkFlagRequired("password")
}

func runResetPassword(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("reset-password")

	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	authService := service.NewAuthService(repository.NewUserRepo(current.db), current.publisher, 0)
	if err := authService.ResetPassword(cmd.Context(), email, password); err != nil {
		return fmt.Errorf("reset password for %s: %w", email, err)
	}

	log.Info().Str("email", email).Msg("Password reset")
	fmt.Printf("Password for %s has been reset\n", email)
	return nil
}
