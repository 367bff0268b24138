package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go-invoice-ws/internal/logger"
	"go-invoice-ws/internal/repository"
	"go-invoice-ws/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <invoice-id>",
	Short: "Apply an invoice's items to product stock",
	Long: `Reconcile adds purchase quantities to stock or removes sale quantities
from it, one item at a time. Running it twice on the same invoice applies
the quantities twice.`,
	Args: cobra.ExactArgs(1),
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().String("email", "", "Reconcile as this user instead of the system actor")
	reconcileCmd.Flags().Bool("json", false, "Print the full result as JSON")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("reconcile")
	ctx := cmd.Context()

	invoiceID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid invoice id %q: %w", args[0], err)
	}

	actor := service.Actor{ID: uuid.Nil, Name: "invoicectl", Email: "system"}
	email, _ := cmd.Flags().GetString("email")
	userRepo := repository.NewUserRepo(current.db)
	if email != "" {
		user, err := userRepo.FindByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("find user %s: %w", email, err)
		}
		actor = service.Actor{ID: user.ID, Name: user.FullName, Email: user.Email}
	}

	reconciler := service.NewReconcileService(
		repository.NewInvoiceRepo(current.db),
		repository.NewProductRepo(current.db),
		current.publisher,
		current.cfg.Inventory.ReconcileConcurrency,
	)

	result, err := reconciler.Reconcile(ctx, invoiceID, actor)
	if result == nil {
		return err
	}
	if err != nil {
		log.Error().Err(err).Str("invoice_id", invoiceID.String()).Msg("Storage fault during reconciliation")
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(result); encErr != nil {
			return encErr
		}
	} else {
		printResult(result)
	}

	if err != nil {
		return err
	}
	if !result.Success {
		return errors.New(result.Message)
	}
	return nil
}

func printResult(result *service.ReconciliationResult) {
	fmt.Printf("Invoice %s (%s): %s\n", result.InvoiceNumber, result.Type, result.Message)
	for _, item := range result.Items {
		status := "ok"
		if !item.Success {
			status = "FAILED"
		}
		fmt.Printf("  [%s] %s: %d -> %d (%+d)", status, item.ProductName, item.OldQuantity, item.NewQuantity, item.Delta)
		if item.Message != "" {
			fmt.Printf("  %s", item.Message)
		}
		fmt.Println()
	}
}
