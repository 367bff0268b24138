package main

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/cobra"
)

func TestSubcommandsRegistered(t *testing.T) {
	for _, name := range []string{"migrate", "reconcile", "reset-password"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered (got %v, err %v)", name, cmd, err)
		}
	}
}

func TestReconcileRequiresInvoiceID(t *testing.T) {
	if err := reconcileCmd.Args(reconcileCmd, nil); err == nil {
		t.Error("expected an error without an invoice id")
	}
	if err := reconcileCmd.Args(reconcileCmd, []string{"a", "b"}); err == nil {
		t.Error("expected an error with two arguments")
	}
}

func TestResetPasswordFlagsRequired(t *testing.T) {
	for _, name := range []string{"email", "password"} {
		flag := resetPasswordCmd.Flags().Lookup(name)
		if flag == nil {
			t.Fatalf("flag %q missing", name)
		}
		if _, ok := flag.Annotations["cobra_annotation_bash_completion_one_required_flag"]; !ok {
			t.Errorf("flag %q should be required", name)
		}
	}
}

func TestRunClosesResourcesWhenCommandFails(t *testing.T) {
	var closed []string
	failing := &cobra.Command{
		Use: "fail-after-setup",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			current = env{closers: []func() error{
				func() error { closed = append(closed, "db"); return nil },
				func() error { closed = append(closed, "kafka"); return errors.New("already closed") },
			}}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New("reconcile failed")
		},
	}
	rootCmd.AddCommand(failing)
	defer rootCmd.RemoveCommand(failing)

	rootCmd.SetArgs([]string{"fail-after-setup"})
	defer rootCmd.SetArgs(nil)

	if err := run(context.Background()); err == nil || err.Error() != "reconcile failed" {
		t.Fatalf("run() error = %v", err)
	}
	if len(closed) != 2 || closed[0] != "kafka" || closed[1] != "db" {
		t.Errorf("closed = %v, want [kafka db]", closed)
	}
	if len(current.closers) != 0 {
		t.Error("closers kept after cleanup")
	}
}
