// Command checkoutctl is the operator tool for the payments service: it
// encrypts integrator credentials, registers integrators, mints identifiers
// and runs database migrations.
package main

import (
	"fmt"
	"os"

	"github.com/metinatakli/storefront-payments/internal/vcs"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "checkoutctl",
		Short:         "Operate the storefront payments service",
		Version:       vcs.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(encryptCmd())
	rootCmd.AddCommand(validateKeysCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(orderIDCmd())
	rootCmd.AddCommand(gatewaysCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(providerCmd())

	return rootCmd
}
