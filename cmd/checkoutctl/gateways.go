package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/metinatakli/storefront-payments/internal/payment"
	"github.com/spf13/cobra"
)

func gatewaysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gateways",
		Short: "List the payment gateways and whether this environment configures them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			methods := os.Getenv("STRIPE_PAYMENT_METHODS")
			if methods == "" {
				methods = "card cashapp"
			}

			registry, err := payment.NewRegistry(domain.GatewayName(os.Getenv("PAYMENT_GATEWAY")), payment.StripeConfig{
				SecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
				PublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
				PaymentMethods: strings.Fields(methods),
			})
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tACTIVE\tCONFIGURED\tDEFAULT\tMETHODS")

			for _, entry := range registry.List() {
				fmt.Fprintf(tw, "%s\t%t\t%t\t%t\t%s\n",
					entry.Name,
					entry.IsActive,
					entry.IsConfigured,
					entry.IsDefault,
					strings.Join(entry.SupportedMethods, ","),
				)
			}

			return tw.Flush()
		},
	}
}
