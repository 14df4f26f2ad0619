package main

import (
	"fmt"
	"time"

	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Generate a checkout token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := domain.GenerateCheckoutToken()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

func orderIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "order-id",
		Short: "Generate an order id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.GenerateOrderID(time.Now())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}
