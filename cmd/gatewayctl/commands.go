package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"paygate/internal/domain"
	"paygate/internal/repository/postgres"
	"paygate/internal/service"
)

var settingKeys = []string{
	"account_number",
	"merchant_profile_id",
	"sandbox_mode",
	"payment_capture",
	"debugging",
	"api_timeout",
	"processor_mode",
	"endpoint",
}

func settingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Show the effective gateway settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "gateway\t%s\n", e.cfg.Gateway.Name)
			for _, key := range settingKeys {
				value, _ := e.cfg.Gateway.Lookup(key)
				if key == "account_number" && value != "" {
					value = mask(value)
				}
				fmt.Fprintf(w, "%s\t%s\n", key, value)
			}
			return w.Flush()
		},
	}
}

func eligibilityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eligibility",
		Short: "Check whether the store currency and country allow the gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			currency, country := e.cfg.Store.CurrentCurrency(), e.cfg.Store.CurrentCountry()
			eligible := service.IsEligible(currency, country)
			fmt.Fprintf(cmd.OutOrStdout(), "currency=%s country=%s eligible=%t\n", currency, country, eligible)
			return nil
		},
	}
}

func orderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "order [order-id]",
		Short: "Show an order and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.openDB(cmd.Context()); err != nil {
				return err
			}

			order, err := postgres.NewOrderRepository(e.db).GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Order %s (%s)\n", order.ID, order.Gateway)
			fmt.Fprintln(out, strings.Repeat("=", 40))
			fmt.Fprintf(out, "  Status:         %s\n", order.Status)
			fmt.Fprintf(out, "  Total:          %s\n", order.TotalPrice)
			fmt.Fprintf(out, "  Refunded:       %s\n", order.TotalRefunded)
			fmt.Fprintf(out, "  Transaction:    %s\n", valueOrDefault(order.TransactionID, "-"))
			fmt.Fprintf(out, "  Captured:       %t\n", order.Captured)

			if len(order.Notes) > 0 {
				fmt.Fprintln(out, "\nNotes:")
				for _, note := range order.Notes {
					fmt.Fprintf(out, "  %s  %s", note.CreatedAt.Format(time.RFC3339), note.Text)
					if note.Reason != "" {
						fmt.Fprintf(out, " (%s)", note.Reason)
					}
					fmt.Fprintln(out)
				}
			}
			return nil
		},
	}
}

func pendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List processor calls with an unknown outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.openRedis(cmd.Context()); err != nil {
				return err
			}

			ops, err := e.operations().Unresolved(cmd.Context())
			if err != nil {
				return err
			}

			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				if ops == nil {
					ops = []domain.PendingOperation{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(ops)
			}

			if len(ops) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No unresolved operations.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "OPERATION\tORDER\tSTATE\tSTARTED\tLAST ERROR")
			for _, op := range ops {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					op.Operation, op.OrderID, op.State, op.StartedAt.Format(time.RFC3339), op.LastError)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolP("json", "j", false, "Output as JSON")

	return cmd
}

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [operation] [order-id]",
		Short: "Clear an unknown-outcome marker after checking the processor",
		Long: `Clear the journal entry for an authorize, capture or refund call.

Only run this after confirming the call's outcome with the processor and
correcting the order if needed. Later calls of the operation are allowed again.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.openRedis(cmd.Context()); err != nil {
				return err
			}

			if err := e.operations().Resolve(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Resolved %s on order %s\n", args[0], args[1])
			return nil
		},
	}
}

func refundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refund",
		Short: "Refund part or all of an order",
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, _ := cmd.Flags().GetString("order")
			amountText, _ := cmd.Flags().GetString("amount")
			reason, _ := cmd.Flags().GetString("reason")
			manual, _ := cmd.Flags().GetBool("manual")

			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.openDB(cmd.Context()); err != nil {
				return err
			}
			if err := e.openRedis(cmd.Context()); err != nil {
				return err
			}

			order, err := postgres.NewOrderRepository(e.db).GetByID(cmd.Context(), orderID)
			if err != nil {
				return err
			}

			amount, err := domain.ParseMoney(amountText, order.Currency())
			if err != nil {
				return err
			}

			mode := domain.RefundModeGateway
			if manual {
				mode = domain.RefundModeManual
			}

			outcome, err := e.paymentGateway().Refund(cmd.Context(), orderID, domain.RefundRequest{
				Amount: amount,
				Reason: reason,
				Mode:   mode,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !outcome.Succeeded {
				fmt.Fprintf(out, "Refund not recorded: %s\n", outcome.FailureReason)
				return nil
			}
			fmt.Fprintf(out, "Refunded %s (%s), total refunded %s\n", outcome.Amount, outcome.Mode, outcome.TotalRefunded)
			if outcome.RefundID != "" {
				fmt.Fprintf(out, "Refund ID: %s\n", outcome.RefundID)
			}
			if outcome.AmountMismatch {
				fmt.Fprintf(out, "Warning: processor refunded %s\n", outcome.ProcessorAmount)
			}
			return nil
		},
	}

	cmd.Flags().String("order", "", "Order id")
	cmd.Flags().String("amount", "", "Amount in the order currency, e.g. 40.00")
	cmd.Flags().String("reason", "", "Reason recorded in the order history")
	cmd.Flags().Bool("manual", false, "Record the refund without calling the processor")
	_ = cmd.MarkFlagRequired("order")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func valueOrDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func mask(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}
