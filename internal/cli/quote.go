package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bullion-desk/internal/errors"
	"bullion-desk/internal/models"
)

func newQuoteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Saved quote management",
		Long: `Manage saved quotes.

Quotes freeze invoice pricing at save time and carry their own expiry,
independent of the short exchange lock window. Executing a quote locks
and executes against the exchange in one step at the frozen prices.`,
	}

	cmd.AddCommand(newQuoteListCmd(app))
	cmd.AddCommand(newQuoteShowCmd(app))
	cmd.AddCommand(newQuoteExecuteCmd(app))
	return cmd
}

func newQuoteListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending quotes",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Quotes == nil {
				output.Error("Quote store unavailable")
				return fmt.Errorf("store not initialized")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			pending, err := app.Quotes.Pending(ctx)
			if err != nil {
				output.Error("Failed to list quotes: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(pending)
			}
			if len(pending) == 0 {
				output.Dim("No pending quotes")
				return nil
			}

			now := time.Now()
			output.Bold("Pending quotes")
			output.Printf("  %-20s %-20s %12s  %s\n", "REFERENCE", "CUSTOMER", "TOTAL", "EXPIRES")
			for _, q := range pending {
				expires := FormatTime(q.ExpiresAt)
				if q.Expired(now) {
					expires = output.Red(expires + " (lapsed)")
				}
				output.Printf("  %-20s %-20s %12s  %s\n",
					q.Reference, truncate(q.Customer.Name, 20), FormatUSD(q.Total), expires)
			}
			return nil
		},
	}
}

func newQuoteShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id-or-reference>",
		Short: "Show a quote in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Quotes == nil {
				output.Error("Quote store unavailable")
				return fmt.Errorf("store not initialized")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			quote, err := app.Quotes.Get(ctx, args[0])
			if err != nil {
				output.Error("Quote not found: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(quote)
			}
			printQuote(output, quote)
			return nil
		},
	}
}

func newQuoteExecuteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute <id-or-reference>",
		Short: "Execute a pending quote at its frozen prices",
		Long: `Execute a pending quote.

The quote must still be PENDING and inside its offer window. The desk
locks the quote's items on the exchange under a fresh transaction ID and
executes immediately; the customer pays the frozen retail prices
regardless of market movement since the quote was saved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Quotes == nil {
				output.Error("Quote store unavailable")
				return fmt.Errorf("store not initialized")
			}
			shippingOption, _ := cmd.Flags().GetString("shipping")

			ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
			defer cancel()

			quote, result, err := app.Quotes.Execute(ctx, args[0], shippingOption)
			if err != nil {
				switch {
				case errors.Is(err, errors.ErrQuoteExpired):
					output.Error("Quote %s has expired; it cannot be executed.", args[0])
				case errors.Is(err, errors.ErrQuoteNotPending):
					output.Error("Quote is no longer pending: %v", err)
				case errors.Is(err, errors.ErrExecuteUncertain):
					output.Warning("Execution outcome UNCERTAIN: the exchange did not confirm in time.")
					output.Warning("Reconcile against 'trades list' before retrying.")
				default:
					output.Error("Execution failed: %v", err)
				}
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"quote":  quote,
					"result": result,
				})
			}

			if result.Partial() {
				output.Warning("Quote %s PARTIALLY executed - confirmation %s", quote.Reference, result.ConfirmationNumber)
				for _, sku := range result.Busted {
					output.Printf("  %s %s\n", output.Red("busted:"), sku)
				}
			} else {
				output.Success("Quote %s executed - confirmation %s", quote.Reference, result.ConfirmationNumber)
			}
			output.Printf("  Transaction: %s\n", result.TransactionID)
			output.Printf("  Total:       %s\n", FormatUSD(quote.Total))
			return nil
		},
	}

	cmd.Flags().String("shipping", "", "Shipping option for SHIP_TO_US quotes")
	return cmd
}

func printQuote(output *Output, q *models.Quote) {
	output.Bold("Quote %s", q.Reference)
	output.Printf("  Status:      %s\n", quoteStatusColored(output, q))
	output.Printf("  Customer:    %s\n", q.Customer.Name)
	output.Printf("  Fulfillment: %s\n", q.Fulfillment)
	output.Printf("  Created:     %s\n", FormatTime(q.CreatedAt))
	output.Printf("  Expires:     %s\n", FormatTime(q.ExpiresAt))
	if q.ExecutedAt != nil {
		output.Printf("  Executed:    %s\n", FormatTime(*q.ExecutedAt))
	}
	output.Println()
	output.Printf("  %-12s %3s %12s %12s %12s\n", "SKU", "QTY", "ASK", "UNIT", "TOTAL")
	for _, li := range q.Items {
		output.Printf("  %-12s %3d %12s %12s %12s\n",
			li.SKU, li.Quantity, FormatUSD(li.ExchangeAsk),
			FormatUSD(li.RetailUnitPrice), FormatUSD(li.LineTotal))
	}
	output.Println()
	output.Printf("  Subtotal: %s\n", FormatUSD(q.Subtotal))
	output.Printf("  Markup:   %s\n", FormatUSD(q.Markup))
	output.Bold("  Total:    %s", FormatUSD(q.Total))
	if q.Notes != "" {
		output.Dim("  Notes: %s", q.Notes)
	}
}

func quoteStatusColored(output *Output, q *models.Quote) string {
	switch q.Status {
	case models.QuoteExecuted:
		return output.Green(string(q.Status))
	case models.QuoteExpired:
		return output.Red(string(q.Status))
	default:
		if q.Expired(time.Now()) {
			return output.Yellow("PENDING (offer lapsed)")
		}
		return output.Yellow(string(q.Status))
	}
}
