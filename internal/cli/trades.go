package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bullion-desk/internal/store"
)

func newTradesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trades",
		Short: "Trade ledger",
		Long: `Query the local trade ledger.

Every confirmed execution is recorded here, including partial fills
with their busted SKUs. The ledger is the reconciliation source after
an uncertain execution: if a transaction ID is missing here, verify it
against the exchange portal before re-locking.`,
	}

	cmd.AddCommand(newTradesListCmd(app))
	cmd.AddCommand(newTradesShowCmd(app))
	return cmd
}

func newTradesListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded trades",
		Example: `  bullion-desk trades list
  bullion-desk trades list --source quote --days 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				output.Error("Trade ledger unavailable")
				return fmt.Errorf("store not initialized")
			}
			source, _ := cmd.Flags().GetString("source")
			days, _ := cmd.Flags().GetInt("days")
			limit, _ := cmd.Flags().GetInt("limit")

			filter := store.TradeFilter{Source: source, Limit: limit}
			if days > 0 {
				filter.StartDate = time.Now().AddDate(0, 0, -days)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			trades, err := app.Store.GetTrades(ctx, filter)
			if err != nil {
				output.Error("Failed to query ledger: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Dim("No trades recorded")
				return nil
			}

			output.Bold("Trade ledger")
			output.Printf("  %-14s %-12s %-6s %-20s %12s  %s\n",
				"CONFIRMATION", "TXN", "SRC", "CUSTOMER", "TOTAL", "EXECUTED")
			for _, t := range trades {
				txn := t.TransactionID
				if len(txn) > 12 {
					txn = txn[:12]
				}
				line := fmt.Sprintf("  %-14s %-12s %-6s %-20s %12s  %s",
					t.ConfirmationNumber, txn, t.Source,
					truncate(t.CustomerName, 20), FormatUSD(t.TotalCost),
					FormatTime(t.ExecutedAt))
				if len(t.Busted) > 0 {
					line += " " + output.Yellow(fmt.Sprintf("(%d busted)", len(t.Busted)))
				}
				output.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().String("source", "", "Filter by source: desk or quote")
	cmd.Flags().Int("days", 0, "Only trades from the last N days")
	cmd.Flags().Int("limit", 50, "Maximum rows")
	return cmd
}

func newTradesShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <transaction-id>",
		Short: "Show a trade by transaction ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				output.Error("Trade ledger unavailable")
				return fmt.Errorf("store not initialized")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			trade, err := app.Store.GetTradeByTransaction(ctx, args[0])
			if err != nil {
				output.Error("Trade not found: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(trade)
			}

			output.Bold("Trade %s", trade.TransactionID)
			output.Printf("  Confirmation: %s\n", trade.ConfirmationNumber)
			output.Printf("  Source:       %s", trade.Source)
			if trade.Reference != "" {
				output.Printf(" (%s)", trade.Reference)
			}
			output.Println()
			output.Printf("  Customer:     %s\n", trade.CustomerName)
			output.Printf("  Fulfillment:  %s\n", trade.Fulfillment)
			output.Printf("  Executed:     %s\n", FormatTime(trade.ExecutedAt))
			output.Println()
			for _, p := range trade.Filled {
				output.Printf("  filled: %-12s %3d @ %12s = %s\n",
					p.SKU, p.Quantity, FormatUSD(p.UnitPrice), FormatUSD(p.Extended))
			}
			for _, sku := range trade.Busted {
				output.Printf("  %s %s\n", output.Red("busted:"), sku)
			}
			output.Println()
			output.Bold("  Total: %s", FormatUSD(trade.TotalCost))
			return nil
		},
	}
}
