package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bullion-desk/internal/models"
)

func newCatalogCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog [metal]",
		Short: "Show the sellable product catalog",
		Long: `Fetch and display the product catalog for a metal.

Each product carries the exchange ask, bid, and an availability badge
derived from the exchange's sell switch and delivery text. Products
marked Ask Off, Delayed, or Unavailable cannot be added to an invoice.`,
		Example: `  bullion-desk catalog
  bullion-desk catalog SILVER
  bullion-desk catalog GOLD --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			showAll, _ := cmd.Flags().GetBool("all")

			metal := models.Gold
			if len(args) > 0 {
				metal = models.Metal(strings.ToUpper(args[0]))
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			snap, err := app.Loader.Load(ctx, metal)
			if err != nil {
				output.Error("Failed to load catalog: %v", err)
				return err
			}

			products := snap.Products
			if !showAll {
				products = snap.Purchasable()
			}

			if output.IsJSON() {
				return output.JSON(products)
			}

			output.Bold("%s catalog - %d products (fetched %s)",
				snap.Metal, len(products), FormatTime(snap.FetchedAt))
			output.Printf("  %-12s %-32s %8s %12s %12s  %s\n",
				"SKU", "DESCRIPTION", "WEIGHT", "ASK", "BID", "STATUS")
			for _, p := range products {
				ask := "-"
				if p.AskPrice > 0 {
					ask = FormatUSD(p.AskPrice)
				}
				bid := "-"
				if p.BidPrice > 0 {
					bid = FormatUSD(p.BidPrice)
				}
				output.Printf("  %-12s %-32s %6.2f%s %12s %12s  %s\n",
					p.Code, truncate(p.Description, 32), p.Weight,
					strings.ToLower(string(p.WeightUnit)), ask, bid,
					output.availabilityBadge(p.Level))
			}
			return nil
		},
	}

	cmd.Flags().Bool("all", false, "Include non-purchasable products")
	return cmd
}
