package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

func newMarketCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "market",
		Short: "Exchange market status",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether the exchange trading gate is open",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			status, err := app.Gate.Status(ctx)
			if err != nil {
				output.Error("Failed to fetch market status: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(status)
			}

			if status.IsOpen {
				output.Success("Market is OPEN")
			} else {
				output.Error("Market is CLOSED")
			}
			if status.Message != "" {
				output.Printf("  %s\n", status.Message)
			}
			output.Dim("  As of %s", FormatTime(status.FetchedAt))
			return nil
		},
	})

	return cmd
}
