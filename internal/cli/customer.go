package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bullion-desk/internal/models"
)

func newCustomerCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customer",
		Short: "Customer directory",
	}

	cmd.AddCommand(newCustomerSearchCmd(app))
	cmd.AddCommand(newCustomerAddCmd(app))
	return cmd
}

func newCustomerSearchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search customers by name, email, or phone",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				output.Error("Customer directory unavailable")
				return fmt.Errorf("store not initialized")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			matches, err := app.Store.SearchCustomers(ctx, strings.Join(args, " "))
			if err != nil {
				output.Error("Search failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(matches)
			}
			if len(matches) == 0 {
				output.Dim("No customers found")
				return nil
			}
			output.Printf("  %-24s %-28s %s\n", "NAME", "EMAIL", "PHONE")
			for _, c := range matches {
				output.Printf("  %-24s %-28s %s\n",
					truncate(c.Name, 24), truncate(c.Email, 28), c.Phone)
			}
			return nil
		},
	}
}

func newCustomerAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a customer to the directory",
		Example: `  bullion-desk customer add "Jane Smith" --email jane@example.com
  bullion-desk customer add "Acme Metals" --phone 555-0100`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				output.Error("Customer directory unavailable")
				return fmt.Errorf("store not initialized")
			}
			email, _ := cmd.Flags().GetString("email")
			phone, _ := cmd.Flags().GetString("phone")

			customer := &models.Customer{
				Name:  args[0],
				Email: email,
				Phone: phone,
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := app.Store.AddCustomer(ctx, customer); err != nil {
				output.Error("Failed to add customer: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(customer)
			}
			output.Success("Customer added: %s (%s)", customer.Name, customer.ID)
			return nil
		},
	}

	cmd.Flags().String("email", "", "Customer email")
	cmd.Flags().String("phone", "", "Customer phone")
	return cmd
}
