package cli

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bullion-desk/internal/catalog"
	"bullion-desk/internal/desk"
	"bullion-desk/internal/errors"
	"bullion-desk/internal/models"
)

// deskSession holds the state of one interactive desk session. A session
// owns exactly one draft; locks and executions run against that draft.
type deskSession struct {
	app      *App
	output   *Output
	reader   *bufio.Reader
	draft    *desk.Draft
	snapshot *catalog.Snapshot
}

func newDeskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "desk",
		Short: "Interactive trading desk session",
		Long: `Start an interactive trading desk session.

Build a customer invoice line by line against the current catalog,
lock exchange prices, and execute the trade within the lock window.
Type 'help' inside the session for the command list.`,
		Example: `  bullion-desk desk
  bullion-desk desk --metal SILVER`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			metalFlag, _ := cmd.Flags().GetString("metal")

			session := &deskSession{
				app:    app,
				output: output,
				reader: bufio.NewReader(os.Stdin),
				draft:  desk.NewDraft(app.Pricer),
			}

			ctx := context.Background()
			if err := session.loadCatalog(ctx, metalFlag); err != nil {
				output.Error("Failed to load catalog: %v", err)
				return err
			}

			output.Bold("Bullion Desk - interactive session")
			output.Dim("Catalog: %s (%d products). Type 'help' for commands.",
				session.snapshot.Metal, len(session.snapshot.Products))
			return session.run(ctx)
		},
	}

	cmd.Flags().StringP("metal", "m", "GOLD", "Catalog metal (GOLD, SILVER, PLATINUM, PALLADIUM)")
	return cmd
}

func (s *deskSession) loadCatalog(ctx context.Context, metal string) error {
	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	snap, err := s.app.Loader.Load(loadCtx, models.Metal(strings.ToUpper(metal)))
	if err != nil {
		return err
	}
	s.snapshot = snap
	return nil
}

func (s *deskSession) run(ctx context.Context) error {
	for {
		s.prompt()
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil // EOF ends the session
		}
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) == 0 {
			continue
		}
		cmd, args := strings.ToLower(fields[0]), fields[1:]

		switch cmd {
		case "quit", "exit", "q":
			return nil
		case "help", "?":
			s.printHelp()
		case "catalog":
			s.cmdCatalog(ctx, args)
		case "add":
			s.cmdAdd(args)
		case "qty":
			s.cmdQuantity(args)
		case "rm", "remove":
			s.cmdRemove(args)
		case "fulfill":
			s.cmdFulfill(args)
		case "customer":
			s.cmdCustomer(args)
		case "address":
			s.cmdAddress()
		case "notes":
			s.draft.SetNotes(strings.Join(args, " "))
			s.output.Success("Notes updated")
		case "show":
			s.printInvoice()
		case "clear":
			s.draft.Clear()
			s.app.Engine.Cancel()
			s.output.Success("Draft cleared")
		case "lock":
			s.cmdLock(ctx)
		case "execute":
			s.cmdExecute(ctx, args)
		case "cancel":
			s.app.Engine.Cancel()
			s.output.Success("Lock cancelled")
		case "save":
			s.cmdSaveQuote(ctx)
		case "status":
			s.printStatus()
		default:
			s.output.Warning("Unknown command: %s (try 'help')", cmd)
		}
	}
}

// prompt shows the live lock countdown when a lock is active. The countdown
// is advisory; expiry is enforced against wall-clock timestamps at execute.
func (s *deskSession) prompt() {
	if sess := s.app.Engine.Session(); sess != nil && sess.Status == models.LockStatusLocked {
		remaining := desk.Remaining(time.Now(), sess.ExpiresAt)
		s.output.Printf("%s desk> ", s.output.Yellow("[lock "+FormatCountdown(remaining)+"]"))
		return
	}
	s.output.Printf("desk> ")
}

func (s *deskSession) printHelp() {
	s.output.Bold("Desk commands")
	s.output.Println("  catalog [metal]        reload and list the catalog")
	s.output.Println("  add <sku> [qty]        add a product line (price frozen at add)")
	s.output.Println("  qty <sku> <n>          change a line quantity")
	s.output.Println("  rm <sku>               remove a line")
	s.output.Println("  fulfill <method>       STORAGE, DELIVERY, or SHIP_TO_US (re-prices all lines)")
	s.output.Println("  customer <name...>     set the customer name")
	s.output.Println("  address                enter the ship-to address")
	s.output.Println("  notes <text>           attach notes to the draft")
	s.output.Println("  show                   display the invoice")
	s.output.Println("  lock                   lock exchange prices for the draft")
	s.output.Println("  execute [reference]    execute the active lock")
	s.output.Println("  cancel                 discard the active lock")
	s.output.Println("  save                   save the draft as a quote")
	s.output.Println("  status                 show the lock session state")
	s.output.Println("  clear                  empty the draft")
	s.output.Println("  quit                   end the session")
}

func (s *deskSession) cmdCatalog(ctx context.Context, args []string) {
	if len(args) > 0 {
		if err := s.loadCatalog(ctx, args[0]); err != nil {
			s.output.Error("Failed to load catalog: %v", err)
			return
		}
	}
	s.output.Bold("%s catalog (fetched %s)", s.snapshot.Metal, FormatTime(s.snapshot.FetchedAt))
	s.output.Printf("  %-12s %-30s %12s %12s  %s\n", "SKU", "DESCRIPTION", "ASK", "BID", "STATUS")
	for _, p := range s.snapshot.Products {
		ask := "-"
		if p.AskPrice > 0 {
			ask = FormatUSD(p.AskPrice)
		}
		bid := "-"
		if p.BidPrice > 0 {
			bid = FormatUSD(p.BidPrice)
		}
		s.output.Printf("  %-12s %-30s %12s %12s  %s\n",
			p.Code, truncate(p.Description, 30), ask, bid, s.output.availabilityBadge(p.Level))
	}
}

func (s *deskSession) cmdAdd(args []string) {
	if len(args) == 0 {
		s.output.Warning("Usage: add <sku> [qty]")
		return
	}
	sku := strings.ToUpper(args[0])
	product := s.snapshot.Lookup(sku)
	if product == nil {
		s.output.Error("Unknown SKU: %s (reload with 'catalog')", sku)
		return
	}
	qty := 1
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			s.output.Error("Invalid quantity: %s", args[1])
			return
		}
		qty = n
	}
	for i := 0; i < qty; i++ {
		if err := s.draft.AddLine(product); err != nil {
			s.printDeskError(err)
			return
		}
	}
	s.output.Success("Added %dx %s @ %s", qty, sku, FormatUSD(product.AskPrice))
}

func (s *deskSession) cmdQuantity(args []string) {
	if len(args) != 2 {
		s.output.Warning("Usage: qty <sku> <n>")
		return
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		s.output.Error("Invalid quantity: %s", args[1])
		return
	}
	if err := s.draft.SetQuantity(strings.ToUpper(args[0]), n); err != nil {
		s.printDeskError(err)
		return
	}
	s.output.Success("Quantity updated")
}

func (s *deskSession) cmdRemove(args []string) {
	if len(args) != 1 {
		s.output.Warning("Usage: rm <sku>")
		return
	}
	if err := s.draft.RemoveLine(strings.ToUpper(args[0])); err != nil {
		s.printDeskError(err)
		return
	}
	s.output.Success("Line removed")
}

func (s *deskSession) cmdFulfill(args []string) {
	if len(args) != 1 {
		s.output.Warning("Usage: fulfill <storage|delivery|ship_to_us>")
		return
	}
	method := models.FulfillmentMethod(strings.ToUpper(args[0]))
	switch strings.ToLower(args[0]) {
	case "storage":
		method = models.FulfillmentStorage
	case "delivery":
		method = models.FulfillmentDelivery
	case "ship", "ship_to_us", "shiptous":
		method = models.FulfillmentShipToUS
	}
	if err := s.draft.SetFulfillment(method); err != nil {
		s.printDeskError(err)
		return
	}
	s.output.Success("Fulfillment set to %s, all lines re-priced", method)
}

func (s *deskSession) cmdCustomer(args []string) {
	if len(args) == 0 {
		s.output.Warning("Usage: customer <name...>")
		return
	}
	name := strings.Join(args, " ")

	// Prefer a directory match when the store is available.
	if s.app.Store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		matches, err := s.app.Store.SearchCustomers(ctx, name)
		cancel()
		if err == nil && len(matches) == 1 {
			s.draft.SetCustomer(matches[0])
			s.output.Success("Customer: %s <%s>", matches[0].Name, matches[0].Email)
			return
		}
	}
	s.draft.SetCustomer(models.Customer{Name: name})
	s.output.Success("Customer: %s", name)
}

func (s *deskSession) cmdAddress() {
	addr := models.Address{
		Name:       s.readField("Name"),
		Address1:   s.readField("Address line 1"),
		Address2:   s.readField("Address line 2 (optional)"),
		City:       s.readField("City"),
		State:      s.readField("State"),
		PostalCode: s.readField("Postal code"),
	}
	s.draft.SetShipTo(addr)
	if missing := addr.MissingFields(); len(missing) > 0 {
		s.output.Warning("Address saved but incomplete: missing %s", strings.Join(missing, ", "))
		return
	}
	s.output.Success("Ship-to address saved")
}

func (s *deskSession) readField(label string) string {
	s.output.Printf("  %s: ", label)
	line, err := s.reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func (s *deskSession) printInvoice() {
	lines := s.draft.Lines()
	if len(lines) == 0 {
		s.output.Dim("Draft is empty")
		return
	}
	if c := s.draft.Customer(); c != nil {
		s.output.Bold("Invoice for %s", c.Name)
	} else {
		s.output.Bold("Invoice (no customer set)")
	}
	s.output.Printf("  Fulfillment: %s\n", s.draft.Fulfillment())
	s.output.Printf("  %-12s %3s %12s %8s %12s %12s\n",
		"SKU", "QTY", "ASK", "MARKUP", "UNIT", "TOTAL")
	for _, li := range lines {
		s.output.Printf("  %-12s %3d %12s %8s %12s %12s\n",
			li.SKU, li.Quantity, FormatUSD(li.ExchangeAsk),
			FormatPercent(li.MarkupPercent), FormatUSD(li.RetailUnitPrice),
			FormatUSD(li.LineTotal))
	}
	subtotal, markup, total := s.draft.Totals()
	s.output.Println()
	s.output.Printf("  Subtotal (exchange): %s\n", FormatUSD(subtotal))
	s.output.Printf("  Markup:              %s\n", FormatUSD(markup))
	s.output.Bold("  Total:               %s", FormatUSD(total))
	if notes := s.draft.Notes(); notes != "" {
		s.output.Dim("  Notes: %s", notes)
	}
}

func (s *deskSession) cmdLock(ctx context.Context) {
	lockCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	session, err := s.app.Engine.Lock(lockCtx, s.draft)
	if err != nil {
		s.printDeskError(err)
		return
	}
	s.output.Success("Prices locked - transaction %s", session.TransactionID)
	s.output.Printf("  %-12s %3s %12s %12s\n", "SKU", "QTY", "LOCKED", "EXTENDED")
	for _, p := range session.Prices {
		s.output.Printf("  %-12s %3d %12s %12s\n",
			p.SKU, p.Quantity, FormatUSD(p.UnitPrice), FormatUSD(p.Extended))
	}
	s.output.Bold("  Total cost: %s", FormatUSD(session.TotalCost))
	s.output.Warning("Lock expires at %s - execute within %s",
		FormatTime(session.ExpiresAt), FormatCountdown(desk.Remaining(time.Now(), session.ExpiresAt)))
}

func (s *deskSession) cmdExecute(ctx context.Context, args []string) {
	reference := ""
	if len(args) > 0 {
		reference = args[0]
	}

	sess := s.app.Engine.Session()
	if sess == nil {
		s.output.Error("No active lock. Run 'lock' first.")
		return
	}
	s.output.Printf("Execute trade for %s? [y/N] ", FormatUSD(sess.TotalCost))
	answer, _ := s.reader.ReadString('\n')
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
		s.output.Dim("Execution aborted")
		return
	}

	shippingOption := ""
	if s.draft.Fulfillment() == models.FulfillmentShipToUS {
		shippingOption = "STANDARD"
	}

	execCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	result, err := s.app.Engine.Execute(execCtx, reference, shippingOption)
	if err != nil {
		if errors.Is(err, errors.ErrExecuteUncertain) {
			s.output.Warning("Execution outcome UNCERTAIN: the exchange did not confirm in time.")
			s.output.Warning("Do NOT re-lock before reconciling - check 'trades list' and the exchange portal.")
			return
		}
		s.printDeskError(err)
		return
	}

	report := desk.NewReport(sess.Prices, result)
	if report.Success() {
		s.output.Success("Trade executed - confirmation %s", result.ConfirmationNumber)
	} else {
		s.output.Warning("Trade PARTIALLY executed - confirmation %s", result.ConfirmationNumber)
		for _, sku := range result.Busted {
			s.output.Printf("  %s %s\n", s.output.Red("busted:"), sku)
		}
	}
	for _, p := range report.Filled {
		s.output.Printf("  filled: %-12s %3d @ %s\n", p.SKU, p.Quantity, FormatUSD(p.UnitPrice))
	}
	s.draft.Clear()
}

func (s *deskSession) cmdSaveQuote(ctx context.Context) {
	if s.app.Quotes == nil {
		s.output.Error("Quote store unavailable")
		return
	}
	saveCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	quote, err := s.app.Quotes.Save(saveCtx, s.draft)
	if err != nil {
		s.printDeskError(err)
		return
	}
	s.output.Success("Quote saved: %s (expires %s)", quote.Reference, FormatTime(quote.ExpiresAt))
	s.output.Dim("Execute later with 'bullion-desk quote execute %s'", quote.Reference)
}

func (s *deskSession) printStatus() {
	sess := s.app.Engine.Session()
	if sess == nil {
		s.output.Dim("No lock session")
		return
	}
	s.output.Bold("Lock session %s", sess.TransactionID)
	s.output.Printf("  Status:     %s\n", sess.Status)
	s.output.Printf("  Locked at:  %s\n", FormatTime(sess.LockedAt))
	s.output.Printf("  Expires at: %s\n", FormatTime(sess.ExpiresAt))
	if sess.Status == models.LockStatusLocked {
		s.output.Printf("  Remaining:  %s\n", FormatCountdown(desk.Remaining(time.Now(), sess.ExpiresAt)))
	}
	s.output.Printf("  Total cost: %s\n", FormatUSD(sess.TotalCost))
}

// printDeskError maps domain errors to operator-facing messages.
func (s *deskSession) printDeskError(err error) {
	switch {
	case errors.Is(err, errors.ErrMarketClosed):
		s.output.Error("Market is closed: %v", err)
	case errors.Is(err, errors.ErrLockExpired):
		s.output.Error("Lock expired before execution. Re-lock to get fresh prices.")
	case errors.Is(err, errors.ErrLockActive):
		s.output.Error("A lock is already active. Execute or cancel it first.")
	case errors.Is(err, errors.ErrLockInFlight):
		s.output.Error("A lock or execution is already in flight.")
	case errors.Is(err, errors.ErrNotPurchasable):
		s.output.Error("Product is not purchasable right now: %v", err)
	case errors.Is(err, errors.ErrEmptyDraft):
		s.output.Error("Draft is empty. Add lines with 'add <sku>'.")
	case errors.Is(err, errors.ErrMissingCustomer):
		s.output.Error("Set a customer first with 'customer <name>'.")
	default:
		var unavailable *errors.ItemUnavailableError
		var incomplete *errors.IncompleteAddressError
		if errors.As(err, &unavailable) {
			s.output.Error("SKU %s is no longer sellable; nothing was locked.", unavailable.SKU)
			return
		}
		if errors.As(err, &incomplete) {
			s.output.Error("Ship-to address incomplete: missing %s", strings.Join(incomplete.Missing, ", "))
			return
		}
		s.output.Error("%v", err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
