package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"bullion-desk/internal/catalog"
	"bullion-desk/internal/config"
	"bullion-desk/internal/desk"
	"bullion-desk/internal/exchange"
	"bullion-desk/internal/logging"
	"bullion-desk/internal/pricing"
	"bullion-desk/internal/quotes"
	"bullion-desk/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Exchange exchange.Exchange
	Store    store.DataStore
	Gate     *desk.Gate
	Pricer   *pricing.Engine
	Engine   *desk.Engine
	Quotes   *quotes.Service
	Loader   *catalog.Loader
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Pick the exchange backend. Sim mode needs no credentials and is
	// the default until FizTrade keys are configured.
	if cfg.IsSimMode() {
		app.Exchange = exchange.NewSimExchange(exchange.SimConfig{
			Open:    true,
			LockTTL: cfg.Desk.LockWindow,
		})
		logger.Debug().Msg("sim exchange initialized")
	} else {
		app.Exchange = exchange.NewFizTradeClient(exchange.FizTradeConfig{
			BaseURL:   cfg.Exchange.BaseURL,
			AccountID: cfg.Credentials.FizTrade.AccountID,
			APIKey:    cfg.Credentials.FizTrade.APIKey,
			APISecret: cfg.Credentials.FizTrade.APISecret,
			Timeout:   cfg.Exchange.Timeout,
		})
		logger.Debug().Str("base_url", cfg.Exchange.BaseURL).Msg("FizTrade client initialized")
	}

	dataStore, err := store.NewSQLiteStore(cfg.Desk.DatabasePath)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize store, quotes and trade history unavailable")
	} else {
		app.Store = dataStore
		logger.Debug().Str("path", cfg.Desk.DatabasePath).Msg("SQLite store initialized")
	}

	app.Gate = desk.NewGate(app.Exchange, cfg.Desk.GateMaxAge)
	app.Pricer = pricing.NewEngine(cfg.Pricing)
	app.Loader = catalog.NewLoader(app.Exchange, logger)
	app.Engine = desk.NewEngine(desk.EngineConfig{
		Exchange:   app.Exchange,
		Gate:       app.Gate,
		Recorder:   app.Store,
		Logger:     logger,
		LockWindow: cfg.Desk.LockWindow,
	})
	if app.Store != nil {
		app.Quotes = quotes.NewService(app.Store, app.Engine, cfg.QuoteTTL(), logger)
	}

	rootCmd := &cobra.Command{
		Use:   "bullion-desk",
		Short: "Bullion Desk - precious metals trading desk CLI",
		Long: `Bullion Desk is a trading desk CLI for precious metals dealers.

It builds customer invoices against live exchange pricing, locks prices
through the FizTrade trading API, and executes two-phase lock/execute
trades with full quote and trade-ledger persistence.

Use 'bullion-desk help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/bullion-desk)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newCatalogCmd(app))
	rootCmd.AddCommand(newMarketCmd(app))
	rootCmd.AddCommand(newDeskCmd(app))
	rootCmd.AddCommand(newQuoteCmd(app))
	rootCmd.AddCommand(newTradesCmd(app))
	rootCmd.AddCommand(newCustomerCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Bullion Desk v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage desk configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Desk Configuration")
	output.Printf("  Lock Window:     %s\n", cfg.Desk.LockWindow)
	output.Printf("  Gate Max Age:    %s\n", cfg.Desk.GateMaxAge)
	output.Printf("  Quote TTL:       %dh\n", cfg.Desk.QuoteTTLHours)
	output.Printf("  Database:        %s\n", cfg.Desk.DatabasePath)
	output.Println()

	output.Bold("Pricing Configuration")
	for metal, pct := range cfg.Pricing.MetalMarkupPercent {
		output.Printf("  %-10s %s\n", metal+":", FormatPercent(pct))
	}
	output.Println()

	output.Bold("Exchange Configuration")
	output.Printf("  Mode:            %s\n", cfg.Exchange.Mode)
	output.Printf("  Base URL:        %s\n", cfg.Exchange.BaseURL)
	output.Printf("  Timeout:         %s\n", cfg.Exchange.Timeout)
	if cfg.Credentials.FizTrade.APIKey != "" {
		output.Printf("  Account:         %s\n", cfg.Credentials.FizTrade.AccountID)
		output.Printf("  API Key:         %s\n", logging.MaskSecret(cfg.Credentials.FizTrade.APIKey))
	}

	return nil
}
