package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/ndewijer/Personal-Finance-Backend/internal/app"
	"github.com/ndewijer/Personal-Finance-Backend/internal/apperrors"
	"github.com/ndewijer/Personal-Finance-Backend/internal/config"
	"github.com/ndewijer/Personal-Finance-Backend/internal/database"
	"github.com/ndewijer/Personal-Finance-Backend/internal/logger"
	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
)

// openApp loads configuration and opens the ledger. Logs go to stderr so stdout stays JSON.
func openApp(ctx context.Context, migrate bool) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.NewWithWriter(logger.Config{Level: cfg.Logging.Level}, os.Stderr)

	return app.Open(ctx, cfg, log, migrate)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending schema migrations" }
func (*migrateCmd) Usage() string {
	return `migrate

  Applies every pending schema migration to the configured database (DB_PATH)
  and prints the resulting schema version.
`
}
func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	a, err := openApp(ctx, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	current, _, err := database.SchemaVersion(ctx, a.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("schema at version %d\n", current)
	return subcommands.ExitSuccess
}

type rebuildCmd struct {
	account  string
	security string
}

func (*rebuildCmd) Name() string     { return "rebuild" }
func (*rebuildCmd) Synopsis() string { return "recompute a holding from its stored transactions" }
func (*rebuildCmd) Usage() string {
	return `rebuild -account <uuid> -security <security id>

  Replays every stored transaction of the account/security pair and writes the
  resulting holding, removing it when nothing is held. Prints the holding as JSON
  (null when removed).
`
}

func (c *rebuildCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account ID (required)")
	f.StringVar(&c.security, "security", "", "Security ID, e.g. sec-nasdaq-aapl (required)")
}

func (c *rebuildCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.account == "" || c.security == "" {
		fmt.Fprintln(os.Stderr, "Error: -account and -security are required.")
		return subcommands.ExitUsageError
	}

	a, err := openApp(ctx, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	h, err := a.Holdings.RebuildHolding(ctx, c.account, c.security)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rebuilding holding: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := printJSON(h); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type resolveCmd struct {
	ticker       string
	securityType string
}

func (*resolveCmd) Name() string     { return "resolve" }
func (*resolveCmd) Synopsis() string { return "resolve a ticker to a stored security" }
func (*resolveCmd) Usage() string {
	return `resolve -ticker <ticker> [-type STOCK|CRYPTO]

  Looks the ticker up in the security table and, on first reference, creates it
  from market-data provider metadata with an initial price. Prints the security as JSON.
`
}

func (c *resolveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "ticker", "", "Ticker symbol, e.g. AAPL or BTC (required)")
	f.StringVar(&c.securityType, "type", string(model.SecurityTypeStock), "Security type: STOCK or CRYPTO")
}

func (c *resolveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	securityType, err := model.ParseSecurityType(c.securityType)
	if err != nil || c.ticker == "" {
		fmt.Fprintln(os.Stderr, "Error: -ticker is required and -type must be STOCK or CRYPTO.")
		return subcommands.ExitUsageError
	}

	a, err := openApp(ctx, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	sec, err := a.Securities.Resolve(ctx, c.ticker, securityType)
	if err != nil {
		if apperrors.IsBusinessFailure(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		fmt.Fprintf(os.Stderr, "Error resolving security: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := printJSON(sec); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type refreshPricesCmd struct{}

func (*refreshPricesCmd) Name() string     { return "refresh-prices" }
func (*refreshPricesCmd) Synopsis() string { return "refresh every expired security price" }
func (*refreshPricesCmd) Usage() string {
	return `refresh-prices

  Fetches a new price for every security whose cached price has expired.
  Prints a summary as JSON; exits non-zero when any refresh failed.
`
}
func (*refreshPricesCmd) SetFlags(*flag.FlagSet) {}

func (*refreshPricesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	a, err := openApp(ctx, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	result, err := a.Prices.RefreshStale(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error refreshing prices: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := printJSON(result); err != nil {
		return subcommands.ExitFailure
	}
	if len(result.Failed) > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
