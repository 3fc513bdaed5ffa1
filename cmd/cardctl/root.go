package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cardshare/digital-card-api/internal/adapters/qrcode"
	"github.com/cardshare/digital-card-api/internal/adapters/storage"
	"github.com/cardshare/digital-card-api/internal/app/cards"
	"github.com/cardshare/digital-card-api/internal/platform/config"
	"github.com/cardshare/digital-card-api/internal/platform/logging"
)

// cli holds flag values and the stores opened for the running command.
type cli struct {
	configPath  string
	store       string
	sqlitePath  string
	databaseURL string
	baseURL     string
	verbose     bool

	log    *zap.Logger
	stores *storage.Stores
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "cardctl",
		Short: "Operate on digital business cards",
		Long: `cardctl resolves public card addresses and exports contact cards and QR codes
straight from the card store.

Store selection follows the API server's configuration (CONFIG_PATH, STORAGE_BACKEND,
SQLITE_PATH, DATABASE_URL) unless overridden by flags.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML config file (default $CONFIG_PATH)")
	root.PersistentFlags().StringVar(&c.store, "store", "", "storage backend: memory, sqlite or postgres")
	root.PersistentFlags().StringVar(&c.sqlitePath, "sqlite", "", "SQLite database file")
	root.PersistentFlags().StringVar(&c.databaseURL, "database-url", "", "Postgres connection string")
	root.PersistentFlags().StringVar(&c.baseURL, "base-url", "", "public base URL used in card links")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newSlugCmd(),
		newResolveCmd(c),
		newExportCmd(c),
		newQRCmd(c),
		newPurgeIdempotencyCmd(c),
	)
	return root
}

// cardsService opens the store and wires the cards service.
// Callers must defer c.close().
func (c *cli) cardsService(cmd *cobra.Command) (*cards.Service, error) {
	cfg, err := c.open(cmd)
	if err != nil {
		return nil, err
	}
	return cards.NewService(c.stores.Accounts, qrcode.NewEncoder(), c.log, cfg.PublicBaseURL), nil
}

// open loads configuration, applies flag overrides and opens the store.
func (c *cli) open(cmd *cobra.Command) (*config.Config, error) {
	path := c.configPath
	if path == "" {
		path = getenvDefault("CONFIG_PATH", "")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if c.store != "" {
		cfg.Storage.Backend = c.store
	}
	if c.sqlitePath != "" {
		cfg.Storage.SQLitePath = c.sqlitePath
	}
	if c.databaseURL != "" {
		cfg.Storage.DatabaseURL = c.databaseURL
	}
	if c.baseURL != "" {
		cfg.PublicBaseURL = c.baseURL
	}
	// The CLI writes human output to stdout; logs stay terse on stderr.
	cfg.Logging.Format = "console"
	if c.verbose {
		cfg.Logging.Level = "debug"
	} else {
		cfg.Logging.Level = "warn"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	c.log = log

	stores, err := storage.Open(cmd.Context(), cfg.Storage, cfg.Auth.StoreIssuer(), log)
	if err != nil {
		return nil, err
	}
	c.stores = &stores
	return cfg, nil
}

func (c *cli) close() {
	if c.stores != nil {
		c.stores.Close()
		c.stores = nil
	}
	if c.log != nil {
		_ = c.log.Sync()
	}
}
