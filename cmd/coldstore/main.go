package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pbaille/coldstore/internal/api"
	"github.com/pbaille/coldstore/internal/capacity"
	"github.com/pbaille/coldstore/internal/config"
	"github.com/pbaille/coldstore/internal/logging"
	"github.com/pbaille/coldstore/internal/store"
	"github.com/pbaille/coldstore/internal/warehouse"
)

var (
	cfg *config.Config
	log *zap.Logger

	dbPath    string
	backend   string
	redisAddr string
	rule      string
	logLevel  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "coldstore",
		Short:         "Cold storage warehouse records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if log != nil {
				_ = log.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "database path (sqlite backend)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", config.BackendSQLite, "storage backend: sqlite, redis or memory")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis-addr", "localhost:6379", "redis address (redis backend)")
	rootCmd.PersistentFlags().StringVar(&rule, "rule", string(capacity.RuleEntries), "canonical capacity rule: entries or lots")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")

	rootCmd.AddCommand(roomCmd())
	rootCmd.AddCommand(clientCmd())
	rootCmd.AddCommand(entryCmd())
	rootCmd.AddCommand(lotCmd())
	rootCmd.AddCommand(recomputeCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(viewCmd())
	rootCmd.AddCommand(clearCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads the environment config and lets explicit flags override it
func setup(cmd *cobra.Command) error {
	c, err := config.Load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		c.DBPath = dbPath
	}
	if flags.Changed("backend") {
		c.Backend = backend
	}
	if flags.Changed("redis-addr") {
		c.Redis.Addr = redisAddr
	}
	if flags.Changed("rule") {
		c.CapacityRule = capacity.Rule(rule)
	}
	if flags.Changed("log-level") {
		c.Log.Level = logLevel
	}
	if err := c.Validate(); err != nil {
		return err
	}

	l, err := logging.New(c.Log.Level, c.Log.Format)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	cfg, log = c, l
	return nil
}

func getBackend(ctx context.Context) (store.Backend, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		return store.NewRedis(client, cfg.Redis.Prefix), nil
	case config.BackendMemory:
		return store.NewMemory(), nil
	default:
		// Ensure directory exists
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		return store.NewSQLite(cfg.DBPath)
	}
}

func getService(ctx context.Context) (*warehouse.Service, *store.Store, error) {
	b, err := getBackend(ctx)
	if err != nil {
		return nil, nil, err
	}
	log.Debug("storage opened", zap.String("backend", cfg.Backend))

	st := store.New(b, log)
	opts := cfg.ServiceOptions()
	opts.Logger = log
	return warehouse.New(st, opts), st, nil
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			// Note: don't close the store as server runs indefinitely

			server := api.New(svc, addr, log)
			return server.Run()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "server address")
	return cmd
}

func clearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every room, client, entry and lot",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := svc.ClearAll(cmd.Context(), yes); err != nil {
				return err
			}
			fmt.Println("All data cleared.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the irreversible wipe")
	return cmd
}
