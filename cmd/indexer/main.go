package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/goran-ethernal/StarkIndexor/internal/abi"
	"github.com/goran-ethernal/StarkIndexor/internal/common"
	"github.com/goran-ethernal/StarkIndexor/internal/config"
	"github.com/goran-ethernal/StarkIndexor/internal/db"
	"github.com/goran-ethernal/StarkIndexor/internal/deployment"
	"github.com/goran-ethernal/StarkIndexor/internal/logger"
	"github.com/goran-ethernal/StarkIndexor/internal/metrics"
	"github.com/goran-ethernal/StarkIndexor/internal/query"
	"github.com/goran-ethernal/StarkIndexor/internal/realtime"
	"github.com/goran-ethernal/StarkIndexor/internal/rpc"
	"github.com/goran-ethernal/StarkIndexor/internal/store"
	"github.com/goran-ethernal/StarkIndexor/internal/store/migrations"
	"github.com/goran-ethernal/StarkIndexor/internal/syncer"
	"github.com/goran-ethernal/StarkIndexor/pkg/api"
	pkgconfig "github.com/goran-ethernal/StarkIndexor/pkg/config"
)

const (
	version = "1.0.0"
	banner  = `
╔═══════════════════════════════════════════╗
║         StarkIndexor v%s               ║
║    Starknet Contract Event Indexer        ║
╚═══════════════════════════════════════════╝
`
)

var (
	configPath   string
	rpcURL       string
	contracts    string
	startBlock   uint64
	chunkSize    uint64
	syncInterval time.Duration
	eventTypes   string
	eventKeys    string
	maxRetries   int
	batchMode    bool
	databaseURL  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "StarkIndexor - Starknet contract event indexer",
	Long: `StarkIndexor indexes Starknet contract events into SQLite. It backfills
historical blocks in chunks, tails new blocks, decodes events against each
contract's ABI, and serves the indexed data over a query API.`,
	Version: version,
	RunE:    runIndexer,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the configuration JSON schema",
	Long:  `Print the JSON schema of the configuration file format to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reflector := jsonschema.Reflector{ExpandedStruct: true}
		schema := reflector.Reflect(&pkgconfig.Config{})

		encoded, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode schema: %w", err)
		}

		fmt.Println(string(encoded))
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")
	rootCmd.Flags().StringVar(&rpcURL, "rpc-url", "", "Starknet JSON-RPC endpoint URL")
	rootCmd.Flags().StringVar(&contracts, "contracts", "", "comma-separated contracts to index, each 'address[:start_block]'")
	rootCmd.Flags().Uint64Var(&startBlock, "start-block", 0, "global fallback start block")
	rootCmd.Flags().Uint64Var(&chunkSize, "chunk-size", 0, "block range per events query window")
	rootCmd.Flags().DurationVar(&syncInterval, "sync-interval", 0, "tail poll period once caught up")
	rootCmd.Flags().StringVar(&eventTypes, "event-types", "", "comma-separated event name allow list")
	rootCmd.Flags().StringVar(&eventKeys, "event-keys", "", "comma-separated 0x-hex event key allow list")
	rootCmd.Flags().IntVar(&maxRetries, "max-retries", 0, "maximum RPC attempts per request")
	rootCmd.Flags().BoolVar(&batchMode, "batch-mode", false, "favor larger batches and fewer commits")
	rootCmd.Flags().StringVar(&databaseURL, "database-url", "", "SQLite database path")

	rootCmd.AddCommand(schemaCmd)
}

// loadConfig resolves the configuration with precedence
// flags > environment > file > defaults.
func loadConfig(cmd *cobra.Command) (*pkgconfig.Config, error) {
	cfg := &pkgconfig.Config{}

	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else if cmd.Flags().Changed("config") {
		return nil, fmt.Errorf("config file %s not found", configPath)
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	return config.Process(cfg)
}

// applyFlags overrides configuration fields with explicitly set flags.
func applyFlags(cmd *cobra.Command, cfg *pkgconfig.Config) error {
	flags := cmd.Flags()

	if flags.Changed("rpc-url") {
		cfg.Sync.RPCURL = rpcURL
	}
	if flags.Changed("database-url") {
		cfg.Sync.DB.Path = databaseURL
	}
	if flags.Changed("contracts") {
		parsed, err := pkgconfig.ParseContractList(contracts)
		if err != nil {
			return fmt.Errorf("invalid --contracts: %w", err)
		}
		cfg.Sync.Contracts = parsed
	}
	if flags.Changed("start-block") {
		cfg.Sync.StartBlock = startBlock
	}
	if flags.Changed("chunk-size") {
		cfg.Sync.ChunkSize = chunkSize
	}
	if flags.Changed("sync-interval") {
		cfg.Sync.SyncInterval = common.NewDuration(syncInterval)
	}
	if flags.Changed("event-types") {
		cfg.Sync.EventTypes = common.SplitCSV(eventTypes)
	}
	if flags.Changed("event-keys") {
		cfg.Sync.EventKeys = common.SplitCSV(eventKeys)
	}
	if flags.Changed("max-retries") {
		if cfg.Sync.Retry == nil {
			cfg.Sync.Retry = &pkgconfig.RetryConfig{}
		}
		cfg.Sync.Retry.MaxAttempts = maxRetries
	}
	if flags.Changed("batch-mode") {
		cfg.Sync.BatchMode = batchMode
	}

	return nil
}

func runIndexer(cmd *cobra.Command, args []string) error {
	fmt.Printf(banner, version)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	// Initialize logger
	log := logger.NewComponentLoggerFromConfig(common.ComponentSyncEngine, cfg.Logging)

	// Initialize metrics server if enabled
	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics)
		if err := metricsServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			if err := metricsServer.Stop(ctx); err != nil {
				log.Warnf("Failed to stop metrics server: %v", err)
			}
		}()
		log.Infof("Metrics server started on %s%s", cfg.Metrics.ListenAddress, cfg.Metrics.Path)
	}

	// Run event store migrations
	log.Info("Running database migrations...")
	if err := migrations.RunMigrations(cfg.Sync.DB.Path); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize database
	database, err := db.NewSQLiteDBFromConfig(cfg.Sync.DB)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer database.Close()

	// Initialize RPC client
	log.Infof("Using Starknet node: %s", cfg.Sync.RPCURL)
	rpcClient := rpc.NewClient(
		cfg.Sync.RPCURL,
		cfg.Sync.Retry,
		logger.NewComponentLoggerFromConfig(common.ComponentRPC, cfg.Logging),
	)

	// Initialize shared components
	registry := abi.NewRegistry(
		rpcClient,
		logger.NewComponentLoggerFromConfig(common.ComponentAbiRegistry, cfg.Logging),
	)
	fabric := realtime.NewFabric(0,
		logger.NewComponentLoggerFromConfig(common.ComponentRealtime, cfg.Logging))
	eventStore := store.NewEventStore(database,
		logger.NewComponentLoggerFromConfig(common.ComponentEventStore, cfg.Logging))
	gateway := deployment.NewGateway(database,
		logger.NewComponentLoggerFromConfig(common.ComponentDeployments, cfg.Logging))

	// Initialize sync engine
	engine := syncer.NewEngine(
		cfg.Sync,
		rpcClient,
		registry,
		eventStore,
		fabric,
		logger.NewComponentLoggerFromConfig(common.ComponentSyncEngine, cfg.Logging),
	)

	// Start API server if enabled
	if cfg.API != nil && cfg.API.Enabled {
		service := query.NewService(
			eventStore,
			fabric,
			gateway,
			rpcClient,
			logger.NewComponentLoggerFromConfig(common.ComponentQuery, cfg.Logging),
		)
		apiServer := api.NewServer(
			cfg.API,
			service,
			logger.NewComponentLoggerFromConfig(common.ComponentAPI, cfg.Logging),
		)
		go func() {
			if err := apiServer.Start(ctx); err != nil {
				log.Errorf("API server error: %v", err)
			}
		}()
	}

	// Start indexing
	log.Infof("Starting StarkIndexor with %d contract(s)...", len(cfg.Sync.Contracts))

	if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("sync engine failed: %w", err)
	}

	log.Info("StarkIndexor stopped successfully")
	return nil
}
