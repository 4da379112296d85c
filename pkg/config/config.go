package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/goran-ethernal/StarkIndexor/internal/address"
	"github.com/goran-ethernal/StarkIndexor/internal/common"
	"github.com/goran-ethernal/StarkIndexor/internal/logger"
)

// Config represents the complete configuration for the StarkIndexor.
type Config struct {
	// Sync contains the sync engine configuration
	Sync SyncConfig `yaml:"sync" json:"sync" toml:"sync"`

	// Logging contains logging configuration
	Logging *LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty" toml:"logging,omitempty"`

	// Metrics contains Prometheus metrics configuration
	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty" toml:"metrics,omitempty"`

	// API contains the query/status HTTP server configuration
	API *APIConfig `yaml:"api,omitempty" json:"api,omitempty" toml:"api,omitempty"`
}

// SyncConfig represents the configuration for the sync engine.
type SyncConfig struct {
	// RPCURL is the Starknet JSON-RPC endpoint URL
	RPCURL string `yaml:"rpc_url" json:"rpc_url" toml:"rpc_url"`

	// Contracts contains the list of contracts to index
	Contracts []ContractConfig `yaml:"contracts" json:"contracts" toml:"contracts"`

	// StartBlock is the global fallback start block for contracts
	// that do not set their own
	StartBlock uint64 `yaml:"start_block" json:"start_block" toml:"start_block"`

	// ChunkSize is the block range per events query window
	ChunkSize uint64 `yaml:"chunk_size" json:"chunk_size" toml:"chunk_size"`

	// SyncInterval is the tail poll period once historical sync has caught up
	SyncInterval common.Duration `yaml:"sync_interval" json:"sync_interval" toml:"sync_interval"`

	// EventTypes is an allow list of ABI event names; empty means all
	EventTypes []string `yaml:"event_types,omitempty" json:"event_types,omitempty" toml:"event_types,omitempty"`

	// EventKeys is an allow list of 0x-hex keys matched against an
	// event's raw keys; empty means all
	EventKeys []string `yaml:"event_keys,omitempty" json:"event_keys,omitempty" toml:"event_keys,omitempty"`

	// BatchMode favors larger internal batches and fewer commits
	BatchMode bool `yaml:"batch_mode" json:"batch_mode" toml:"batch_mode"`

	// Retry contains RPC retry configuration with exponential backoff
	Retry *RetryConfig `yaml:"retry,omitempty" json:"retry,omitempty" toml:"retry,omitempty"`

	// DB contains database configuration for the event store
	DB DatabaseConfig `yaml:"db" json:"db" toml:"db"`
}

// ApplyDefaults sets default values for optional sync configuration fields.
func (s *SyncConfig) ApplyDefaults() {
	if s.ChunkSize == 0 {
		s.ChunkSize = 2000
	}
	if s.SyncInterval.Duration == 0 {
		s.SyncInterval = common.NewDuration(2 * time.Second)
	}

	if s.Retry == nil {
		s.Retry = &RetryConfig{}
	}
	s.Retry.ApplyDefaults()

	s.DB.ApplyDefaults()
}

// ContractConfig represents a single contract to index.
type ContractConfig struct {
	// Address is the contract address to monitor, any hex form
	Address string `yaml:"address" json:"address" toml:"address"`

	// StartBlock overrides the global start block for this contract
	StartBlock *uint64 `yaml:"start_block,omitempty" json:"start_block,omitempty" toml:"start_block,omitempty"`
}

// ParseContractList parses a comma-separated "address[:start_block]" list
// as accepted on the command line and in the CONTRACTS environment variable.
func ParseContractList(s string) ([]ContractConfig, error) {
	var out []ContractConfig

	for _, entry := range common.SplitCSV(s) {
		addr := entry
		var startBlock *uint64

		if idx := strings.LastIndex(entry, ":"); idx != -1 {
			addr = entry[:idx]
			blockStr := entry[idx+1:]
			block, err := common.ParseUint64orHex(&blockStr)
			if err != nil {
				return nil, fmt.Errorf("contract %q: invalid start block %q: %w", entry, blockStr, err)
			}
			startBlock = &block
		}

		out = append(out, ContractConfig{Address: addr, StartBlock: startBlock})
	}

	return out, nil
}

// RetryConfig represents RPC retry configuration with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial request)
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts" toml:"max_attempts"`

	// InitialBackoff is the initial backoff duration before first retry
	InitialBackoff common.Duration `yaml:"initial_backoff" json:"initial_backoff" toml:"initial_backoff"`

	// MaxBackoff is the maximum backoff duration
	MaxBackoff common.Duration `yaml:"max_backoff" json:"max_backoff" toml:"max_backoff"`

	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64 `yaml:"backoff_multiplier" json:"backoff_multiplier" toml:"backoff_multiplier"`
}

// ApplyDefaults sets default values for retry configuration.
func (r *RetryConfig) ApplyDefaults() {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = 3
	}
	if r.InitialBackoff.Duration == 0 {
		r.InitialBackoff = common.NewDuration(500 * time.Millisecond) //nolint:mnd
	}
	if r.MaxBackoff.Duration == 0 {
		r.MaxBackoff = common.NewDuration(30 * time.Second) //nolint:mnd
	}
	if r.BackoffMultiplier == 0 {
		r.BackoffMultiplier = 2.0
	}
}

// DatabaseConfig represents database configuration.
type DatabaseConfig struct {
	// Path is the file path to the SQLite database
	Path string `yaml:"path" json:"path" toml:"path"`

	// JournalMode sets the SQLite journal mode (e.g., "WAL", "DELETE")
	// WAL mode is recommended for better concurrency
	JournalMode string `yaml:"journal_mode" json:"journal_mode" toml:"journal_mode"`

	// Synchronous sets the synchronization level ("FULL", "NORMAL", "OFF")
	// NORMAL provides a good balance between safety and performance
	Synchronous string `yaml:"synchronous" json:"synchronous" toml:"synchronous"`

	// BusyTimeout is the time in milliseconds to wait when the database is locked
	BusyTimeout int `yaml:"busy_timeout" json:"busy_timeout" toml:"busy_timeout"`

	// CacheSize is the size of the page cache (negative = KB, positive = pages)
	CacheSize int `yaml:"cache_size" json:"cache_size" toml:"cache_size"`

	// MaxOpenConnections is the maximum number of open database connections
	MaxOpenConnections int `yaml:"max_open_connections" json:"max_open_connections" toml:"max_open_connections"`

	// MaxIdleConnections is the maximum number of idle connections in the pool
	MaxIdleConnections int `yaml:"max_idle_connections" json:"max_idle_connections" toml:"max_idle_connections"`

	// EnableForeignKeys enables foreign key constraint enforcement
	EnableForeignKeys bool `yaml:"enable_foreign_keys" json:"enable_foreign_keys" toml:"enable_foreign_keys"`
}

// ApplyDefaults sets default values for optional database configuration fields.
func (d *DatabaseConfig) ApplyDefaults() {
	if d.JournalMode == "" {
		d.JournalMode = "WAL"
	}
	if d.Synchronous == "" {
		d.Synchronous = "NORMAL"
	}
	if d.BusyTimeout == 0 {
		d.BusyTimeout = 5000
	}
	if d.CacheSize == 0 {
		d.CacheSize = 10000
	}
	if d.MaxOpenConnections == 0 {
		d.MaxOpenConnections = 25
	}
	if d.MaxIdleConnections == 0 {
		d.MaxIdleConnections = 5
	}
	// EnableForeignKeys defaults to false (zero value)
}

// LoggingConfig configures logging behavior with per-component log levels.
type LoggingConfig struct {
	// DefaultLevel is the default log level for all components
	// Options: "debug", "info", "warn", "error"
	DefaultLevel string `yaml:"default_level" json:"default_level" toml:"default_level"`

	// Development enables development mode (stack traces, console encoder)
	Development bool `yaml:"development" json:"development" toml:"development"`

	// ComponentLevels sets log levels for specific components
	// Available components:
	//   - sync-engine: Sync engine orchestration
	//   - contract-worker: Per-contract sync workers
	//   - event-store: Event persistence layer
	//   - abi-registry: ABI fetch and cache
	//   - decoder: Event decoding
	//   - realtime: Realtime broadcast fabric
	//   - deployments: Deployment catalog gateway
	//   - query: Query service
	//   - api: HTTP API server
	//   - rpc-client: Starknet RPC client
	ComponentLevels map[string]string `yaml:"component_levels,omitempty" json:"component_levels,omitempty" toml:"component_levels,omitempty"` //nolint:lll
}

// ApplyDefaults sets default values for optional logging configuration fields.
func (l *LoggingConfig) ApplyDefaults() {
	if l.DefaultLevel == "" {
		l.DefaultLevel = "info"
	}
	// Development defaults to false (zero value)
	if l.ComponentLevels == nil {
		l.ComponentLevels = make(map[string]string)
	}
}

// Validate checks if the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	if l.DefaultLevel != "" {
		if _, valid := logger.ValidLogLevels[common.ToLowerWithTrim(l.DefaultLevel)]; !valid {
			return fmt.Errorf("logging.default_level: must be one of: debug, info, warn, error")
		}
	}

	for component, level := range l.ComponentLevels {
		// Check if component is valid
		if _, validComponent := common.AllComponents[common.ToLowerWithTrim(component)]; !validComponent {
			return fmt.Errorf("logging.component_levels: unknown component '%s'", component)
		}

		// Check if level is valid
		if _, valid := logger.ValidLogLevels[common.ToLowerWithTrim(level)]; !valid {
			return fmt.Errorf("logging.component_levels[%s]: must be one of: debug, info, warn, error", component)
		}
	}

	return nil
}

// GetComponentLevel returns the log level for a specific component.
// Falls back to DefaultLevel if no component-specific level is set.
func (l *LoggingConfig) GetComponentLevel(component string) string {
	if level, ok := l.ComponentLevels[component]; ok {
		return level
	}
	return common.ToLowerWithTrim(l.DefaultLevel)
}

// GetDefaultLevel returns the default log level.
func (l *LoggingConfig) GetDefaultLevel() string {
	return common.ToLowerWithTrim(l.DefaultLevel)
}

// IsDevelopment returns whether development mode is enabled.
func (l *LoggingConfig) IsDevelopment() bool {
	return l.Development
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP endpoint are active
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the metrics HTTP server to
	// Format: "host:port" or ":port"
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// Path is the HTTP path where metrics are exposed
	Path string `yaml:"path" json:"path" toml:"path"`
}

// ApplyDefaults sets default values for optional metrics configuration fields.
func (m *MetricsConfig) ApplyDefaults() {
	if m.ListenAddress == "" {
		m.ListenAddress = ":9090"
	}
	if m.Path == "" {
		m.Path = "/metrics"
	}
	// Enabled defaults to false (zero value)
}

// Validate checks if the metrics configuration is valid.
func (m *MetricsConfig) Validate() error {
	if m.Enabled {
		if m.ListenAddress == "" {
			return fmt.Errorf("listen_address is required when metrics are enabled")
		}
		if m.Path == "" {
			return fmt.Errorf("path is required when metrics are enabled")
		}
		if m.Path[0] != '/' {
			return fmt.Errorf("path must start with '/'")
		}
	}
	return nil
}

// CORSConfig configures cross-origin request handling for the API server.
type CORSConfig struct {
	// Enabled controls whether CORS headers are emitted
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// AllowedOrigins lists origins allowed to call the API ("*" for any)
	AllowedOrigins []string `yaml:"allowed_origins,omitempty" json:"allowed_origins,omitempty" toml:"allowed_origins,omitempty"`
}

// APIConfig configures the query/status HTTP server.
type APIConfig struct {
	// Enabled controls whether the API server runs
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the API server to
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request
	ReadTimeout common.Duration `yaml:"read_timeout" json:"read_timeout" toml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response
	WriteTimeout common.Duration `yaml:"write_timeout" json:"write_timeout" toml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request
	IdleTimeout common.Duration `yaml:"idle_timeout" json:"idle_timeout" toml:"idle_timeout"`

	// CORS configures cross-origin request handling
	CORS CORSConfig `yaml:"cors" json:"cors" toml:"cors"`
}

// ApplyDefaults sets default values for optional API configuration fields.
func (a *APIConfig) ApplyDefaults() {
	if a.ListenAddress == "" {
		a.ListenAddress = ":8080"
	}
	if a.ReadTimeout.Duration == 0 {
		a.ReadTimeout = common.NewDuration(15 * time.Second) //nolint:mnd
	}
	if a.WriteTimeout.Duration == 0 {
		a.WriteTimeout = common.NewDuration(15 * time.Second) //nolint:mnd
	}
	if a.IdleTimeout.Duration == 0 {
		a.IdleTimeout = common.NewDuration(60 * time.Second) //nolint:mnd
	}
}

// ApplyDefaults sets default values for optional configuration fields.
func (c *Config) ApplyDefaults() {
	c.Sync.ApplyDefaults()

	if c.Logging == nil {
		c.Logging = &LoggingConfig{}
	}
	c.Logging.ApplyDefaults()

	if c.Metrics != nil {
		c.Metrics.ApplyDefaults()
	}

	if c.API != nil {
		c.API.ApplyDefaults()
	}
}

// Validate checks if the configuration is valid.
// Contract addresses are normalized in place as a side effect.
func (c *Config) Validate() error {
	if c.Sync.RPCURL == "" {
		return fmt.Errorf("sync.rpc_url is required")
	}

	if c.Sync.DB.Path == "" {
		return fmt.Errorf("sync.db.path is required")
	}

	if len(c.Sync.Contracts) == 0 {
		return fmt.Errorf("at least one contract must be configured")
	}

	seen := make(map[string]bool)
	for i := range c.Sync.Contracts {
		canonical, err := address.Normalize(c.Sync.Contracts[i].Address)
		if err != nil {
			return fmt.Errorf("contract[%d]: %w", i, err)
		}

		if seen[canonical] {
			return fmt.Errorf("contract[%d]: duplicate contract address '%s'", i, canonical)
		}
		seen[canonical] = true

		c.Sync.Contracts[i].Address = canonical
	}

	for i, key := range c.Sync.EventKeys {
		if !strings.HasPrefix(key, "0x") {
			return fmt.Errorf("sync.event_keys[%d]: key '%s' must be 0x-prefixed hex", i, key)
		}
	}

	if c.Sync.DB.JournalMode != "" && c.Sync.DB.JournalMode != "WAL" &&
		c.Sync.DB.JournalMode != "DELETE" && c.Sync.DB.JournalMode != "TRUNCATE" &&
		c.Sync.DB.JournalMode != "PERSIST" && c.Sync.DB.JournalMode != "MEMORY" {
		return fmt.Errorf("sync.db.journal_mode must be one of: WAL, DELETE, TRUNCATE, PERSIST, MEMORY")
	}

	if c.Sync.DB.Synchronous != "" && c.Sync.DB.Synchronous != "FULL" &&
		c.Sync.DB.Synchronous != "NORMAL" && c.Sync.DB.Synchronous != "OFF" {
		return fmt.Errorf("sync.db.synchronous must be one of: FULL, NORMAL, OFF")
	}

	if c.Logging != nil {
		if err := c.Logging.Validate(); err != nil {
			return err
		}
	}

	if c.Metrics != nil {
		if err := c.Metrics.Validate(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	return nil
}
