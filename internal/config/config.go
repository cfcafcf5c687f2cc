package config

import (
	"time"

	"github.com/LeJamon/goRingSim/internal/core/burnrate"
	"github.com/LeJamon/goRingSim/internal/core/order"
	"github.com/LeJamon/goRingSim/internal/core/settlement"
	"github.com/LeJamon/goRingSim/internal/core/validator"
	"github.com/LeJamon/goRingSim/internal/storage/chainstate"
	"github.com/LeJamon/goRingSim/internal/storage/history"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Config represents the complete ringsim configuration
type Config struct {
	// Protocol parameters the settlement contracts were deployed with
	Protocol ProtocolConfig `toml:"protocol" mapstructure:"protocol"`

	// Settlement simulation and reconciliation
	Simulator SimulatorConfig `toml:"simulator" mapstructure:"simulator"`
	BurnRate  BurnRateConfig  `toml:"burnrate" mapstructure:"burnrate"`

	// Local chain state and run history
	ChainState ChainStateConfig `toml:"chainstate" mapstructure:"chainstate"`
	History    HistoryConfig    `toml:"history" mapstructure:"history"`

	// Diagnostics
	Metrics MetricsConfig `toml:"metrics" mapstructure:"metrics"`
	Log     LogConfig     `toml:"log" mapstructure:"log"`

	// Internal fields for configuration management
	configPath string `toml:"-" mapstructure:"-"`
}

// ProtocolConfig represents the [protocol] section
type ProtocolConfig struct {
	FeePercentageBase uint32 `toml:"fee_percentage_base" mapstructure:"fee_percentage_base"`
	OrderVersion      uint32 `toml:"order_version" mapstructure:"order_version"`
	TradeDelegate     string `toml:"trade_delegate" mapstructure:"trade_delegate"`
	FeeHolder         string `toml:"fee_holder" mapstructure:"fee_holder"`
	EIP712Name        string `toml:"eip712_name" mapstructure:"eip712_name"`
	EIP712Version     string `toml:"eip712_version" mapstructure:"eip712_version"`
}

// SimulatorConfig represents the [simulator] section
type SimulatorConfig struct {
	// Precision is the number of fractional digits compared after descaling
	Precision int32 `toml:"precision" mapstructure:"precision"`
	// ScaleDecimals is the token decimals amounts are descaled by
	ScaleDecimals  int32 `toml:"scale_decimals" mapstructure:"scale_decimals"`
	CheckSpendable bool  `toml:"check_spendable" mapstructure:"check_spendable"`
	// Workers bounds the number of batches verified concurrently (0 = one per CPU)
	Workers int `toml:"workers" mapstructure:"workers"`
}

// BurnRateConfig represents the [burnrate] section
type BurnRateConfig struct {
	CacheSize int `toml:"cache_size" mapstructure:"cache_size"`
}

// ChainStateConfig represents the [chainstate] section
type ChainStateConfig struct {
	// Engine is "pebble" or "leveldb"
	Engine string `toml:"engine" mapstructure:"engine"`
	// Path of the database directory, empty keeps the chain state in memory
	Path string `toml:"path" mapstructure:"path"`
	Sync bool   `toml:"sync" mapstructure:"sync"`
}

// HistoryConfig represents the [history] section
type HistoryConfig struct {
	// Driver is "sqlite" or "postgres", empty disables run history
	Driver       string        `toml:"driver" mapstructure:"driver"`
	DSN          string        `toml:"dsn" mapstructure:"dsn"`
	MaxOpenConns int           `toml:"max_open_conns" mapstructure:"max_open_conns"`
	Timeout      time.Duration `toml:"timeout" mapstructure:"timeout"`
}

// MetricsConfig represents the [metrics] section
type MetricsConfig struct {
	Namespace string `toml:"namespace" mapstructure:"namespace"`
	// Textfile, when set, receives the collected metrics in the Prometheus
	// text format at the end of a run
	Textfile string `toml:"textfile" mapstructure:"textfile"`
}

// LogConfig represents the [log] section
type LogConfig struct {
	Level       string `toml:"level" mapstructure:"level"`
	Development bool   `toml:"development" mapstructure:"development"`
}

// GetConfigPath returns the path to the configuration file, empty when
// only defaults and the environment were used
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Domain returns the EIP-712 domain orders are hashed under
func (p *ProtocolConfig) Domain() order.Domain {
	return order.Domain{Name: p.EIP712Name, Version: p.EIP712Version}
}

// ValidatorConfig returns the order validator settings
func (c *Config) ValidatorConfig() validator.Config {
	return validator.Config{
		FeePercentageBase: c.Protocol.FeePercentageBase,
		OrderVersion:      c.Protocol.OrderVersion,
		TradeDelegate:     common.HexToAddress(c.Protocol.TradeDelegate),
		Domain:            c.Protocol.Domain(),
	}
}

// SettlementConfig returns the settlement simulator settings
func (c *Config) SettlementConfig() settlement.Config {
	return settlement.Config{
		FeePercentageBase: c.Protocol.FeePercentageBase,
		FeeHolder:         common.HexToAddress(c.Protocol.FeeHolder),
		Tolerance: settlement.Tolerance{
			Precision:     c.Simulator.Precision,
			ScaleDecimals: c.Simulator.ScaleDecimals,
		},
		CheckSpendable: c.Simulator.CheckSpendable,
	}
}

// BurnRateCacheConfig returns the burn-rate cache settings
func (c *Config) BurnRateCacheConfig() burnrate.CacheConfig {
	return burnrate.CacheConfig{Size: c.BurnRate.CacheSize}
}

// ChainStateOptions returns the chain state store options
func (c *Config) ChainStateOptions(logger *zap.Logger) chainstate.Options {
	return chainstate.Options{
		Engine: c.ChainState.Engine,
		Path:   c.ChainState.Path,
		Sync:   c.ChainState.Sync,
		Logger: logger,
	}
}

// HistoryStoreConfig returns the run history database settings
func (c *Config) HistoryStoreConfig() *history.Config {
	var config *history.Config
	if c.History.Driver == history.DriverSQLite || c.History.Driver == "sqlite3" {
		config = history.SQLiteConfig(c.History.DSN)
	} else {
		config = history.PostgresConfig(c.History.DSN)
		if c.History.MaxOpenConns > 0 {
			config.MaxOpenConns = c.History.MaxOpenConns
			config.MaxIdleConns = min(config.MaxIdleConns, config.MaxOpenConns)
		}
	}
	config.Driver = c.History.Driver
	if c.History.Timeout > 0 {
		config.DefaultTimeout = c.History.Timeout
	}
	return config
}

// IsEnabled returns true if runs are recorded
func (h *HistoryConfig) IsEnabled() bool {
	return h.Driver != ""
}

// IsInMemory returns true if the chain state is not persisted
func (c *ChainStateConfig) IsInMemory() bool {
	return c.Path == ""
}
