package config

import (
	"fmt"
	"strings"

	"github.com/LeJamon/goRingSim/internal/storage/chainstate"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap/zapcore"
)

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := config.Protocol.Validate(); err != nil {
		return fmt.Errorf("protocol validation failed: %w", err)
	}
	if err := config.Simulator.Validate(); err != nil {
		return fmt.Errorf("simulator validation failed: %w", err)
	}
	if err := config.BurnRate.Validate(); err != nil {
		return fmt.Errorf("burnrate validation failed: %w", err)
	}
	if err := config.ChainState.Validate(); err != nil {
		return fmt.Errorf("chainstate validation failed: %w", err)
	}
	if err := config.History.Validate(); err != nil {
		return fmt.Errorf("history validation failed: %w", err)
	}
	if err := config.Log.Validate(); err != nil {
		return fmt.Errorf("log validation failed: %w", err)
	}
	if err := config.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics validation failed: %w", err)
	}
	return nil
}

// Validate performs validation on the protocol configuration
func (p *ProtocolConfig) Validate() error {
	if p.FeePercentageBase == 0 {
		return fmt.Errorf("fee_percentage_base must be positive")
	}
	// Fee and waive percentages are exchanged as 16-bit values
	if p.FeePercentageBase > 1<<15-1 {
		return fmt.Errorf("fee_percentage_base must be at most %d, got %d", 1<<15-1, p.FeePercentageBase)
	}
	if !isValidAddress(p.TradeDelegate) {
		return fmt.Errorf("invalid trade_delegate address: %q", p.TradeDelegate)
	}
	if !isValidAddress(p.FeeHolder) {
		return fmt.Errorf("invalid fee_holder address: %q", p.FeeHolder)
	}
	if p.EIP712Name == "" || p.EIP712Version == "" {
		return fmt.Errorf("eip712_name and eip712_version are required")
	}
	return nil
}

// Validate performs validation on the simulator configuration
func (s *SimulatorConfig) Validate() error {
	if s.Precision < 0 {
		return fmt.Errorf("precision must be non-negative, got %d", s.Precision)
	}
	if s.ScaleDecimals < 0 || s.ScaleDecimals > 77 {
		return fmt.Errorf("scale_decimals must be between 0 and 77, got %d", s.ScaleDecimals)
	}
	if s.Precision > s.ScaleDecimals {
		return fmt.Errorf("precision (%d) cannot exceed scale_decimals (%d)", s.Precision, s.ScaleDecimals)
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", s.Workers)
	}
	return nil
}

// Validate performs validation on the burn rate configuration
func (b *BurnRateConfig) Validate() error {
	if b.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative, got %d", b.CacheSize)
	}
	return nil
}

// Validate performs validation on the chain state configuration
func (c *ChainStateConfig) Validate() error {
	switch c.Engine {
	case chainstate.EnginePebble, chainstate.EngineLevelDB:
		return nil
	default:
		return fmt.Errorf("unsupported chainstate engine %q, expected %q or %q",
			c.Engine, chainstate.EnginePebble, chainstate.EngineLevelDB)
	}
}

// Validate performs validation on the history configuration
func (h *HistoryConfig) Validate() error {
	if !h.IsEnabled() {
		return nil
	}
	if h.MaxOpenConns < 0 {
		return fmt.Errorf("max_open_conns must be non-negative, got %d", h.MaxOpenConns)
	}
	if h.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %s", h.Timeout)
	}
	c := &Config{History: *h}
	return c.HistoryStoreConfig().Validate()
}

// Validate performs validation on the log configuration
func (l *LogConfig) Validate() error {
	if _, err := zapcore.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	return nil
}

// Validate performs validation on the metrics configuration
func (m *MetricsConfig) Validate() error {
	for _, r := range m.Namespace {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return fmt.Errorf("invalid metrics namespace %q", m.Namespace)
		}
	}
	return nil
}

// isValidAddress accepts a 0x-prefixed 20-byte hex address
func isValidAddress(s string) bool {
	return strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}
