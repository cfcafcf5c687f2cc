package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding the configuration
const EnvPrefix = "RINGSIM"

// LoadConfig loads configuration from multiple sources in priority order:
// 1. Default values (protocol version 2)
// 2. Configuration file (TOML, YAML or JSON), when path is not empty
// 3. Environment variables (RINGSIM_ prefix, e.g. RINGSIM_SIMULATOR_PRECISION)
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults first
	setDefaults(v)

	// 2. Load configuration file
	if path != "" {
		if err := loadConfigFile(v, path); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	// 3. Set up environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Unmarshal into struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.configPath = path

	// 5. Validate the complete configuration
	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns the configuration built from defaults and the environment
func DefaultConfig() (*Config, error) {
	return LoadConfig("")
}

// loadConfigFile reads the configuration file into v
func loadConfigFile(v *viper.Viper, configPath string) error {
	v.SetConfigFile(configPath)

	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	return nil
}

// SaveExampleConfig saves an example configuration file. The format follows
// the file extension.
func SaveExampleConfig(configPath string) error {
	v := viper.New()
	setDefaults(v)

	for key, value := range exampleOverrides() {
		v.Set(key, value)
	}

	if err := v.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write example config: %w", err)
	}

	return nil
}

// exampleOverrides returns the values an example configuration shows off
func exampleOverrides() map[string]interface{} {
	return map[string]interface{}{
		"protocol.trade_delegate":   "0x17233e07c67d086464fD408148c3ABB56245FA64",
		"protocol.fee_holder":       "0x5ceE6B7D8E8aD7F5b4B4A87a3ccE1a2e0E66A2bd",
		"simulator.check_spendable": true,
		"chainstate.path":           "/var/lib/ringsim/chainstate",
		"history.driver":            "sqlite",
		"history.dsn":               "/var/lib/ringsim/history.db",
		"metrics.textfile":          "/var/lib/node_exporter/ringsim.prom",
	}
}
