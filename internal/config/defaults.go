package config

import "github.com/spf13/viper"

// setDefaults sets all default values, matching protocol version 2
func setDefaults(v *viper.Viper) {
	// Protocol defaults
	v.SetDefault("protocol.fee_percentage_base", 1000)
	v.SetDefault("protocol.order_version", 0)
	v.SetDefault("protocol.trade_delegate", zeroAddress)
	v.SetDefault("protocol.fee_holder", zeroAddress)
	v.SetDefault("protocol.eip712_name", "Loopring Protocol")
	v.SetDefault("protocol.eip712_version", "2")

	// Simulator defaults
	v.SetDefault("simulator.precision", 8)
	v.SetDefault("simulator.scale_decimals", 18)
	v.SetDefault("simulator.check_spendable", false)
	v.SetDefault("simulator.workers", 0) // 0 means one per CPU

	// Burn rate defaults
	v.SetDefault("burnrate.cache_size", 1024)

	// Chain state defaults
	v.SetDefault("chainstate.engine", "pebble")
	v.SetDefault("chainstate.path", "") // in memory
	v.SetDefault("chainstate.sync", false)

	// History defaults
	v.SetDefault("history.driver", "") // disabled
	v.SetDefault("history.dsn", "")
	v.SetDefault("history.max_open_conns", 8)
	v.SetDefault("history.timeout", "30s")

	// Diagnostics defaults
	v.SetDefault("metrics.namespace", "ringsim")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

const zeroAddress = "0x0000000000000000000000000000000000000000"
