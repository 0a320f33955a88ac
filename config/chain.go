package config

import "spinwheel/pkg/config"

func init() {
	config.Add("chain", func() map[string]interface{} {
		return map[string]interface{}{
			"rpc_url": config.Env("CHAIN_RPC_URL", "https://polygon-rpc.com"), // comma separated for failover
			// 0 asks the node
			"chain_id": config.Env("CHAIN_ID", 137),

			"token_address":       config.Env("TOKEN_ADDRESS", "0x370806781689E670f85311700445449aC7C3Ff7a"),
			"token_decimals":      config.Env("TOKEN_DECIMALS", 18),
			"distribution_wallet": config.Env("DISTRIBUTION_WALLET", "0xBc0c054066966a7A6C875981a18376e2296e5815"),
			// hex key of the distribution wallet; empty leaves prizes unpaid until set
			"private_key": config.Env("PRIVATE_KEY", ""),

			"gas_limit": config.Env("GAS_LIMIT", 100000),
			// percent of the node's suggested gas price
			"gas_price_percent": config.Env("GAS_PRICE_PERCENT", 120),
			// Polygon gas station v2 url; empty uses the node's suggestion
			"gas_station_url": config.Env("GAS_STATION_URL", ""),

			// deposit watcher
			"watch_enabled":  config.Env("WATCH_ENABLED", true),
			"watch_interval": config.Env("WATCH_INTERVAL", 30),
			"confirmations":  config.Env("WATCH_CONFIRMATIONS", 5),
			"batch_blocks":   config.Env("WATCH_BATCH_BLOCKS", 1000),
		}
	})
}
