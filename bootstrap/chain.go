package bootstrap

import (
	"context"
	"time"

	"spinwheel/pkg/chain"
	"spinwheel/pkg/config"
	"spinwheel/pkg/logger"
)

// SetupChain dials the RPC node and loads the distribution wallet.
func SetupChain(ctx context.Context) *chain.Client {
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := chain.Dial(dialCtx, chain.Config{
		RPCURL:             config.GetString("chain.rpc_url"),
		ChainID:            config.GetInt64("chain.chain_id"),
		TokenAddress:       config.GetString("chain.token_address"),
		DistributionWallet: config.GetString("chain.distribution_wallet"),
		PrivateKey:         config.GetString("chain.private_key"),
		Decimals:           config.GetInt("chain.token_decimals"),
		GasLimit:           uint64(config.GetInt64("chain.gas_limit")),
		GasPricePercent:    config.GetInt64("chain.gas_price_percent"),
		GasStationURL:      config.GetString("chain.gas_station_url"),
	})
	if err != nil {
		logger.ErrorString("Chain", "Setup", err.Error())
		panic(err)
	}

	if config.GetString("chain.private_key") == "" {
		logger.WarnString("Chain", "Setup", "no private key, token prizes stay pending")
	}
	logger.InfoString("Chain", "Setup", "distribution wallet "+client.Wallet()+", token "+client.Token())
	return client
}
