package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/dlmm-gateway/internal/adapters/blockchain"
	"github.com/hxuan190/dlmm-gateway/internal/common"
	"github.com/hxuan190/dlmm-gateway/internal/config"
	"github.com/hxuan190/dlmm-gateway/internal/gateway"
	"github.com/hxuan190/dlmm-gateway/internal/http"
	"github.com/hxuan190/dlmm-gateway/internal/services/builder"
	"github.com/hxuan190/dlmm-gateway/internal/services/market"
)

// @title Saros DLMM Gateway API
// @version 1.0
// @description HTTP gateway over Saros liquidity-book (DLMM) pairs on Solana.
// @description
// @description ## - Features
// @description - **Pair Lookup**: Token metadata, bin step, active bin and hook of any DLMM pair
// @description - **Quotes**: Priced locally from cached bin arrays, refreshed on a TTL
// @description - **Instructions**: Complete swap instruction with accounts and payload
// @description - **Simulation**: Dry run on the RPC node with fee, compute units and logs
// @description
// @description ## - Response Envelope
// @description Every /api reply is `{"status": "ok|error|failure", "message": "...", "data": {...}}`.
// @description `error` is a problem with the request, `failure` a problem talking to the chain.
// @description
// @description ## - Usage Tips
// @description - Use smallest token units (lamports for SOL, base units for SPL tokens)
// @description - SOL has 9 decimals: 1 SOL = 1,000,000,000 lamports
// @description - USDC has 6 decimals: 1 USDC = 1,000,000 base units
// @description - Simulated transactions carry a placeholder signature and cannot be broadcast
// @description
// @BasePath /
// @schemes https http
// @tag.name network
// @tag.description Gateway and RPC node health
// @tag.name pair
// @tag.description DLMM pair metadata
// @tag.name quote
// @tag.description Swap quotes from cached pool state
// @tag.name swap
// @tag.description Swap instructions and simulation

func main() {
	// load env
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file, using process environment")
	}

	general := &config.GeneralConfig{}
	if err := general.Load(); err != nil {
		log.Error().Err(err).Msg("failed to load general config")
		return
	}
	common.InitLogger(general.LogLevel, general.LogFile, general.IsDev())

	// di container config
	conf := container.NewConf(
		general,
		&config.RPCConfig{},
		&config.DLMMConfig{},
	)

	// di container
	dic, err := container.New(
		// config
		conf,

		// services
		&blockchain.RPCLedger{},
		&market.Service{},
		&builder.BuilderService{},
		&gateway.Service{},

		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// Run blocks until SIGINT/SIGTERM
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
