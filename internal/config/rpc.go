package config

import (
	"errors"
	"net/url"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
)

const defaultRPCURL = "https://api.mainnet-beta.solana.com"

type RPCConfig struct {
	RPCUrl string
	// Timeout bounds every single RPC round trip, simulation included.
	Timeout time.Duration
}

func (r *RPCConfig) Key() string {
	return RPC_CONFIG_KEY
}

func (r *RPCConfig) Load() error {
	r.RPCUrl = common.GetEnvOrDefault("RPC_URL", defaultRPCURL)
	timeout, err := time.ParseDuration(common.GetEnvOrDefault("RPC_TIMEOUT", "10s"))
	if err != nil {
		return err
	}
	r.Timeout = timeout
	return r.Validate()
}

func (r *RPCConfig) Validate() error {
	if r.RPCUrl == "" {
		return errors.New("invalid rpc config: RPC_URL is empty")
	}
	if _, err := url.ParseRequestURI(r.RPCUrl); err != nil {
		return errors.New("invalid rpc config: RPC_URL is not a url")
	}
	if r.Timeout <= 0 {
		return errors.New("invalid rpc config: RPC_TIMEOUT must be positive")
	}
	return nil
}
