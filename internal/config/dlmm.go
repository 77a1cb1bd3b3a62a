package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/gagliardetto/solana-go"
)

const (
	DefaultProgramID     = "1qbkdrr3z4ryLA7pZykqxvxWPoeifcVKo6ZG9CfkvVE"
	DefaultHookProgramID = "mdmavMvJpF4ZcLJNg6VSjuKVMiBo5uKwERTg1ZB9yUH"

	// NeverExpires marks pool state as fresh forever once it has been refreshed.
	NeverExpires time.Duration = -1
)

type DLMMConfig struct {
	ProgramID     solana.PublicKey
	HookProgramID solana.PublicKey

	// CacheTTL is the freshness window of a pool client. 0 means always stale.
	CacheTTL             time.Duration
	RefreshAttempts      int
	RefreshTimeout       time.Duration
	RefreshRetryInterval time.Duration

	MaxPoolClients int
	TokenMetaTTL   time.Duration
	TokenMetaSize  int

	// WarmPools are created and refreshed at startup.
	WarmPools []solana.PublicKey
}

func (c *DLMMConfig) Key() string {
	return DLMM_CONFIG_KEY
}

func (c *DLMMConfig) Load() error {
	var err error
	if c.ProgramID, err = solana.PublicKeyFromBase58(common.GetEnvOrDefault("DLMM_PROGRAM_ID", DefaultProgramID)); err != nil {
		return fmt.Errorf("DLMM_PROGRAM_ID: %w", err)
	}
	if c.HookProgramID, err = solana.PublicKeyFromBase58(common.GetEnvOrDefault("DLMM_HOOK_PROGRAM_ID", DefaultHookProgramID)); err != nil {
		return fmt.Errorf("DLMM_HOOK_PROGRAM_ID: %w", err)
	}
	if c.CacheTTL, err = ParseTTL(common.GetEnvOrDefault("DLMM_CACHE_TTL", "5s")); err != nil {
		return fmt.Errorf("DLMM_CACHE_TTL: %w", err)
	}
	if c.RefreshTimeout, err = time.ParseDuration(common.GetEnvOrDefault("DLMM_REFRESH_TIMEOUT", "10s")); err != nil {
		return fmt.Errorf("DLMM_REFRESH_TIMEOUT: %w", err)
	}
	if c.RefreshRetryInterval, err = time.ParseDuration(common.GetEnvOrDefault("DLMM_REFRESH_RETRY_INTERVAL", "100ms")); err != nil {
		return fmt.Errorf("DLMM_REFRESH_RETRY_INTERVAL: %w", err)
	}
	if c.TokenMetaTTL, err = time.ParseDuration(common.GetEnvOrDefault("DLMM_TOKEN_META_TTL", "10m")); err != nil {
		return fmt.Errorf("DLMM_TOKEN_META_TTL: %w", err)
	}
	c.RefreshAttempts = common.GetEnvOrDefaultInt("DLMM_REFRESH_ATTEMPTS", 3)
	c.MaxPoolClients = common.GetEnvOrDefaultInt("DLMM_MAX_POOL_CLIENTS", 1024)
	c.TokenMetaSize = common.GetEnvOrDefaultInt("DLMM_TOKEN_META_CACHE_SIZE", 10000)

	if c.WarmPools, err = parseKeys(common.GetEnvOrDefault("DLMM_WARM_POOLS", "")); err != nil {
		return fmt.Errorf("DLMM_WARM_POOLS: %w", err)
	}
	return c.Validate()
}

func (c *DLMMConfig) Validate() error {
	if c.ProgramID.IsZero() || c.HookProgramID.IsZero() {
		return errors.New("invalid dlmm config: program ids are required")
	}
	if c.RefreshAttempts < 1 {
		return errors.New("invalid dlmm config: DLMM_REFRESH_ATTEMPTS must be at least 1")
	}
	if c.MaxPoolClients < 1 {
		return errors.New("invalid dlmm config: DLMM_MAX_POOL_CLIENTS must be at least 1")
	}
	if c.RefreshTimeout <= 0 {
		return errors.New("invalid dlmm config: DLMM_REFRESH_TIMEOUT must be positive")
	}
	if c.TokenMetaSize < 1 {
		return errors.New("invalid dlmm config: DLMM_TOKEN_META_CACHE_SIZE must be at least 1")
	}
	return nil
}

// ParseTTL accepts a Go duration, or "never" / any negative duration for no expiry.
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "never" || s == "inf" {
		return NeverExpires, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return NeverExpires, nil
	}
	return d, nil
}

func parseKeys(list string) ([]solana.PublicKey, error) {
	var keys []solana.PublicKey
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, err := solana.PublicKeyFromBase58(part)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", part, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}
