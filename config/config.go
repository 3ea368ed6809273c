// Package config holds the explicit configuration record whose fields a
// caller feeds into router.Build and the wallet constructors
// (wallet.NewFromAccountAdapter, wallet.NewFromEvmAdapter). There is no implicit process-wide
// initialization: every component is constructed from an explicit Config
// value a caller builds and validates itself.
package config

import (
	"fmt"
	"time"
)

// PaymentMode selects the router topology.
type PaymentMode string

const (
	ModeFacilitator PaymentMode = "facilitator"
	ModeDirect      PaymentMode = "direct"
	ModeHybrid      PaymentMode = "hybrid"
)

// Config is the stable-named option table a caller fills in and validates
// before building a Router and Wallet from it.
type Config struct {
	PaymentMode      PaymentMode
	PrimaryNetwork   string
	MaxPaymentValue  string // decimal base units; parsed by callers via types.ParseAmount
	BaseRetryDelayMs int
	MaxRetries       uint32
	HealthTTLSeconds int
	RPCURL           string
	FacilitatorURL   string
	KeyStorePath     string
}

// DefaultHealthTTLSeconds is the default health cache TTL.
const DefaultHealthTTLSeconds = 60

// Validate checks required fields and mode-dependent constraints.
func (c *Config) Validate() error {
	switch c.PaymentMode {
	case ModeFacilitator, ModeDirect, ModeHybrid:
	default:
		return fmt.Errorf("config: payment_mode must be one of facilitator|direct|hybrid, got %q", c.PaymentMode)
	}
	if c.PrimaryNetwork == "" {
		return fmt.Errorf("config: primary_network is required")
	}
	if c.MaxPaymentValue == "" {
		return fmt.Errorf("config: max_payment_value is required")
	}
	if c.MaxRetries == 0 {
		return fmt.Errorf("config: max_retries must be >= 1")
	}
	if c.RPCURL == "" {
		return fmt.Errorf("config: rpc_url is required")
	}
	if c.PaymentMode != ModeDirect && c.FacilitatorURL == "" {
		return fmt.Errorf("config: facilitator_url is required in %s mode", c.PaymentMode)
	}
	if c.KeyStorePath == "" {
		return fmt.Errorf("config: key_store_path is required")
	}
	return nil
}

// HealthTTL returns the configured health cache TTL, defaulting to 60s.
func (c *Config) HealthTTL() time.Duration {
	if c.HealthTTLSeconds <= 0 {
		return DefaultHealthTTLSeconds * time.Second
	}
	return time.Duration(c.HealthTTLSeconds) * time.Second
}

// BaseRetryDelay returns the configured starting backoff, defaulting to
// 200ms if unset.
func (c *Config) BaseRetryDelay() time.Duration {
	if c.BaseRetryDelayMs <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(c.BaseRetryDelayMs) * time.Millisecond
}
