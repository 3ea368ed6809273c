package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		PaymentMode:     ModeDirect,
		PrimaryNetwork:  "account-dev",
		MaxPaymentValue: "1000000",
		MaxRetries:      3,
		RPCURL:          "https://api.devnet.solana.com",
		KeyStorePath:    "/tmp/paycore-key",
	}
}

func TestValidate_AcceptsWellFormedDirectConfig(t *testing.T) {
	c := validConfig()
	require.NoError(t, c.Validate())
}

func TestValidate_RejectsUnknownPaymentMode(t *testing.T) {
	c := validConfig()
	c.PaymentMode = "bogus"
	require.Error(t, c.Validate())
}

func TestValidate_FacilitatorModeRequiresFacilitatorURL(t *testing.T) {
	c := validConfig()
	c.PaymentMode = ModeFacilitator
	require.Error(t, c.Validate())

	c.FacilitatorURL = "https://facilitator.example.com"
	require.NoError(t, c.Validate())
}

func TestValidate_DirectModeDoesNotRequireFacilitatorURL(t *testing.T) {
	c := validConfig()
	c.PaymentMode = ModeDirect
	c.FacilitatorURL = ""
	require.NoError(t, c.Validate())
}

func TestHealthTTL_DefaultsTo60Seconds(t *testing.T) {
	c := validConfig()
	require.Equal(t, 60*time.Second, c.HealthTTL())

	c.HealthTTLSeconds = 30
	require.Equal(t, 30*time.Second, c.HealthTTL())
}

func TestBaseRetryDelay_DefaultsTo200Milliseconds(t *testing.T) {
	c := validConfig()
	require.Equal(t, 200*time.Millisecond, c.BaseRetryDelay())

	c.BaseRetryDelayMs = 500
	require.Equal(t, 500*time.Millisecond, c.BaseRetryDelay())
}
