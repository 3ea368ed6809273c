// Command paycore-pay is the client-side counterpart to paycore-demo: it
// builds a Router and Engine from a config.Config, then pays for and
// fetches one URL. Reads its options into a single config.Config and
// validates it up front, rather than scattering raw env lookups through
// main.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/x402core/paycore/chainadapter/account"
	"github.com/x402core/paycore/client"
	"github.com/x402core/paycore/config"
	"github.com/x402core/paycore/provider"
	"github.com/x402core/paycore/router"
	"github.com/x402core/paycore/types"
	"github.com/x402core/paycore/wallet"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: paycore-pay <url>")
	}
	target := os.Args[1]

	primaryNetwork := envOr("PAYCORE_NETWORK", string(types.AccountDev))
	network, ok := types.ParseNetwork(primaryNetwork)
	if !ok {
		log.Fatalf("paycore-pay: unknown network %q", primaryNetwork)
	}

	cfg := config.Config{
		PaymentMode:      config.ModeDirect,
		PrimaryNetwork:   primaryNetwork,
		MaxPaymentValue:  envOr("PAYCORE_MAX_PAYMENT_VALUE", "1000000"),
		BaseRetryDelayMs: 200,
		MaxRetries:       3,
		HealthTTLSeconds: config.DefaultHealthTTLSeconds,
		RPCURL:           envOr("PAYCORE_RPC_URL", network.DefaultRPC()),
		FacilitatorURL:   os.Getenv("PAYCORE_FACILITATOR_URL"),
		KeyStorePath:     envOr("PAYCORE_KEY_STORE_PATH", "./paycore-wallet.key"),
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("paycore-pay: invalid configuration: %v", err)
	}

	adapter := account.NewWithDefaultFeeTolerance(network, cfg.RPCURL)
	w, err := wallet.NewFromAccountAdapter(adapter, cfg.KeyStorePath)
	if err != nil {
		log.Fatalf("paycore-pay: failed to load wallet: %v", err)
	}

	maxPaymentValue, err := types.ParseAmount(cfg.MaxPaymentValue)
	if err != nil {
		log.Fatalf("paycore-pay: invalid max_payment_value: %v", err)
	}

	primary := provider.NewDirectProvider("direct-"+string(network), w, adapter, maxPaymentValue)

	r, err := router.Build(router.Config{
		Primary:        primary,
		AutoFailover:   false,
		MaxRetries:     cfg.MaxRetries,
		BaseRetryDelay: cfg.BaseRetryDelay(),
		HealthTTL:      cfg.HealthTTL(),
	})
	if err != nil {
		log.Fatalf("paycore-pay: failed to build router: %v", err)
	}

	engine := client.New(r)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := engine.PayAndFetch(ctx, http.MethodGet, target, nil, maxPaymentValue, time.Now().Add(30*time.Second))
	if err != nil {
		log.Fatalf("paycore-pay: pay_and_fetch failed: %v", err)
	}

	if resp.Result != nil {
		log.Printf("paycore-pay: paid via %s, tx %s", resp.Result.ProviderTag, resp.Result.TxID)
	}
	log.Printf("paycore-pay: final status %d, %d bytes", resp.Status, len(resp.Body))
	os.Stdout.Write(resp.Body)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
