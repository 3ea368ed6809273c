package provider

import (
	"context"
	"time"

	"github.com/x402core/paycore/chainadapter"
	"github.com/x402core/paycore/types"
	"github.com/x402core/paycore/wallet"
)

// DirectProvider skips the facilitator and drives the Chain Adapter
// directly through the Wallet: same signing flow and tip health-check as
// FacilitatorProvider, no HTTP dependency.
type DirectProvider struct {
	base
}

// NewDirectProvider builds a DirectProvider.
func NewDirectProvider(tag string, w wallet.Wallet, adapter chainadapter.Adapter, maxPaymentValue types.Amount) *DirectProvider {
	return &DirectProvider{
		base: base{
			tag:             tag,
			wallet:          w,
			adapter:         adapter,
			maxPaymentValue: maxPaymentValue,
		},
	}
}

func (p *DirectProvider) Initialize(ctx context.Context) error {
	return nil
}

func (p *DirectProvider) Execute(ctx context.Context, intent types.PaymentIntent) types.ExecutionResult {
	startedAt := time.Now()

	if err := p.checkCeiling(intent); err != nil {
		return newExecutionResult(intent, p.tag, p.Address(), startedAt, "", err)
	}

	txID, err := p.signAndSubmit(ctx, intent)
	if err != nil {
		return newExecutionResult(intent, p.tag, p.Address(), startedAt, txID, err)
	}

	return newExecutionResult(intent, p.tag, p.Address(), startedAt, txID, nil)
}

func (p *DirectProvider) Verify(ctx context.Context, txID string) bool {
	return confirmationReached(ctx, p.adapter, txID)
}

func (p *DirectProvider) Health(ctx context.Context) types.ProviderHealth {
	now := time.Now()
	if err := p.tipHealthy(ctx); err != nil {
		return types.ProviderHealth{Healthy: false, Message: err.Error(), ObservedAt: now}
	}
	return types.ProviderHealth{Healthy: true, ObservedAt: now}
}

var _ Provider = (*DirectProvider)(nil)
