package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/x402core/paycore/chainadapter"
	"github.com/x402core/paycore/failure"
	"github.com/x402core/paycore/types"
	"github.com/x402core/paycore/wallet"
)

// FacilitatorProvider delegates admissibility pre-checks to an external
// HTTP facilitator before driving the on-chain transfer itself. The verify
// step is mandatory, never advisory: a non-2xx or invalid verdict always
// short-circuits before any transfer is attempted.
type FacilitatorProvider struct {
	base
	client *facilitatorClient
}

// NewFacilitatorProvider builds a FacilitatorProvider. tag identifies it in
// ExecutionResult.ProviderTag and RouterStats.
func NewFacilitatorProvider(tag, facilitatorURL string, w wallet.Wallet, adapter chainadapter.Adapter, maxPaymentValue types.Amount) *FacilitatorProvider {
	return &FacilitatorProvider{
		base: base{
			tag:             tag,
			wallet:          w,
			adapter:         adapter,
			maxPaymentValue: maxPaymentValue,
		},
		client: newFacilitatorClient(facilitatorURL),
	}
}

func (p *FacilitatorProvider) Initialize(ctx context.Context) error {
	return nil
}

func (p *FacilitatorProvider) Execute(ctx context.Context, intent types.PaymentIntent) types.ExecutionResult {
	startedAt := time.Now()

	if err := p.checkCeiling(intent); err != nil {
		return newExecutionResult(intent, p.tag, p.Address(), startedAt, "", err)
	}

	req := intent.Requirement
	verifyResp, err := p.client.verify(ctx, facilitatorVerifyRequest{
		Network:           req.Network,
		PayTo:             req.PayTo.String(),
		MaxAmountRequired: req.MaxAmountRequired.String(),
		Asset:             req.Asset.MintOrContract.String(),
		From:              p.Address().String(),
	})
	if err != nil {
		return newExecutionResult(intent, p.tag, p.Address(), startedAt, "",
			failure.Wrap(failure.Transient, "facilitator verify request failed", err))
	}
	if !verifyResp.Valid {
		return newExecutionResult(intent, p.tag, p.Address(), startedAt, "",
			failure.New(failure.Protocol, fmt.Sprintf("facilitator rejected payment: %s", verifyResp.Error)))
	}

	txID, err := p.signAndSubmit(ctx, intent)
	if err != nil {
		return newExecutionResult(intent, p.tag, p.Address(), startedAt, txID, err)
	}

	return newExecutionResult(intent, p.tag, p.Address(), startedAt, txID, nil)
}

// Verify reports whether txID has reached on-chain confirmation. This is a
// lightweight liveness check Provider callers use before trusting a tx id
// they didn't themselves just submit; the authoritative, parameter-matching
// verification a resource server relies on before releasing a resource is
// the separate Verifier, consumed directly by that server — Verifier stays
// out of the payment path entirely.
func (p *FacilitatorProvider) Verify(ctx context.Context, txID string) bool {
	return confirmationReached(ctx, p.adapter, txID)
}

// Health reports the facilitator as healthy only when both its /list
// endpoint answers within HealthProbeTimeout AND the chain adapter
// reports a non-zero tip.
func (p *FacilitatorProvider) Health(ctx context.Context) types.ProviderHealth {
	now := time.Now()
	if err := p.client.listHealthy(ctx); err != nil {
		return types.ProviderHealth{Healthy: false, Message: fmt.Sprintf("facilitator unreachable: %v", err), ObservedAt: now}
	}
	if err := p.tipHealthy(ctx); err != nil {
		return types.ProviderHealth{Healthy: false, Message: err.Error(), ObservedAt: now}
	}
	return types.ProviderHealth{Healthy: true, ObservedAt: now}
}

var _ Provider = (*FacilitatorProvider)(nil)
