// Package provider implements the closed Provider variant set —
// {FacilitatorProvider, DirectProvider} sharing one capability set, built
// on a Wallet and a Chain Adapter. Modeled as two concrete structs behind a
// common interface rather than a single struct branching on an
// isFacilitator flag.
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

// Provider is the capability set both variants implement.
type Provider interface {
	Initialize(ctx context.Context) error
	Execute(ctx context.Context, intent types.PaymentIntent) types.ExecutionResult
	Verify(ctx context.Context, txID string) bool
	Health(ctx context.Context) types.ProviderHealth
	Address() types.Address
	Network() types.Network
	Tag() string
}

// base holds the fields and enforcement logic shared by both variants: the
// ceiling re-check, execution bookkeeping, and the tip-based half of the
// health check. Both providers enforce the Router-visible max_payment_value
// ceiling again at entry, independent of whatever ceiling check the caller
// already ran.
type base struct {
	tag             string
	wallet          wallet.Wallet
	adapter         chainadapter.Adapter
	maxPaymentValue types.Amount
}

func (b *base) Address() types.Address { return b.wallet.Address() }
func (b *base) Tag() string            { return b.tag }
func (b *base) Network() types.Network { return b.adapter.Network() }

func (b *base) checkCeiling(intent types.PaymentIntent) error {
	if intent.Requirement.MaxAmountRequired.GreaterThan(b.maxPaymentValue) {
		return failure.New(failure.PriceCeiling, fmt.Sprintf(
			"requirement %s exceeds provider max_payment_value %s",
			intent.Requirement.MaxAmountRequired.String(), b.maxPaymentValue.String()))
	}
	return nil
}

func (b *base) signAndSubmit(ctx context.Context, intent types.PaymentIntent) (string, error) {
	req := intent.Requirement
	return b.wallet.Transfer(ctx, req.Asset, req.PayTo, req.MaxAmountRequired)
}

func (b *base) tipHealthy(ctx context.Context) error {
	tip, err := b.adapter.Tip(ctx)
	if err != nil {
		return fmt.Errorf("chain adapter tip check failed: %w", err)
	}
	if tip == 0 {
		return fmt.Errorf("chain adapter reported a zero tip")
	}
	return nil
}

// confirmationReached reports whether txID has reached at least Confirmed
// status through adapter. Shared by both Provider variants' Verify method.
func confirmationReached(ctx context.Context, adapter chainadapter.Adapter, txID string) bool {
	status, err := adapter.ConfirmationStatus(ctx, txID)
	if err != nil {
		return false
	}
	return status == chainadapter.StatusConfirmed || status == chainadapter.StatusFinalized
}

func newExecutionResult(intent types.PaymentIntent, tag string, address types.Address, startedAt time.Time, txID string, execErr error) types.ExecutionResult {
	result := types.ExecutionResult{
		ProviderTag:     tag,
		ProviderAddress: address,
		StartedAt:       startedAt,
		FinishedAt:      time.Now(),
		Intent:          intent,
	}
	if execErr == nil {
		result.Outcome = types.OutcomeSuccess
		result.TxID = txID
		return result
	}

	result.Outcome = types.OutcomeFailure
	result.TxID = txID // present iff a transaction was actually submitted before the failure
	result.FailureKind = string(failure.KindOf(execErr))
	result.Message = execErr.Error()
	return result
}
