package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/x402core/paycore/chainadapter"
	"github.com/x402core/paycore/failure"
	"github.com/x402core/paycore/types"
)

// fakeAdapter is a scripted chainadapter.Adapter for Provider tests.
type fakeAdapter struct {
	network      types.Network
	tip          uint64
	tipErr       error
	feeTolerance types.Amount
	confStatus   chainadapter.ConfirmationStatus
}

func (a *fakeAdapter) Family() types.Family  { return types.FamilyAccount }
func (a *fakeAdapter) Network() types.Network { return a.network }
func (a *fakeAdapter) Balance(ctx context.Context, owner types.Address, asset types.Asset) (types.Amount, error) {
	return types.ZeroAmount, nil
}
func (a *fakeAdapter) FetchTransaction(ctx context.Context, txID string) (*chainadapter.Transaction, error) {
	return nil, nil
}
func (a *fakeAdapter) ConfirmationStatus(ctx context.Context, txID string) (chainadapter.ConfirmationStatus, error) {
	return a.confStatus, nil
}
func (a *fakeAdapter) Tip(ctx context.Context) (uint64, error) { return a.tip, a.tipErr }
func (a *fakeAdapter) FeeTolerance() types.Amount              { return a.feeTolerance }

// fakeWallet is a scripted wallet.Wallet for Provider tests.
type fakeWallet struct {
	address      types.Address
	transferCalls int
	transferTxID string
	transferErr  error
}

func (w *fakeWallet) Address() types.Address { return w.address }
func (w *fakeWallet) Family() types.Family   { return types.FamilyAccount }
func (w *fakeWallet) Balance(ctx context.Context, asset types.Asset) types.Amount {
	return types.ZeroAmount
}
func (w *fakeWallet) Transfer(ctx context.Context, asset types.Asset, to types.Address, amount types.Amount) (string, error) {
	w.transferCalls++
	return w.transferTxID, w.transferErr
}

func testIntentFor(maxAmount, ceiling uint64) types.PaymentIntent {
	req := types.PaymentRequirement{
		Network:           types.AccountDev,
		PayTo:             types.NewAddress("Recv1111111111111111111111111111111111111", types.FamilyAccount),
		MaxAmountRequired: types.AmountFromUint64(maxAmount),
	}
	return types.PaymentIntent{Requirement: req, PriceCeiling: types.AmountFromUint64(ceiling)}
}

func TestDirectProvider_CeilingRejectionNeverTouchesWallet(t *testing.T) {
	w := &fakeWallet{transferTxID: "should-not-be-used"}
	adapter := &fakeAdapter{network: types.AccountDev}
	p := NewDirectProvider("direct", w, adapter, types.AmountFromUint64(500))

	result := p.Execute(context.Background(), testIntentFor(1000, 1000))
	require.Equal(t, types.OutcomeFailure, result.Outcome)
	require.Equal(t, string(failure.PriceCeiling), result.FailureKind)
	require.Equal(t, 0, w.transferCalls)
}

func TestDirectProvider_ExecuteSucceeds(t *testing.T) {
	addr := types.NewAddress("Payer1111111111111111111111111111111111111", types.FamilyAccount)
	w := &fakeWallet{address: addr, transferTxID: "tx-abc"}
	adapter := &fakeAdapter{network: types.AccountDev}
	p := NewDirectProvider("direct", w, adapter, types.AmountFromUint64(5000))

	result := p.Execute(context.Background(), testIntentFor(1000, 1000))
	require.Equal(t, types.OutcomeSuccess, result.Outcome)
	require.Equal(t, "tx-abc", result.TxID)
	require.Equal(t, 1, w.transferCalls)
	require.Equal(t, addr, result.ProviderAddress)
}

func TestDirectProvider_WalletTransferFailurePropagates(t *testing.T) {
	w := &fakeWallet{transferErr: failure.New(failure.InsufficientFunds, "not enough funds")}
	adapter := &fakeAdapter{network: types.AccountDev}
	p := NewDirectProvider("direct", w, adapter, types.AmountFromUint64(5000))

	result := p.Execute(context.Background(), testIntentFor(1000, 1000))
	require.Equal(t, types.OutcomeFailure, result.Outcome)
	require.Equal(t, string(failure.InsufficientFunds), result.FailureKind)
}

func TestDirectProvider_HealthReflectsZeroTip(t *testing.T) {
	w := &fakeWallet{}
	adapter := &fakeAdapter{network: types.AccountDev, tip: 0}
	p := NewDirectProvider("direct", w, adapter, types.AmountFromUint64(5000))

	health := p.Health(context.Background())
	require.False(t, health.Healthy)
}

func TestDirectProvider_HealthReflectsNonZeroTip(t *testing.T) {
	w := &fakeWallet{}
	adapter := &fakeAdapter{network: types.AccountDev, tip: 12345}
	p := NewDirectProvider("direct", w, adapter, types.AmountFromUint64(5000))

	health := p.Health(context.Background())
	require.True(t, health.Healthy)
}

func TestDirectProvider_VerifyUsesConfirmationStatus(t *testing.T) {
	w := &fakeWallet{}
	adapter := &fakeAdapter{network: types.AccountDev, confStatus: chainadapter.StatusConfirmed}
	p := NewDirectProvider("direct", w, adapter, types.AmountFromUint64(5000))

	require.True(t, p.Verify(context.Background(), "some-tx-id"))

	adapter.confStatus = chainadapter.StatusPending
	require.False(t, p.Verify(context.Background(), "some-tx-id"))
}

func TestDirectProvider_Network(t *testing.T) {
	w := &fakeWallet{}
	adapter := &fakeAdapter{network: types.EvmTest}
	p := NewDirectProvider("direct", w, adapter, types.AmountFromUint64(5000))
	require.Equal(t, types.EvmTest, p.Network())
}

func TestDirectProvider_ExecutionTimingIsRecorded(t *testing.T) {
	w := &fakeWallet{transferTxID: "tx-timed"}
	adapter := &fakeAdapter{network: types.AccountDev}
	p := NewDirectProvider("direct", w, adapter, types.AmountFromUint64(5000))

	before := time.Now()
	result := p.Execute(context.Background(), testIntentFor(1000, 1000))
	require.False(t, result.StartedAt.Before(before))
	require.False(t, result.FinishedAt.Before(result.StartedAt))
}
