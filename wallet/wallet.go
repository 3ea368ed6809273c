// Package wallet implements key material lifecycle, balance reads, and
// transfer submission, scoped to one network family per instance: a
// self-contained transfer executor that owns both the key and the chain
// adapter it signs against, rather than a client-side payload signer that
// hands a signature back to some other submitter.
package wallet

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/x402core/paycore/chainadapter"
	"github.com/x402core/paycore/failure"
	"github.com/x402core/paycore/types"
)

// Wallet is the capability set the Provider layer drives: read a balance,
// move funds, report the address paying out.
type Wallet interface {
	Address() types.Address
	Family() types.Family
	Balance(ctx context.Context, asset types.Asset) types.Amount
	Transfer(ctx context.Context, asset types.Asset, to types.Address, amount types.Amount) (txID string, err error)
}

// wallet is the shared implementation backing both family's signer, so the
// transfer/insufficient-funds/serialization logic is written once. Each
// family supplies only its own signing primitive.
type wallet struct {
	mu      sync.Mutex
	adapter chainadapter.Adapter
	address types.Address
	family  types.Family

	// submitNative/submitToken close over the family-specific Signer so
	// this struct stays signer-type-agnostic; each constructor below
	// binds them to the concrete adapter + signer pair.
	submitNative func(ctx context.Context, to types.Address, amount types.Amount) (string, error)
	submitToken  func(ctx context.Context, asset types.Asset, to types.Address, amount types.Amount) (string, error)
}

func (w *wallet) Address() types.Address { return w.address }
func (w *wallet) Family() types.Family   { return w.family }

// Balance reads the signer's balance of asset. Any RPC failure is mapped
// to zero with a warn log rather than propagated — a Wallet never throws a
// payment attempt off course because of a transient read failure. Transfer
// does its own pre-flight read and reports a failed read as Transient.
func (w *wallet) Balance(ctx context.Context, asset types.Asset) types.Amount {
	amount, err := w.adapter.Balance(ctx, w.address, asset)
	if err != nil {
		log.Printf("paycore: warning: balance read failed for %s: %v", w.address.String(), err)
		return types.ZeroAmount
	}
	return amount
}

// Transfer moves amount of asset to to, serialized per-wallet so two
// concurrent payment attempts never race the same key on nonce/blockhash
// selection.
func (w *wallet) Transfer(ctx context.Context, asset types.Asset, to types.Address, amount types.Amount) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	balance, err := w.balanceLocked(ctx, asset)
	if err != nil {
		return "", err
	}
	if balance.LessThan(amount) {
		return "", failure.New(failure.InsufficientFunds, fmt.Sprintf(
			"wallet balance %s is less than requested %s", balance.String(), amount.String()))
	}

	var txID string
	if asset.IsNative() {
		txID, err = w.submitNative(ctx, to, amount)
	} else {
		txID, err = w.submitToken(ctx, asset, to, amount)
	}
	if err != nil {
		return txID, failure.Wrap(failure.Transient, "transfer submission failed", err)
	}
	return txID, nil
}

func (w *wallet) balanceLocked(ctx context.Context, asset types.Asset) (types.Amount, error) {
	amount, err := w.adapter.Balance(ctx, w.address, asset)
	if err != nil {
		return types.ZeroAmount, failure.Wrap(failure.Transient, "pre-flight balance read failed", err)
	}
	return amount, nil
}
