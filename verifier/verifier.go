// Package verifier implements pure, read-only confirmation that an
// asserted receipt corresponds to a settled on-chain transfer. It holds no
// signer and never initiates a transaction: it only reads a chain adapter,
// covering both token and native transfers.
package verifier

import (
	"context"
	"fmt"
	"math/big"

	"github.com/x402core/paycore/chainadapter"
	"github.com/x402core/paycore/types"
)

// Reason enumerates why verification failed. Kept distinct from
// failure.Kind: a bad Verdict is a domain verdict returned to the caller,
// not itself a retryable condition.
type Reason string

const (
	ReasonNotFound           Reason = "not_found"
	ReasonOnChainFailure     Reason = "on_chain_failure"
	ReasonNoMatchingTransfer Reason = "no_matching_transfer"
	ReasonAmountTooSmall     Reason = "amount_too_small"
	ReasonRecipientNotInTx   Reason = "recipient_not_in_tx"
	ReasonAmountMismatch     Reason = "amount_mismatch"
	ReasonInvalidTxIDShape   Reason = "invalid_tx_id_shape"
)

// Verdict is the outcome of Verify: either ok, or bad with a Reason.
type Verdict struct {
	OK     bool
	Reason Reason
}

func ok() Verdict               { return Verdict{OK: true} }
func bad(reason Reason) Verdict { return Verdict{OK: false, Reason: reason} }

// Verifier confirms a PaymentReceipt against chain state through one
// Adapter, scoped to one network the way the Adapter itself is scoped.
type Verifier struct {
	adapter chainadapter.Adapter
	family  types.Family
}

// New builds a Verifier reading through adapter. family must match the
// family adapter serves; Verify rejects a tx id whose shape doesn't match
// before ever calling the adapter.
func New(adapter chainadapter.Adapter, family types.Family) *Verifier {
	return &Verifier{adapter: adapter, family: family}
}

// Verify checks expected against on-chain state: tx id shape, transaction
// presence and success, and a matching balance delta for the asset.
func (v *Verifier) Verify(ctx context.Context, expected types.PaymentReceipt) (Verdict, error) {
	if !types.ValidTxID(expected.TxID, v.family) {
		return bad(ReasonInvalidTxIDShape), nil
	}

	tx, err := v.adapter.FetchTransaction(ctx, expected.TxID)
	if err != nil {
		return Verdict{}, fmt.Errorf("verifier: fetch transaction: %w", err)
	}
	if tx == nil {
		return bad(ReasonNotFound), nil
	}
	if tx.Err != "" {
		return bad(ReasonOnChainFailure), nil
	}

	if expected.Asset.Kind == types.Token {
		return v.verifyTokenTransfer(tx, expected), nil
	}
	return v.verifyNativeTransfer(tx, expected), nil
}

func (v *Verifier) verifyTokenTransfer(tx *chainadapter.Transaction, expected types.PaymentReceipt) Verdict {
	for _, delta := range tx.TokenDeltas {
		if !delta.Mint.Equal(expected.Asset.MintOrContract) {
			continue
		}
		if !delta.Owner.Equal(expected.To) {
			continue
		}
		if delta.Delta.Sign() <= 0 {
			continue
		}
		if delta.Delta.Cmp(expected.Amount.Big()) < 0 {
			return bad(ReasonAmountTooSmall)
		}
		return ok()
	}
	return bad(ReasonNoMatchingTransfer)
}

func (v *Verifier) verifyNativeTransfer(tx *chainadapter.Transaction, expected types.PaymentReceipt) Verdict {
	index := -1
	for i, acct := range tx.Accounts {
		if acct.Equal(expected.To) {
			index = i
			break
		}
	}
	if index < 0 {
		return bad(ReasonRecipientNotInTx)
	}
	if index >= len(tx.PreBalances) || index >= len(tx.PostBalances) {
		return bad(ReasonRecipientNotInTx)
	}

	delta := tx.PostBalances[index].Sub(tx.PreBalances[index])
	diff := new(big.Int).Sub(delta, expected.Amount.Big())
	diff.Abs(diff)

	tolerance := v.adapter.FeeTolerance().Big()
	if diff.Cmp(tolerance) <= 0 {
		return ok()
	}
	return bad(ReasonAmountMismatch)
}
