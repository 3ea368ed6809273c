// Package chainadapter defines the network-scoped capability set the
// Verifier reads balances and settlement state through. Two concrete
// families implement it: chainadapter/account (native + SPL-style tokens)
// and chainadapter/evmchain (ERC-20-style tokens, intentionally thinner).
package chainadapter

import (
	"context"
	"math/big"

	"github.com/x402core/paycore/types"
)

// ConfirmationStatus is the coarse settlement state Provider.Verify checks.
type ConfirmationStatus int

const (
	StatusUnknown ConfirmationStatus = iota
	StatusPending
	StatusConfirmed
	StatusFinalized
	StatusFailed
)

// TokenBalanceDelta is one entry from a parsed transaction's token-balance
// scan: the change in a token account's balance caused by the transaction,
// keyed by mint and owner.
type TokenBalanceDelta struct {
	Mint  types.Address
	Owner types.Address
	Delta *big.Int // post - pre; may be negative
}

// Transaction is the chain-agnostic parsed-transaction shape the Verifier
// (C3) scans. Each adapter family fills it from its own wire format.
type Transaction struct {
	TxID string
	// Err is the transaction's top-level error field; non-empty means the
	// transaction failed on-chain.
	Err string
	// Accounts lists every account referenced by the transaction, in the
	// order the chain indexes them, for the native-transfer index lookup.
	Accounts []types.Address
	// PreBalances/PostBalances are native-coin balances aligned with
	// Accounts, for the native-transfer delta computation.
	PreBalances  []types.Amount
	PostBalances []types.Amount
	// TokenDeltas holds post-pre deltas for every token balance the
	// transaction touched.
	TokenDeltas []TokenBalanceDelta
}

// Adapter is the read-side and settlement-query capability set shared by
// both chain families, consumed directly by the Verifier and, for balance
// reads, by Wallet. Implementations must treat every method as a
// suspension point: always respect ctx cancellation.
//
// Submitting a transfer is deliberately NOT part of this interface: each
// family's concrete adapter (account.Adapter, evmchain.Adapter) exposes
// SubmitNativeTransfer/SubmitTokenTransfer typed over its own family's
// Signer (account.Signer, evmchain.Signer), since a Solana partial-sign
// callback and an Ethereum RLP-signing callback have no common shape. Go
// interface satisfaction is exact-signature, not covariant, so neither
// concrete type could implement a Submit* method declared over this
// narrower common Signer. A Wallet is constructed against one concrete
// family adapter and calls those methods directly; Adapter only needs to
// carry what the Verifier and the generic balance path use
// polymorphically.
type Adapter interface {
	Family() types.Family

	// Network identifies exactly which network this adapter instance
	// serves, so Router/Provider callers can match a parsed 402
	// PaymentRequirement's network tag to the right adapter.
	Network() types.Network

	// Balance reads the signer's balance of the given asset. Adapters never
	// return an error from a successful RPC call that simply finds a zero
	// balance; RPC failures are returned to the caller, which is responsible
	// for mapping them to 0 and a warn log.
	Balance(ctx context.Context, owner types.Address, asset types.Asset) (types.Amount, error)

	// FetchTransaction returns the parsed transaction for txID, or
	// (nil, nil) if the chain has no record of it yet.
	FetchTransaction(ctx context.Context, txID string) (*Transaction, error)

	// ConfirmationStatus reports the current settlement state of txID.
	ConfirmationStatus(ctx context.Context, txID string) (ConfirmationStatus, error)

	// Tip returns a monotonically increasing chain-height proxy (slot,
	// block number, ...) used by Provider.Health to confirm RPC liveness; a
	// zero tip is treated as unhealthy.
	Tip(ctx context.Context) (uint64, error)

	// FeeTolerance returns the per-network constant slack the Verifier
	// allows when comparing a native-coin delta to the expected amount.
	FeeTolerance() types.Amount
}

// Signer is the narrow capability a Wallet exposes to an Adapter: enough to
// authorize a transfer, nothing more. Each adapter family refines this
// with its own chain-specific signing interface (see account.Signer,
// evmchain.Signer) that a Wallet implementation satisfies.
type Signer interface {
	Address() types.Address
}
