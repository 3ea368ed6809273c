// Package account implements the UTXO-free account-model ChainAdapter
// (native coin + SPL-style fungible tokens): Solana-style RPC transaction
// building, submission, and confirmation polling.
package account

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/x402core/paycore/chainadapter"
	"github.com/x402core/paycore/types"
)

// DefaultFeeToleranceLamports is the default fee tolerance for the
// reference account-model network: 5,000 base units (lamports).
const DefaultFeeToleranceLamports = 5_000

// DefaultCommitment is the confirmation level the adapter reads and waits
// for; "confirmed" is acceptable to treat a transaction as settled.
const DefaultCommitment = rpc.CommitmentConfirmed

// confirmPollInterval/maxConfirmAttempts bound SubmitNativeTransfer's and
// SubmitTokenTransfer's wait for settlement.
const (
	confirmPollInterval = 500 * time.Millisecond
	maxConfirmAttempts  = 60
)

// Signer is the capability an account-model Wallet exposes to this adapter:
// enough to sign a partially-built transaction, nothing more. A Wallet
// implementation owns the private key; this adapter never sees it.
type Signer interface {
	chainadapter.Signer
	PublicKey() solana.PublicKey
	SignTransaction(ctx context.Context, tx *solana.Transaction) error
}

// Adapter implements chainadapter.Adapter for one account-model network.
type Adapter struct {
	network      types.Network
	rpcClient    *rpc.Client
	feeTolerance types.Amount
}

// New creates an Adapter bound to network, talking to rpcURL. feeTolerance
// overrides the per-network fee slack; pass ZeroAmount for a network that
// should reject any non-exact native delta.
func New(network types.Network, rpcURL string, feeTolerance types.Amount) *Adapter {
	return &Adapter{
		network:      network,
		rpcClient:    rpc.New(rpcURL),
		feeTolerance: feeTolerance,
	}
}

// NewWithDefaultFeeTolerance builds an Adapter using the default 5,000
// base-unit fee tolerance.
func NewWithDefaultFeeTolerance(network types.Network, rpcURL string) *Adapter {
	return New(network, rpcURL, types.AmountFromUint64(DefaultFeeToleranceLamports))
}

func (a *Adapter) Family() types.Family { return types.FamilyAccount }

func (a *Adapter) Network() types.Network { return a.network }

func (a *Adapter) FeeTolerance() types.Amount { return a.feeTolerance }

func (a *Adapter) Tip(ctx context.Context) (uint64, error) {
	slot, err := a.rpcClient.GetSlot(ctx, DefaultCommitment)
	if err != nil {
		return 0, fmt.Errorf("account adapter: get slot: %w", err)
	}
	return slot, nil
}

func (a *Adapter) Balance(ctx context.Context, owner types.Address, asset types.Asset) (types.Amount, error) {
	ownerKey, err := solana.PublicKeyFromBase58(owner.String())
	if err != nil {
		return types.ZeroAmount, fmt.Errorf("account adapter: invalid owner address: %w", err)
	}

	if asset.IsNative() {
		result, err := a.rpcClient.GetBalance(ctx, ownerKey, DefaultCommitment)
		if err != nil {
			return types.ZeroAmount, fmt.Errorf("account adapter: get balance: %w", err)
		}
		return types.AmountFromUint64(result.Value), nil
	}

	mintKey, err := solana.PublicKeyFromBase58(asset.MintOrContract.String())
	if err != nil {
		return types.ZeroAmount, fmt.Errorf("account adapter: invalid mint address: %w", err)
	}

	ata, _, err := solana.FindAssociatedTokenAddress(ownerKey, mintKey)
	if err != nil {
		return types.ZeroAmount, fmt.Errorf("account adapter: derive associated token account: %w", err)
	}

	result, err := a.rpcClient.GetTokenAccountBalance(ctx, ata, DefaultCommitment)
	if err != nil {
		// A missing token account reads as zero balance, not an RPC error
		// the caller needs to distinguish; Wallet.Balance already maps any
		// error to 0 with a warn log, so surface it as-is.
		return types.ZeroAmount, fmt.Errorf("account adapter: get token account balance: %w", err)
	}

	amount, err := types.ParseAmount(result.Value.Amount)
	if err != nil {
		return types.ZeroAmount, fmt.Errorf("account adapter: parse token balance: %w", err)
	}
	return amount, nil
}

// FetchTransaction reads txID's settled state and balance deltas off the
// RPC node, and parses it into the chain-agnostic shape the Verifier scans.
// Returns (nil, nil) if the node has no record of txID yet.
func (a *Adapter) FetchTransaction(ctx context.Context, txID string) (*chainadapter.Transaction, error) {
	sig, err := solana.SignatureFromBase58(txID)
	if err != nil {
		return nil, fmt.Errorf("account adapter: invalid tx id: %w", err)
	}

	result, err := a.rpcClient.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:   solana.EncodingBase58,
		Commitment: DefaultCommitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("account adapter: get transaction: %w", err)
	}
	if result == nil || result.Meta == nil {
		return nil, nil
	}

	parsedTx, err := result.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("account adapter: decode transaction envelope: %w", err)
	}

	accounts := make([]types.Address, len(parsedTx.Message.AccountKeys))
	for i, key := range parsedTx.Message.AccountKeys {
		accounts[i] = types.NewAddress(key.String(), types.FamilyAccount)
	}

	preBalances := make([]types.Amount, len(result.Meta.PreBalances))
	for i, v := range result.Meta.PreBalances {
		preBalances[i] = types.AmountFromUint64(v)
	}
	postBalances := make([]types.Amount, len(result.Meta.PostBalances))
	for i, v := range result.Meta.PostBalances {
		postBalances[i] = types.AmountFromUint64(v)
	}

	errMsg := ""
	if result.Meta.Err != nil {
		errMsg = fmt.Sprintf("%v", result.Meta.Err)
	}

	return &chainadapter.Transaction{
		TxID:         txID,
		Err:          errMsg,
		Accounts:     accounts,
		PreBalances:  preBalances,
		PostBalances: postBalances,
		TokenDeltas:  tokenBalanceDeltas(result.Meta.PreTokenBalances, result.Meta.PostTokenBalances),
	}, nil
}

// tokenBalanceDeltas merges a transaction's pre/post SPL-token balance
// snapshots, keyed by account index, into one post-minus-pre delta per
// token account touched.
func tokenBalanceDeltas(pre, post []rpc.TokenBalance) []chainadapter.TokenBalanceDelta {
	type balance struct {
		mint  solana.PublicKey
		owner solana.PublicKey
		pre   *big.Int
		post  *big.Int
	}
	byIndex := make(map[uint16]*balance)

	parseAmount := func(ui *rpc.UiTokenAmount) *big.Int {
		if ui == nil || ui.Amount == "" {
			return big.NewInt(0)
		}
		v, ok := new(big.Int).SetString(ui.Amount, 10)
		if !ok {
			return big.NewInt(0)
		}
		return v
	}

	for _, tb := range pre {
		byIndex[tb.AccountIndex] = &balance{
			mint:  tb.Mint,
			owner: tb.Owner,
			pre:   parseAmount(tb.UiTokenAmount),
			post:  big.NewInt(0),
		}
	}
	for _, tb := range post {
		b, ok := byIndex[tb.AccountIndex]
		if !ok {
			b = &balance{mint: tb.Mint, owner: tb.Owner, pre: big.NewInt(0)}
			byIndex[tb.AccountIndex] = b
		}
		b.post = parseAmount(tb.UiTokenAmount)
	}

	deltas := make([]chainadapter.TokenBalanceDelta, 0, len(byIndex))
	for _, b := range byIndex {
		deltas = append(deltas, chainadapter.TokenBalanceDelta{
			Mint:  types.NewAddress(b.mint.String(), types.FamilyAccount),
			Owner: types.NewAddress(b.owner.String(), types.FamilyAccount),
			Delta: new(big.Int).Sub(b.post, b.pre),
		})
	}
	return deltas
}

func (a *Adapter) SubmitNativeTransfer(ctx context.Context, signer Signer, to types.Address, amount types.Amount) (string, error) {
	toKey, err := solana.PublicKeyFromBase58(to.String())
	if err != nil {
		return "", fmt.Errorf("account adapter: invalid recipient address: %w", err)
	}

	transferIx := system.NewTransferInstruction(
		amount.Big().Uint64(),
		signer.PublicKey(),
		toKey,
	).Build()

	return a.buildSignSubmit(ctx, signer, []solana.Instruction{transferIx})
}

func (a *Adapter) SubmitTokenTransfer(ctx context.Context, signer Signer, asset types.Asset, to types.Address, amount types.Amount) (string, error) {
	if asset.IsNative() {
		return "", fmt.Errorf("account adapter: SubmitTokenTransfer called with a native asset")
	}

	mintKey, err := solana.PublicKeyFromBase58(asset.MintOrContract.String())
	if err != nil {
		return "", fmt.Errorf("account adapter: invalid mint address: %w", err)
	}
	toKey, err := solana.PublicKeyFromBase58(to.String())
	if err != nil {
		return "", fmt.Errorf("account adapter: invalid recipient address: %w", err)
	}

	decimals, err := a.mintDecimals(ctx, mintKey)
	if err != nil {
		return "", err
	}

	sourceATA, _, err := solana.FindAssociatedTokenAddress(signer.PublicKey(), mintKey)
	if err != nil {
		return "", fmt.Errorf("account adapter: derive source associated token account: %w", err)
	}
	destATA, _, err := solana.FindAssociatedTokenAddress(toKey, mintKey)
	if err != nil {
		return "", fmt.Errorf("account adapter: derive destination associated token account: %w", err)
	}

	instructions := []solana.Instruction{}
	if _, err := a.rpcClient.GetAccountInfo(ctx, destATA); err != nil {
		// Destination associated token account doesn't exist yet; create
		// it in the same transaction as the transfer.
		instructions = append(instructions, associatedtokenaccount.NewCreateInstruction(
			signer.PublicKey(), toKey, mintKey,
		).Build())
	}

	transferIx, err := token.NewTransferCheckedInstructionBuilder().
		SetAmount(amount.Big().Uint64()).
		SetDecimals(decimals).
		SetSourceAccount(sourceATA).
		SetMintAccount(mintKey).
		SetDestinationAccount(destATA).
		SetOwnerAccount(signer.PublicKey()).
		ValidateAndBuild()
	if err != nil {
		return "", fmt.Errorf("account adapter: build transfer instruction: %w", err)
	}
	instructions = append(instructions, transferIx)

	return a.buildSignSubmit(ctx, signer, instructions)
}

func (a *Adapter) mintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	mintAccount, err := a.rpcClient.GetAccountInfo(ctx, mint)
	if err != nil {
		return 0, fmt.Errorf("account adapter: get mint account: %w", err)
	}

	var mintData token.Mint
	if err := bin.NewBinDecoder(mintAccount.Value.Data.GetBinary()).Decode(&mintData); err != nil {
		return 0, fmt.Errorf("account adapter: decode mint account: %w", err)
	}
	return mintData.Decimals, nil
}

func (a *Adapter) buildSignSubmit(ctx context.Context, signer Signer, instructions []solana.Instruction) (string, error) {
	latest, err := a.rpcClient.GetLatestBlockhash(ctx, DefaultCommitment)
	if err != nil {
		return "", fmt.Errorf("account adapter: get latest blockhash: %w", err)
	}

	txBuilder := solana.NewTransactionBuilder()
	for _, ix := range instructions {
		txBuilder.AddInstruction(ix)
	}
	tx, err := txBuilder.
		SetRecentBlockHash(latest.Value.Blockhash).
		SetFeePayer(signer.PublicKey()).
		Build()
	if err != nil {
		return "", fmt.Errorf("account adapter: build transaction: %w", err)
	}

	if err := signer.SignTransaction(ctx, tx); err != nil {
		return "", fmt.Errorf("account adapter: sign transaction: %w", err)
	}

	sig, err := a.rpcClient.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("account adapter: send transaction: %w", err)
	}

	if err := a.awaitConfirmation(ctx, sig); err != nil {
		// The transaction is submitted; the caller's ExecutionResult must
		// still record the tx id even though confirmation failed to
		// observe success.
		return sig.String(), err
	}

	return sig.String(), nil
}

func (a *Adapter) awaitConfirmation(ctx context.Context, sig solana.Signature) error {
	for attempt := 0; attempt < maxConfirmAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		statuses, err := a.rpcClient.GetSignatureStatuses(ctx, true, sig)
		if err == nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return fmt.Errorf("account adapter: transaction failed on-chain: %v", status.Err)
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(confirmPollInterval):
		}
	}
	return fmt.Errorf("account adapter: confirmation timed out after %d attempts", maxConfirmAttempts)
}

func (a *Adapter) ConfirmationStatus(ctx context.Context, txID string) (chainadapter.ConfirmationStatus, error) {
	sig, err := solana.SignatureFromBase58(txID)
	if err != nil {
		return chainadapter.StatusUnknown, fmt.Errorf("account adapter: invalid tx id: %w", err)
	}

	statuses, err := a.rpcClient.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return chainadapter.StatusUnknown, fmt.Errorf("account adapter: get signature statuses: %w", err)
	}
	if len(statuses.Value) == 0 || statuses.Value[0] == nil {
		return chainadapter.StatusPending, nil
	}

	status := statuses.Value[0]
	if status.Err != nil {
		return chainadapter.StatusFailed, nil
	}
	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusFinalized:
		return chainadapter.StatusFinalized, nil
	case rpc.ConfirmationStatusConfirmed:
		return chainadapter.StatusConfirmed, nil
	default:
		return chainadapter.StatusPending, nil
	}
}

var _ chainadapter.Adapter = (*Adapter)(nil)
