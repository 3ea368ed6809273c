// Package evmchain implements the EVM ChainAdapter family: native coin
// (wei) transfers and ERC-20-style token transfers signed with a plain
// ECDSA key and broadcast as ordinary EIP-1559 transactions. Deliberately
// a thinner counterpart to the account-model family: no Permit2/EIP-2612
// gasless-approval machinery, since every transfer here is signed and
// broadcast by the same key that holds the funds, with no third-party
// relayer involved.
package evmchain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/x402core/paycore/chainadapter"
	"github.com/x402core/paycore/types"
)

// erc20ABI covers the two calls this adapter needs: a transfer that moves
// value and a balanceOf read. Kept minimal and inline rather than pulling
// a generated binding package for two functions.
const erc20ABI = `[
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"}
]`

const (
	nativeTransferGasLimit = 21_000
	erc20TransferGasLimit  = 65_000
	receiptPollInterval    = 500 * time.Millisecond
	maxReceiptAttempts     = 60
)

// DefaultFeeToleranceWei is this family's fee tolerance: zero, since an
// EVM native transfer's value field carries no gas cost and the Verifier
// should reject any non-exact delta for a wei transfer.
var DefaultFeeToleranceWei = types.ZeroAmount

// Signer is the capability an EVM Wallet exposes to this adapter.
type Signer interface {
	chainadapter.Signer
	EthAddress() common.Address
	SignTransaction(ctx context.Context, tx *gethtypes.Transaction) (*gethtypes.Transaction, error)
}

// Adapter implements chainadapter.Adapter for one EVM network.
type Adapter struct {
	network types.Network
	client  *ethclient.Client
	chainID *big.Int
	abi     abi.ABI
}

// New dials rpcURL and builds an Adapter bound to chainID. Dialing is
// eager: a bad RPC URL fails at construction, not on the first call.
func New(ctx context.Context, network types.Network, rpcURL string, chainID *big.Int) (*Adapter, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("evmchain adapter: dial %s: %w", rpcURL, err)
	}
	parsedABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("evmchain adapter: parse erc20 abi: %w", err)
	}
	return &Adapter{network: network, client: client, chainID: chainID, abi: parsedABI}, nil
}

func (a *Adapter) Family() types.Family { return types.FamilyEvm }

func (a *Adapter) Network() types.Network { return a.network }

func (a *Adapter) FeeTolerance() types.Amount { return DefaultFeeToleranceWei }

func (a *Adapter) Tip(ctx context.Context) (uint64, error) {
	header, err := a.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("evmchain adapter: header by number: %w", err)
	}
	return header.Number.Uint64(), nil
}

func (a *Adapter) Balance(ctx context.Context, owner types.Address, asset types.Asset) (types.Amount, error) {
	ownerAddr := common.HexToAddress(owner.String())

	if asset.IsNative() {
		wei, err := a.client.BalanceAt(ctx, ownerAddr, nil)
		if err != nil {
			return types.ZeroAmount, fmt.Errorf("evmchain adapter: balance at: %w", err)
		}
		return types.NewAmount(wei), nil
	}

	calldata, err := a.abi.Pack("balanceOf", ownerAddr)
	if err != nil {
		return types.ZeroAmount, fmt.Errorf("evmchain adapter: pack balanceOf: %w", err)
	}
	contractAddr := common.HexToAddress(asset.MintOrContract.String())
	result, err := a.client.CallContract(ctx, ethereum.CallMsg{To: &contractAddr, Data: calldata}, nil)
	if err != nil {
		return types.ZeroAmount, fmt.Errorf("evmchain adapter: call balanceOf: %w", err)
	}
	var balance *big.Int
	if err := a.abi.UnpackIntoInterface(&balance, "balanceOf", result); err != nil {
		return types.ZeroAmount, fmt.Errorf("evmchain adapter: unpack balanceOf: %w", err)
	}
	return types.NewAmount(balance), nil
}

func (a *Adapter) SubmitNativeTransfer(ctx context.Context, signer Signer, to types.Address, amount types.Amount) (string, error) {
	toAddr := common.HexToAddress(to.String())
	tx, err := a.buildTx(ctx, signer, toAddr, amount.Big(), nil, nativeTransferGasLimit)
	if err != nil {
		return "", err
	}
	return a.signSendWait(ctx, signer, tx)
}

func (a *Adapter) SubmitTokenTransfer(ctx context.Context, signer Signer, asset types.Asset, to types.Address, amount types.Amount) (string, error) {
	if asset.IsNative() {
		return "", fmt.Errorf("evmchain adapter: SubmitTokenTransfer called with a native asset")
	}
	toAddr := common.HexToAddress(to.String())
	calldata, err := a.abi.Pack("transfer", toAddr, amount.Big())
	if err != nil {
		return "", fmt.Errorf("evmchain adapter: pack transfer: %w", err)
	}
	contractAddr := common.HexToAddress(asset.MintOrContract.String())
	tx, err := a.buildTx(ctx, signer, contractAddr, big.NewInt(0), calldata, erc20TransferGasLimit)
	if err != nil {
		return "", err
	}
	return a.signSendWait(ctx, signer, tx)
}

func (a *Adapter) buildTx(ctx context.Context, signer Signer, to common.Address, value *big.Int, data []byte, gasLimit uint64) (*gethtypes.Transaction, error) {
	nonce, err := a.client.PendingNonceAt(ctx, signer.EthAddress())
	if err != nil {
		return nil, fmt.Errorf("evmchain adapter: pending nonce: %w", err)
	}

	tip, err := a.client.SuggestGasTipCap(ctx)
	if err != nil {
		tip = big.NewInt(100_000_000) // 0.1 gwei fallback
	}
	header, err := a.client.HeaderByNumber(ctx, nil)
	baseFee := big.NewInt(1_000_000_000)
	if err == nil && header.BaseFee != nil {
		baseFee = header.BaseFee
	}
	maxFee := new(big.Int).Add(new(big.Int).Mul(big.NewInt(2), baseFee), tip)

	return gethtypes.NewTx(&gethtypes.DynamicFeeTx{
		ChainID:   a.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: maxFee,
		Gas:       gasLimit,
		To:        &to,
		Value:     value,
		Data:      data,
	}), nil
}

func (a *Adapter) signSendWait(ctx context.Context, signer Signer, tx *gethtypes.Transaction) (string, error) {
	signedTx, err := signer.SignTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("evmchain adapter: sign transaction: %w", err)
	}

	if err := a.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("evmchain adapter: send transaction: %w", err)
	}

	txID := signedTx.Hash().Hex()

	if err := a.awaitReceipt(ctx, signedTx.Hash()); err != nil {
		return txID, err
	}
	return txID, nil
}

func (a *Adapter) awaitReceipt(ctx context.Context, hash common.Hash) error {
	for attempt := 0; attempt < maxReceiptAttempts; attempt++ {
		receipt, err := a.client.TransactionReceipt(ctx, hash)
		if err == nil {
			if receipt.Status == gethtypes.ReceiptStatusFailed {
				return fmt.Errorf("evmchain adapter: transaction failed on-chain")
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(receiptPollInterval):
		}
	}
	return fmt.Errorf("evmchain adapter: receipt wait timed out after %d attempts", maxReceiptAttempts)
}

func (a *Adapter) ConfirmationStatus(ctx context.Context, txID string) (chainadapter.ConfirmationStatus, error) {
	hash := common.HexToHash(txID)
	receipt, err := a.client.TransactionReceipt(ctx, hash)
	if err != nil {
		return chainadapter.StatusPending, nil
	}
	if receipt.Status == gethtypes.ReceiptStatusFailed {
		return chainadapter.StatusFailed, nil
	}

	tip, err := a.Tip(ctx)
	if err == nil && receipt.BlockNumber != nil {
		confirmations := tip - receipt.BlockNumber.Uint64()
		if confirmations >= 12 {
			return chainadapter.StatusFinalized, nil
		}
	}
	return chainadapter.StatusConfirmed, nil
}

func (a *Adapter) FetchTransaction(ctx context.Context, txID string) (*chainadapter.Transaction, error) {
	hash := common.HexToHash(txID)
	receipt, err := a.client.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, nil
	}

	result := &chainadapter.Transaction{TxID: txID}
	if receipt.Status == gethtypes.ReceiptStatusFailed {
		result.Err = "execution reverted"
	}
	return result, nil
}

var _ chainadapter.Adapter = (*Adapter)(nil)
