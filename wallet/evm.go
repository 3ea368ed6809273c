package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/x402core/paycore/chainadapter"
	"github.com/x402core/paycore/chainadapter/evmchain"
	"github.com/x402core/paycore/types"
)

// evmSigner adapts an ECDSA private key to chainadapter/evmchain.Signer,
// grounded on signers/evm/client.go's ClientSigner.SignTransaction.
type evmSigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

func (s *evmSigner) Address() types.Address {
	return types.NewAddress(s.address.Hex(), types.FamilyEvm)
}

func (s *evmSigner) EthAddress() common.Address { return s.address }

func (s *evmSigner) SignTransaction(_ context.Context, tx *gethtypes.Transaction) (*gethtypes.Transaction, error) {
	signer := gethtypes.LatestSignerForChainID(tx.ChainId())
	signedTx, err := gethtypes.SignTx(tx, signer, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("wallet: sign transaction: %w", err)
	}
	return signedTx, nil
}

// NewFromEvmAdapter builds a Wallet bound to an EVM network, loading a
// hex-encoded private key from keyStorePath or generating and persisting
// one if absent (mirrors NewFromAccountAdapter's load-or-generate policy).
func NewFromEvmAdapter(adapter *evmchain.Adapter, keyStorePath string) (Wallet, error) {
	privateKey, err := loadOrGenerateEvmKey(keyStorePath)
	if err != nil {
		return nil, err
	}

	signer := &evmSigner{privateKey: privateKey, address: crypto.PubkeyToAddress(privateKey.PublicKey)}

	w := &wallet{
		adapter: adapter,
		address: signer.Address(),
		family:  types.FamilyEvm,
		submitNative: func(ctx context.Context, to types.Address, amount types.Amount) (string, error) {
			return adapter.SubmitNativeTransfer(ctx, signer, to, amount)
		},
		submitToken: func(ctx context.Context, asset types.Asset, to types.Address, amount types.Amount) (string, error) {
			return adapter.SubmitTokenTransfer(ctx, signer, asset, to, amount)
		},
	}
	return w, nil
}

func loadOrGenerateEvmKey(path string) (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		line := strings.TrimSpace(strings.TrimPrefix(string(data), "0x"))
		key, err := crypto.HexToECDSA(line)
		if err != nil {
			return nil, fmt.Errorf("wallet: key store %s is corrupt: %w", path, err)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("wallet: read key store %s: %w", path, err)
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("wallet: generate evm key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("wallet: create key store directory: %w", err)
	}
	hexKey := "0x" + common.Bytes2Hex(crypto.FromECDSA(key))
	if err := os.WriteFile(path, []byte(hexKey+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("wallet: persist key store %s: %w", path, err)
	}
	return key, nil
}

var _ chainadapter.Signer = (*evmSigner)(nil)
