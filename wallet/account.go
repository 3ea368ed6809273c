package wallet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	solana "github.com/gagliardetto/solana-go"

	"github.com/x402core/paycore/chainadapter"
	"github.com/x402core/paycore/chainadapter/account"
	"github.com/x402core/paycore/types"
)

// accountSigner adapts a solana.PrivateKey to chainadapter/account.Signer:
// the private key never leaves this file, only a sign callback crosses the
// adapter boundary.
type accountSigner struct {
	privateKey solana.PrivateKey
	publicKey  solana.PublicKey
}

func (s *accountSigner) Address() types.Address {
	return types.NewAddress(s.publicKey.String(), types.FamilyAccount)
}

func (s *accountSigner) PublicKey() solana.PublicKey { return s.publicKey }

func (s *accountSigner) SignTransaction(_ context.Context, tx *solana.Transaction) error {
	messageBytes, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("wallet: marshal transaction message: %w", err)
	}
	signature, err := s.privateKey.Sign(messageBytes)
	if err != nil {
		return fmt.Errorf("wallet: sign transaction: %w", err)
	}
	accountIndex, err := tx.GetAccountIndex(s.publicKey)
	if err != nil {
		return fmt.Errorf("wallet: locate signer in transaction accounts: %w", err)
	}
	if len(tx.Signatures) <= int(accountIndex) {
		resized := make([]solana.Signature, accountIndex+1)
		copy(resized, tx.Signatures)
		tx.Signatures = resized
	}
	tx.Signatures[accountIndex] = signature
	return nil
}

// NewFromAccountAdapter builds a Wallet bound to an account-model network,
// loading a base58 private key from keyStorePath or generating and
// persisting one if the file does not exist.
func NewFromAccountAdapter(adapter *account.Adapter, keyStorePath string) (Wallet, error) {
	privateKey, err := loadOrGenerateAccountKey(keyStorePath)
	if err != nil {
		return nil, err
	}

	signer := &accountSigner{privateKey: privateKey, publicKey: privateKey.PublicKey()}

	w := &wallet{
		adapter: adapter,
		address: signer.Address(),
		family:  types.FamilyAccount,
		submitNative: func(ctx context.Context, to types.Address, amount types.Amount) (string, error) {
			return adapter.SubmitNativeTransfer(ctx, signer, to, amount)
		},
		submitToken: func(ctx context.Context, asset types.Asset, to types.Address, amount types.Amount) (string, error) {
			return adapter.SubmitTokenTransfer(ctx, signer, asset, to, amount)
		},
	}
	return w, nil
}

// loadOrGenerateAccountKey reads a single base58-encoded private key line
// from path, creating a fresh keypair and writing it (mode 0600) when the
// file is absent.
func loadOrGenerateAccountKey(path string) (solana.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		line := strings.TrimSpace(string(data))
		key, err := solana.PrivateKeyFromBase58(line)
		if err != nil {
			return nil, fmt.Errorf("wallet: key store %s is corrupt: %w", path, err)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("wallet: read key store %s: %w", path, err)
	}

	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("wallet: generate account key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("wallet: create key store directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(key.String()+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("wallet: persist key store %s: %w", path, err)
	}
	return key, nil
}

var _ chainadapter.Signer = (*accountSigner)(nil)
