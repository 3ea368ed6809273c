package types

import (
	"regexp"

	"github.com/mr-tron/base58"
)

// account-model tx ids are base58, 87-88 chars (Solana transaction
// signatures); EVM tx ids are 0x + 64 hex chars. Validated before any RPC
// call so a malformed id never reaches the network.
var (
	accountTxIDPattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{87,88}$`)
	evmTxIDPattern     = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
)

// accountSignatureSize is the decoded byte length of a Solana ed25519
// transaction signature; the charset regexp alone accepts strings the
// base58 alphabet allows but that don't decode to a signature-sized value.
const accountSignatureSize = 64

// ValidTxID reports whether id has the syntactic shape expected for the
// given network family.
func ValidTxID(id string, family Family) bool {
	switch family {
	case FamilyAccount:
		if !accountTxIDPattern.MatchString(id) {
			return false
		}
		decoded, err := base58.Decode(id)
		return err == nil && len(decoded) == accountSignatureSize
	case FamilyEvm:
		return evmTxIDPattern.MatchString(id)
	default:
		return false
	}
}
