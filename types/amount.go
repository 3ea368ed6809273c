package types

import (
	"fmt"
	"math/big"
)

// Amount is an arbitrary-precision unsigned integer in base units. No
// Amount operation uses floating point anywhere in the core.
type Amount struct {
	v *big.Int
}

// ZeroAmount is the additive identity.
var ZeroAmount = Amount{v: new(big.Int)}

// NewAmount wraps a non-negative big.Int. A nil v is treated as zero.
func NewAmount(v *big.Int) Amount {
	if v == nil {
		return ZeroAmount
	}
	return Amount{v: new(big.Int).Set(v)}
}

// AmountFromUint64 builds an Amount from a machine word, the common case
// for native-coin balances read back from an RPC client.
func AmountFromUint64(v uint64) Amount {
	return Amount{v: new(big.Int).SetUint64(v)}
}

// ParseAmount parses the decimal-string-of-base-units wire form used
// throughout §6 (maxAmountRequired, amount). Rejects negative values and
// non-digit input; there is no floating point parsing path.
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return Amount{}, fmt.Errorf("amount: empty string")
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("amount: invalid base-10 integer %q", s)
	}
	if v.Sign() < 0 {
		return Amount{}, fmt.Errorf("amount: negative value %q", s)
	}
	return Amount{v: v}, nil
}

// String renders the decimal-string-of-base-units wire form.
func (a Amount) String() string {
	if a.v == nil {
		return "0"
	}
	return a.v.String()
}

// Big returns the underlying big.Int. Callers must not mutate it.
func (a Amount) Big() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return a.v
}

// Cmp compares two amounts the way big.Int.Cmp does.
func (a Amount) Cmp(b Amount) int {
	return a.Big().Cmp(b.Big())
}

// GreaterThan reports whether a > b.
func (a Amount) GreaterThan(b Amount) bool { return a.Cmp(b) > 0 }

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool { return a.Cmp(b) < 0 }

// Equal reports whether a == b.
func (a Amount) Equal(b Amount) bool { return a.Cmp(b) == 0 }

// Sub returns a - b as a signed delta; used by the verifier's native
// balance-delta check, which must tolerate a negative result.
func (a Amount) Sub(b Amount) *big.Int {
	return new(big.Int).Sub(a.Big(), b.Big())
}

// MarshalJSON encodes the amount as a JSON string, never a JSON number, so
// base-unit precision survives round trips through any JSON decoder.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON decodes the decimal-string wire form.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
