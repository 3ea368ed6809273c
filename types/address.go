package types

import "strings"

// Address is an opaque, network-scoped address. Equality is case-insensitive
// for EVM addresses and byte-exact (case-sensitive, base58) for account-model
// addresses.
type Address struct {
	value  string
	family Family
}

// NewAddress wraps a raw address string for the given network family.
func NewAddress(value string, family Family) Address {
	return Address{value: value, family: family}
}

// String returns the address in its original casing.
func (a Address) String() string { return a.value }

// IsZero reports whether the address carries no value.
func (a Address) IsZero() bool { return a.value == "" }

// Equal compares two addresses under the family's equality rule. Addresses
// from different families are never equal.
func (a Address) Equal(b Address) bool {
	if a.family != b.family {
		return false
	}
	if a.family == FamilyEvm {
		return strings.EqualFold(a.value, b.value)
	}
	return a.value == b.value
}
