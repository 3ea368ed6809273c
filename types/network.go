// Package types holds the payment core's data model: networks, assets,
// amounts, and the wire-visible payment structures shared by the client
// engine, router, providers, and verifier.
package types

// Network is the closed set of chains the core serves. New networks are
// added here and in the per-family ChainAdapter, never by changing callers.
type Network string

const (
	AccountMain Network = "account-main"
	AccountDev  Network = "account-dev"
	AccountTest Network = "account-test"
	EvmMain     Network = "evm-main"
	EvmTest     Network = "evm-test"
)

// Family groups networks by the adapter contract that serves them.
type Family int

const (
	FamilyAccount Family = iota
	FamilyEvm
)

type networkInfo struct {
	family     Family
	defaultRPC string
}

var networks = map[Network]networkInfo{
	AccountMain: {FamilyAccount, "https://api.mainnet-beta.solana.com"},
	AccountDev:  {FamilyAccount, "https://api.devnet.solana.com"},
	AccountTest: {FamilyAccount, "https://api.testnet.solana.com"},
	EvmMain:     {FamilyEvm, "https://mainnet.infura.io/v3/"},
	EvmTest:     {FamilyEvm, "https://sepolia.infura.io/v3/"},
}

// Valid reports whether tag is one of the closed canonical network tags.
func (n Network) Valid() bool {
	_, ok := networks[n]
	return ok
}

// DefaultRPC returns the network's default RPC endpoint, or "" if unknown.
func (n Network) DefaultRPC() string {
	return networks[n].defaultRPC
}

// FamilyOf returns the ChainAdapter family that serves this network.
// The zero value (FamilyAccount) is returned for unknown networks; callers
// must check Valid() first.
func (n Network) FamilyOf() Family {
	return networks[n].family
}

// ParseNetwork validates a canonical wire tag, rejecting unknown networks
// per §6 ("unknown tags are treated as Unsupported").
func ParseNetwork(tag string) (Network, bool) {
	n := Network(tag)
	return n, n.Valid()
}
