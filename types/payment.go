package types

import "time"

// PaymentRequirement is one offer parsed from a 402 response's "accepts"
// list.
type PaymentRequirement struct {
	Network           Network
	PayTo             Address
	MaxAmountRequired Amount
	Asset             Asset
	Extra             map[string]string
}

// PaymentIntent is the caller's choice after parsing a 402 response.
// Invariant: Requirement.MaxAmountRequired <= PriceCeiling.
type PaymentIntent struct {
	Requirement  PaymentRequirement
	PriceCeiling Amount
	Deadline     time.Time
}

// Valid checks the intent's defining invariant.
func (i PaymentIntent) Valid() bool {
	return !i.Requirement.MaxAmountRequired.GreaterThan(i.PriceCeiling)
}

// PaymentReceipt is stamped into the X-Payment retry header. Clients pay
// the posted price exactly: Amount == intent.Requirement.MaxAmountRequired.
type PaymentReceipt struct {
	Network Network
	TxID    string
	From    Address
	To      Address
	Amount  Amount
	Asset   Asset
}

// Outcome is the closed tag of an ExecutionResult.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
)

// ExecutionResult is the result of a Provider.Execute or Router.Execute
// call.
type ExecutionResult struct {
	Outcome     Outcome
	TxID        string // set on success, and on failure when a transaction was submitted before the failure
	FailureKind string // set iff Outcome == OutcomeFailure; see package failure
	Message     string
	ProviderTag string
	// ProviderAddress is the address the executing Provider signed with; set
	// whenever a provider actually ran (even on failure, if it got that
	// far), zero when the Router itself synthesized the result without
	// trying a provider. The Client Engine uses it to fill PaymentReceipt.From.
	ProviderAddress Address
	// CorrelationID disambiguates log lines from concurrent execute calls
	// hitting the same ProviderTag; stamped once per Router.Execute call
	// onto the result that call returns.
	CorrelationID string
	StartedAt     time.Time
	FinishedAt    time.Time
	Intent        PaymentIntent
}

// ProviderHealth is the cached health of a Provider, refreshed at most once
// per health TTL (default 60s).
type ProviderHealth struct {
	Healthy    bool
	Message    string
	ObservedAt time.Time
}

// Expired reports whether this health reading is older than ttl as of now.
func (h ProviderHealth) Expired(now time.Time, ttl time.Duration) bool {
	return h.ObservedAt.IsZero() || now.Sub(h.ObservedAt) >= ttl
}
