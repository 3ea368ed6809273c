package types

import (
	"encoding/json"
	"fmt"
)

// nativeAssetTag is the wire sentinel meaning "the chain's native coin,
// not a token program/contract" (see DESIGN.md for why this tag rather
// than a separate wire field).
const nativeAssetTag = "native"

// wireRequirement is the JSON shape of one entry in a 402 body's "accepts"
// list. All numeric fields are strings to avoid float loss.
type wireRequirement struct {
	Network           string            `json:"network"`
	PayTo             string            `json:"payTo"`
	MaxAmountRequired string            `json:"maxAmountRequired"`
	Asset             string            `json:"asset"`
	Extra             map[string]string `json:"extra,omitempty"`
}

type wire402Body struct {
	Accepts []wireRequirement `json:"accepts"`
}

// DecodePaymentRequirements decodes a 402 response body under the "accepts"
// key. An empty or missing list is a fatal protocol error; the caller maps
// that to FailureKind Protocol.
func DecodePaymentRequirements(body []byte) ([]PaymentRequirement, error) {
	var decoded wire402Body
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("malformed 402 body: %w", err)
	}
	if len(decoded.Accepts) == 0 {
		return nil, fmt.Errorf("402 body carries an empty accepts list")
	}

	out := make([]PaymentRequirement, 0, len(decoded.Accepts))
	for _, w := range decoded.Accepts {
		req, err := requirementFromWire(w)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

func requirementFromWire(w wireRequirement) (PaymentRequirement, error) {
	network := Network(w.Network)
	family := network.FamilyOf()

	amount, err := ParseAmount(w.MaxAmountRequired)
	if err != nil {
		return PaymentRequirement{}, fmt.Errorf("requirement for network %q: %w", w.Network, err)
	}

	return PaymentRequirement{
		Network:           network,
		PayTo:             NewAddress(w.PayTo, family),
		MaxAmountRequired: amount,
		Asset:             assetFromWireTag(w.Asset, family),
		Extra:             w.Extra,
	}, nil
}

func assetFromWireTag(tag string, family Family) Asset {
	if tag == "" || tag == nativeAssetTag {
		return Asset{Kind: Native}
	}
	return Asset{Kind: Token, MintOrContract: NewAddress(tag, family)}
}

func assetToWireTag(a Asset) string {
	if a.IsNative() {
		return nativeAssetTag
	}
	return a.MintOrContract.String()
}

// EncodeAccepts serializes a list of requirements into the 402 response
// body shape, for servers that issue the challenge.
func EncodeAccepts(reqs []PaymentRequirement) ([]byte, error) {
	wire := make([]wireRequirement, len(reqs))
	for i, r := range reqs {
		wire[i] = wireRequirement{
			Network:           string(r.Network),
			PayTo:             r.PayTo.String(),
			MaxAmountRequired: r.MaxAmountRequired.String(),
			Asset:             assetToWireTag(r.Asset),
			Extra:             r.Extra,
		}
	}
	return json.Marshal(wire402Body{Accepts: wire})
}

// wireReceipt is the JSON shape of the X-Payment retry header. Field order
// is irrelevant and the value is whitespace-insensitive because
// it's plain JSON. Fields other than the six below are ignored by
// DecodeReceipt and are not kept in the decoded PaymentReceipt.
type wireReceipt struct {
	Network string `json:"network"`
	TxHash  string `json:"txHash"`
	From    string `json:"from"`
	To      string `json:"to"`
	Amount  string `json:"amount"`
	Asset   string `json:"asset"`
}

// EncodeReceipt renders a PaymentReceipt as the X-Payment header value.
func EncodeReceipt(r PaymentReceipt) ([]byte, error) {
	return json.Marshal(wireReceipt{
		Network: string(r.Network),
		TxHash:  r.TxID,
		From:    r.From.String(),
		To:      r.To.String(),
		Amount:  r.Amount.String(),
		Asset:   assetToWireTag(r.Asset),
	})
}

// DecodeReceipt parses an X-Payment header value back into a PaymentReceipt.
// Used by the verifier's caller to recover what the client asserted.
func DecodeReceipt(data []byte) (PaymentReceipt, error) {
	var w wireReceipt
	if err := json.Unmarshal(data, &w); err != nil {
		return PaymentReceipt{}, fmt.Errorf("malformed X-Payment header: %w", err)
	}

	network := Network(w.Network)
	family := network.FamilyOf()

	amount, err := ParseAmount(w.Amount)
	if err != nil {
		return PaymentReceipt{}, fmt.Errorf("X-Payment header: %w", err)
	}

	return PaymentReceipt{
		Network: network,
		TxID:    w.TxHash,
		From:    NewAddress(w.From, family),
		To:      NewAddress(w.To, family),
		Amount:  amount,
		Asset:   assetFromWireTag(w.Asset, family),
	}, nil
}
