package provider

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/x402core/paycore/chainadapter"
	"github.com/x402core/paycore/failure"
	"github.com/x402core/paycore/types"
)

func TestFacilitatorProvider_RejectsOnInvalidVerifyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(facilitatorVerifyResponse{Valid: false, Error: "unknown asset"})
	}))
	defer srv.Close()

	wal := &fakeWallet{transferTxID: "should-not-submit"}
	adapter := &fakeAdapter{network: types.AccountDev}
	p := NewFacilitatorProvider("facilitator", srv.URL, wal, adapter, types.AmountFromUint64(5000))

	result := p.Execute(t.Context(), testIntentFor(1000, 1000))
	require.Equal(t, types.OutcomeFailure, result.Outcome)
	require.Equal(t, string(failure.Protocol), result.FailureKind)
	require.Equal(t, 0, wal.transferCalls)
}

func TestFacilitatorProvider_SubmitsAfterValidVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(facilitatorVerifyResponse{Valid: true})
	}))
	defer srv.Close()

	wal := &fakeWallet{transferTxID: "tx-facilitated"}
	adapter := &fakeAdapter{network: types.AccountDev}
	p := NewFacilitatorProvider("facilitator", srv.URL, wal, adapter, types.AmountFromUint64(5000))

	result := p.Execute(t.Context(), testIntentFor(1000, 1000))
	require.Equal(t, types.OutcomeSuccess, result.Outcome)
	require.Equal(t, "tx-facilitated", result.TxID)
	require.Equal(t, 1, wal.transferCalls)
}

func TestFacilitatorProvider_CeilingRejectionSkipsHTTPCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		json.NewEncoder(w).Encode(facilitatorVerifyResponse{Valid: true})
	}))
	defer srv.Close()

	wal := &fakeWallet{}
	adapter := &fakeAdapter{network: types.AccountDev}
	p := NewFacilitatorProvider("facilitator", srv.URL, wal, adapter, types.AmountFromUint64(500))

	result := p.Execute(t.Context(), testIntentFor(1000, 1000))
	require.Equal(t, types.OutcomeFailure, result.Outcome)
	require.Equal(t, string(failure.PriceCeiling), result.FailureKind)
	require.False(t, called)
}

func TestFacilitatorProvider_HealthRequiresListAndTip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wal := &fakeWallet{}
	adapter := &fakeAdapter{network: types.AccountDev, tip: 0}
	p := NewFacilitatorProvider("facilitator", srv.URL, wal, adapter, types.AmountFromUint64(5000))

	health := p.Health(t.Context())
	require.False(t, health.Healthy)

	adapter.tip = 99
	health = p.Health(t.Context())
	require.True(t, health.Healthy)
}

func TestFacilitatorProvider_Verify(t *testing.T) {
	wal := &fakeWallet{}
	adapter := &fakeAdapter{network: types.AccountDev, confStatus: chainadapter.StatusFinalized}
	p := NewFacilitatorProvider("facilitator", "http://unused.invalid", wal, adapter, types.AmountFromUint64(5000))

	require.True(t, p.Verify(t.Context(), "tx"))
}
