package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/x402core/paycore/router"
	"github.com/x402core/paycore/types"
)

// fakeProvider is a scripted provider.Provider, local to this package so
// the client engine can be exercised against a real Router without a live
// chain adapter.
type fakeProvider struct {
	network types.Network
	result  types.ExecutionResult
}

func (f *fakeProvider) Initialize(ctx context.Context) error { return nil }
func (f *fakeProvider) Execute(ctx context.Context, intent types.PaymentIntent) types.ExecutionResult {
	return f.result
}
func (f *fakeProvider) Verify(ctx context.Context, txID string) bool { return true }
func (f *fakeProvider) Health(ctx context.Context) types.ProviderHealth {
	return types.ProviderHealth{Healthy: true, ObservedAt: time.Now()}
}
func (f *fakeProvider) Address() types.Address { return types.NewAddress("Payer1111111111111111111111111111111111111", types.FamilyAccount) }
func (f *fakeProvider) Network() types.Network { return f.network }
func (f *fakeProvider) Tag() string            { return "fake" }

func buildTestRouter(t *testing.T, result types.ExecutionResult) *router.Router {
	t.Helper()
	primary := &fakeProvider{network: types.AccountDev, result: result}
	r, err := router.Build(router.Config{Primary: primary, MaxRetries: 1, BaseRetryDelay: time.Millisecond})
	require.NoError(t, err)
	return r
}

func TestPayAndFetch_NonPaymentRequiredPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	e := New(buildTestRouter(t, types.ExecutionResult{Outcome: types.OutcomeSuccess, TxID: "unused"}))
	resp, err := e.PayAndFetch(context.Background(), http.MethodGet, srv.URL, nil, types.AmountFromUint64(1000), time.Time{})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.Equal(t, "hello", string(resp.Body))
	require.Nil(t, resp.Result)
}

func TestPayAndFetch_HappyPath_402ThenPaidRetry(t *testing.T) {
	accepts := []byte(`{"accepts":[{"network":"account-dev","payTo":"Recv1111111111111111111111111111111111111","maxAmountRequired":"1000","asset":"USDC_DEV_MINT"}]}`)

	var sawPayment string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if xp := r.Header.Get("X-Payment"); xp != "" {
			sawPayment = xp
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("unlocked"))
			return
		}
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write(accepts)
	}))
	defer srv.Close()

	payerAddress := types.NewAddress("Payer1111111111111111111111111111111111111", types.FamilyAccount)
	e := New(buildTestRouter(t, types.ExecutionResult{
		Outcome:         types.OutcomeSuccess,
		TxID:            "5oNDL2oVp4uGEjBGKCQr4gMHwyJb8EP8Scn3rnB1pP3XT9Hn2r5TyqUwL1F6nW2QKNDT2ZjV5CLw7ud5uJyKDnJx",
		ProviderAddress: payerAddress,
	}))
	resp, err := e.PayAndFetch(context.Background(), http.MethodGet, srv.URL, nil, types.AmountFromUint64(1000), time.Time{})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.Equal(t, "unlocked", string(resp.Body))
	require.NotNil(t, resp.Result)
	require.Equal(t, types.OutcomeSuccess, resp.Result.Outcome)
	require.NotEmpty(t, sawPayment)

	receipt, err := types.DecodeReceipt([]byte(sawPayment))
	require.NoError(t, err)
	require.Equal(t, payerAddress, receipt.From)
}

func TestPayAndFetch_RejectsRequirementAboveMaxPrice(t *testing.T) {
	accepts := []byte(`{"accepts":[{"network":"account-dev","payTo":"Recv1111111111111111111111111111111111111","maxAmountRequired":"5000","asset":"USDC_DEV_MINT"}]}`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write(accepts)
	}))
	defer srv.Close()

	e := New(buildTestRouter(t, types.ExecutionResult{Outcome: types.OutcomeSuccess, TxID: "tx"}))
	_, err := e.PayAndFetch(context.Background(), http.MethodGet, srv.URL, nil, types.AmountFromUint64(1000), time.Time{})
	require.Error(t, err)
}

func TestPayAndFetch_UnsupportedNetworkIsRejected(t *testing.T) {
	accepts := []byte(`{"accepts":[{"network":"evm-main","payTo":"0xAbC0000000000000000000000000000000dEaD","maxAmountRequired":"1000","asset":"native"}]}`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write(accepts)
	}))
	defer srv.Close()

	e := New(buildTestRouter(t, types.ExecutionResult{Outcome: types.OutcomeSuccess, TxID: "tx"}))
	_, err := e.PayAndFetch(context.Background(), http.MethodGet, srv.URL, nil, types.AmountFromUint64(1000), time.Time{})
	require.Error(t, err)
}

func TestPayAndFetch_EmptyAcceptsIsProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"accepts":[]}`))
	}))
	defer srv.Close()

	e := New(buildTestRouter(t, types.ExecutionResult{Outcome: types.OutcomeSuccess, TxID: "tx"}))
	_, err := e.PayAndFetch(context.Background(), http.MethodGet, srv.URL, nil, types.AmountFromUint64(1000), time.Time{})
	require.Error(t, err)
}
