// Package client implements the 402 protocol client engine that
// negotiates a payment challenge, executes it through a Router, and
// retries the original request with a receipt. The HTTP plumbing is a
// plain *http.Client with context-aware requests and manual status/body
// handling, rather than a new HTTP abstraction for a single caller.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/x402core/paycore/failure"
	"github.com/x402core/paycore/router"
	"github.com/x402core/paycore/types"
)

// Response is the result of pay_and_fetch: the final HTTP response (status
// and body, verbatim) together with an ExecutionResult when a payment was
// attempted.
type Response struct {
	Status int
	Body   []byte
	Header http.Header
	Result *types.ExecutionResult // nil when no 402 challenge was encountered
}

// Engine holds no per-request state beyond the call stack and is safe for
// concurrent, re-entrant use.
type Engine struct {
	httpClient *http.Client
	router     *router.Router
}

// New builds an Engine driving payments through r.
func New(r *router.Router) *Engine {
	return &Engine{httpClient: &http.Client{}, router: r}
}

// PayAndFetch implements the three-step handshake: request, pay on 402,
// retry with a receipt.
func (e *Engine) PayAndFetch(ctx context.Context, method, url string, body []byte, maxPrice types.Amount, deadline time.Time) (*Response, error) {
	if !deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	initial, err := e.doRequest(ctx, method, url, body, nil)
	if err != nil {
		return nil, failure.Wrap(failure.Transient, "initial request failed", err)
	}

	if initial.Status != http.StatusPaymentRequired {
		return &Response{Status: initial.Status, Body: initial.Body, Header: initial.Header}, nil
	}

	requirements, err := types.DecodePaymentRequirements(initial.Body)
	if err != nil {
		return nil, failure.Wrap(failure.Protocol, "malformed 402 response body", err)
	}

	requirement, err := e.selectRequirement(requirements, maxPrice)
	if err != nil {
		return nil, err
	}

	intent := types.PaymentIntent{
		Requirement:  requirement,
		PriceCeiling: maxPrice,
		Deadline:     deadline,
	}

	execResult := e.router.Execute(ctx, intent)
	if execResult.Outcome != types.OutcomeSuccess {
		return nil, failure.New(failure.Kind(execResult.FailureKind), execResult.Message)
	}

	receipt := types.PaymentReceipt{
		Network: requirement.Network,
		TxID:    execResult.TxID,
		From:    execResult.ProviderAddress,
		To:      requirement.PayTo,
		Amount:  requirement.MaxAmountRequired,
		Asset:   requirement.Asset,
	}
	receiptJSON, err := types.EncodeReceipt(receipt)
	if err != nil {
		return nil, failure.Wrap(failure.Internal, "failed to encode payment receipt", err)
	}

	retryHeaders := map[string]string{"X-Payment": string(receiptJSON)}
	final, err := e.doRequest(ctx, method, url, body, retryHeaders)
	if err != nil {
		// The payment itself already succeeded; surface success-with-warning
		// rather than losing the tx id.
		return &Response{Status: 0, Result: &execResult}, failure.Wrap(failure.Transient, "paid retry request failed", err)
	}

	return &Response{Status: final.Status, Body: final.Body, Header: final.Header, Result: &execResult}, nil
}

// selectRequirement picks the first requirement whose network the Router
// serves and whose price is within maxPrice.
func (e *Engine) selectRequirement(requirements []types.PaymentRequirement, maxPrice types.Amount) (types.PaymentRequirement, error) {
	for _, req := range requirements {
		if !e.router.Supports(req.Network) {
			continue
		}
		if req.MaxAmountRequired.GreaterThan(maxPrice) {
			return types.PaymentRequirement{}, failure.New(failure.PriceCeiling, fmt.Sprintf(
				"requirement %s exceeds max price %s", req.MaxAmountRequired.String(), maxPrice.String()))
		}
		return req, nil
	}
	return types.PaymentRequirement{}, failure.New(failure.Unsupported, "no advertised network is supported by the configured router")
}

type rawResponse struct {
	Status int
	Body   []byte
	Header http.Header
}

func (e *Engine) doRequest(ctx context.Context, method, url string, body []byte, extraHeaders map[string]string) (*rawResponse, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("client: create request: %w", err)
	}
	for k, v := range extraHeaders {
		httpReq.Header.Set(k, v)
	}

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("client: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("client: read response body: %w", err)
	}

	return &rawResponse{Status: resp.StatusCode, Body: respBody, Header: resp.Header}, nil
}
