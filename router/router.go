// Package router routes a PaymentIntent to a Provider with retry,
// exponential backoff, health-probe caching, automatic failover, and
// statistics.
package router

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/x402core/paycore/failure"
	"github.com/x402core/paycore/internal/backoff"
	"github.com/x402core/paycore/provider"
	"github.com/x402core/paycore/types"
)

// Stats tracks fallback usage and per-provider attempt counts, kept as a
// struct of independent atomics rather than a bare counter so a caller can
// distinguish how many attempts landed on each provider.
type Stats struct {
	fallbacksUsed    atomic.Uint64
	primaryAttempts  atomic.Uint64
	fallbackAttempts atomic.Uint64
}

func (s *Stats) FallbacksUsed() uint64    { return s.fallbacksUsed.Load() }
func (s *Stats) PrimaryAttempts() uint64  { return s.primaryAttempts.Load() }
func (s *Stats) FallbackAttempts() uint64 { return s.fallbackAttempts.Load() }

// Config is the Router's build-time configuration.
type Config struct {
	Primary        provider.Provider
	Fallback       provider.Provider // nil if no fallback configured
	AutoFailover   bool
	MaxRetries     uint32
	BaseRetryDelay time.Duration
	HealthTTL      time.Duration
}

// Router orchestrates a primary and optional fallback Provider.
type Router struct {
	cfg    Config
	health *healthCache
	stats  Stats
}

// Build constructs a Router from an explicit cfg record; there is no
// implicit global initialization.
func Build(cfg Config) (*Router, error) {
	if cfg.Primary == nil {
		return nil, fmt.Errorf("router: primary provider is required")
	}
	if cfg.MaxRetries == 0 {
		return nil, fmt.Errorf("router: max_retries must be >= 1")
	}
	if cfg.HealthTTL <= 0 {
		cfg.HealthTTL = 60 * time.Second
	}
	if cfg.BaseRetryDelay <= 0 {
		cfg.BaseRetryDelay = 200 * time.Millisecond
	}
	return &Router{cfg: cfg, health: newHealthCache(cfg.HealthTTL)}, nil
}

func (r *Router) Stats() *Stats { return &r.stats }

// Supports reports whether network matches either the primary or fallback
// provider's network, used by the Client Engine to pick the first
// compatible entry from a 402 response's accepts list.
func (r *Router) Supports(network types.Network) bool {
	if r.cfg.Primary.Network() == network {
		return true
	}
	return r.cfg.Fallback != nil && r.cfg.Fallback.Network() == network
}

// Execute tries the primary provider, retrying transient failures with
// backoff, then fails over to the fallback provider if configured. Every
// ExecutionResult it returns carries the same CorrelationID, so log lines
// from a single call (across retries and a failover) can be grouped even
// when several calls run concurrently against the same ProviderTag.
func (r *Router) Execute(ctx context.Context, intent types.PaymentIntent) types.ExecutionResult {
	correlationID := uuid.NewString()
	stamp := func(result types.ExecutionResult) types.ExecutionResult {
		result.CorrelationID = correlationID
		return result
	}

	primaryHealth := r.health.get(ctx, r.cfg.Primary)

	var primaryResult types.ExecutionResult
	triedPrimary := false

	if primaryHealth.Healthy {
		triedPrimary = true
		primaryResult = r.executeWithRetry(ctx, r.cfg.Primary, intent, &r.stats.primaryAttempts)
		if primaryResult.Outcome == types.OutcomeSuccess {
			return stamp(primaryResult)
		}
	}

	if !r.cfg.AutoFailover || r.cfg.Fallback == nil {
		if triedPrimary {
			return stamp(primaryResult)
		}
		return stamp(failureResult(intent, "", fmt.Sprintf("primary provider %q is unhealthy: %s", r.cfg.Primary.Tag(), primaryHealth.Message)))
	}

	fallbackHealth := r.health.get(ctx, r.cfg.Fallback)
	if !fallbackHealth.Healthy {
		if triedPrimary {
			return stamp(primaryResult)
		}
		return stamp(failureResult(intent, "", fmt.Sprintf(
			"primary provider %q is unhealthy: %s; fallback provider %q is unhealthy: %s",
			r.cfg.Primary.Tag(), primaryHealth.Message, r.cfg.Fallback.Tag(), fallbackHealth.Message)))
	}

	fallbackResult := r.executeWithRetry(ctx, r.cfg.Fallback, intent, &r.stats.fallbackAttempts)
	if fallbackResult.Outcome == types.OutcomeSuccess {
		r.stats.fallbacksUsed.Add(1)
		return stamp(fallbackResult)
	}

	if triedPrimary {
		return stamp(mergedFailure(intent, r.cfg.Primary.Tag(), primaryResult, r.cfg.Fallback.Tag(), fallbackResult))
	}
	return stamp(fallbackResult)
}

// executeWithRetry runs the per-provider retry loop: retry on Transient and
// Internal failures with exponential backoff, give up immediately on
// anything else.
func (r *Router) executeWithRetry(ctx context.Context, p provider.Provider, intent types.PaymentIntent, attemptCounter *atomic.Uint64) types.ExecutionResult {
	var last types.ExecutionResult

	for attempt := 1; attempt <= int(r.cfg.MaxRetries); attempt++ {
		attemptCounter.Add(1)
		last = p.Execute(ctx, intent)
		if last.Outcome == types.OutcomeSuccess {
			return last
		}

		kind := failure.Kind(last.FailureKind)
		if !kind.Retryable() {
			return last
		}

		if attempt == int(r.cfg.MaxRetries) {
			break
		}

		delay := backoff.Delay(r.cfg.BaseRetryDelay, attempt)
		if err := backoff.Sleep(ctx, delay); err != nil {
			return failureResult(intent, p.Tag(), "backoff sleep was cancelled: "+err.Error())
		}
	}
	return last
}

func failureResult(intent types.PaymentIntent, tag, message string) types.ExecutionResult {
	return types.ExecutionResult{
		Outcome:     types.OutcomeFailure,
		FailureKind: string(failure.Transient),
		Message:     message,
		ProviderTag: tag,
		StartedAt:   time.Now(),
		FinishedAt:  time.Now(),
		Intent:      intent,
	}
}

func mergedFailure(intent types.PaymentIntent, primaryTag string, primary types.ExecutionResult, fallbackTag string, fallback types.ExecutionResult) types.ExecutionResult {
	return types.ExecutionResult{
		Outcome:     types.OutcomeFailure,
		FailureKind: fallback.FailureKind,
		Message: fmt.Sprintf("primary %q failed: %s; fallback %q failed: %s",
			primaryTag, primary.Message, fallbackTag, fallback.Message),
		ProviderTag: fallbackTag,
		StartedAt:   primary.StartedAt,
		FinishedAt:  time.Now(),
		Intent:      intent,
	}
}
