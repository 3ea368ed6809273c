package failure

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRetryable_TransientAndInternalAreRetryable(t *testing.T) {
	retryable := []Kind{Transient, Internal}
	for _, k := range retryable {
		require.True(t, k.Retryable(), "%s should be retryable", k)
	}

	notRetryable := []Kind{Protocol, Unsupported, PriceCeiling, InsufficientFunds, Verification}
	for _, k := range notRetryable {
		require.False(t, k.Retryable(), "%s should not be retryable", k)
	}
}

func TestKindOf_UnwrapsWrappedError(t *testing.T) {
	inner := New(InsufficientFunds, "balance too low")
	wrapped := fmt.Errorf("transfer failed: %w", inner)
	require.Equal(t, InsufficientFunds, KindOf(wrapped))
}

func TestKindOf_DefaultsToInternalForUncategorizedError(t *testing.T) {
	require.Equal(t, Internal, KindOf(fmt.Errorf("plain error")))
}

func TestWrap_PreservesCauseViaUnwrap(t *testing.T) {
	cause := fmt.Errorf("rpc timeout")
	err := Wrap(Transient, "submission failed", cause)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "submission failed")
	require.Contains(t, err.Error(), "rpc timeout")
}
