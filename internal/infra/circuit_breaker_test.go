package infra_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dzn7/meuburguer-sub000/internal/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFeed = errors.New("feed down")

func failing() error { return errFeed }
func passing() error { return nil }

func TestCircuitBreakerTripsAfterThreshold(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OpenTimeout:      time.Minute,
	})

	for i := 0; i < 3; i++ {
		err := cb.Execute(failing)
		require.ErrorIs(t, err, errFeed)
	}
	assert.Equal(t, infra.CBOpen, cb.State())

	// While open, calls fast-fail without invoking fn.
	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, infra.ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreakerRecoversThroughHalfOpen(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		OpenTimeout:      10 * time.Millisecond,
	})

	require.Error(t, cb.Execute(failing))
	assert.Equal(t, infra.CBOpen, cb.State())

	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, infra.CBHalfOpen, cb.State())

	// One probe success is not enough with SuccessThreshold=2.
	require.NoError(t, cb.Execute(passing))
	assert.Equal(t, infra.CBHalfOpen, cb.State())

	require.NoError(t, cb.Execute(passing))
	assert.Equal(t, infra.CBClosed, cb.State())
}

func TestCircuitBreakerProbeFailureReopens(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		OpenTimeout:      10 * time.Millisecond,
	})

	require.Error(t, cb.Execute(failing))
	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, infra.CBHalfOpen, cb.State())

	require.Error(t, cb.Execute(failing))
	assert.Equal(t, infra.CBOpen, cb.State())
}

func TestCircuitBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		OpenTimeout:      time.Minute,
	})

	require.Error(t, cb.Execute(failing))
	require.NoError(t, cb.Execute(passing))
	require.Error(t, cb.Execute(failing))

	// Failures interleaved with a success never reach the threshold.
	assert.Equal(t, infra.CBClosed, cb.State())
}
