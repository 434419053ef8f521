package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream timeout")

func fallar() error { return errUpstream }
func pasar() error  { return nil }

func TestCircuitBreakerAbreTrasFallosConsecutivos(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, SuccessThreshold: 1, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(fallar), errUpstream)
	}
	assert.Equal(t, CBOpen, cb.State())

	// Abierto: rechaza sin ejecutar
	assert.ErrorIs(t, cb.Execute(pasar), ErrCircuitOpen)
}

func TestCircuitBreakerExitosResetanElContador(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, SuccessThreshold: 1, OpenTimeout: time.Minute})

	require.Error(t, cb.Execute(fallar))
	require.Error(t, cb.Execute(fallar))
	require.NoError(t, cb.Execute(pasar))
	require.Error(t, cb.Execute(fallar))
	require.Error(t, cb.Execute(fallar))
	// Dos fallos tras el reset no alcanzan el umbral de tres
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreakerSondeaYRecierra(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, OpenTimeout: 10 * time.Millisecond})

	require.Error(t, cb.Execute(fallar))
	require.Equal(t, CBOpen, cb.State())

	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, CBHalfOpen, cb.State())

	// Primer sondeo exitoso no basta; el segundo cierra
	require.NoError(t, cb.Execute(pasar))
	assert.Equal(t, CBHalfOpen, cb.State())
	require.NoError(t, cb.Execute(pasar))
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreakerSondeoFallidoReabre(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, OpenTimeout: 10 * time.Millisecond})

	require.Error(t, cb.Execute(fallar))
	time.Sleep(15 * time.Millisecond)
	require.Equal(t, CBHalfOpen, cb.State())

	require.Error(t, cb.Execute(fallar))
	assert.Equal(t, CBOpen, cb.State())
}
