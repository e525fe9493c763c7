package optimizer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bossing/basket-service/internal/catalog"
)

// CircuitBreakerState represents the state of the circuit breaker.
type CircuitBreakerState int

const (
	// CircuitClosed allows requests to pass through.
	CircuitClosed CircuitBreakerState = iota

	// CircuitOpen rejects requests immediately.
	CircuitOpen

	// CircuitHalfOpen allows a few trial requests to check if the backend recovered.
	CircuitHalfOpen
)

// String returns the string representation of the circuit breaker state.
func (s CircuitBreakerState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures before opening the circuit.
	MaxFailures int

	// ResetTimeout is how long to wait before attempting a reset (half-open state).
	ResetTimeout time.Duration

	// HalfOpenMaxCalls is the number of successful calls needed to close again.
	HalfOpenMaxCalls int
}

// DefaultCircuitBreakerConfig returns the default circuit breaker configuration.
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		MaxFailures:      5,
		ResetTimeout:     30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// CircuitBreaker trips after repeated catalog outages so requests fail fast
// instead of queueing on a dead backend.
type CircuitBreaker struct {
	mu              sync.Mutex
	state           CircuitBreakerState
	failureCount    int
	successCount    int // Used in half-open state
	lastFailureTime time.Time
	config          *CircuitBreakerConfig
	metrics         *MetricsRecorder
	logger          zerolog.Logger
	name            string
	now             func() time.Time
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(name string, config *CircuitBreakerConfig, metrics *MetricsRecorder, logger zerolog.Logger) *CircuitBreaker {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}
	if metrics == nil {
		metrics = NewMetricsRecorder()
	}

	cb := &CircuitBreaker{
		state:   CircuitClosed,
		config:  config,
		metrics: metrics,
		logger:  logger,
		name:    name,
		now:     time.Now,
	}
	cb.metrics.RecordBreakerState(name, CircuitClosed)
	return cb
}

// Allow returns true if the request should be allowed through the circuit breaker.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true

	case CircuitOpen:
		if cb.now().Sub(cb.lastFailureTime) >= cb.config.ResetTimeout {
			cb.transitionTo(CircuitHalfOpen)
			cb.logger.Info().
				Str("circuit_breaker", cb.name).
				Msg("Circuit breaker transitioning to half-open")
			return true
		}
		return false

	case CircuitHalfOpen:
		return cb.successCount < cb.config.HalfOpenMaxCalls

	default:
		return false
	}
}

// RecordSuccess records a successful operation.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		cb.failureCount = 0

	case CircuitHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.config.HalfOpenMaxCalls {
			cb.transitionTo(CircuitClosed)
			cb.logger.Info().
				Str("circuit_breaker", cb.name).
				Int("success_count", cb.successCount).
				Msg("Circuit breaker closing after successful recovery")
			cb.successCount = 0
			cb.failureCount = 0
		}
	}
}

// RecordFailure records a failed operation.
func (cb *CircuitBreaker) RecordFailure(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = cb.now()

	cb.logger.Error().
		Err(err).
		Str("circuit_breaker", cb.name).
		Int("failure_count", cb.failureCount).
		Msg("Circuit breaker recording failure")

	switch cb.state {
	case CircuitClosed:
		if cb.failureCount >= cb.config.MaxFailures {
			cb.transitionTo(CircuitOpen)
			cb.logger.Warn().
				Str("circuit_breaker", cb.name).
				Int("failure_count", cb.failureCount).
				Dur("reset_timeout", cb.config.ResetTimeout).
				Msg("Circuit breaker opening after max failures")
		}

	case CircuitHalfOpen:
		// Any failure in half-open immediately opens the circuit
		cb.transitionTo(CircuitOpen)
		cb.logger.Warn().
			Str("circuit_breaker", cb.name).
			Msg("Circuit breaker re-opening after failure in half-open state")
		cb.successCount = 0
	}
}

func (cb *CircuitBreaker) transitionTo(newState CircuitBreakerState) {
	cb.state = newState
	cb.metrics.RecordBreakerState(cb.name, newState)
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// FailureCount returns the current failure count.
func (cb *CircuitBreaker) FailureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureCount
}

// Reset resets the circuit breaker to closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.transitionTo(CircuitClosed)
	cb.failureCount = 0
	cb.successCount = 0

	cb.logger.Info().
		Str("circuit_breaker", cb.name).
		Msg("Circuit breaker manually reset to closed state")
}

// GuardedProvider wraps a catalog provider with a circuit breaker. Only
// catalog outages count as failures; an open circuit is reported as an outage.
type GuardedProvider struct {
	inner   catalog.Provider
	breaker *CircuitBreaker
}

// NewGuardedProvider wraps inner with breaker.
func NewGuardedProvider(inner catalog.Provider, breaker *CircuitBreaker) *GuardedProvider {
	return &GuardedProvider{inner: inner, breaker: breaker}
}

// Breaker returns the circuit breaker guarding the provider.
func (g *GuardedProvider) Breaker() *CircuitBreaker {
	return g.breaker
}

func (g *GuardedProvider) before() error {
	if !g.breaker.Allow() {
		return fmt.Errorf("%w: circuit breaker %s is %s", catalog.ErrCatalogUnavailable, g.breaker.name, g.breaker.State())
	}
	return nil
}

func (g *GuardedProvider) after(err error) {
	switch {
	case err == nil:
		g.breaker.RecordSuccess()
	case catalog.IsUnavailable(err):
		g.breaker.RecordFailure(err)
	}
}

// ListActiveStores implements catalog.Provider.
func (g *GuardedProvider) ListActiveStores(ctx context.Context) ([]catalog.Store, error) {
	if err := g.before(); err != nil {
		return nil, err
	}
	stores, err := g.inner.ListActiveStores(ctx)
	g.after(err)
	return stores, err
}

// FindProductByID implements catalog.Provider.
func (g *GuardedProvider) FindProductByID(ctx context.Context, id string) (*catalog.CandidateProduct, bool, error) {
	if err := g.before(); err != nil {
		return nil, false, err
	}
	p, ok, err := g.inner.FindProductByID(ctx, id)
	g.after(err)
	return p, ok, err
}

// SearchByNormalizedSubstring implements catalog.Provider.
func (g *GuardedProvider) SearchByNormalizedSubstring(ctx context.Context, term string, limit int) ([]*catalog.CandidateProduct, error) {
	if err := g.before(); err != nil {
		return nil, err
	}
	results, err := g.inner.SearchByNormalizedSubstring(ctx, term, limit)
	g.after(err)
	return results, err
}

// Snapshot implements catalog.Snapshotter. When the inner provider can pin a
// snapshot, the pinned view is returned behind the same breaker.
func (g *GuardedProvider) Snapshot(ctx context.Context) (catalog.Provider, error) {
	sn, ok := g.inner.(catalog.Snapshotter)
	if !ok {
		return g, nil
	}
	if err := g.before(); err != nil {
		return nil, err
	}
	p, err := sn.Snapshot(ctx)
	g.after(err)
	if err != nil {
		return nil, err
	}
	return NewGuardedProvider(p, g.breaker), nil
}

// Ping implements catalog.Provider. Health checks bypass the breaker so
// readiness reflects the backend itself.
func (g *GuardedProvider) Ping(ctx context.Context) error {
	return g.inner.Ping(ctx)
}

// WarmupGate blocks operations until warmup is complete.
type WarmupGate struct {
	mu       sync.RWMutex
	ready    bool
	warmedCh chan struct{}
	logger   zerolog.Logger
}

// NewWarmupGate creates a new warmup gate.
func NewWarmupGate(logger zerolog.Logger) *WarmupGate {
	return &WarmupGate{
		warmedCh: make(chan struct{}),
		logger:   logger,
	}
}

// Wait blocks until warmup is complete or context is cancelled.
// Returns false if the context was cancelled before warmup completed.
func (wg *WarmupGate) Wait(ctx context.Context) bool {
	wg.mu.RLock()
	ready := wg.ready
	ch := wg.warmedCh
	wg.mu.RUnlock()

	if ready {
		return true
	}

	wg.logger.Debug().Msg("Warmup gate: waiting for warmup to complete")

	select {
	case <-ch:
		return true
	case <-ctx.Done():
		wg.logger.Warn().Msg("Warmup gate: context cancelled while waiting for warmup")
		return false
	}
}

// Ready marks the warmup as complete.
func (wg *WarmupGate) Ready() {
	wg.mu.Lock()
	defer wg.mu.Unlock()

	if !wg.ready {
		wg.ready = true
		close(wg.warmedCh)
		wg.logger.Info().Msg("Warmup gate: warmup complete, allowing requests")
	}
}

// IsReady returns whether warmup is complete without blocking.
func (wg *WarmupGate) IsReady() bool {
	wg.mu.RLock()
	defer wg.mu.RUnlock()
	return wg.ready
}
