package mensaapi

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
)

var (
	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "upstream_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		},
		[]string{"name"},
	)
	breakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_circuit_breaker_requests_total",
			Help: "Upstream requests by circuit breaker outcome.",
		},
		[]string{"name", "result"},
	)
)

func init() {
	prometheus.MustRegister(breakerState, breakerRequests)
}

// defaultBreakerSettings opens the circuit after 5 consecutive failures and
// probes again after one minute.
func defaultBreakerSettings() gobreaker.Settings {
	return gobreaker.Settings{
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
}

func newBreaker(name string, s gobreaker.Settings) *gobreaker.CircuitBreaker[[]byte] {
	s.Name = name
	if s.IsSuccessful == nil {
		s.IsSuccessful = func(err error) bool {
			// 4xx is a request problem, not an upstream outage.
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < 500
			}
			return err == nil
		}
	}
	s.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn().
			Str("breaker", name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("circuit breaker state change")
		breakerState.WithLabelValues(name).Set(stateToFloat(to))
	}
	breakerState.WithLabelValues(name).Set(0)
	return gobreaker.NewCircuitBreaker[[]byte](s)
}

func (c *Client) execute(fn func() ([]byte, error)) ([]byte, error) {
	body, err := c.cb.Execute(fn)
	switch {
	case err == nil:
		breakerRequests.WithLabelValues(c.name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		breakerRequests.WithLabelValues(c.name, "rejected").Inc()
	default:
		breakerRequests.WithLabelValues(c.name, "failure").Inc()
	}
	return body, err
}

// State returns the current breaker state.
func (c *Client) State() gobreaker.State {
	return c.cb.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
