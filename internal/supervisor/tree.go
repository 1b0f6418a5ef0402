// Package supervisor arranges the long-running parts of the process in a
// suture tree: the HTTP server in the API layer and the sync scheduler in
// the jobs layer. Each layer restarts its own children with backoff.
package supervisor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// TreeConfig holds the restart policy shared by every supervisor in the tree.
type TreeConfig struct {
	// FailureThreshold is the number of failures tolerated before backoff.
	FailureThreshold float64
	// FailureDecay is the half-life, in seconds, of the failure count.
	FailureDecay float64
	// FailureBackoff is how long to wait once the threshold is exceeded.
	FailureBackoff time.Duration
	// ShutdownTimeout bounds how long a service may take to stop.
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns the restart policy used in production.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree is the process supervisor.
type Tree struct {
	root   *suture.Supervisor
	api    *suture.Supervisor
	jobs   *suture.Supervisor
	config TreeConfig
}

// NewTree builds the root supervisor "mensa-api" with an "api-layer" and a
// "jobs-layer". Zero values in cfg fall back to DefaultTreeConfig.
func NewTree(logger zerolog.Logger, cfg TreeConfig) *Tree {
	def := DefaultTreeConfig()
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.FailureDecay == 0 {
		cfg.FailureDecay = def.FailureDecay
	}
	if cfg.FailureBackoff == 0 {
		cfg.FailureBackoff = def.FailureBackoff
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}

	spec := suture.Spec{
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
		EventHook:        EventHook(logger),
	}

	root := suture.New("mensa-api", spec)
	api := suture.New("api-layer", spec)
	jobs := suture.New("jobs-layer", spec)
	root.Add(api)
	root.Add(jobs)

	return &Tree{root: root, api: api, jobs: jobs, config: cfg}
}

// AddAPIService adds a service to the API layer.
func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// AddJobService adds a service to the jobs layer.
func (t *Tree) AddJobService(svc suture.Service) suture.ServiceToken {
	return t.jobs.Add(svc)
}

// Serve runs the tree until ctx is cancelled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that failed to stop in time.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}

// EventHook logs supervisor events through zerolog.
func EventHook(logger zerolog.Logger) suture.EventHook {
	return func(ev suture.Event) {
		var e *zerolog.Event
		switch ev.Type() {
		case suture.EventTypeServicePanic, suture.EventTypeStopTimeout:
			e = logger.Error()
		case suture.EventTypeServiceTerminate, suture.EventTypeBackoff:
			e = logger.Warn()
		default:
			e = logger.Info()
		}
		e.Fields(ev.Map()).Msg(ev.String())
	}
}
