// Package scheduler runs the periodic sync passes: a frequent same-day
// refresh during service hours and a nightly full sync.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/speisly/mensa-api/internal/config"
	"github.com/speisly/mensa-api/internal/services"
)

// Trigger starts one sync pass in the given mode.
type Trigger interface {
	Trigger(ctx context.Context, mode services.SyncMode) error
}

// Runner is the in-process side of a sync pass.
type Runner interface {
	Run(ctx context.Context, mode services.SyncMode) (*services.SyncResult, error)
}

// LocalTrigger runs passes in the current process.
type LocalTrigger struct {
	Runner Runner
}

// Trigger implements Trigger.
func (t LocalTrigger) Trigger(ctx context.Context, mode services.SyncMode) error {
	_, err := t.Runner.Run(ctx, mode)
	return err
}

// HTTPTrigger calls the public sync endpoint so that passes run on whichever
// replica serves the request.
type HTTPTrigger struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// URL returns the endpoint for mode.
func (t HTTPTrigger) URL(mode services.SyncMode) string {
	u := strings.TrimRight(t.BaseURL, "/") + "/api/sync"
	if mode == services.SyncRefresh {
		u += "?refresh=true"
	}
	return u
}

// Trigger implements Trigger.
func (t HTTPTrigger) Trigger(ctx context.Context, mode services.SyncMode) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL(mode), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+t.Token)

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	log.Info().Str("mode", string(mode)).Int("status", resp.StatusCode).Msg("sync trigger response")
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sync trigger: %s", resp.Status)
	}
	return nil
}

// NewTrigger picks the HTTP trigger when a public URL is configured and the
// in-process one otherwise.
func NewTrigger(cfg config.Config, runner Runner) (Trigger, error) {
	if cfg.Sync.PublicURL == "" {
		if runner == nil {
			return nil, errors.New("scheduler: no sync runner")
		}
		return LocalTrigger{Runner: runner}, nil
	}
	if cfg.Auth.APIBearerToken == "" {
		return nil, errors.New("API_BEARER_TOKEN is not set")
	}
	return HTTPTrigger{
		BaseURL: cfg.Sync.PublicURL,
		Token:   cfg.Auth.APIBearerToken,
		Client:  &http.Client{Timeout: cfg.WriteTimeout},
	}, nil
}

// Scheduler owns the cron entries. It satisfies suture.Service.
type Scheduler struct {
	cron    *cron.Cron
	trigger Trigger
	timeout time.Duration
}

// New parses both sync schedules in the configured time zone. A nil
// trigger registers no sync entries; jobs added with AddJob still run.
func New(cfg config.SyncConfig, trigger Trigger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler: time zone %q: %w", cfg.Timezone, err)
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		trigger: trigger,
		timeout: 10 * time.Minute,
	}
	if trigger == nil {
		return s, nil
	}
	if _, err := s.cron.AddFunc(cfg.RefreshCron, func() { s.fire(services.SyncRefresh) }); err != nil {
		return nil, fmt.Errorf("scheduler: refresh schedule %q: %w", cfg.RefreshCron, err)
	}
	if _, err := s.cron.AddFunc(cfg.FullCron, func() { s.fire(services.SyncFull) }); err != nil {
		return nil, fmt.Errorf("scheduler: full schedule %q: %w", cfg.FullCron, err)
	}
	return s, nil
}

// AddJob registers a maintenance job. Failures are logged and the job
// runs again on its next tick.
func (s *Scheduler) AddJob(spec, name string, fn func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Error().Err(err).Str("job", name).Msg("scheduled job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("scheduler: %s schedule %q: %w", name, spec, err)
	}
	return nil
}

// Entries exposes the registered schedules.
func (s *Scheduler) Entries() []cron.Entry { return s.cron.Entries() }

func (s *Scheduler) fire(mode services.SyncMode) {
	if mode == services.SyncRefresh {
		log.Info().Msg("[cron] Cache refresh")
	} else {
		log.Info().Msg("[cron] Data sync")
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.trigger.Trigger(ctx, mode); err != nil {
		log.Error().Err(err).Str("mode", string(mode)).Msg("scheduled sync failed")
	}
}

// Serve starts the cron loop and blocks until ctx is cancelled, then waits
// for any running job to finish.
func (s *Scheduler) Serve(ctx context.Context) error {
	log.Info().Int("entries", len(s.cron.Entries())).Msg("[cron] Booting...")
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return ctx.Err()
}

func (s *Scheduler) String() string { return "sync-scheduler" }
