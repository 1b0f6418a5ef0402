// Package services – SyncService
//
// This file implements SyncService, which orchestrates one reconciliation
// pass: fetch food plans and locations from the upstream API, normalize
// them, reconcile every meal, and rebuild the meal search index.
//
// A pass moves through idle → fetching → normalizing → reconciling → done.
// Upstream failures end the pass early in the error state with an empty
// result; they are reported, never returned. Passes within one process are
// serialized.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/speisly/mensa-api/internal/ingest"
	"github.com/speisly/mensa-api/internal/mensaapi"
	"github.com/speisly/mensa-api/internal/repo"
	"github.com/speisly/mensa-api/internal/search"
	"github.com/speisly/mensa-api/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Data source every synced meal belongs to.
const (
	DataSourceName = "Meine Mensa API"
	DataSourceSlug = "meine-mensa-api"
)

// SyncMode selects the fetch window.
type SyncMode string

const (
	// SyncFull covers today through today+WindowDays.
	SyncFull SyncMode = "full"
	// SyncRefresh covers today only.
	SyncRefresh SyncMode = "refresh"
)

// SyncState is the pass state reported in results and logs.
type SyncState string

const (
	StateIdle        SyncState = "idle"
	StateFetching    SyncState = "fetching"
	StateNormalizing SyncState = "normalizing"
	StateReconciling SyncState = "reconciling"
	StateDone        SyncState = "done"
	StateError       SyncState = "error"
)

// MealSource is the upstream contract used by a pass.
type MealSource interface {
	FoodPlans(ctx context.Context, from, to string, locationID int) (*mensaapi.FoodPlanResponse, error)
	Locations(ctx context.Context) ([]mensaapi.Location, error)
}

// SyncResult summarizes one pass.
type SyncResult struct {
	Mode      SyncMode            `json:"mode"`
	State     SyncState           `json:"state"`
	From      string              `json:"from"`
	To        string              `json:"to"`
	Entries   int                 `json:"entries"`
	Meals     map[MealOutcome]int `json:"meals"`
	Anomalies int                 `json:"anomalies"`
	Elapsed   time.Duration       `json:"elapsed"`
}

var (
	syncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mensa_sync_runs_total",
			Help: "Sync passes by mode and terminal state.",
		},
		[]string{"mode", "state"},
	)
	syncDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mensa_sync_duration_seconds",
			Help:    "Duration of sync passes.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"mode"},
	)
	syncMeals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mensa_sync_meals_total",
			Help: "Meal records reconciled, by outcome.",
		},
		[]string{"outcome"},
	)
	syncAnomalies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mensa_sync_anomalies_total",
			Help: "Upstream anomalies detected during sync, by kind.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(syncRuns, syncDuration, syncMeals, syncAnomalies)
}

// SyncService runs reconciliation passes.
type SyncService struct {
	DB       *gorm.DB
	Source   MealSource
	Reporter Reporter
	// Index, when set, is rebuilt from the meal table after each pass.
	Index *search.Holder
	// IndexOptions are passed to search.NewIndex on rebuild.
	IndexOptions []search.Option
	// WindowDays is the forward window of a full pass.
	WindowDays int

	now func() time.Time
	mu  sync.Mutex
}

// NewSyncService wires a sync service with a 7-day full window.
func NewSyncService(db *gorm.DB, src MealSource, reporter Reporter, idx *search.Holder) *SyncService {
	return &SyncService{DB: db, Source: src, Reporter: reporter, Index: idx, WindowDays: 7}
}

// Window returns the inclusive UTC date window for mode.
func (s *SyncService) Window(mode SyncMode) (from, to time.Time) {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	from = utils.Day(now().UTC())
	to = from
	if mode == SyncFull {
		to = from.AddDate(0, 0, s.WindowDays)
	}
	return from, to
}

// Run executes one pass. The returned error is non-nil only for store
// failures that prevent the pass from starting or finishing; upstream
// problems yield a result in StateError.
func (s *SyncService) Run(ctx context.Context, mode SyncMode) (*SyncResult, error) {
	if mode != SyncRefresh {
		mode = SyncFull
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	from, to := s.Window(mode)
	res := &SyncResult{
		Mode:  mode,
		State: StateIdle,
		From:  from.Format(time.DateOnly),
		To:    to.Format(time.DateOnly),
		Meals: map[MealOutcome]int{},
	}

	ctx, span := otel.Tracer("services/SyncService").Start(ctx, "Run",
		trace.WithAttributes(
			attribute.String("sync.mode", string(mode)),
			attribute.String("sync.from", res.From),
			attribute.String("sync.to", res.To),
		),
	)
	defer span.End()

	start := time.Now()
	err := s.run(ctx, res, from, to)
	res.Elapsed = time.Since(start)

	syncRuns.WithLabelValues(string(mode), string(res.State)).Inc()
	syncDuration.WithLabelValues(string(mode)).Observe(res.Elapsed.Seconds())
	span.SetAttributes(attribute.String("sync.state", string(res.State)))

	ev := log.Info()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ev = log.Error().Err(err)
	}
	ev.Str("mode", string(mode)).
		Str("state", string(res.State)).
		Str("from", res.From).
		Str("to", res.To).
		Int("entries", res.Entries).
		Int("created", res.Meals[OutcomeCreated]).
		Int("updated", res.Meals[OutcomeUpdated]).
		Int("unchanged", res.Meals[OutcomeUnchanged]).
		Int("skipped", res.Meals[OutcomeSkipped]).
		Int("failed", res.Meals[OutcomeFailed]).
		Int("anomalies", res.Anomalies).
		Msgf("Sync completed in %s", FormatElapsed(res.Elapsed))

	return res, err
}

func (s *SyncService) run(ctx context.Context, res *SyncResult, from, to time.Time) error {
	reporter := s.Reporter
	if reporter == nil {
		reporter = nopReporter{}
	}

	ds, err := repo.GetOrCreateDataSource(ctx, s.DB, DataSourceName, DataSourceSlug)
	if err != nil {
		res.State = StateError
		return fmt.Errorf("data source: %w", err)
	}

	res.State = StateFetching
	resp, err := s.Source.FoodPlans(ctx, res.From, res.To, 0)
	if err != nil {
		res.State = StateError
		s.anomaly(ctx, reporter, res, "fetch", "Failed to fetch food plans", map[string]any{
			"dateFrom": res.From, "dateTo": res.To, "error": err.Error(),
		})
		return nil
	}
	if resp != nil {
		res.Entries = len(resp.Data)
	}

	if err := ingest.Validate(resp); err != nil {
		// An empty window (weekend, holiday) is a legitimate no-op.
		res.State = StateDone
		if errors.Is(err, ingest.ErrTooManyFoodPlans) {
			res.State = StateError
			s.anomaly(ctx, reporter, res, "too_many", "Too many food plans found", map[string]any{
				"dateFrom": res.From, "dateTo": res.To, "count": res.Entries,
			})
		} else {
			log.Info().Str("from", res.From).Str("to", res.To).Msg("no food plans found")
		}
		return nil
	}

	locations, err := s.Source.Locations(ctx)
	if err != nil {
		res.State = StateError
		s.anomaly(ctx, reporter, res, "fetch", "Failed to fetch locations", map[string]any{"error": err.Error()})
		return nil
	}

	res.State = StateNormalizing
	records, anomalies := ingest.Normalize(resp, locations)
	for _, a := range anomalies {
		s.anomaly(ctx, reporter, res, anomalyKind(a.Message), a.Message, a.Ctx)
	}

	res.State = StateReconciling
	rec, err := NewReconciler(ctx, s.DB, reporter, ds.Slug, records, from, to)
	if err != nil {
		res.State = StateError
		return err
	}
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			res.State = StateError
			return err
		}
		outcome := rec.Apply(ctx, r)
		res.Meals[outcome]++
		syncMeals.WithLabelValues(string(outcome)).Inc()
		if outcome == OutcomeSkipped {
			res.Anomalies++
			syncAnomalies.WithLabelValues("price_zero").Inc()
		}
	}

	if err := s.RebuildIndex(ctx); err != nil {
		log.Warn().Err(err).Msg("search index rebuild failed")
	}
	res.State = StateDone
	return nil
}

func (s *SyncService) anomaly(ctx context.Context, r Reporter, res *SyncResult, kind, msg string, fields map[string]any) {
	res.Anomalies++
	syncAnomalies.WithLabelValues(kind).Inc()
	r.Report(ctx, msg, fields)
}

func anomalyKind(msg string) string {
	switch msg {
	case "Mensa not found":
		return "unknown_location"
	case "Invalid food plan date":
		return "invalid_date"
	default:
		return "other"
	}
}

// RebuildIndex replaces the search index with one built from all meals.
func (s *SyncService) RebuildIndex(ctx context.Context) error {
	if s.Index == nil {
		return nil
	}
	meals, err := repo.ListMeals(ctx, s.DB)
	if err != nil {
		return err
	}
	docs := make([]search.Document, 0, len(meals))
	for _, m := range meals {
		text := m.Name
		if m.Subtitle != "" {
			text += " " + m.Subtitle
		}
		docs = append(docs, search.Document{ID: m.ID, Text: text})
	}
	s.Index.Store(search.NewIndex(docs, s.IndexOptions...))
	log.Debug().Int("docs", s.Index.Len()).Msg("search index rebuilt")
	return nil
}

// FormatElapsed renders d as "830 ms" below one second and "1.23 s" above.
func FormatElapsed(d time.Duration) string {
	ms := d.Round(time.Millisecond).Milliseconds()
	if ms > 1000 {
		return fmt.Sprintf("%.2f s", float64(ms)/1000)
	}
	return fmt.Sprintf("%d ms", ms)
}
