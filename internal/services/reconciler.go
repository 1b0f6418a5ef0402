// Package services – Reconciler
//
// This file implements the per-meal reconciliation step of a sync pass:
// given one normalized meal record it finds or creates the canonical meal,
// records field-level changes in the change log, and finds or creates one
// availability row per (cafeteria, meal, date).
//
// Each meal is reconciled in its own transaction, so a meal update and its
// change-log rows are committed together. Unique-constraint violations on
// insert are expected when two passes overlap; they are resolved by
// re-reading the winning row.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/speisly/mensa-api/internal/domain"
	"github.com/speisly/mensa-api/internal/ingest"
	"github.com/speisly/mensa-api/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MealOutcome classifies what reconciliation did with one meal record.
type MealOutcome string

const (
	OutcomeCreated   MealOutcome = "created"
	OutcomeUpdated   MealOutcome = "updated"
	OutcomeUnchanged MealOutcome = "unchanged"
	OutcomeSkipped   MealOutcome = "skipped"
	OutcomeFailed    MealOutcome = "failed"
)

// Change-log keys.
const (
	changeKeyImgPath  = "imgPath"
	changeKeyName     = "name"
	changeKeySubtitle = "subtitle"
	changeKeyPrice    = "price"
)

// errMealSkipped aborts a meal transaction after the anomaly was recorded.
var errMealSkipped = errors.New("meal skipped")

// ----------------------------------------------------------------------------
// MensaCache

// MensaCache is a read-through cache of cafeterias keyed by slug. Its
// lifetime is one sync pass. GetOrCreate is the only mutating operation.
type MensaCache struct {
	db     *gorm.DB
	bySlug map[string]domain.Mensa
}

// NewMensaCache preloads all stored cafeterias.
func NewMensaCache(ctx context.Context, db *gorm.DB) (*MensaCache, error) {
	all, err := repo.ListMensen(ctx, db)
	if err != nil {
		return nil, err
	}
	c := &MensaCache{db: db, bySlug: make(map[string]domain.Mensa, len(all))}
	for _, m := range all {
		c.bySlug[m.Slug] = m
	}
	return c, nil
}

// GetOrCreate returns the cafeteria with slug, creating it with name on
// first sight. A concurrent creator's row is re-read and cached.
func (c *MensaCache) GetOrCreate(ctx context.Context, name, slug string) (domain.Mensa, error) {
	if m, ok := c.bySlug[slug]; ok {
		return m, nil
	}
	created, err := repo.CreateMensa(ctx, c.db, name, slug)
	if err != nil {
		if !repo.IsDuplicate(err) {
			return domain.Mensa{}, err
		}
		existing, ferr := repo.GetMensaBySlug(ctx, c.db, slug)
		if ferr != nil {
			return domain.Mensa{}, fmt.Errorf("mensa %q: %w", slug, errors.Join(err, ferr))
		}
		created = existing
	}
	c.bySlug[slug] = *created
	return *created, nil
}

// Len reports the number of cached cafeterias.
func (c *MensaCache) Len() int { return len(c.bySlug) }

// ----------------------------------------------------------------------------
// Reconciler

// Reconciler applies normalized meal records to the store for one pass.
type Reconciler struct {
	DB             *gorm.DB
	Reporter       Reporter
	DataSourceSlug string
	Mensen         *MensaCache

	// Pre-fetched candidates; misses fall back to a store query.
	meals        map[string]domain.Meal
	availability map[repo.AvailabilityKey]domain.MensaMeal
}

// NewReconciler prepares a reconciler for records, pre-fetching the meals
// they reference and all availability rows dated in [from, to].
func NewReconciler(ctx context.Context, db *gorm.DB, reporter Reporter, dataSourceSlug string, records []ingest.MealRecord, from, to time.Time) (*Reconciler, error) {
	if reporter == nil {
		reporter = nopReporter{}
	}
	mensen, err := NewMensaCache(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("load mensen: %w", err)
	}

	srcIDs := make([]string, 0, len(records))
	for _, r := range records {
		srcIDs = append(srcIDs, r.SrcID)
	}
	meals, err := repo.FindMealsBySrcIDs(ctx, db, dataSourceSlug, srcIDs)
	if err != nil {
		return nil, fmt.Errorf("load meals: %w", err)
	}
	avail, err := repo.ListAvailabilityBetween(ctx, db, from, to)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}

	return &Reconciler{
		DB:             db,
		Reporter:       reporter,
		DataSourceSlug: dataSourceSlug,
		Mensen:         mensen,
		meals:          meals,
		availability:   avail,
	}, nil
}

// Apply reconciles one meal record. It never returns an error: failures
// are reported and yield OutcomeFailed so the batch can continue.
func (r *Reconciler) Apply(ctx context.Context, rec ingest.MealRecord) MealOutcome {
	ctx, span := otel.Tracer("services/Reconciler").Start(ctx, "Apply",
		trace.WithAttributes(
			attribute.String("meal.src_id", rec.SrcID),
			attribute.Int("meal.availability", len(rec.Availability)),
		),
	)
	defer span.End()

	if rec.PriceStud == 0 || rec.PriceWork == 0 || rec.PriceGuest == 0 {
		r.Reporter.Report(ctx, "Price is 0", map[string]any{"mealData": rec})
		return OutcomeSkipped
	}

	// Cafeterias are resolved outside the meal transaction so a rolled-back
	// meal never leaves a cached mensa that was not committed.
	mensen := make([]domain.Mensa, len(rec.Availability))
	for i, a := range rec.Availability {
		m, err := r.Mensen.GetOrCreate(ctx, a.MensaName, a.MensaSlug)
		if err != nil {
			span.RecordError(err)
			r.Reporter.Report(ctx, "Error creating mensa", map[string]any{
				"mensaName": a.MensaName, "mensaSlug": a.MensaSlug, "error": err.Error(),
			})
			return OutcomeFailed
		}
		mensen[i] = m
	}

	var (
		outcome  MealOutcome
		meal     domain.Meal
		inserted []domain.MensaMeal
		anomaly  *ingest.Anomaly
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		meal, outcome, anomaly, err = r.upsertMeal(ctx, tx, rec)
		if err != nil {
			return err
		}
		inserted, err = r.ensureAvailability(ctx, tx, meal.ID, rec.Availability, mensen)
		return err
	})
	if anomaly != nil {
		r.Reporter.Report(ctx, anomaly.Message, anomaly.Ctx)
	}
	if err != nil {
		if !errors.Is(err, errMealSkipped) {
			span.RecordError(err)
			r.Reporter.Report(ctx, "Error reconciling meal", map[string]any{
				"src_id": rec.SrcID, "error": err.Error(),
			})
		}
		return OutcomeFailed
	}

	// Publish to the pass-local caches only after commit.
	r.meals[meal.SrcID] = meal
	for _, mm := range inserted {
		r.availability[repo.KeyOf(mm)] = mm
	}
	span.SetAttributes(attribute.String("meal.outcome", string(outcome)))
	return outcome
}

// upsertMeal finds the meal by natural key and applies changes, or creates
// it. A non-nil anomaly means the meal is skipped.
func (r *Reconciler) upsertMeal(ctx context.Context, tx *gorm.DB, rec ingest.MealRecord) (domain.Meal, MealOutcome, *ingest.Anomaly, error) {
	existing, ok := r.meals[rec.SrcID]
	if !ok {
		found, err := repo.GetMealBySrcID(ctx, tx, rec.SrcID, r.DataSourceSlug)
		switch {
		case err == nil:
			existing, ok = *found, true
		case !repo.IsNotFound(err):
			return domain.Meal{}, OutcomeFailed, nil, err
		}
	}

	if ok {
		changed, err := r.applyChanges(ctx, tx, &existing, rec)
		if err != nil {
			return domain.Meal{}, OutcomeFailed, nil, err
		}
		if changed {
			return existing, OutcomeUpdated, nil, nil
		}
		return existing, OutcomeUnchanged, nil, nil
	}

	m := domain.Meal{
		SrcID:          rec.SrcID,
		DataSourceSlug: r.DataSourceSlug,
		Name:           rec.Name,
		Subtitle:       rec.Subtitle,
		ImgPath:        rec.ImgPath,
		PriceStud:      rec.PriceStud,
		PriceWork:      rec.PriceWork,
		PriceGuest:     rec.PriceGuest,
	}
	// Nested transaction = savepoint, so a failed insert leaves tx usable.
	err := tx.Transaction(func(sp *gorm.DB) error { return repo.CreateMeal(ctx, sp, &m) })
	if err == nil {
		return m, OutcomeCreated, nil, nil
	}
	if repo.IsDuplicate(err) {
		if found, ferr := repo.GetMealBySrcID(ctx, tx, rec.SrcID, r.DataSourceSlug); ferr == nil {
			changed, cerr := r.applyChanges(ctx, tx, found, rec)
			if cerr != nil {
				return domain.Meal{}, OutcomeFailed, nil, cerr
			}
			if changed {
				return *found, OutcomeUpdated, nil, nil
			}
			return *found, OutcomeUnchanged, nil, nil
		}
	}
	return domain.Meal{}, OutcomeFailed, &ingest.Anomaly{
		Message: "Error creating meal",
		Ctx:     map[string]any{"mealData": rec, "error": err.Error()},
	}, errMealSkipped
}

// applyChanges diffs stored against incoming fields, appends one change-log
// row per differing key, then updates all changed columns at once.
func (r *Reconciler) applyChanges(ctx context.Context, tx *gorm.DB, m *domain.Meal, rec ingest.MealRecord) (bool, error) {
	logs, cols := DiffMeal(*m, rec)
	if len(logs) == 0 {
		return false, nil
	}
	for i := range logs {
		logs[i].MealID = m.ID
	}
	if err := repo.CreateChangeLogs(ctx, tx, logs); err != nil {
		return false, err
	}
	if err := repo.UpdateMealColumns(ctx, tx, m.ID, cols); err != nil {
		return false, err
	}

	m.Name = rec.Name
	m.Subtitle = rec.Subtitle
	m.ImgPath = rec.ImgPath
	m.PriceStud, m.PriceWork, m.PriceGuest = rec.PriceStud, rec.PriceWork, rec.PriceGuest
	return true, nil
}

// DiffMeal compares a stored meal with an incoming record. It returns one
// change-log entry per changed key and the columns to update. The three
// prices are tracked as a single "price" key.
func DiffMeal(m domain.Meal, rec ingest.MealRecord) ([]domain.MealChangeLog, map[string]any) {
	var logs []domain.MealChangeLog
	cols := map[string]any{}

	if deref(m.ImgPath) != deref(rec.ImgPath) || (m.ImgPath == nil) != (rec.ImgPath == nil) {
		logs = append(logs, domain.MealChangeLog{Key: changeKeyImgPath, Prev: deref(m.ImgPath), New: deref(rec.ImgPath)})
		cols["img_path"] = rec.ImgPath
	}
	if m.Name != rec.Name {
		logs = append(logs, domain.MealChangeLog{Key: changeKeyName, Prev: m.Name, New: rec.Name})
		cols["name"] = rec.Name
	}
	if m.Subtitle != rec.Subtitle {
		logs = append(logs, domain.MealChangeLog{Key: changeKeySubtitle, Prev: m.Subtitle, New: rec.Subtitle})
		cols["subtitle"] = rec.Subtitle
	}
	if m.PriceStud != rec.PriceStud || m.PriceWork != rec.PriceWork || m.PriceGuest != rec.PriceGuest {
		logs = append(logs, domain.MealChangeLog{
			Key:  changeKeyPrice,
			Prev: priceTriple(m.PriceStud, m.PriceWork, m.PriceGuest),
			New:  priceTriple(rec.PriceStud, rec.PriceWork, rec.PriceGuest),
		})
		cols["price_stud"] = rec.PriceStud
		cols["price_work"] = rec.PriceWork
		cols["price_guest"] = rec.PriceGuest
	}
	return logs, cols
}

// ensureAvailability inserts the availability rows that do not exist yet.
// Existing rows are left untouched.
func (r *Reconciler) ensureAvailability(ctx context.Context, tx *gorm.DB, mealID string, avail []ingest.Availability, mensen []domain.Mensa) ([]domain.MensaMeal, error) {
	var inserted []domain.MensaMeal
	for i, a := range avail {
		key := repo.AvailabilityKey{MensaID: mensen[i].ID, MealID: mealID, Date: a.Date.UTC()}
		if _, ok := r.availability[key]; ok {
			continue
		}
		_, err := repo.FindAvailability(ctx, tx, key.MensaID, key.MealID, key.Date)
		if err == nil {
			continue
		}
		if !repo.IsNotFound(err) {
			return nil, err
		}

		mm := domain.MensaMeal{
			MensaID:     key.MensaID,
			MealID:      key.MealID,
			Date:        key.Date,
			Ingredients: a.Ingredients,
			Extras:      a.Extras,
		}
		err = tx.Transaction(func(sp *gorm.DB) error { return repo.CreateAvailability(ctx, sp, &mm) })
		if err != nil {
			if repo.IsDuplicate(err) {
				continue
			}
			return nil, err
		}
		inserted = append(inserted, mm)
	}
	return inserted, nil
}

func priceTriple(stud, work, guest int) string {
	return strconv.Itoa(stud) + " / " + strconv.Itoa(work) + " / " + strconv.Itoa(guest)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
