// Package ingest turns raw Meine Mensa food plans into normalized meal
// records ready for reconciliation. Everything here is pure: no I/O, no
// clock, no logging. Problems with individual entries are returned as
// Anomaly values for the caller to report.
package ingest

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/speisly/mensa-api/internal/mensaapi"
	"github.com/speisly/mensa-api/internal/utils"
)

// MaxFoodPlans is the sanity ceiling for one upstream response. Anything
// larger is treated as malformed.
const MaxFoodPlans = 999

const (
	defaultMealName   = "unbekannt"
	unknownIngredient = "Unbekannt"
)

var (
	// ErrNoFoodPlans means the upstream returned nothing for the window.
	ErrNoFoodPlans = errors.New("no food plans returned")
	// ErrTooManyFoodPlans means the response exceeded MaxFoodPlans entries.
	ErrTooManyFoodPlans = errors.New("too many food plans returned")
)

// Anomaly describes an upstream record that was skipped or looked wrong.
type Anomaly struct {
	Message string
	Ctx     map[string]any
}

// Availability is one (cafeteria, date) offering of a meal.
type Availability struct {
	Date        time.Time // UTC midnight
	SrcMensaID  int
	MensaName   string
	MensaSlug   string
	Ingredients []string // "code:label"
	Extras      []string
}

// MealRecord is a normalized meal with all its offerings in the window.
// Prices are in cents.
type MealRecord struct {
	SrcID        string
	Name         string
	Subtitle     string
	ImgPath      *string
	PriceStud    int
	PriceWork    int
	PriceGuest   int
	Availability []Availability
}

// Validate rejects empty and oversized responses.
func Validate(resp *mensaapi.FoodPlanResponse) error {
	if resp == nil || len(resp.Data) == 0 {
		return ErrNoFoodPlans
	}
	if len(resp.Data) > MaxFoodPlans {
		return ErrTooManyFoodPlans
	}
	return nil
}

// ToCents converts a decimal euro amount to integer cents, rounding half
// away from zero.
func ToCents(price float64) int {
	return int(math.Round(price * 100))
}

// Normalize groups food plan entries by normalized source id. The first
// entry of a group seeds the meal's static fields; every accepted entry
// adds one Availability. Output order follows first appearance.
//
// Entries at excluded locations are dropped silently. Entries whose
// location is unknown, or whose date cannot be parsed, are dropped and
// reported.
func Normalize(resp *mensaapi.FoodPlanResponse, locations []mensaapi.Location) ([]MealRecord, []Anomaly) {
	if resp == nil {
		return nil, nil
	}

	locByID := make(map[int]mensaapi.Location, len(locations))
	for _, l := range PatchLocations(locations) {
		locByID[l.ID] = l
	}

	var (
		out       []MealRecord
		anomalies []Anomaly
		index     = make(map[string]int)
	)

	for _, item := range resp.Data {
		if IsExcludedLocation(item.LocationID) {
			continue
		}
		loc, ok := locByID[item.LocationID]
		if !ok {
			anomalies = append(anomalies, Anomaly{Message: "Mensa not found", Ctx: entryContext(item)})
			continue
		}
		date, err := parseDate(item.Date)
		if err != nil {
			ctx := entryContext(item)
			ctx["error"] = err.Error()
			anomalies = append(anomalies, Anomaly{Message: "Invalid food plan date", Ctx: ctx})
			continue
		}

		srcID := NormalizeSrcID(item.Food.ID)
		i, seen := index[srcID]
		if !seen {
			out = append(out, seedMeal(srcID, item.Food))
			i = len(out) - 1
			index[srcID] = i
		}

		out[i].Availability = append(out[i].Availability, Availability{
			Date:        date,
			SrcMensaID:  loc.ID,
			MensaName:   loc.Name,
			MensaSlug:   utils.Slugify(loc.Name),
			Ingredients: ResolveIngredients(item.Food.Ingredients, resp.Meta),
			Extras:      Extras(item.Food),
		})
	}
	return out, anomalies
}

func seedMeal(srcID string, f mensaapi.Food) MealRecord {
	name := defaultMealName
	if f.Name != nil {
		name = *f.Name
	}
	subtitle := ""
	if f.Name2 != nil {
		subtitle = *f.Name2
	}
	return MealRecord{
		SrcID:      srcID,
		Name:       name,
		Subtitle:   subtitle,
		ImgPath:    f.ImageURL,
		PriceStud:  ToCents(f.Price1),
		PriceWork:  ToCents(f.Price2),
		PriceGuest: ToCents(f.Price3),
	}
}

// ResolveIngredients maps codes to "code:label", looking in ingredients
// first, then markers, falling back to "Unbekannt".
func ResolveIngredients(codes []string, meta mensaapi.Meta) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		label, ok := meta.Ingredients[code]
		if !ok {
			label, ok = meta.Markers[code]
		}
		if !ok {
			label = unknownIngredient
		}
		out = append(out, code+":"+label)
	}
	return out
}

// Extras returns the non-empty side dishes in field order.
func Extras(f mensaapi.Food) []string {
	out := make([]string, 0, 4)
	for _, e := range []*string{f.Extra1, f.Extra2, f.Extra3, f.Extra4} {
		if e != nil && *e != "" {
			out = append(out, *e)
		}
	}
	return out
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(time.DateOnly) {
		s = s[:len(time.DateOnly)]
	}
	return time.Parse(time.DateOnly, s)
}

// entryContext is the anomaly context for an entry, without the food payload.
func entryContext(item mensaapi.FoodPlanItem) map[string]any {
	return map[string]any{
		"id":          item.ID,
		"date":        item.Date,
		"counter_id":  item.CounterID,
		"location_id": item.LocationID,
		"is_sprint":   item.IsSprint,
		"food_id":     item.Food.ID,
	}
}
