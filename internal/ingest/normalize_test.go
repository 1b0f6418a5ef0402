package ingest

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/speisly/mensa-api/internal/mensaapi"
)

func strp(s string) *string { return &s }

func food(id int, name string, prices ...float64) mensaapi.Food {
	f := mensaapi.Food{ID: id, Name: strp(name), Price1: 2.5, Price2: 3.9, Price3: 5.1}
	if len(prices) == 3 {
		f.Price1, f.Price2, f.Price3 = prices[0], prices[1], prices[2]
	}
	return f
}

func entry(id, loc int, date string, f mensaapi.Food) mensaapi.FoodPlanItem {
	return mensaapi.FoodPlanItem{ID: id, Date: date, LocationID: loc, Food: f}
}

var testLocations = []mensaapi.Location{
	{ID: 1, Name: "Mensa am Zoo (Halle)"},
	{ID: 2, Name: "Café Universitätsplatz"},
	{ID: 7, Name: "Excluded Mensa"},
}

func TestValidate(t *testing.T) {
	if err := Validate(nil); !errors.Is(err, ErrNoFoodPlans) {
		t.Fatalf("nil -> %v", err)
	}
	if err := Validate(&mensaapi.FoodPlanResponse{}); !errors.Is(err, ErrNoFoodPlans) {
		t.Fatalf("empty -> %v", err)
	}
	big := &mensaapi.FoodPlanResponse{Data: make([]mensaapi.FoodPlanItem, MaxFoodPlans+1)}
	if err := Validate(big); !errors.Is(err, ErrTooManyFoodPlans) {
		t.Fatalf("oversized -> %v", err)
	}
	ok := &mensaapi.FoodPlanResponse{Data: make([]mensaapi.FoodPlanItem, MaxFoodPlans)}
	if err := Validate(ok); err != nil {
		t.Fatalf("at ceiling -> %v", err)
	}
}

func TestToCents(t *testing.T) {
	cases := map[float64]int{0: 0, 1.5: 150, 2.35: 235, 3.1: 310, 1.005: 100, 0.125: 13, 4.999: 500}
	for in, want := range cases {
		if got := ToCents(in); got != want {
			t.Fatalf("ToCents(%v) = %d; want %d", in, got, want)
		}
	}
}

func TestNormalize_GroupsAndSeedsFromFirstEntry(t *testing.T) {
	first := food(100, "Gulasch")
	second := food(100, "Gulasch (renamed)")
	resp := &mensaapi.FoodPlanResponse{
		Data: []mensaapi.FoodPlanItem{
			entry(1, 1, "2025-03-10", first),
			entry(2, 2, "2025-03-11", second),
			entry(3, 1, "2025-03-10", food(200, "Suppe")),
		},
	}
	meals, anomalies := Normalize(resp, testLocations)
	if len(anomalies) != 0 {
		t.Fatalf("unexpected anomalies: %+v", anomalies)
	}
	if len(meals) != 2 || meals[0].SrcID != "100" || meals[1].SrcID != "200" {
		t.Fatalf("unexpected grouping: %+v", meals)
	}
	m := meals[0]
	if m.Name != "Gulasch" || m.PriceStud != 250 || m.PriceWork != 390 || m.PriceGuest != 510 {
		t.Fatalf("static fields not seeded from first entry: %+v", m)
	}
	if len(m.Availability) != 2 {
		t.Fatalf("want 2 availability tuples, got %d", len(m.Availability))
	}
	a := m.Availability[1]
	if a.MensaSlug != "cafe-universitaetsplatz" || a.SrcMensaID != 2 || !a.Date.Equal(time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected availability: %+v", a)
	}
}

func TestNormalize_SrcIDRemapCollapses_RegardlessOfOrder(t *testing.T) {
	for _, order := range [][2]int{{835, 1883}, {1883, 835}} {
		resp := &mensaapi.FoodPlanResponse{Data: []mensaapi.FoodPlanItem{
			entry(1, 1, "2025-03-10", food(order[0], "Apfelstrudel")),
			entry(2, 1, "2025-03-11", food(order[1], "Apfelstrudel")),
		}}
		meals, _ := Normalize(resp, testLocations)
		if len(meals) != 1 || meals[0].SrcID != "apfel_strudel" || len(meals[0].Availability) != 2 {
			t.Fatalf("order %v: remapped ids did not collapse: %+v", order, meals)
		}
	}
}

func TestNormalize_UnknownLocationIsReportedAndSkipped(t *testing.T) {
	resp := &mensaapi.FoodPlanResponse{Data: []mensaapi.FoodPlanItem{
		entry(1, 99, "2025-03-10", food(1, "Ghost")),
		entry(2, 1, "2025-03-10", food(2, "Real")),
	}}
	meals, anomalies := Normalize(resp, testLocations)
	if len(meals) != 1 || meals[0].SrcID != "2" {
		t.Fatalf("valid entry must survive: %+v", meals)
	}
	if len(anomalies) != 1 || anomalies[0].Message != "Mensa not found" || anomalies[0].Ctx["location_id"] != 99 {
		t.Fatalf("unexpected anomalies: %+v", anomalies)
	}
	if _, hasFood := anomalies[0].Ctx["food"]; hasFood {
		t.Fatalf("anomaly context must not carry the food payload")
	}
}

func TestNormalize_ExcludedLocationsDroppedSilently(t *testing.T) {
	resp := &mensaapi.FoodPlanResponse{Data: []mensaapi.FoodPlanItem{
		entry(1, 7, "2025-03-10", food(1, "A")),
		entry(2, 13, "2025-03-10", food(2, "B")), // excluded and unknown
	}}
	meals, anomalies := Normalize(resp, testLocations)
	if len(meals) != 0 || len(anomalies) != 0 {
		t.Fatalf("excluded locations must produce nothing: %+v %+v", meals, anomalies)
	}
}

func TestNormalize_FallbackLocationPatched(t *testing.T) {
	resp := &mensaapi.FoodPlanResponse{Data: []mensaapi.FoodPlanItem{
		entry(1, 20, "2025-03-10", food(1, "A")),
	}}
	meals, anomalies := Normalize(resp, testLocations)
	if len(anomalies) != 0 || len(meals) != 1 || meals[0].Availability[0].MensaSlug != "unbekannt" {
		t.Fatalf("fallback location not applied: %+v %+v", meals, anomalies)
	}
}

func TestNormalize_InvalidDateReported(t *testing.T) {
	resp := &mensaapi.FoodPlanResponse{Data: []mensaapi.FoodPlanItem{
		entry(1, 1, "10.03.2025", food(1, "A")),
		entry(2, 1, "2025-03-10T00:00:00.000Z", food(2, "B")),
	}}
	meals, anomalies := Normalize(resp, testLocations)
	if len(anomalies) != 1 || len(meals) != 1 || meals[0].SrcID != "2" {
		t.Fatalf("unexpected result: %+v %+v", meals, anomalies)
	}
}

func TestNormalize_DefaultsForNullNames(t *testing.T) {
	f := mensaapi.Food{ID: 5, Price1: 1, Price2: 1, Price3: 1, ImageURL: strp("https://img/x.jpg")}
	meals, _ := Normalize(&mensaapi.FoodPlanResponse{Data: []mensaapi.FoodPlanItem{entry(1, 1, "2025-03-10", f)}}, testLocations)
	if meals[0].Name != "unbekannt" || meals[0].Subtitle != "" || *meals[0].ImgPath != "https://img/x.jpg" {
		t.Fatalf("unexpected defaults: %+v", meals[0])
	}
}

func TestResolveIngredients(t *testing.T) {
	meta := mensaapi.Meta{
		Ingredients: map[string]string{"A": "Gluten", "51": "shadowed"},
		Markers:     map[string]string{"51": "vegetarisch", "52": "vegan"},
	}
	got := ResolveIngredients([]string{"A", "52", "51", "Z"}, meta)
	want := []string{"A:Gluten", "52:vegan", "51:shadowed", "Z:Unbekannt"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ResolveIngredients = %v; want %v", got, want)
	}
}

func TestExtras_FiltersEmptyKeepsOrder(t *testing.T) {
	f := mensaapi.Food{Extra1: strp(""), Extra2: strp("Salat"), Extra3: nil, Extra4: strp("Reis")}
	if got := Extras(f); !reflect.DeepEqual(got, []string{"Salat", "Reis"}) {
		t.Fatalf("Extras = %v", got)
	}
}

func TestPolicy(t *testing.T) {
	for raw, want := range map[int]string{835: "apfel_strudel", 1883: "apfel_strudel", 1522: "pp_burger", 1492: "pp_burger", 1614: "k_suppe", 1641: "k_suppe", 42: "42"} {
		if got := NormalizeSrcID(raw); got != want {
			t.Fatalf("NormalizeSrcID(%d) = %q; want %q", raw, got, want)
		}
	}
	for _, id := range []int{7, 8, 13, 16, 22} {
		if !IsExcludedLocation(id) {
			t.Fatalf("location %d must be excluded", id)
		}
	}
	if IsExcludedLocation(20) {
		t.Fatalf("fallback location must not be excluded")
	}

	in := []mensaapi.Location{{ID: 1, Name: "A"}}
	out := PatchLocations(in)
	if len(out) != 2 || out[1] != FallbackLocation || len(in) != 1 {
		t.Fatalf("PatchLocations = %+v (input %+v)", out, in)
	}
	present := []mensaapi.Location{{ID: 20, Name: "Real name"}}
	if got := PatchLocations(present); len(got) != 1 || got[0].Name != "Real name" {
		t.Fatalf("existing location 20 must win: %+v", got)
	}
}
