package domain

import "testing"

func TestGenerateFlags(t *testing.T) {
	tests := []struct {
		name     string
		meal     string
		subtitle string
		ings     []string
		want     MealFlags
	}{
		{"vegan implies veggie", "Tofu", "", []string{"52:vegan"}, MealFlags{IsVegan: true, IsVeggie: true}},
		{"veggie", "Pasta", "", []string{"51:vegetarisch", "A:Gluten"}, MealFlags{IsVeggie: true}},
		{"meat codes", "Gulasch", "", []string{"46:Rind"}, MealFlags{ContainsMeat: true}},
		{"fish", "Lachs", "", []string{"48:Fisch"}, MealFlags{ContainsFish: true}},
		{"animal rennet", "Käsespätzle", "", []string{"51:vegetarisch", "67:tierisches Lab"}, MealFlags{IsVeggie: true, NotVeggie: true}},
		{"small by weight", "Salat", "100 g", nil, MealFlags{IsSmall: true}},
		{"small by buffet", "Gemüse VOM BÜFETT", "", nil, MealFlags{IsSmall: true}},
		{"code prefix only", "Eintopf", "", []string{"152:Unbekannt"}, MealFlags{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateFlags(tt.meal, tt.subtitle, tt.ings); got != tt.want {
				t.Fatalf("GenerateFlags() = %+v; want %+v", got, tt.want)
			}
		})
	}
}

func TestMealFlags_Matches(t *testing.T) {
	vegan := MealFlags{IsVegan: true, IsVeggie: true}
	cheese := MealFlags{IsVeggie: true, NotVeggie: true}
	meat := MealFlags{ContainsMeat: true}

	if !vegan.Matches("vegan") || !vegan.Matches("veggie") || vegan.Matches("meat") {
		t.Fatalf("vegan flags matched unexpectedly")
	}
	if cheese.Matches("veggie") {
		t.Fatalf("animal rennet must not count as veggie")
	}
	if !meat.Matches("MEAT") || meat.Matches("fish") {
		t.Fatalf("meat flags matched unexpectedly")
	}
	if !meat.Matches("") || !meat.Matches("unknown") {
		t.Fatalf("empty/unknown diet should match everything")
	}
}
