package domain

import (
	"regexp"
	"strings"
)

// Ingredient codes the upstream source uses for dietary markers.
const (
	codeVegan        = "52"
	codeVeggie       = "51"
	codePork         = "45"
	codeBeef         = "46"
	codePoultry      = "47"
	codeFish         = "48"
	codeAnimalRennet = "67"
)

var smallMealRE = regexp.MustCompile(`(?i)(100\s*g|vom Büfett)`)

// MealFlags summarizes dietary properties derived from a meal's ingredients.
type MealFlags struct {
	IsSmall      bool `json:"is_small"`
	IsVegan      bool `json:"is_vegan"`
	IsVeggie     bool `json:"is_veggie"`
	ContainsMeat bool `json:"contains_meat"`
	ContainsFish bool `json:"contains_fish"`
	NotVeggie    bool `json:"not_veggie"`
}

// GenerateFlags derives MealFlags from "code:label" ingredient descriptors.
// Each descriptor contributes to at most one flag, checked in order vegan,
// veggie, meat, fish, animal rennet.
func GenerateFlags(name, subtitle string, ingredients []string) MealFlags {
	flags := MealFlags{IsSmall: smallMealRE.MatchString(name + subtitle)}

	for _, ing := range ingredients {
		code, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(ing)), ":")
		switch code {
		case codeVegan:
			flags.IsVegan = true
			flags.IsVeggie = true
		case codeVeggie:
			flags.IsVeggie = true
		case codePork, codeBeef, codePoultry:
			flags.ContainsMeat = true
		case codeFish:
			flags.ContainsFish = true
		case codeAnimalRennet:
			flags.NotVeggie = true
		}
	}
	return flags
}

// Matches reports whether the flags satisfy a dietary filter.
// Unknown or empty diets match everything.
func (f MealFlags) Matches(diet string) bool {
	switch strings.ToLower(diet) {
	case "vegan":
		return f.IsVegan
	case "veggie", "vegetarian":
		return f.IsVeggie && !f.NotVeggie
	case "meat":
		return f.ContainsMeat
	case "fish":
		return f.ContainsFish
	default:
		return true
	}
}
