package ingest

import (
	"strconv"

	"github.com/speisly/mensa-api/internal/mensaapi"
)

// SrcIDMappings collapses upstream food ids that are known to denote the
// same dish onto one canonical source id. Update it by hand when the
// upstream reissues ids for a recurring dish.
var SrcIDMappings = map[int]string{
	835:  "apfel_strudel",
	1883: "apfel_strudel",
	1522: "pp_burger",
	1492: "pp_burger",
	1614: "k_suppe",
	1641: "k_suppe",
}

// ExcludedLocationIDs are cafeterias this deployment does not track.
var ExcludedLocationIDs = map[int]struct{}{
	7:  {},
	8:  {},
	13: {},
	16: {},
	22: {},
}

// FallbackLocation is missing from the upstream /locations list but
// referenced by food plans.
var FallbackLocation = mensaapi.Location{ID: 20, Name: "unbekannt"}

// NormalizeSrcID returns the canonical source id for an upstream food id.
func NormalizeSrcID(foodID int) string {
	if mapped, ok := SrcIDMappings[foodID]; ok {
		return mapped
	}
	return strconv.Itoa(foodID)
}

// IsExcludedLocation reports whether entries at id are dropped by policy.
func IsExcludedLocation(id int) bool {
	_, ok := ExcludedLocationIDs[id]
	return ok
}

// PatchLocations returns locs with FallbackLocation appended when absent.
// The input slice is not modified.
func PatchLocations(locs []mensaapi.Location) []mensaapi.Location {
	for _, l := range locs {
		if l.ID == FallbackLocation.ID {
			return locs
		}
	}
	out := make([]mensaapi.Location, 0, len(locs)+1)
	out = append(out, locs...)
	return append(out, FallbackLocation)
}
