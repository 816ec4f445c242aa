package resolver

import (
	"regexp"
	"strings"

	"github.com/place-resolver/app/models"
	"github.com/place-resolver/internal/poi"
)

// DefaultPlaceLimit caps catalog listings.
const DefaultPlaceLimit = 12

// DefaultHubIDs are offered, in this order, when nothing narrows a listing.
var DefaultHubIDs = []string{
	"icn_airport", "gmp_airport", "nrt_airport", "hnd_airport", "hkg_airport", "tpe_airport",
	"port_miami_cruise", "port_everglades_cruise", "tokyo_intl_cruise", "incheon_port_cruise",
	"hk_kaitak_cruise", "marina_bay_cruise",
}

var (
	cruiseWordPattern  = regexp.MustCompile(`(?i)크루즈|터미널|포트|항구|\b(?:cruise|terminal|port)s?\b`)
	airportWordPattern = regexp.MustCompile(`(?i)공항|\bairports?\b`)
)

// KindsNamed reads which kinds of place text asks for. An empty result
// means airports and cruise terminals alike.
func KindsNamed(text string) []string {
	var kinds []string
	if airportWordPattern.MatchString(text) {
		kinds = append(kinds, models.POIKindAirport)
	}
	if cruiseWordPattern.MatchString(text) {
		kinds = append(kinds, models.POIKindCruise)
	}
	return kinds
}

// PlaceFilter selects airports and cruise terminals from a snapshot.
type PlaceFilter struct {
	// Countries are accepted spellings of POI.Country, compared case-insensitively.
	Countries []string
	// Kinds are POI kinds to keep. Empty keeps airports and cruise terminals.
	Kinds []string
	Limit int
}

// Place is one catalog entry.
type Place struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	City  string `json:"city,omitempty"`
	Kind  string `json:"kind"`
	Value string `json:"value"` // canonical name for links
}

// Places lists POIs matching f in dataset order: airports first, then
// cruise terminals. Military facilities are never listed.
func Places(snap *poi.Snapshot, f PlaceFilter) []Place {
	if snap == nil {
		return nil
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultPlaceLimit
	}
	kinds := f.Kinds
	if len(kinds) == 0 {
		kinds = []string{models.POIKindAirport, models.POIKindCruise}
	}

	var out []Place
	for _, kind := range kinds {
		for _, e := range snap.Entries() {
			p := e.POI
			if p.Kind() != kind || p.IsMilitary() || !countryMatches(p.Country, f.Countries) {
				continue
			}
			out = append(out, NewPlace(p))
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}

// Hubs lists the DefaultHubIDs present in snap.
func Hubs(snap *poi.Snapshot, limit int) []Place {
	if snap == nil {
		return nil
	}
	if limit <= 0 {
		limit = DefaultPlaceLimit
	}

	byID := make(map[string]models.POI, snap.Len())
	for _, e := range snap.Entries() {
		byID[e.POI.ID] = e.POI
	}

	var out []Place
	for _, id := range DefaultHubIDs {
		p, ok := byID[id]
		if !ok || p.IsMilitary() {
			continue
		}
		out = append(out, NewPlace(p))
		if len(out) == limit {
			break
		}
	}
	return out
}

// NewPlace builds a catalog entry. The label names the kind in Korean when
// the display name does not already say it.
func NewPlace(p models.POI) Place {
	kind := p.Kind()
	label := p.DisplayName()
	switch kind {
	case models.POIKindAirport:
		if !strings.Contains(label, "공항") && !strings.Contains(strings.ToLower(label), "airport") {
			label += " 공항"
		}
	case models.POIKindCruise:
		lower := strings.ToLower(label)
		if !strings.Contains(label, "크루즈") && !strings.Contains(label, "터미널") &&
			!strings.Contains(lower, "cruise") && !strings.Contains(lower, "terminal") {
			label += " 크루즈 터미널"
		}
	}
	return Place{
		ID:    p.ID,
		Label: label,
		City:  p.City,
		Kind:  kind,
		Value: p.CanonicalName(),
	}
}

func countryMatches(country string, accepted []string) bool {
	if len(accepted) == 0 {
		return true
	}
	c := strings.TrimSpace(country)
	for _, a := range accepted {
		if strings.EqualFold(c, strings.TrimSpace(a)) {
			return true
		}
	}
	return false
}
