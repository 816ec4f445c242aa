package models

import (
	"fmt"
	"regexp"
	"strings"
)

// POI is one resolvable place: a cruise terminal, airport, station or landmark.
// Name is the Latin official name and NameKo the Korean display name.
type POI struct {
	ID         string   `bson:"id,omitempty" json:"id,omitempty" yaml:"id,omitempty"`
	Name       string   `bson:"name" json:"name" yaml:"name"`
	NameKo     string   `bson:"name_ko,omitempty" json:"name_ko,omitempty" yaml:"name_ko,omitempty"`
	City       string   `bson:"city,omitempty" json:"city,omitempty" yaml:"city,omitempty"`
	Country    string   `bson:"country,omitempty" json:"country,omitempty" yaml:"country,omitempty"`
	Lat        *float64 `bson:"lat,omitempty" json:"lat,omitempty" yaml:"lat,omitempty"`
	Lng        *float64 `bson:"lng,omitempty" json:"lng,omitempty" yaml:"lng,omitempty"`
	KeywordsKo []string `bson:"keywords_ko,omitempty" json:"keywords_ko,omitempty" yaml:"keywords_ko,omitempty"`
}

// POI kinds
const (
	POIKindAirport = "airport"
	POIKindCruise  = "cruise"
	POIKindPlace   = "place"
)

var cruiseNameKoPattern = regexp.MustCompile(`크루즈|터미널`)

// CanonicalName is the name handed to map providers. The Latin name wins
// because providers geocode it more reliably.
func (p *POI) CanonicalName() string {
	if n := strings.TrimSpace(p.Name); n != "" {
		return n
	}
	return strings.TrimSpace(p.NameKo)
}

// DisplayName is the name shown to Korean-speaking users.
func (p *POI) DisplayName() string {
	if n := strings.TrimSpace(p.NameKo); n != "" {
		return n
	}
	return strings.TrimSpace(p.Name)
}

// HasCoordinates reports whether both lat and lng are present.
func (p *POI) HasCoordinates() bool {
	return p.Lat != nil && p.Lng != nil
}

// Kind classifies the POI. Airports are recognised by id and are never
// treated as cruise terminals.
func (p *POI) Kind() string {
	id := strings.ToLower(p.ID)
	switch {
	case strings.Contains(id, "airport"):
		return POIKindAirport
	case strings.Contains(id, "cruise"), strings.Contains(id, "port"), strings.Contains(id, "terminal"),
		cruiseNameKoPattern.MatchString(p.NameKo):
		return POIKindCruise
	default:
		return POIKindPlace
	}
}

// Validate checks the record invariants: a non-empty canonical name, and
// coordinates that are either both set and in range, or both absent.
func (p *POI) Validate() error {
	if strings.TrimSpace(p.Name) == "" && strings.TrimSpace(p.NameKo) == "" {
		return fmt.Errorf("name and name_ko are both empty")
	}
	if (p.Lat == nil) != (p.Lng == nil) {
		return fmt.Errorf("lat and lng must be set together")
	}
	if p.HasCoordinates() {
		if *p.Lat < -90 || *p.Lat > 90 {
			return fmt.Errorf("lat %v out of range", *p.Lat)
		}
		if *p.Lng < -180 || *p.Lng > 180 {
			return fmt.Errorf("lng %v out of range", *p.Lng)
		}
	}
	return nil
}

var (
	militaryNamePattern   = regexp.MustCompile(`(?i)(naval|military|air\s?base|army|navy|marine|\bbase\b)`)
	militaryNameKoPattern = regexp.MustCompile(`(군항|군사|기지|해군|공군|육군|해병|항만사령|軍)`)
)

// IsMilitary reports whether the POI looks like a military facility. Those
// are never offered as travel suggestions.
func (p *POI) IsMilitary() bool {
	return militaryNamePattern.MatchString(p.Name) || militaryNameKoPattern.MatchString(p.NameKo)
}
