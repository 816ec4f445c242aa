// Package links builds map provider deep links. It never calls the provider.
package links

import (
	"net/url"
	"regexp"
	"strings"
)

// TravelMode is a directions travel mode.
type TravelMode string

const (
	Driving TravelMode = "driving"
	Transit TravelMode = "transit"
	Walking TravelMode = "walking"
)

const (
	directionsBase  = "https://www.google.com/maps/dir/"
	searchBase      = "https://www.google.com/maps/search/"
	imageSearchBase = "https://www.google.com/search"
)

// Link is one labelled URL in a chat answer.
type Link struct {
	Label string     `json:"label"`
	URL   string     `json:"url"`
	Mode  TravelMode `json:"mode,omitempty"`
}

// ParseMode maps a mode name to a TravelMode. Unknown values mean Driving.
func ParseMode(s string) TravelMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "transit", "대중교통", "버스", "지하철":
		return Transit
	case "walking", "walk", "도보", "걸어서":
		return Walking
	default:
		return Driving
	}
}

var (
	transitHint = regexp.MustCompile(`(?i)대중교통|버스|지하철|transit|subway|\bbus\b`)
	walkingHint = regexp.MustCompile(`(?i)도보|걸어서|walk`)
)

// InferMode reads a travel mode preference from free text.
func InferMode(text string) TravelMode {
	switch {
	case walkingHint.MatchString(text):
		return Walking
	case transitHint.MatchString(text):
		return Transit
	default:
		return Driving
	}
}

// DirectionsURL builds a directions link. An empty origin is omitted so the
// provider starts from the device location.
func DirectionsURL(origin, destination string, mode TravelMode) string {
	switch mode {
	case Driving, Transit, Walking:
	default:
		mode = Driving
	}

	q := url.Values{}
	q.Set("api", "1")
	q.Set("destination", destination)
	if strings.TrimSpace(origin) != "" {
		q.Set("origin", origin)
	}
	q.Set("travelmode", string(mode))
	return directionsBase + "?" + q.Encode()
}

// SearchURL builds a map search link for query.
func SearchURL(query string) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("query", query)
	return searchBase + "?" + q.Encode()
}

// ImageSearchURL builds an image search link for query.
func ImageSearchURL(query string) string {
	q := url.Values{}
	q.Set("tbm", "isch")
	q.Set("q", query)
	return imageSearchBase + "?" + q.Encode()
}
