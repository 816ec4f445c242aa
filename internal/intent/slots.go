package intent

import (
	"regexp"
	"strings"
)

// Slots holds the structured values found in one utterance. An empty string
// means the slot was not mentioned.
type Slots struct {
	Origin          string   `json:"origin,omitempty"`
	Destination     string   `json:"destination,omitempty"`
	Country         string   `json:"country,omitempty"`
	CountryCode     string   `json:"country_code,omitempty"`
	City            string   `json:"city,omitempty"`
	Category        Category `json:"category,omitempty"`
	CategoryKeyword string   `json:"category_keyword,omitempty"`
	NearbyKeyword   string   `json:"nearby_keyword,omitempty"`
	OriginIsHere    bool     `json:"origin_is_here,omitempty"`
}

// IsEmpty reports whether no slot was filled.
func (s Slots) IsEmpty() bool {
	return s == Slots{}
}

var (
	// "A에서 B", "A부터 B": the lazy prefix splits at the leftmost marker.
	fromToPattern = regexp.MustCompile(`^(.+?)\s*(?:에서부터|에서|부터)\s*(.+)$`)

	// "여기서 B"
	hereFromPattern = regexp.MustCompile(`^(?:지금\s*)?여기서\s*(.+)$`)

	arrowPattern = regexp.MustCompile(`^(.+?)\s*(?:→|->)\s*(.+)$`)

	// Longest prefix ending in a place-type word that is followed by a
	// boundary or a particle.
	placeSuffixPattern = regexp.MustCompile(`(?i)^(.*(?:터미널|공항|station|port))(?:\s|$|[?!.,~]|까지|으로|로|에|은|는|이|가|을|를)`)

	// "B까지 어떻게 가", "B 가는 법"
	requestDestPattern = regexp.MustCompile(`^(.+?)\s*(?:(?:까지|으로|로)\s*)?(?:어떻게\s*가|가는\s*(?:법|길)|가려면|길\s*(?:찾기|안내))`)

	destMarkerPattern = regexp.MustCompile(`^(.*?)\s*(?:까지|으로|로)(?:\s|[?!.,~]|$)`)

	trailingRequestPattern = regexp.MustCompile(`\s*(?:어떻게\s*가(?:요|나요|야|지)?|가는\s*(?:법|길)(?:\s*알려\s*줘(?:요)?)?|길\s*찾기|길\s*안내|알려\s*줘(?:요)?|가자|가고\s*싶어(?:요)?|가려면)\s*[?!.,~]*\s*$`)

	hereOriginPattern = regexp.MustCompile(`(?i)^(?:현\s*위치|현재\s*(?:내\s*)?위치|지금\s*여기|여기|내\s*위치|current\s*location|here)$`)
)

// ExtractSlots fills every slot it can find in text. It never fails; an
// empty or unrecognized utterance yields an empty Slots.
func ExtractSlots(text string) Slots {
	var s Slots
	text = strings.TrimSpace(text)
	if text == "" {
		return s
	}

	if row, lit := cityMatcher.find(text); row >= 0 {
		s.City = lit
		if c, ok := CountryByCode(cities[row].CountryCode); ok {
			s.Country, s.CountryCode = c.Name, c.Code
		}
	}
	if row, _ := countryMatcher.find(text); row >= 0 {
		s.Country, s.CountryCode = countries[row].Name, countries[row].Code
	}

	for _, c := range categoryOrder {
		if m := categoryPatterns[c].FindString(text); m != "" {
			s.Category, s.CategoryKeyword = c, m
		}
	}

	s.NearbyKeyword = nearbyPlacePattern.FindString(text)

	s.Origin, s.Destination = extractRoute(text)
	if s.Origin != "" && IsHere(s.Origin) {
		s.OriginIsHere = true
	}
	return s
}

// IsHere reports whether s names the user's current location.
func IsHere(s string) bool {
	return hereOriginPattern.MatchString(strings.TrimSpace(s))
}

// extractRoute tries the route patterns in order and stops at the first hit.
// A destination taken from a split is cleaned but never split again.
func extractRoute(text string) (origin, destination string) {
	if m := hereFromPattern.FindStringSubmatch(text); m != nil {
		if dest := cleanDestination(m[1]); dest != "" {
			return "여기", dest
		}
	}
	if m := fromToPattern.FindStringSubmatch(text); m != nil {
		origin := strings.TrimSpace(m[1])
		if dest := cleanDestination(m[2]); origin != "" && dest != "" {
			return origin, dest
		}
	}
	if m := arrowPattern.FindStringSubmatch(text); m != nil {
		origin := strings.TrimSpace(m[1])
		if dest := cleanDestination(m[2]); origin != "" && dest != "" {
			return origin, dest
		}
	}
	if m := placeSuffixPattern.FindStringSubmatch(text); m != nil {
		if dest := strings.TrimSpace(m[1]); dest != "" {
			return "", dest
		}
	}
	if m := requestDestPattern.FindStringSubmatch(text); m != nil {
		if dest := cleanDestination(m[1]); dest != "" {
			return "", dest
		}
	}
	return "", ""
}

// cleanDestination drops request phrases and cuts at the first
// destination marker (까지, 으로, 로).
func cleanDestination(s string) string {
	s = stripTrailingRequest(s)
	if m := destMarkerPattern.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	s = stripTrailingRequest(s)
	return strings.TrimSpace(strings.TrimRight(s, "?!.,~ "))
}

func stripTrailingRequest(s string) string {
	for {
		next := trailingRequestPattern.ReplaceAllString(s, "")
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
}

var (
	showMePattern = regexp.MustCompile(`(?i)^show\s+me\s+(?:the\s+|a\s+|some\s+)?(.+?)[\s?!.]*$`)
	showSuffix    = regexp.MustCompile(`\s*(?:좀\s*)?보여\s*(?:줘|주세요|줄래|줄\s*수\s*있어)(?:요)?[\s?!.~]*$`)
	photoSuffix   = regexp.MustCompile(`(?i)\s*(?:의\s*)?(?:사진|이미지|앨범|photos?|pictures?)(?:\s*좀)?[\s?!.~]*$`)
)

// ExtractShowTarget returns X from "X 보여줘", "X 사진" or "show me X".
// It returns "" when text has none of those shapes or X is empty.
func ExtractShowTarget(text string) string {
	text = strings.TrimSpace(text)
	if m := showMePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(photoSuffix.ReplaceAllString(m[1], ""))
	}

	stripped := showSuffix.ReplaceAllString(text, "")
	stripped = photoSuffix.ReplaceAllString(stripped, "")
	if stripped == text {
		return ""
	}
	return strings.TrimSpace(stripped)
}
