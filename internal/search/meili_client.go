// Package search mirrors the POI dataset into Meilisearch and serves typo
// tolerant suggestions from it.
package search

import (
	"fmt"
	"regexp"
	"strconv"

	ms "github.com/meilisearch/meilisearch-go"
	"github.com/place-resolver/app/models"
	"github.com/place-resolver/internal/normalizer"
)

// NewClient creates a Meilisearch client for url authenticated with key.
func NewClient(url, key string) ms.ServiceManager {
	return ms.New(url, ms.WithAPIKey(key))
}

// FilterCountry creates a filter on the country attribute.
func FilterCountry(country string) string {
	return fmt.Sprintf("country = %q", country)
}

// FilterKind creates a filter on the kind attribute.
func FilterKind(kind string) string {
	return fmt.Sprintf("kind = %q", kind)
}

// Meilisearch document ids allow only alphanumerics, '-' and '_'.
var invalidIDChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// DocumentID returns the primary key for the POI at position.
func DocumentID(p models.POI, position int) string {
	if id := invalidIDChars.ReplaceAllString(p.ID, "_"); id != "" {
		return id
	}
	return "poi_" + strconv.Itoa(position)
}

// Documents converts records into Meilisearch documents. Position keeps the
// dataset order so results can be sorted the same way the resolver iterates.
func Documents(records []models.POI, version string) []map[string]interface{} {
	docs := make([]map[string]interface{}, 0, len(records))
	for i, p := range records {
		doc := map[string]interface{}{
			"id":              DocumentID(p, i),
			"poi_id":          p.ID,
			"name":            p.Name,
			"name_ko":         p.NameKo,
			"display_name":    p.DisplayName(),
			"canonical_name":  p.CanonicalName(),
			"romanized":       normalizer.Romanize(p.DisplayName()),
			"normalized_name": normalizer.Normalize(p.CanonicalName()),
			"city":            p.City,
			"country":         p.Country,
			"keywords_ko":     p.KeywordsKo,
			"kind":            p.Kind(),
			"position":        i,
			"dataset_version": version,
		}
		if p.HasCoordinates() {
			doc["_geo"] = map[string]float64{"lat": *p.Lat, "lng": *p.Lng}
		}
		docs = append(docs, doc)
	}
	return docs
}

// displayNameFromHit reads the display name of a search hit.
func displayNameFromHit(hit interface{}) (string, bool) {
	hitMap, ok := hit.(map[string]interface{})
	if !ok {
		return "", false
	}
	if name, ok := hitMap["display_name"].(string); ok && name != "" {
		return name, true
	}
	if name, ok := hitMap["name_ko"].(string); ok && name != "" {
		return name, true
	}
	if name, ok := hitMap["name"].(string); ok && name != "" {
		return name, true
	}
	return "", false
}
