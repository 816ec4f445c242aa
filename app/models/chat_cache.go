package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatCache is a cached chat answer stored in MongoDB.
type ChatCache struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Fingerprint    string             `bson:"fingerprint" json:"fingerprint"`         // sha256 of mode and normalized text
	RawText        string             `bson:"raw_text" json:"raw_text"`               // Utterance as received
	Result         ChatResult         `bson:"result" json:"result"`                   // Cached answer
	DatasetVersion string             `bson:"dataset_version" json:"dataset_version"` // POI dataset the answer was built from
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	LastAccessed   time.Time          `bson:"last_accessed" json:"last_accessed"`
	AccessCount    int                `bson:"access_count" json:"access_count"`
}

// NewChatCache wraps result for storage.
func NewChatCache(fingerprint, rawText string, result ChatResult) *ChatCache {
	now := time.Now()
	return &ChatCache{
		Fingerprint:    fingerprint,
		RawText:        rawText,
		Result:         result,
		DatasetVersion: result.DatasetVersion,
		CreatedAt:      now,
		LastAccessed:   now,
		AccessCount:    1,
	}
}

// UpdateAccess records a cache hit.
func (cc *ChatCache) UpdateAccess() {
	cc.LastAccessed = time.Now()
	cc.AccessCount++
}

// IsExpired reports whether the entry is older than ttl.
func (cc *ChatCache) IsExpired(ttl time.Duration) bool {
	return ttl > 0 && time.Since(cc.CreatedAt) > ttl
}

// IsValidDatasetVersion reports whether the entry was built from currentVersion.
func (cc *ChatCache) IsValidDatasetVersion(currentVersion string) bool {
	return cc.DatasetVersion == currentVersion
}
