package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// POIDocument is a POI stored in the "pois" collection.
type POIDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	POI            `bson:",inline"`
	Position       int       `bson:"position" json:"position"`               // Dataset order, used for tie-breaking
	NormalizedName string    `bson:"normalized_name" json:"normalized_name"` // Normalized canonical name
	Kind           string    `bson:"kind" json:"kind"`                       // airport, cruise or place
	DatasetVersion string    `bson:"dataset_version" json:"dataset_version"` // sha256 of the dataset it belongs to
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}

// IsValidKind reports whether Kind is a known POI kind.
func (d *POIDocument) IsValidKind() bool {
	switch d.Kind {
	case POIKindAirport, POIKindCruise, POIKindPlace:
		return true
	default:
		return false
	}
}
