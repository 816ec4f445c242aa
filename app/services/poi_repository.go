package services

import (
	"context"
	"fmt"
	"time"

	"github.com/place-resolver/app/models"
	"github.com/place-resolver/internal/normalizer"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// POICollection holds the POI dataset when dataset.source is mongo.
const POICollection = "pois"

// POIStore reads and replaces the persisted POI dataset.
type POIStore interface {
	LoadPOIs(ctx context.Context) ([]models.POI, error)
	ReplacePOIs(ctx context.Context, records []models.POI, datasetVersion string) (int, error)
	Count(ctx context.Context) (int64, error)
}

// POIRepository stores POIs in MongoDB, one document per record.
type POIRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewPOIRepository creates the repository and its indexes.
func NewPOIRepository(db *mongo.Database, logger *zap.Logger) *POIRepository {
	collection := db.Collection(POICollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{bson.E{Key: "position", Value: 1}}},
		{Keys: bson.D{bson.E{Key: "dataset_version", Value: 1}}},
		{Keys: bson.D{bson.E{Key: "kind", Value: 1}}},
	})
	if err != nil {
		logger.Warn("Could not create pois indexes", zap.Error(err))
	}

	return &POIRepository{collection: collection, logger: logger}
}

// LoadPOIs returns every stored POI in dataset order.
func (pr *POIRepository) LoadPOIs(ctx context.Context) ([]models.POI, error) {
	opts := options.Find().SetSort(bson.D{bson.E{Key: "position", Value: 1}})
	cursor, err := pr.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("query pois: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []models.POIDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode pois: %w", err)
	}

	records := make([]models.POI, len(docs))
	for i, d := range docs {
		records[i] = d.POI
	}
	return records, nil
}

// ReplacePOIs swaps the stored dataset for records.
func (pr *POIRepository) ReplacePOIs(ctx context.Context, records []models.POI, datasetVersion string) (int, error) {
	deleted, err := pr.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("delete old pois: %w", err)
	}
	pr.logger.Info("Deleted stored POIs", zap.Int64("deleted_count", deleted.DeletedCount))

	if len(records) == 0 {
		return 0, nil
	}

	now := time.Now()
	documents := make([]interface{}, len(records))
	for i, rec := range records {
		documents[i] = models.POIDocument{
			POI:            rec,
			Position:       i,
			NormalizedName: normalizer.Normalize(rec.CanonicalName()),
			Kind:           rec.Kind(),
			DatasetVersion: datasetVersion,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}

	if _, err := pr.collection.InsertMany(ctx, documents); err != nil {
		return 0, fmt.Errorf("insert pois: %w", err)
	}
	return len(documents), nil
}

// Count returns the number of stored POIs.
func (pr *POIRepository) Count(ctx context.Context) (int64, error) {
	return pr.collection.CountDocuments(ctx, bson.M{})
}
