package services

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/place-resolver/app/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ChatCacheCollection holds persisted chat answers.
const ChatCacheCollection = "chat_cache"

// MongoCacheService persists chat answers in MongoDB behind an in-memory
// LRU.
type MongoCacheService struct {
	collection *mongo.Collection
	l1Cache    *lru.Cache[string, *models.ChatResult]
	ttl        time.Duration
	logger     *zap.Logger

	counter   hitCounter
	l1Hits    atomic.Int64
	mongoHits atomic.Int64
}

// NewMongoCacheService creates the cache and its indexes. A positive ttl
// also installs a TTL index on created_at.
func NewMongoCacheService(db *mongo.Database, l1Size int, ttl time.Duration, logger *zap.Logger) (*MongoCacheService, error) {
	if l1Size <= 0 {
		l1Size = 1000
	}
	l1Cache, err := lru.New[string, *models.ChatResult](l1Size)
	if err != nil {
		return nil, fmt.Errorf("create l1 cache: %w", err)
	}

	collection := db.Collection(ChatCacheCollection)

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "fingerprint", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{bson.E{Key: "dataset_version", Value: 1}},
		},
		{
			Keys: bson.D{bson.E{Key: "last_accessed", Value: 1}},
		},
	}
	createdAt := mongo.IndexModel{Keys: bson.D{bson.E{Key: "created_at", Value: 1}}}
	if ttl > 0 {
		createdAt.Options = options.Index().SetExpireAfterSeconds(int32(ttl / time.Second))
	}
	indexModels = append(indexModels, createdAt)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		logger.Warn("Could not create chat_cache indexes", zap.Error(err))
	}

	return &MongoCacheService{
		collection: collection,
		l1Cache:    l1Cache,
		ttl:        ttl,
		logger:     logger,
	}, nil
}

// Get looks in the L1 cache, then in MongoDB.
func (mcs *MongoCacheService) Get(ctx context.Context, key string) (*models.ChatResult, bool, error) {
	if result, found := mcs.l1Cache.Get(key); found {
		mcs.l1Hits.Add(1)
		mcs.counter.hit()
		return result, true, nil
	}

	fingerprint := Fingerprint(key)

	var entry models.ChatCache
	err := mcs.collection.FindOne(ctx, bson.M{"fingerprint": fingerprint}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			mcs.counter.miss()
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query mongo cache: %w", err)
	}
	if entry.IsExpired(mcs.ttl) {
		mcs.counter.miss()
		return nil, false, nil
	}

	mcs.mongoHits.Add(1)
	mcs.counter.hit()

	go mcs.updateAccessStats(entry.ID)

	mcs.l1Cache.Add(key, &entry.Result)

	mcs.logger.Debug("Mongo cache hit",
		zap.String("key", key),
		zap.String("fingerprint", fingerprint))
	return &entry.Result, true, nil
}

// Set writes result to the L1 cache and upserts it in MongoDB.
func (mcs *MongoCacheService) Set(ctx context.Context, key string, result *models.ChatResult) error {
	mcs.l1Cache.Add(key, result)

	fingerprint := Fingerprint(key)
	entry := models.NewChatCache(fingerprint, key, *result)

	opts := options.Replace().SetUpsert(true)
	if _, err := mcs.collection.ReplaceOne(ctx, bson.M{"fingerprint": fingerprint}, entry, opts); err != nil {
		mcs.logger.Error("Mongo cache write failed",
			zap.Error(err),
			zap.String("fingerprint", fingerprint))
		return fmt.Errorf("write mongo cache: %w", err)
	}
	return nil
}

// Delete removes key from both tiers.
func (mcs *MongoCacheService) Delete(ctx context.Context, key string) error {
	mcs.l1Cache.Remove(key)

	if _, err := mcs.collection.DeleteOne(ctx, bson.M{"fingerprint": Fingerprint(key)}); err != nil {
		return fmt.Errorf("delete from mongo cache: %w", err)
	}
	return nil
}

// Clear empties both tiers and resets counters.
func (mcs *MongoCacheService) Clear(ctx context.Context) error {
	mcs.l1Cache.Purge()

	if _, err := mcs.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear mongo cache: %w", err)
	}

	mcs.counter.reset()
	mcs.l1Hits.Store(0)
	mcs.mongoHits.Store(0)
	return nil
}

// InvalidateByDatasetVersion drops every answer not built from datasetVersion.
func (mcs *MongoCacheService) InvalidateByDatasetVersion(ctx context.Context, datasetVersion string) (int64, error) {
	mcs.l1Cache.Purge()

	result, err := mcs.collection.DeleteMany(ctx, bson.M{"dataset_version": bson.M{"$ne": datasetVersion}})
	if err != nil {
		return 0, fmt.Errorf("invalidate mongo cache: %w", err)
	}

	mcs.logger.Info("Mongo cache invalidated",
		zap.String("dataset_version", datasetVersion),
		zap.Int64("deleted_count", result.DeletedCount))
	return result.DeletedCount, nil
}

// GetStats returns hit counters and the persisted entry count.
func (mcs *MongoCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	count, err := mcs.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count mongo cache: %w", err)
	}

	mcs.logger.Debug("Mongo cache stats",
		zap.Int("l1_size", mcs.l1Cache.Len()),
		zap.Int64("l1_hits", mcs.l1Hits.Load()),
		zap.Int64("mongo_hits", mcs.mongoHits.Load()),
		zap.Int64("mongo_count", count))

	return mcs.counter.stats(CacheBackendMongo, count), nil
}

// Exists checks the L1 cache, then MongoDB.
func (mcs *MongoCacheService) Exists(ctx context.Context, key string) (bool, error) {
	if mcs.l1Cache.Contains(key) {
		return true, nil
	}

	count, err := mcs.collection.CountDocuments(ctx, bson.M{"fingerprint": Fingerprint(key)})
	if err != nil {
		return false, fmt.Errorf("check mongo cache: %w", err)
	}
	return count > 0, nil
}

// GetTTL returns the time left before the TTL index removes key.
func (mcs *MongoCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	if mcs.ttl <= 0 {
		return 0, nil
	}

	var entry models.ChatCache
	opts := options.FindOne().SetProjection(bson.M{"created_at": 1})
	err := mcs.collection.FindOne(ctx, bson.M{"fingerprint": Fingerprint(key)}, opts).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	remaining := mcs.ttl - time.Since(entry.CreatedAt)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// Close is a no-op; the caller owns the Mongo client.
func (mcs *MongoCacheService) Close() error {
	return nil
}

// WarmUp loads the most accessed answers into the L1 cache.
func (mcs *MongoCacheService) WarmUp(ctx context.Context, datasetVersion string, limit int) (int, error) {
	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "access_count", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := mcs.collection.Find(ctx, bson.M{"dataset_version": datasetVersion}, opts)
	if err != nil {
		return 0, fmt.Errorf("warm up mongo cache: %w", err)
	}
	defer cursor.Close(ctx)

	count := 0
	for cursor.Next(ctx) {
		var entry models.ChatCache
		if err := cursor.Decode(&entry); err != nil {
			mcs.logger.Warn("Skipping undecodable cache entry", zap.Error(err))
			continue
		}
		result := entry.Result
		mcs.l1Cache.Add(entry.RawText, &result)
		count++
	}

	mcs.logger.Info("Cache warm up done",
		zap.Int("loaded_items", count),
		zap.Int("l1_size", mcs.l1Cache.Len()))
	return count, cursor.Err()
}

func (mcs *MongoCacheService) updateAccessStats(id primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"last_accessed": time.Now()},
		"$inc": bson.M{"access_count": 1},
	}
	if _, err := mcs.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		mcs.logger.Warn("Access stats update failed", zap.Error(err))
	}
}

// Fingerprint hashes a cache key into the stored fingerprint.
func Fingerprint(key string) string {
	return fmt.Sprintf("sha256:%x", sha256.Sum256([]byte(key)))
}
