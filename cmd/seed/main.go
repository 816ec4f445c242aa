// Command seed copies a POI dataset into MongoDB and the Meilisearch mirror.
//
//	seed -file data/pois.yaml -mongo -meili
package main

import (
	"context"
	"flag"
	"time"

	"github.com/place-resolver/app/config"
	"github.com/place-resolver/app/models"
	"github.com/place-resolver/app/services"
	"github.com/place-resolver/internal/expander"
	"github.com/place-resolver/internal/poi"
	"github.com/place-resolver/internal/search"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "", "dataset file (JSON or YAML); empty uses the embedded dataset")
	toMongo := flag.Bool("mongo", true, "write the dataset to the MongoDB pois collection")
	toMeili := flag.Bool("meili", true, "mirror the dataset to Meilisearch")
	wait := flag.Duration("wait", 2*time.Minute, "how long to wait for Meilisearch tasks; 0 skips waiting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := config.NewLogger(cfg.App.Env)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	records, err := readDataset(*file)
	if err != nil {
		logger.Fatal("Failed to read dataset", zap.String("file", *file), zap.Error(err))
	}

	// Validate through the index so only records the server would accept are seeded.
	index := poi.NewIndex(nil, logger)
	report, snap, err := index.Build(records)
	if err != nil {
		logger.Fatal("Dataset rejected", zap.Error(err), zap.Int("rejected", len(report.Rejected)))
	}
	valid := snap.All()
	logger.Info("Dataset validated",
		zap.String("version", report.Version),
		zap.Int("indexed", report.Indexed),
		zap.Int("rejected", len(report.Rejected)))

	ctx := context.Background()

	if *toMongo {
		if err := seedMongo(ctx, cfg, valid, report.Version, logger); err != nil {
			logger.Fatal("MongoDB seed failed", zap.Error(err))
		}
	}

	if *toMeili {
		if err := seedMeili(ctx, cfg, valid, report.Version, *wait, logger); err != nil {
			logger.Fatal("Meilisearch seed failed", zap.Error(err))
		}
	}

	logger.Info("Seed completed", zap.String("version", report.Version))
}

func readDataset(path string) ([]models.POI, error) {
	if path == "" {
		return poi.LoadEmbedded()
	}
	return poi.LoadFile(path)
}

func seedMongo(ctx context.Context, cfg *config.Config, records []models.POI, version string, logger *zap.Logger) error {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URL))
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	if err := client.Ping(connectCtx, nil); err != nil {
		return err
	}

	repo := services.NewPOIRepository(client.Database(cfg.Mongo.Database), logger)
	n, err := repo.ReplacePOIs(ctx, records, version)
	if err != nil {
		return err
	}
	logger.Info("POIs written to MongoDB",
		zap.String("database", cfg.Mongo.Database),
		zap.Int("count", n))
	return nil
}

func seedMeili(ctx context.Context, cfg *config.Config, records []models.POI, version string, wait time.Duration, logger *zap.Logger) error {
	searcher, err := search.NewPOISearcher(search.SearchConfig{
		Host:      cfg.Meilisearch.URL,
		APIKey:    cfg.Meilisearch.MasterKey,
		IndexName: cfg.Meilisearch.Index,
		Timeout:   cfg.Meilisearch.Timeout,
	}, logger)
	if err != nil {
		return err
	}

	if err := searcher.ConfigureIndex(expander.Synonyms()); err != nil {
		return err
	}
	if _, err := searcher.SeedPOIs(records, version); err != nil {
		return err
	}

	if wait <= 0 {
		return nil
	}
	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	logger.Info("Waiting for Meilisearch to finish indexing")
	return searcher.Wait(waitCtx, time.Second)
}
