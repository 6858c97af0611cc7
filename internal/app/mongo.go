package app

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adanyl0v/taskboard/internal/config"
	"github.com/adanyl0v/taskboard/internal/storage"
)

var globalMongoClient *mongo.Client

func mustConnectMongo() *storage.MongoStore {
	cfg := config.Global().Mongo

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout)

	var err error
	globalMongoClient, err = mongo.Connect(ctx, opts)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to connect to mongo")
		panic(err)
	}

	err = globalMongoClient.Ping(ctx, nil)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to ping mongo")
		panic(err)
	}
	globalLogger.Info().
		Str("database", cfg.Database).
		Msg("connected to mongo")

	store := storage.NewMongoStore(globalMongoClient.Database(cfg.Database))
	err = store.EnsureIndexes(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to create mongo indexes")
		panic(err)
	}
	globalLogger.Debug().Msg("ensured mongo indexes")
	return store
}

func disconnectMongo() {
	ctx, cancel := context.WithTimeout(context.Background(), config.Global().Mongo.ConnectTimeout)
	defer cancel()

	err := globalMongoClient.Disconnect(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to disconnect from mongo")
		return
	}
	globalLogger.Info().Msg("disconnected from mongo")
}
