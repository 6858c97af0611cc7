package app

import (
	"fmt"

	"github.com/adanyl0v/taskboard/internal/config"
	"github.com/adanyl0v/taskboard/internal/storage"
)

var (
	globalStore      storage.Store
	globalStoreClose func()
)

// MustOpenStorage opens the store picked by STORAGE_DRIVER.
func MustOpenStorage() {
	cfg := config.Global().Storage

	switch cfg.Driver {
	case storage.DriverMemory:
		globalStore = storage.NewMemoryStore()
	case storage.DriverFile:
		store, err := storage.NewFileStore(cfg.FilePath)
		if err != nil {
			globalLogger.Error().
				Err(err).
				Str("path", cfg.FilePath).
				Msg("failed to open file storage")
			panic(err)
		}
		globalStore = store
	case storage.DriverPostgres:
		globalStore = mustConnectPostgres()
		globalStoreClose = disconnectPostgres
	case storage.DriverMongo:
		globalStore = mustConnectMongo()
		globalStoreClose = disconnectMongo
	default:
		globalLogger.Error().
			Str("driver", cfg.Driver).
			Msg("unknown storage driver")
		panic(fmt.Errorf("unknown storage driver: %s", cfg.Driver))
	}

	globalLogger.Info().
		Str("driver", cfg.Driver).
		Msg("opened storage")
}

func CloseStorage() {
	if globalStoreClose != nil {
		globalStoreClose()
	}
}
