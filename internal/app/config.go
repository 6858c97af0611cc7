package app

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/adanyl0v/taskboard/internal/config"
)

func MustReadEnv() {
	cfg, err := config.NewEnvReader().Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to read env")
		panic(err)
	}
	globalLogger.Info().
		Str("env", cfg.Env).
		Str("storage_driver", cfg.Storage.Driver).
		Msg("read env")

	config.SetGlobal(cfg)
}

// MustReadClientEnv reads the board client settings, .env included.
func MustReadClientEnv() *config.ClientConfig {
	cfg, err := config.NewEnvReader().ReadClient()
	if err != nil {
		panic(err)
	}
	return cfg
}
