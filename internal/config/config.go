package config

import "time"

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env      string `env:"ENV" env-required:"true"`
	HTTP     HTTPConfig
	JWT      JWTConfig
	Storage  StorageConfig
	Postgres PostgresConfig
	Mongo    MongoConfig
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `env:"HTTP_PORT" env-default:"5000"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
	CORSOrigins     []string      `env:"HTTP_CORS_ORIGINS" env-separator:","`
}

type JWTConfig struct {
	Issuer          string        `env:"JWT_ISSUER" env-default:"taskboard"`
	SigningKey      string        `env:"JWT_SIGNING_KEY" env-required:"true"`
	AccessTokenTTL  time.Duration `env:"JWT_ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `env:"JWT_REFRESH_TOKEN_TTL" env-default:"720h"`
}

// StorageConfig selects the task store. Postgres and Mongo settings are
// only read by their drivers.
type StorageConfig struct {
	Driver   string `env:"STORAGE_DRIVER" env-default:"memory"`
	FilePath string `env:"STORAGE_FILE_PATH" env-default:"taskboard.yaml"`
}

type PostgresConfig struct {
	Host           string        `env:"POSTGRES_HOST" env-default:"localhost"`
	Port           int           `env:"POSTGRES_PORT" env-default:"5432"`
	Username       string        `env:"POSTGRES_USERNAME" env-default:"postgres"`
	Password       string        `env:"POSTGRES_PASSWORD"`
	Database       string        `env:"POSTGRES_DATABASE" env-default:"taskboard"`
	SSLMode        string        `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
	MaxConns       int32         `env:"POSTGRES_MAX_CONNS" env-default:"10"`
}

type MongoConfig struct {
	URI            string        `env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database       string        `env:"MONGO_DATABASE" env-default:"taskboard"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" env-default:"10s"`
}

// ClientConfig configures the board command line client.
type ClientConfig struct {
	ServerURL      string        `env:"BOARD_SERVER_URL" env-default:"http://localhost:5000"`
	Timeout        time.Duration `env:"BOARD_TIMEOUT" env-default:"10s"`
	SessionFile    string        `env:"BOARD_SESSION_FILE"`
	OfflineFile    string        `env:"BOARD_OFFLINE_FILE"`
	LogLevel       string        `env:"BOARD_LOG_LEVEL" env-default:"warn"`
	ConfirmAbandon bool          `env:"BOARD_CONFIRM_ABANDON" env-default:"false"`
}
