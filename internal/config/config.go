package config

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `env:"PORT" env-default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`

	SpinDelaySeconds  int    `env:"SPIN_DELAY_SECONDS" env-default:"2"`
	OverlayPollMillis int    `env:"OVERLAY_POLL_MS" env-default:"500"`
	HistoryCapacity   int    `env:"HISTORY_CAPACITY" env-default:"50"`
	HistoryOwner      string `env:"HISTORY_OWNER" env-default:"movie_history"`

	// KVBackend selects where the shared overlay channel lives:
	// "postgres" (kv_entries table), "tarantool" or "memory".
	KVBackend         string `env:"KV_BACKEND" env-default:"postgres"`
	TarantoolHost     string `env:"TARANTOOL_HOST" env-default:"localhost"`
	TarantoolPort     string `env:"TARANTOOL_PORT" env-default:"3301"`
	TarantoolUser     string `env:"TARANTOOL_USER" env-default:"admin"`
	TarantoolPassword string `env:"TARANTOOL_PASSWORD" env-default:""`

	DBMaxOpenConns           int `env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	DBMaxIdleConns           int `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DBConnMaxLifetimeSeconds int `env:"DB_CONN_MAX_LIFETIME_SECONDS" env-default:"300"`
}

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func Load() (Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
