// Package config loads process configuration from the environment.
package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// envPaths are tried in order; the first readable file wins
var envPaths = []string{".env", "../.env", "../../.env"}

type Config struct {
	Env      string `envconfig:"ENV" default:"development"`
	Riot     Riot
	History  History
	Model    Model
	Archive  Archive
	Database Database
	Export   Export
	Server   Server
}

type Riot struct {
	APIKey            string        `envconfig:"RIOT_API_KEY" required:"true"`
	Platform          string        `envconfig:"RIOT_PLATFORM" default:"na1"`
	BaseURL           string        `envconfig:"RIOT_BASE_URL"`
	RequestsPerSecond int           `envconfig:"RIOT_REQUESTS_PER_SECOND" default:"15"`
	RequestsPer2Min   int           `envconfig:"RIOT_REQUESTS_PER_2MIN" default:"90"`
	Timeout           time.Duration `envconfig:"RIOT_TIMEOUT" default:"30s"`
}

type History struct {
	SlotLimit       int  `envconfig:"HISTORY_SLOT_LIMIT" default:"10"`
	StopOnMalformed bool `envconfig:"HISTORY_STOP_ON_MALFORMED" default:"false"`
	Dedupe          bool `envconfig:"HISTORY_DEDUPE" default:"false"`
}

type Model struct {
	Path string `envconfig:"MODEL_PATH" default:"model.json"`
}

// Archive stores feature rows. An empty DSN disables it.
type Archive struct {
	Driver string `envconfig:"ARCHIVE_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"ARCHIVE_DSN"`
}

// Database is the Postgres prediction log. An empty URL disables it.
type Database struct {
	URL string `envconfig:"DATABASE_URL"`
}

// Export writes raw statistics as JSONL. An empty Dir disables it.
type Export struct {
	Dir      string `envconfig:"EXPORT_DIR"`
	Compress bool   `envconfig:"EXPORT_COMPRESS" default:"false"`
}

type Server struct {
	Port           int      `envconfig:"PORT" default:"8080"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// New reads the configuration from the environment
func New() (*Config, error) {
	var c Config
	err := envconfig.Process("", &c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadDotEnv loads the first .env file found and returns its path, or "" when none
// exists. Variables already set in the environment are not overridden.
func LoadDotEnv() string {
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			return path
		}
	}
	return ""
}

// IsProduction reports whether the process runs in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
