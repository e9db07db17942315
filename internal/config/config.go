package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all the configuration for the application.
type Config struct {
	Env          string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer   `yaml:"http_server"`
	Database     `yaml:"database"`
	URLShortener `yaml:"url_shortener"`
	Session      `yaml:"session"`
	OAuth        `yaml:"oauth"`
	Cache        `yaml:"cache"`
	Analytics    `yaml:"analytics"`
	UserAgent    `yaml:"user_agent"`
}

// HTTPServer holds HTTP listener configuration.
type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":4568"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"30s"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:","`
	// TrustedProxies lists IPs or CIDRs whose X-Forwarded-For is honored.
	TrustedProxies  []string      `yaml:"trusted_proxies" env:"HTTP_TRUSTED_PROXIES" env-separator:","`
}

// Database holds connection settings. Driver is "postgres" or "sqlite".
type Database struct {
	Driver          string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	Host            string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string `yaml:"user" env:"DB_USER" env-default:"shortly"`
	Password        string `yaml:"password" env:"DB_PASSWORD"`
	DBName          string `yaml:"dbname" env:"DB_NAME" env-default:"shortly"`
	SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	Timezone        string `yaml:"timezone" env:"DB_TIMEZONE" env-default:"UTC"`
	Path            string `yaml:"path" env:"DB_PATH" env-default:"shortly.db"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
	AutoMigrate     bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
	LogQueries      bool   `yaml:"log_queries" env:"DB_LOG_QUERIES" env-default:"false"`
}

// URLShortener holds service-specific configuration.
type URLShortener struct {
	AliasLength       int           `yaml:"alias_length" env:"ALIAS_LENGTH" env-default:"6"`
	TitleFetchTimeout time.Duration `yaml:"title_fetch_timeout" env:"TITLE_FETCH_TIMEOUT" env-default:"5s"`
	RequireAuth       bool          `yaml:"require_auth" env:"URL_SHORTENER_REQUIRE_AUTH" env-default:"false"`
}

// Session holds cookie session settings.
type Session struct {
	CookieName  string        `yaml:"cookie_name" env:"SESSION_COOKIE_NAME" env-default:"shortly_session"`
	TTL         time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"24h"`
	Secure      bool          `yaml:"secure" env:"SESSION_SECURE" env-default:"false"`
	PurgePeriod time.Duration `yaml:"purge_period" env:"SESSION_PURGE_PERIOD" env-default:"1h"`
}

// OAuth holds GitHub OAuth application credentials. GitHub login is
// disabled when ClientID is empty.
type OAuth struct {
	GitHubClientID     string `yaml:"github_client_id" env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `yaml:"github_client_secret" env:"GITHUB_CLIENT_SECRET"`
	GitHubRedirectURL  string `yaml:"github_redirect_url" env:"GITHUB_REDIRECT_URL" env-default:"http://localhost:4568/auth/github/callback"`
	StateSecret        string `yaml:"state_secret" env:"OAUTH_STATE_SECRET" env-default:"change-me-in-production"`
}

// Cache configures the short code lookup cache. Driver is "memory", "redis" or "none".
type Cache struct {
	Driver        string        `yaml:"driver" env:"CACHE_DRIVER" env-default:"memory"`
	RedisAddr     string        `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"REDIS_DB" env-default:"0"`
	TTL           time.Duration `yaml:"ttl" env:"CACHE_TTL" env-default:"1h"`
}

// Analytics configures the click retry processor.
type Analytics struct {
	WorkerCount   int           `yaml:"worker_count" env:"ANALYTICS_WORKERS" env-default:"3"`
	BufferSize    int           `yaml:"buffer_size" env:"ANALYTICS_BUFFER_SIZE" env-default:"1000"`
	RetryAttempts int           `yaml:"retry_attempts" env:"ANALYTICS_RETRY_ATTEMPTS" env-default:"3"`
	RetryDelay    time.Duration `yaml:"retry_delay" env:"ANALYTICS_RETRY_DELAY" env-default:"1s"`
}

// UserAgent points at an optional uap-core regexes file.
type UserAgent struct {
	RegexesPath string `yaml:"regexes_path" env:"UA_REGEXES_PATH" env-default:"assets/regexes.yaml"`
}

// MustLoad loads the application configuration.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot load config: %s", err)
	}
	return cfg
}

// Load reads the YAML file at CONFIG_PATH (default config/local.yml) when it
// exists, otherwise environment variables only.
func Load() (*Config, error) {
	// Try to load .env file (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}

	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/local.yml"
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read config %s: %w", configPath, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("cannot read config from environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Cache.Driver {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("unsupported cache driver %q", c.Cache.Driver)
	}
	if c.URLShortener.AliasLength < 4 {
		return fmt.Errorf("alias_length must be at least 4, got %d", c.URLShortener.AliasLength)
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}
