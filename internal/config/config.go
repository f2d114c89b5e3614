package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	OAuth    OAuthConfig    `yaml:"oauth"`
	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	WS       WSConfig       `yaml:"ws"`
}

type AppConfig struct {
	AppName         string        `yaml:"name"             env:"APP_NAME"             env-default:"skill-journal"`
	Environment     string        `yaml:"env"              env:"APP_ENV"              env-default:"development"`
	HTTPPort        string        `yaml:"http_port"        env:"HTTP_PORT"            env-default:"8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"APP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type DatabaseConfig struct {
	DBHost     string `yaml:"host"     env:"DB_HOST"     env-default:"localhost"`
	DBPort     string `yaml:"port"     env:"DB_PORT"     env-default:"5432"`
	DBName     string `yaml:"name"     env:"DB_NAME"     env-default:"skill_journal"`
	DBUser     string `yaml:"user"     env:"DB_USER"     env-default:"postgres"`
	DBPassword string `yaml:"password" env:"DB_PASSWORD"`
	DBSSLMode  string `yaml:"ssl_mode" env:"DB_SSL_MODE" env-default:"disable"`

	ConnectTimeout        time.Duration `yaml:"connect_timeout"          env:"DB_CONNECT_TIMEOUT"           env-default:"5s"`
	PoolMaxConns          int32         `yaml:"pool_max_conns"           env:"DB_POOL_MAX_CONNS"            env-default:"10"`
	PoolMinConns          int32         `yaml:"pool_min_conns"           env:"DB_POOL_MIN_CONNS"            env-default:"1"`
	PoolMaxConnLifetime   time.Duration `yaml:"pool_max_conn_lifetime"   env:"DB_POOL_MAX_CONN_LIFETIME"    env-default:"1h"`
	PoolMaxConnIdleTime   time.Duration `yaml:"pool_max_conn_idle_time"  env:"DB_POOL_MAX_CONN_IDLE_TIME"   env-default:"30m"`
	PoolHealthCheckPeriod time.Duration `yaml:"pool_health_check_period" env:"DB_POOL_HEALTH_CHECK_PERIOD"  env-default:"1m"`
}

// DSN renders the connection string pgx expects.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		strings.TrimSpace(d.DBHost),
		strings.TrimSpace(d.DBPort),
		strings.TrimSpace(d.DBUser),
		d.DBPassword,
		strings.TrimSpace(d.DBName),
		strings.TrimSpace(d.DBSSLMode),
	)
}

type RedisConfig struct {
	Host     string `yaml:"host"     env:"REDIS_HOST"`
	Port     string `yaml:"port"     env:"REDIS_PORT"     env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"       env:"REDIS_DB"       env-default:"0"`
	Channel  string `yaml:"channel"  env:"REDIS_CHANNEL"  env-default:"journal:changes"`
}

// Enabled reports whether a Redis host is configured. Without one the server
// runs single-node with an in-process change bus.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Host) != ""
}

func (r RedisConfig) Addr() string {
	return strings.TrimSpace(r.Host) + ":" + strings.TrimSpace(r.Port)
}

type JWTConfig struct {
	AccessSecret  string        `yaml:"access_secret"  env:"JWT_ACCESS_SECRET"  env-required:"true"`
	RefreshSecret string        `yaml:"refresh_secret" env:"JWT_REFRESH_SECRET" env-required:"true"`
	Issuer        string        `yaml:"issuer"         env:"JWT_ISSUER"         env-default:"skill-journal"`
	AccessTTL     time.Duration `yaml:"access_ttl"     env:"JWT_ACCESS_TTL"     env-default:"15m"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl"    env:"JWT_REFRESH_TTL"    env-default:"720h"`
}

type OAuthConfig struct {
	GoogleClientID     string `yaml:"google_client_id"     env:"OAUTH_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `yaml:"google_client_secret" env:"OAUTH_GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string `yaml:"google_redirect_uri"  env:"OAUTH_GOOGLE_REDIRECT_URI"`
	GitHubClientID     string `yaml:"github_client_id"     env:"OAUTH_GITHUB_CLIENT_ID"`
	GitHubClientSecret string `yaml:"github_client_secret" env:"OAUTH_GITHUB_CLIENT_SECRET"`
	GitHubRedirectURI  string `yaml:"github_redirect_uri"  env:"OAUTH_GITHUB_REDIRECT_URI"`
}

func (o OAuthConfig) GoogleEnabled() bool {
	return o.GoogleClientID != "" && o.GoogleClientSecret != ""
}

func (o OAuthConfig) GitHubEnabled() bool {
	return o.GitHubClientID != "" && o.GitHubClientSecret != ""
}

type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

type StoreConfig struct {
	// Driver is "postgres" or "memory".
	Driver          string   `yaml:"driver"           env:"STORE_DRIVER"           env-default:"postgres"`
	OrderableFields []string `yaml:"orderable_fields" env:"STORE_ORDERABLE_FIELDS" env-default:"createdAt" env-separator:","`
}

type WSConfig struct {
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WS_WRITE_TIMEOUT" env-default:"10s"`
	PongTimeout  time.Duration `yaml:"pong_timeout"  env:"WS_PONG_TIMEOUT"  env-default:"60s"`
	MaxMessage   int64         `yaml:"max_message"   env:"WS_MAX_MESSAGE"   env-default:"4096"`
	SendBuffer   int           `yaml:"send_buffer"   env:"WS_SEND_BUFFER"   env-default:"16"`
}

// Load reads configuration from the YAML file named by CONFIG_PATH, when set,
// and from the environment. Environment values win over the file.
func Load() (Config, error) {
	var cfg Config

	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

var errInvalidConfig = errors.New("invalid configuration")

func (c *Config) Validate() error {
	var problems []string

	if len(c.JWT.AccessSecret) < 16 {
		problems = append(problems, "jwt.access_secret must be at least 16 characters")
	}
	if len(c.JWT.RefreshSecret) < 16 {
		problems = append(problems, "jwt.refresh_secret must be at least 16 characters")
	}
	if c.JWT.AccessSecret != "" && c.JWT.AccessSecret == c.JWT.RefreshSecret {
		problems = append(problems, "jwt access and refresh secrets must differ")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		problems = append(problems, "jwt ttls must be positive")
	}

	switch strings.ToLower(strings.TrimSpace(c.Store.Driver)) {
	case "postgres", "memory":
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q is not one of postgres, memory", c.Store.Driver))
	}

	if c.WS.SendBuffer <= 0 {
		problems = append(problems, "ws.send_buffer must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", errInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
