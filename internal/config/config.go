package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gantzhq/gantz/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	MongoDB   MongoDBConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Keycloak  KeycloakConfig
	JWT       JWTConfig
	MinIO     MinIOConfig
	Site      SiteConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StoreConfig selects the record store backend: memory, mongo or postgres.
type StoreConfig struct {
	Driver string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type PostgresConfig struct {
	DSN      string
	MaxConns int32
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type KeycloakConfig struct {
	URL          string
	Realm        string
	ClientID     string
	ClientSecret string

	// AllowInsecureToken skips id token signature checks when discovery fails.
	AllowInsecureToken bool
}

// Issuer is the realm's OIDC issuer URL.
func (k KeycloakConfig) Issuer() string {
	return strings.TrimRight(k.URL, "/") + "/realms/" + k.Realm
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type MinIOConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	Bucket        string
	PublicBaseURL string
}

// SiteConfig carries the knobs of the site itself.
type SiteConfig struct {
	AdminEmail         string
	PageSize           int
	UploadPrefix       string
	UploadCacheSeconds int
	RecentDays         int
	RecentLimit        int
	YouTubeURL         string
	Links              []Link
	CascadeComments    bool
}

// Link is an outbound link shown on the landing view.
type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5001")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("STORE_DRIVER", "memory")
	viper.SetDefault("MONGODB_DATABASE", "gantz")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("POSTGRES_MAX_CONNS", 10)
	viper.SetDefault("JWT_ACCESS_TOKEN_TTL", 15)
	viper.SetDefault("JWT_REFRESH_TOKEN_TTL", 10080)
	viper.SetDefault("MINIO_BUCKET", "media")
	viper.SetDefault("SITE_PAGE_SIZE", 24)
	viper.SetDefault("SITE_UPLOAD_PREFIX", "images")
	viper.SetDefault("SITE_UPLOAD_CACHE_SECONDS", 3600)
	viper.SetDefault("SITE_RECENT_DAYS", 7)
	viper.SetDefault("SITE_RECENT_LIMIT", 30)
	viper.SetDefault("SITE_CASCADE_COMMENTS", true)
	viper.SetDefault("RATE_LIMIT_ENABLED", true)
	viper.SetDefault("RATE_LIMIT_RPS", 1.0)
	viper.SetDefault("RATE_LIMIT_BURST", 5)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 10)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Driver: strings.ToLower(strings.TrimSpace(viper.GetString("STORE_DRIVER"))),
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Postgres: PostgresConfig{
			DSN:      viper.GetString("POSTGRES_DSN"),
			MaxConns: viper.GetInt32("POSTGRES_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		Keycloak: KeycloakConfig{
			URL:          viper.GetString("KEYCLOAK_URL"),
			Realm:        viper.GetString("KEYCLOAK_REALM"),
			ClientID:     viper.GetString("KEYCLOAK_CLIENT_ID"),
			ClientSecret: viper.GetString("KEYCLOAK_CLIENT_SECRET"),

			AllowInsecureToken: viper.GetBool("ALLOW_INSECURE_TOKEN"),
		},
		JWT: JWTConfig{
			Secret:          os.Getenv("JWT_SECRET"),
			AccessTokenTTL:  time.Duration(viper.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
			RefreshTokenTTL: time.Duration(viper.GetInt("JWT_REFRESH_TOKEN_TTL")) * time.Minute,
		},
		MinIO: MinIOConfig{
			Endpoint:      viper.GetString("MINIO_ENDPOINT"),
			AccessKey:     viper.GetString("MINIO_ACCESS_KEY"),
			SecretKey:     os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:        viper.GetBool("MINIO_USE_SSL"),
			Bucket:        viper.GetString("MINIO_BUCKET"),
			PublicBaseURL: viper.GetString("MINIO_PUBLIC_BASE_URL"),
		},
		Site: SiteConfig{
			AdminEmail:         viper.GetString("SITE_ADMIN_EMAIL"),
			PageSize:           viper.GetInt("SITE_PAGE_SIZE"),
			UploadPrefix:       viper.GetString("SITE_UPLOAD_PREFIX"),
			UploadCacheSeconds: viper.GetInt("SITE_UPLOAD_CACHE_SECONDS"),
			RecentDays:         viper.GetInt("SITE_RECENT_DAYS"),
			RecentLimit:        viper.GetInt("SITE_RECENT_LIMIT"),
			YouTubeURL:         viper.GetString("SITE_YOUTUBE_URL"),
			Links:              parseLinks(viper.GetString("SITE_LINKS")),
			CascadeComments:    viper.GetBool("SITE_CASCADE_COMMENTS"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Basic validation
	if cfg.JWT.Secret == "" {
		logger.Warnf("JWT_SECRET is not set; set a secure value in production")
	}
	if cfg.Site.AdminEmail == "" {
		logger.Warnf("SITE_ADMIN_EMAIL is not set; no viewer will be treated as admin")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "memory":
	case "mongo":
		if c.MongoDB.URI == "" {
			return fmt.Errorf("STORE_DRIVER=mongo requires MONGODB_URI")
		}
	case "postgres":
		if c.Postgres.DSN == "" {
			return fmt.Errorf("STORE_DRIVER=postgres requires POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q (memory|mongo|postgres)", c.Store.Driver)
	}
	if c.Site.PageSize <= 0 {
		return fmt.Errorf("SITE_PAGE_SIZE must be positive, got %d", c.Site.PageSize)
	}
	return nil
}

// parseLinks reads "label=href,label=href".
func parseLinks(raw string) []Link {
	var out []Link
	for _, part := range strings.Split(raw, ",") {
		label, href, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || strings.TrimSpace(label) == "" || strings.TrimSpace(href) == "" {
			continue
		}
		out = append(out, Link{Label: strings.TrimSpace(label), Href: strings.TrimSpace(href)})
	}
	return out
}
