package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lieuxdexception/site/internal/storage"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Keycloak  KeycloakConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Storage   storage.Config
	Odoo      OdooConfig
	NATS      NATSConfig
	Site      SiteConfig
	Images    ImagesConfig
	Export    ExportConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
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
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// RateLimitConfig covers the global limiter and the stricter contact-form limiter.
type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
	ContactLimit  int
	ContactWindow time.Duration
}

// OdooConfig points at the CRM the contact-form leads are pushed into.
// SyncMode is one of inline, async or manual.
type OdooConfig struct {
	URL         string
	Database    string
	Username    string
	APIKey      string
	Timeout     time.Duration
	SyncMode    string
	MaxAttempts int
}

type NATSConfig struct {
	URL string
}

type SiteConfig struct {
	Name        string
	BaseURL     string
	AdminEmails []string
	AnalyticsID string
}

type ImagesConfig struct {
	PresetsFile    string
	MaxUploadBytes int64
}

// ExportConfig is the S3 destination used by `sitectl export-leads`.
type ExportConfig struct {
	Bucket   string
	Region   string
	Endpoint string
}

// Enabled reports whether enough Odoo settings are present to talk to the CRM.
func (o OdooConfig) Enabled() bool {
	return o.URL != "" && o.Database != "" && o.Username != "" && o.APIKey != ""
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "lieux_exception")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("JWT_ACCESS_TOKEN_TTL", 15)
	viper.SetDefault("JWT_REFRESH_TOKEN_TTL", 10080)
	viper.SetDefault("RATE_LIMIT_ENABLED", true)
	viper.SetDefault("RATE_LIMIT_RPS", 10)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	viper.SetDefault("CONTACT_RATE_LIMIT", 5)
	viper.SetDefault("CONTACT_RATE_WINDOW_MINUTES", 10)
	viper.SetDefault("MINIO_BUCKET", "lieux-exception")
	viper.SetDefault("MINIO_REGION", "us-east-1")
	viper.SetDefault("MINIO_PRESIGN_MINUTES", 60)
	viper.SetDefault("ODOO_TIMEOUT", 15)
	viper.SetDefault("ODOO_SYNC_MODE", "inline")
	viper.SetDefault("ODOO_MAX_ATTEMPTS", 5)
	viper.SetDefault("SITE_NAME", "Lieux d'Exception")
	viper.SetDefault("SITE_BASE_URL", "http://localhost:8080")
	viper.SetDefault("IMAGES_MAX_UPLOAD_MB", 15)
	viper.SetDefault("EXPORT_S3_REGION", "eu-west-3")

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      os.Getenv("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Keycloak: KeycloakConfig{
			URL:          viper.GetString("KEYCLOAK_URL"),
			Realm:        viper.GetString("KEYCLOAK_REALM"),
			ClientID:     viper.GetString("KEYCLOAK_CLIENT_ID"),
			ClientSecret: viper.GetString("KEYCLOAK_CLIENT_SECRET"),
		},
		JWT: JWTConfig{
			Secret:          os.Getenv("JWT_SECRET"),
			AccessTokenTTL:  time.Duration(viper.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
			RefreshTokenTTL: time.Duration(viper.GetInt("JWT_REFRESH_TOKEN_TTL")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
			ContactLimit:  viper.GetInt("CONTACT_RATE_LIMIT"),
			ContactWindow: time.Duration(viper.GetInt("CONTACT_RATE_WINDOW_MINUTES")) * time.Minute,
		},
		Storage: storage.Config{
			Endpoint:      viper.GetString("MINIO_ENDPOINT"),
			AccessKey:     viper.GetString("MINIO_ACCESS_KEY"),
			SecretKey:     os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:        viper.GetBool("MINIO_USE_SSL"),
			Bucket:        viper.GetString("MINIO_BUCKET"),
			Region:        viper.GetString("MINIO_REGION"),
			PublicBaseURL: viper.GetString("MINIO_PUBLIC_URL"),
			PresignTTL:    time.Duration(viper.GetInt("MINIO_PRESIGN_MINUTES")) * time.Minute,
		},
		Odoo: OdooConfig{
			URL:         strings.TrimRight(viper.GetString("ODOO_URL"), "/"),
			Database:    viper.GetString("ODOO_DB"),
			Username:    viper.GetString("ODOO_USERNAME"),
			APIKey:      os.Getenv("ODOO_API_KEY"),
			Timeout:     time.Duration(viper.GetInt("ODOO_TIMEOUT")) * time.Second,
			SyncMode:    strings.ToLower(viper.GetString("ODOO_SYNC_MODE")),
			MaxAttempts: viper.GetInt("ODOO_MAX_ATTEMPTS"),
		},
		NATS: NATSConfig{
			URL: viper.GetString("NATS_URL"),
		},
		Site: SiteConfig{
			Name:        viper.GetString("SITE_NAME"),
			BaseURL:     strings.TrimRight(viper.GetString("SITE_BASE_URL"), "/"),
			AdminEmails: splitList(viper.GetString("ADMIN_EMAILS")),
			AnalyticsID: viper.GetString("ANALYTICS_ID"),
		},
		Images: ImagesConfig{
			PresetsFile:    viper.GetString("IMAGES_PRESETS_FILE"),
			MaxUploadBytes: int64(viper.GetInt("IMAGES_MAX_UPLOAD_MB")) << 20,
		},
		Export: ExportConfig{
			Bucket:   viper.GetString("EXPORT_S3_BUCKET"),
			Region:   viper.GetString("EXPORT_S3_REGION"),
			Endpoint: viper.GetString("EXPORT_S3_ENDPOINT"),
		},
	}

	switch cfg.Odoo.SyncMode {
	case "inline", "async", "manual":
	default:
		log.Printf("WARNING: unknown ODOO_SYNC_MODE %q, falling back to inline", cfg.Odoo.SyncMode)
		cfg.Odoo.SyncMode = "inline"
	}

	// Basic validation
	if cfg.JWT.Secret == "" {
		log.Println("WARNING: JWT_SECRET is not set; set a secure value in production")
	}
	if !cfg.Storage.Enabled() {
		log.Println("WARNING: MINIO_ENDPOINT is not set; media is kept in memory")
	}
	if cfg.MongoDB.URI == "" {
		log.Println("WARNING: MONGODB_URI is not set; using in-memory repositories")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
