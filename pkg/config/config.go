package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Identity provider modes. The remote mode talks to the external
// credential verification service; the static mode checks bcrypt
// hashes configured locally and exists for development and bootstrap.
const (
	IdentityModeRemote = "remote"
	IdentityModeStatic = "static"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Store    StoreConfig
	Identity IdentityConfig
	Session  SessionConfig
	Redis    RedisConfig
	Audit    AuditConfig
	CORS     CORSConfig
	Log      LogConfig
	Export   ExportConfig
}

// StoreConfig locates the remote document store holding the records.
type StoreConfig struct {
	BaseURL    string
	Collection string
	Timeout    time.Duration
}

// IdentityConfig locates the credential verification service.
type IdentityConfig struct {
	Mode    string
	BaseURL string
	Timeout time.Duration
	// StaticUsers holds "email:bcrypt-hash" pairs for static mode.
	StaticUsers []string
}

// SessionConfig governs issued session tokens and the sign-in route
// the guard redirects unauthenticated requests to.
type SessionConfig struct {
	Secret     string
	TTL        time.Duration
	Issuer     string
	SignInPath string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuditConfig controls the mutation audit trail database.
type AuditConfig struct {
	Enabled      bool
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ExportConfig toggles roster export endpoints.
type ExportConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Store = StoreConfig{
		BaseURL:    v.GetString("STORE_BASE_URL"),
		Collection: v.GetString("STORE_COLLECTION"),
		Timeout:    parseDuration(v.GetString("STORE_TIMEOUT"), 10*time.Second),
	}

	cfg.Identity = IdentityConfig{
		Mode:        v.GetString("IDENTITY_MODE"),
		BaseURL:     v.GetString("IDENTITY_BASE_URL"),
		Timeout:     parseDuration(v.GetString("IDENTITY_TIMEOUT"), 5*time.Second),
		StaticUsers: splitAndTrim(v.GetString("IDENTITY_STATIC_USERS")),
	}

	cfg.Session = SessionConfig{
		Secret:     v.GetString("SESSION_SECRET"),
		TTL:        parseDuration(v.GetString("SESSION_TTL"), 12*time.Hour),
		Issuer:     v.GetString("SESSION_ISSUER"),
		SignInPath: v.GetString("SESSION_SIGNIN_PATH"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Audit = AuditConfig{
		Enabled:      v.GetBool("ENABLE_AUDIT"),
		Host:         v.GetString("AUDIT_DB_HOST"),
		Port:         v.GetInt("AUDIT_DB_PORT"),
		User:         v.GetString("AUDIT_DB_USER"),
		Password:     v.GetString("AUDIT_DB_PASSWORD"),
		Name:         v.GetString("AUDIT_DB_NAME"),
		SSLMode:      v.GetString("AUDIT_DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("AUDIT_DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("AUDIT_DB_MAX_IDLE_CONNS"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Export = ExportConfig{Enabled: v.GetBool("ENABLE_EXPORT")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("STORE_BASE_URL", "http://localhost:9090")
	v.SetDefault("STORE_COLLECTION", "users")
	v.SetDefault("STORE_TIMEOUT", "10s")

	v.SetDefault("IDENTITY_MODE", IdentityModeRemote)
	v.SetDefault("IDENTITY_BASE_URL", "http://localhost:9091")
	v.SetDefault("IDENTITY_TIMEOUT", "5s")
	v.SetDefault("IDENTITY_STATIC_USERS", "")

	v.SetDefault("SESSION_SECRET", "dev_secret")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("SESSION_ISSUER", "student-console")
	v.SetDefault("SESSION_SIGNIN_PATH", "/login")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ENABLE_AUDIT", false)
	v.SetDefault("AUDIT_DB_HOST", "localhost")
	v.SetDefault("AUDIT_DB_PORT", 5432)
	v.SetDefault("AUDIT_DB_USER", "postgres")
	v.SetDefault("AUDIT_DB_PASSWORD", "postgres")
	v.SetDefault("AUDIT_DB_NAME", "student_console")
	v.SetDefault("AUDIT_DB_SSL_MODE", "disable")
	v.SetDefault("AUDIT_DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("AUDIT_DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_EXPORT", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
