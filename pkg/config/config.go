package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix  = ""
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Auth         AuthConfig
	AI           AIConfig
	Storage      StorageConfig
	Document     DocumentConfig
	AIRateLimit  AIRateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.AI.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AUTOAUDIT_APP_ENV" required:"true"`
	Port         string `envconfig:"AUTOAUDIT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"AUTOAUDIT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AUTOAUDIT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"AUTOAUDIT_DB_DSN"`
	Driver string `envconfig:"AUTOAUDIT_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"AUTOAUDIT_DB_HOST"`
	Port     int    `envconfig:"AUTOAUDIT_DB_PORT" default:"5432"`
	User     string `envconfig:"AUTOAUDIT_DB_USER"`
	Password string `envconfig:"AUTOAUDIT_DB_PASSWORD"`
	Name     string `envconfig:"AUTOAUDIT_DB_NAME"`
	SSLMode  string `envconfig:"AUTOAUDIT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AUTOAUDIT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AUTOAUDIT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AUTOAUDIT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AUTOAUDIT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either AUTOAUDIT_DB_DSN or host/user/name settings are required")
	}
	userInfo := url.User(d.User)
	if d.Password != "" {
		userInfo = url.UserPassword(d.User, d.Password)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.Name,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"AUTOAUDIT_REDIS_URL"`
	Address      string        `envconfig:"AUTOAUDIT_REDIS_ADDR"`
	Password     string        `envconfig:"AUTOAUDIT_REDIS_PASSWORD"`
	DB           int           `envconfig:"AUTOAUDIT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AUTOAUDIT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AUTOAUDIT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AUTOAUDIT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AUTOAUDIT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AUTOAUDIT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis backend is configured at all. The API can
// run without one; rate limiting is then disabled.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

// AuthConfig describes how bearer tokens issued by the external identity
// provider are verified.
type AuthConfig struct {
	JWTSecret string `envconfig:"AUTOAUDIT_AUTH_JWT_SECRET" required:"true"`
	Issuer    string `envconfig:"AUTOAUDIT_AUTH_ISSUER" required:"true"`
}

type AIConfig struct {
	Provider       string        `envconfig:"AUTOAUDIT_AI_PROVIDER" default:"openai"`
	APIKey         string        `envconfig:"AUTOAUDIT_AI_API_KEY"`
	BaseURL        string        `envconfig:"AUTOAUDIT_AI_BASE_URL" default:"https://api.openai.com/v1"`
	ExtractModel   string        `envconfig:"AUTOAUDIT_AI_EXTRACT_MODEL" default:"gpt-4o"`
	ChatModel      string        `envconfig:"AUTOAUDIT_AI_CHAT_MODEL" default:"gpt-4o"`
	RequestTimeout time.Duration `envconfig:"AUTOAUDIT_AI_REQUEST_TIMEOUT" default:"60s"`
}

const (
	AIProviderOpenAI = "openai"
	AIProviderGemini = "gemini"
)

func (a AIConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(a.Provider)) {
	case AIProviderOpenAI, AIProviderGemini:
		return nil
	}
	return fmt.Errorf("unknown AI provider %q", a.Provider)
}

type StorageConfig struct {
	Endpoint      string `envconfig:"AUTOAUDIT_STORAGE_ENDPOINT" required:"true"`
	AccessKey     string `envconfig:"AUTOAUDIT_STORAGE_ACCESS_KEY"`
	SecretKey     string `envconfig:"AUTOAUDIT_STORAGE_SECRET_KEY"`
	Bucket        string `envconfig:"AUTOAUDIT_STORAGE_BUCKET" default:"autoaudit-invoices"`
	UseSSL        bool   `envconfig:"AUTOAUDIT_STORAGE_USE_SSL" default:"true"`
	PublicBaseURL string `envconfig:"AUTOAUDIT_STORAGE_PUBLIC_BASE_URL"`
}

type DocumentConfig struct {
	FetchTimeout   time.Duration `envconfig:"AUTOAUDIT_DOCUMENT_FETCH_TIMEOUT" default:"15s"`
	MaxFetchBytes  int64         `envconfig:"AUTOAUDIT_DOCUMENT_MAX_FETCH_BYTES" default:"20971520"`
	MaxUploadBytes int64         `envconfig:"AUTOAUDIT_DOCUMENT_MAX_UPLOAD_BYTES" default:"20971520"`
}

type AIRateLimitConfig struct {
	Window time.Duration `envconfig:"AUTOAUDIT_AI_RATE_LIMIT_WINDOW" default:"1m"`
	Limit  int           `envconfig:"AUTOAUDIT_AI_RATE_LIMIT_PER_USER" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AUTOAUDIT_AUTO_MIGRATE" default:"false"`
}
