package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Auth         AuthConfig
	Subscription SubscriptionConfig
	Paystack     PaystackConfig
	Notifier     NotifierConfig
	Telegram     TelegramConfig
	Twilio       TwilioConfig
	GCP          GCPConfig
	Storage      StorageConfig
	Onboarding   OnboardingConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
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
	if cfg.Paystack.CallbackURL == "" {
		cfg.Paystack.CallbackURL = strings.TrimRight(cfg.App.APIURL, "/") + "/api/payment/callback"
	}
	if cfg.Subscription.PlanAmountKobo <= 0 {
		return nil, fmt.Errorf("%s must be positive", EnvPlanAmountKobo)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MINIBIZ_APP_ENV" required:"true"`
	Port         string `envconfig:"MINIBIZ_APP_PORT" required:"true"`
	URL          string `envconfig:"MINIBIZ_APP_URL" default:"http://localhost:3000"`
	APIURL       string `envconfig:"MINIBIZ_API_URL" default:"http://localhost:8080"`
	LogLevel     string `envconfig:"MINIBIZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MINIBIZ_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN string `envconfig:"MINIBIZ_DB_DSN"`

	LegacyHost     string `envconfig:"MINIBIZ_DB_HOST"`
	LegacyPort     int    `envconfig:"MINIBIZ_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MINIBIZ_DB_USER"`
	LegacyPassword string `envconfig:"MINIBIZ_DB_PASSWORD"`
	LegacyName     string `envconfig:"MINIBIZ_DB_NAME"`
	LegacySSLMode  string `envconfig:"MINIBIZ_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MINIBIZ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MINIBIZ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MINIBIZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MINIBIZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"MINIBIZ_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

// RedisConfig is optional; without a URL or address the idempotency and
// rate limit middleware are not mounted.
type RedisConfig struct {
	URL          string        `envconfig:"MINIBIZ_REDIS_URL"`
	Address      string        `envconfig:"MINIBIZ_REDIS_ADDR"`
	Password     string        `envconfig:"MINIBIZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"MINIBIZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MINIBIZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MINIBIZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MINIBIZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MINIBIZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MINIBIZ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// AuthConfig describes the access tokens minted by the hosted identity provider.
type AuthConfig struct {
	JWTSecret string `envconfig:"MINIBIZ_AUTH_JWT_SECRET" required:"true"`
	Issuer    string `envconfig:"MINIBIZ_AUTH_JWT_ISSUER"`
	Audience  string `envconfig:"MINIBIZ_AUTH_JWT_AUDIENCE" default:"authenticated"`
}

type SubscriptionConfig struct {
	AdminEmail       string `envconfig:"MINIBIZ_ADMIN_EMAIL"`
	PlanName         string `envconfig:"MINIBIZ_PLAN_NAME" default:"starter"`
	PlanAmountKobo   int64  `envconfig:"MINIBIZ_PLAN_AMOUNT_KOBO" default:"480000"`
	PlanDurationDays int    `envconfig:"MINIBIZ_PLAN_DURATION_DAYS" default:"365"`
	RenewExpired     bool   `envconfig:"MINIBIZ_PAYMENT_RENEW_EXPIRED" default:"true"`
}

// PlanDuration returns how long a paid subscription stays active.
func (s SubscriptionConfig) PlanDuration() time.Duration {
	days := s.PlanDurationDays
	if days <= 0 {
		days = 365
	}
	return time.Duration(days) * 24 * time.Hour
}

// IsAdminEmail reports whether email matches the configured bypass account.
func (s SubscriptionConfig) IsAdminEmail(email string) bool {
	admin := strings.TrimSpace(s.AdminEmail)
	if admin == "" {
		return false
	}
	return strings.EqualFold(admin, strings.TrimSpace(email))
}

type PaystackConfig struct {
	SecretKey   string        `envconfig:"MINIBIZ_PAYSTACK_SECRET_KEY"`
	BaseURL     string        `envconfig:"MINIBIZ_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	CallbackURL string        `envconfig:"MINIBIZ_PAYSTACK_CALLBACK_URL"`
	Timeout     time.Duration `envconfig:"MINIBIZ_PAYSTACK_TIMEOUT" default:"15s"`
}

type NotifierConfig struct {
	Transport string        `envconfig:"MINIBIZ_NOTIFIER_TRANSPORT" default:"log"`
	Timeout   time.Duration `envconfig:"MINIBIZ_NOTIFIER_TIMEOUT" default:"10s"`
}

type TelegramConfig struct {
	BotToken string `envconfig:"MINIBIZ_TELEGRAM_BOT_TOKEN"`
	BaseURL  string `envconfig:"MINIBIZ_TELEGRAM_BASE_URL" default:"https://api.telegram.org"`
}

type TwilioConfig struct {
	AccountSID         string `envconfig:"MINIBIZ_TWILIO_ACCOUNT_SID"`
	AuthToken          string `envconfig:"MINIBIZ_TWILIO_AUTH_TOKEN"`
	WhatsAppFrom       string `envconfig:"MINIBIZ_TWILIO_WHATSAPP_FROM"`
	BaseURL            string `envconfig:"MINIBIZ_TWILIO_BASE_URL" default:"https://api.twilio.com"`
	DefaultCountryCode string `envconfig:"MINIBIZ_TWILIO_DEFAULT_COUNTRY_CODE" default:"234"`
}

type GCPConfig struct {
	CredentialsJSON        string `envconfig:"MINIBIZ_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MINIBIZ_GOOGLE_APPLICATION_CREDENTIALS"`
}

type StorageConfig struct {
	HeroBucket     string        `envconfig:"MINIBIZ_STORAGE_HERO_BUCKET" default:"hero-images"`
	ProofBucket    string        `envconfig:"MINIBIZ_STORAGE_PROOF_BUCKET" default:"payment-proofs"`
	PublicBaseURL  string        `envconfig:"MINIBIZ_STORAGE_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
	Timeout        time.Duration `envconfig:"MINIBIZ_STORAGE_TIMEOUT" default:"30s"`
	HeroImageMaxMB int           `envconfig:"MINIBIZ_HERO_IMAGE_MAX_MB" default:"10"`
	ProofMaxMB     int           `envconfig:"MINIBIZ_PROOF_MAX_MB" default:"5"`
}

func (s StorageConfig) HeroImageMaxBytes() int64 {
	return int64(s.HeroImageMaxMB) << 20
}

func (s StorageConfig) ProofMaxBytes() int64 {
	return int64(s.ProofMaxMB) << 20
}

type OnboardingConfig struct {
	SlugMaxAttempts int `envconfig:"MINIBIZ_SLUG_MAX_ATTEMPTS" default:"50"`
}

type RateLimitConfig struct {
	OrderWindow time.Duration `envconfig:"MINIBIZ_ORDER_RATE_LIMIT_WINDOW" default:"1m"`
	OrderPerIP  int           `envconfig:"MINIBIZ_ORDER_RATE_LIMIT_PER_IP" default:"10"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"MINIBIZ_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MINIBIZ_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
