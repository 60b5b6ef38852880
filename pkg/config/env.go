package config

const (
	EnvPrefix = "MINIBIZ"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv    = "MINIBIZ_APP_ENV"
	EnvPort      = "MINIBIZ_APP_PORT"
	EnvAppURL    = "MINIBIZ_APP_URL"
	EnvDBDSN     = "MINIBIZ_DB_DSN"
	EnvDBHost    = "MINIBIZ_DB_HOST"
	EnvDBUser    = "MINIBIZ_DB_USER"
	EnvDBName    = "MINIBIZ_DB_NAME"
	EnvJWTSecret = "MINIBIZ_AUTH_JWT_SECRET"

	EnvAdminEmail          = "MINIBIZ_ADMIN_EMAIL"
	EnvPlanAmountKobo      = "MINIBIZ_PLAN_AMOUNT_KOBO"
	EnvPaymentRenewExpired = "MINIBIZ_PAYMENT_RENEW_EXPIRED"
	EnvPaystackSecretKey   = "MINIBIZ_PAYSTACK_SECRET_KEY"
	EnvNotifierTransport   = "MINIBIZ_NOTIFIER_TRANSPORT"
	EnvTelegramBotToken    = "MINIBIZ_TELEGRAM_BOT_TOKEN"
	EnvRedisURL            = "MINIBIZ_REDIS_URL"
	EnvCORSAllowedOrigins  = "MINIBIZ_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
