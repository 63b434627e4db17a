package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	FeatureFlags  FeatureFlagsConfig
	Stripe        StripeConfig
	Sendgrid      SendgridConfig
	Notifications NotificationsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"COMANDA_APP_ENV" required:"true"`
	Port         string `envconfig:"COMANDA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"COMANDA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"COMANDA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"COMANDA_DB_DSN"`
	Driver string `envconfig:"COMANDA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"COMANDA_DB_HOST"`
	Port     int    `envconfig:"COMANDA_DB_PORT" default:"5432"`
	User     string `envconfig:"COMANDA_DB_USER"`
	Password string `envconfig:"COMANDA_DB_PASSWORD"`
	Name     string `envconfig:"COMANDA_DB_NAME"`
	SSLMode  string `envconfig:"COMANDA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"COMANDA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"COMANDA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"COMANDA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"COMANDA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"COMANDA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"COMANDA_REDIS_ADDR"`
	Password     string        `envconfig:"COMANDA_REDIS_PASSWORD"`
	DB           int           `envconfig:"COMANDA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"COMANDA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"COMANDA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"COMANDA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"COMANDA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"COMANDA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"COMANDA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"COMANDA_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"COMANDA_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"COMANDA_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"COMANDA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"COMANDA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"COMANDA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"COMANDA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"COMANDA_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"COMANDA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"COMANDA_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey        string        `envconfig:"COMANDA_STRIPE_API_KEY"`
	WebhookSecret string        `envconfig:"COMANDA_STRIPE_WEBHOOK_SECRET"`
	Env           string        `envconfig:"COMANDA_STRIPE_ENV" default:"test"`
	Currency      string        `envconfig:"COMANDA_STRIPE_CURRENCY" default:"usd"`
	IntentRetries int           `envconfig:"COMANDA_STRIPE_INTENT_RETRIES" default:"3"`
	IntentBackoff time.Duration `envconfig:"COMANDA_STRIPE_INTENT_BACKOFF" default:"250ms"`
	EventTTL      time.Duration `envconfig:"COMANDA_STRIPE_EVENT_TTL" default:"72h"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SendgridConfig struct {
	APIKey      string `envconfig:"COMANDA_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"COMANDA_SENDGRID_FROM_EMAIL"`
	FromName    string `envconfig:"COMANDA_SENDGRID_FROM_NAME" default:"Comanda"`
	ContactTo   string `envconfig:"COMANDA_SENDGRID_CONTACT_EMAIL"`
}

// NotificationsConfig decides which lifecycle transitions email the customer.
// The defaults mirror the behavior the frontends were built against: routine
// failures stay quiet, confirmations and staff cancellations do not.
type NotificationsConfig struct {
	OnOrderCreated   bool `envconfig:"COMANDA_NOTIFY_ORDER_CREATED" default:"true"`
	OnPaymentSuccess bool `envconfig:"COMANDA_NOTIFY_PAYMENT_SUCCESS" default:"true"`
	OnPaymentFailed  bool `envconfig:"COMANDA_NOTIFY_PAYMENT_FAILED" default:"false"`
	OnCustomerCancel bool `envconfig:"COMANDA_NOTIFY_CUSTOMER_CANCEL" default:"false"`
	OnStaffCancel    bool `envconfig:"COMANDA_NOTIFY_STAFF_CANCEL" default:"true"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
