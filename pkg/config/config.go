package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	Service   ServiceConfig
	Commerce  CommerceConfig
	DB        DBConfig
	Redis     RedisConfig
	Ownership OwnershipConfig
	Orders    OrdersConfig
	Password  PasswordConfig
	HTTP      HTTPConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Orders.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOREFRONT_SERVICE_KIND" default:"api"`
}

// CommerceConfig points at the external commerce platform REST API.
type CommerceConfig struct {
	BaseURL        string        `envconfig:"STOREFRONT_COMMERCE_BASE_URL" required:"true"`
	ConsumerKey    string        `envconfig:"STOREFRONT_COMMERCE_CONSUMER_KEY" required:"true"`
	ConsumerSecret string        `envconfig:"STOREFRONT_COMMERCE_CONSUMER_SECRET" required:"true"`
	Timeout        time.Duration `envconfig:"STOREFRONT_COMMERCE_TIMEOUT" default:"15s"`
	AdminPath      string        `envconfig:"STOREFRONT_COMMERCE_ADMIN_PATH" default:"/wp-json/wc/v3"`
	StorePath      string        `envconfig:"STOREFRONT_COMMERCE_STORE_PATH" default:"/wp-json/wc/store/v1"`
	ContentPath    string        `envconfig:"STOREFRONT_COMMERCE_CONTENT_PATH" default:"/wp-json/wp/v2"`
	// AutoReduceStatuses lists the order statuses in which the platform decrements stock on its own.
	AutoReduceStatuses []string `envconfig:"STOREFRONT_COMMERCE_AUTO_REDUCE_STATUSES" default:"processing,on-hold,completed"`
}

// RequestTimeout clamps the configured timeout to the supported 10s-30s window.
func (c CommerceConfig) RequestTimeout() time.Duration {
	switch {
	case c.Timeout <= 0:
		return DefaultCommerceTimeout
	case c.Timeout < MinCommerceTimeout:
		return MinCommerceTimeout
	case c.Timeout > MaxCommerceTimeout:
		return MaxCommerceTimeout
	}
	return c.Timeout
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	PostsTable   string        `envconfig:"STOREFRONT_DB_POSTS_TABLE" default:"wp_posts"`
	OwnerColumn  string        `envconfig:"STOREFRONT_DB_OWNER_COLUMN" default:"post_author"`
	QueryTimeout time.Duration `envconfig:"STOREFRONT_DB_QUERY_TIMEOUT" default:"10s"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type OwnershipConfig struct {
	BatchSize int `envconfig:"STOREFRONT_OWNERSHIP_BATCH_SIZE" default:"20"`
}

// EffectiveBatchSize never exceeds MaxOwnershipBatchSize ids per upstream call.
func (o OwnershipConfig) EffectiveBatchSize() int {
	if o.BatchSize <= 0 || o.BatchSize > MaxOwnershipBatchSize {
		return MaxOwnershipBatchSize
	}
	return o.BatchSize
}

type OrdersConfig struct {
	CustomerPolicy string        `envconfig:"STOREFRONT_ORDERS_CUSTOMER_POLICY" default:"guest_fallback"`
	PendingExpiry  time.Duration `envconfig:"STOREFRONT_ORDERS_PENDING_EXPIRY" default:"72h"`
	ExpiryPageSize int           `envconfig:"STOREFRONT_ORDERS_EXPIRY_PAGE_SIZE" default:"50"`
	CronInterval   time.Duration `envconfig:"STOREFRONT_ORDERS_CRON_INTERVAL" default:"1h"`
	RecordAttempts int           `envconfig:"STOREFRONT_ORDERS_RECORD_ATTEMPTS" default:"3"`
	RecordBackoff  time.Duration `envconfig:"STOREFRONT_ORDERS_RECORD_BACKOFF" default:"250ms"`
}

// GuestFallback reports whether a failed customer resolution still lets order creation proceed.
func (o OrdersConfig) GuestFallback() bool {
	return !strings.EqualFold(strings.TrimSpace(o.CustomerPolicy), CustomerPolicyStrict)
}

func (o OrdersConfig) validate() error {
	policy := strings.ToLower(strings.TrimSpace(o.CustomerPolicy))
	if policy != "" && policy != CustomerPolicyGuestFallback && policy != CustomerPolicyStrict {
		return fmt.Errorf("%s must be %q or %q", EnvOrdersCustomerPolicy, CustomerPolicyGuestFallback, CustomerPolicyStrict)
	}
	return nil
}

// HTTPConfig covers the API surface: allowed browser origins and the
// fixed-window limits applied to cart mutations.
type HTTPConfig struct {
	CORSOrigins      []string      `envconfig:"STOREFRONT_HTTP_CORS_ORIGINS" default:"http://localhost:3000"`
	RateLimitWindow  time.Duration `envconfig:"STOREFRONT_HTTP_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitPerIP   int           `envconfig:"STOREFRONT_HTTP_RATE_LIMIT_PER_IP" default:"120"`
	RateLimitPerCart int           `envconfig:"STOREFRONT_HTTP_RATE_LIMIT_PER_CART" default:"60"`
}

type PasswordConfig struct {
	GeneratedLength int `envconfig:"STOREFRONT_GENERATED_PASSWORD_LENGTH" default:"24"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	// Legacy parts only assemble postgres URLs.
	if driver := strings.ToLower(strings.TrimSpace(db.Driver)); driver == DBDriverSQLite || driver == DBDriverMySQL {
		return fmt.Errorf("%s is required for the %s driver", EnvDBDSN, driver)
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
