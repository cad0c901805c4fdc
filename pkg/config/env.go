package config

import "time"

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv               = "STOREFRONT_APP_ENV"
	EnvPort                 = "STOREFRONT_APP_PORT"
	EnvCommerceBaseURL      = "STOREFRONT_COMMERCE_BASE_URL"
	EnvCommerceKey          = "STOREFRONT_COMMERCE_CONSUMER_KEY"
	EnvCommerceSecret       = "STOREFRONT_COMMERCE_CONSUMER_SECRET"
	EnvCommerceTimeout      = "STOREFRONT_COMMERCE_TIMEOUT"
	EnvDBDSN                = "STOREFRONT_DB_DSN"
	EnvDBDriver             = "STOREFRONT_DB_DRIVER"
	EnvDBHost               = "STOREFRONT_DB_HOST"
	EnvDBUser               = "STOREFRONT_DB_USER"
	EnvDBName               = "STOREFRONT_DB_NAME"
	EnvRedisURL             = "STOREFRONT_REDIS_URL"
	EnvOwnershipBatchSize   = "STOREFRONT_OWNERSHIP_BATCH_SIZE"
	EnvOrdersCustomerPolicy = "STOREFRONT_ORDERS_CUSTOMER_POLICY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
	DBDriverMySQL    = "mysql"
)

const (
	CustomerPolicyGuestFallback = "guest_fallback"
	CustomerPolicyStrict        = "strict"
)

const (
	DefaultCommerceTimeout = 15 * time.Second
	MinCommerceTimeout     = 10 * time.Second
	MaxCommerceTimeout     = 30 * time.Second
	MaxOwnershipBatchSize  = 20
)
