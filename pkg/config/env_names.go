package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "storefront"

const (
	AppEnvDev  = "development"
	AppEnvTest = "test"
	AppEnvProd = "production"
)

const (
	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
