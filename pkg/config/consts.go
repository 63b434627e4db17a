package config

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "comanda"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "COMANDA_DB_DSN"
	EnvDBHost = "COMANDA_DB_HOST"
	EnvDBUser = "COMANDA_DB_USER"
	EnvDBName = "COMANDA_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
