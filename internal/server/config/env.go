package config

import (
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/flagx"
	"github.com/joho/godotenv"
)

// Environment variable names. JWT_SECRET, SENDGRID_API_KEY and DATABASE_URL
// are the three a deployment has to provide.
const (
	EnvHTTPAddr        = "HTTP_ADDR"
	EnvGRPCHealthAddr  = "GRPC_HEALTH_ADDR"
	EnvDatabaseURL     = "DATABASE_URL"
	EnvJWTSecret       = "JWT_SECRET"
	EnvBcryptCost      = "BCRYPT_COST"
	EnvTokenStore      = "TOKEN_STORE"
	EnvRedisAddr       = "REDIS_ADDR"
	EnvRedisPassword   = "REDIS_PASSWORD"
	EnvRedisDB         = "REDIS_DB"
	EnvSendGridAPIKey  = "SENDGRID_API_KEY"
	EnvMailFrom        = "MAIL_FROM"
	EnvMailTimeout     = "MAIL_TIMEOUT"
	EnvS3RootUser      = "S3_ROOT_USER"
	EnvS3RootPassword  = "S3_ROOT_PASSWORD"
	EnvS3Bucket        = "S3_BUCKET"
	EnvS3Region        = "S3_REGION"
	EnvS3BaseEndpoint  = "S3_BASE_ENDPOINT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
	EnvLogLevel        = "LOG_LEVEL"
)

// parseEnv loads the dotenv file (-env, default ".env") if it exists and
// then overlays every variable that is set. Variables already present in the
// process environment take precedence over the file. Malformed numbers and
// durations panic, like the other sources.
func parseEnv(config *Config) {
	// a missing .env is normal outside development
	_ = godotenv.Load(flagx.EnvFileFlag())

	envString(&config.HTTPAddr, EnvHTTPAddr)
	envString(&config.GRPCHealthAddr, EnvGRPCHealthAddr)
	envString(&config.DatabaseDSN, EnvDatabaseURL)
	envString(&config.SecretKey, EnvJWTSecret)
	envInt(&config.BcryptCost, EnvBcryptCost)
	envString(&config.TokenStore, EnvTokenStore)
	envString(&config.RedisAddr, EnvRedisAddr)
	envString(&config.RedisPassword, EnvRedisPassword)
	envInt(&config.RedisDB, EnvRedisDB)
	envString(&config.SendGridAPIKey, EnvSendGridAPIKey)
	envString(&config.MailFrom, EnvMailFrom)
	envDuration(&config.MailTimeout, EnvMailTimeout)
	envString(&config.S3RootUser, EnvS3RootUser)
	envString(&config.S3RootPassword, EnvS3RootPassword)
	envString(&config.S3Bucket, EnvS3Bucket)
	envString(&config.S3Region, EnvS3Region)
	envString(&config.S3BaseEndpoint, EnvS3BaseEndpoint)
	envDuration(&config.ShutdownTimeout, EnvShutdownTimeout)
	envString(&config.LogLevel, EnvLogLevel)
}

func envString(dst *string, name string) {
	if v, ok := os.LookupEnv(name); ok {
		*dst = v
	}
}

func envInt(dst *int, name string) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}

func envDuration(dst *time.Duration, name string) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
