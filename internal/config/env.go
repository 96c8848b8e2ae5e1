package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays Config fields from environment variables. Unset
// variables leave the current values untouched. A .env file, if present,
// is loaded by the entrypoint (godotenv) before this runs.
func parseEnv(config *Config) {
	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, key string) {
		if v, ok := os.LookupEnv(key); ok {
			if parsed, err := time.ParseDuration(v); err == nil {
				*dst = parsed
			}
		}
	}
	setInt := func(dst *int, key string) {
		if v, ok := os.LookupEnv(key); ok {
			if parsed, err := strconv.Atoi(v); err == nil {
				*dst = parsed
			}
		}
	}

	setString(&config.EndpointAddrHTTP, "HTTP_ADDR")
	setString(&config.DatabaseDSN, "DATABASE_DSN")
	setString(&config.SecretKey, "SECRET_KEY")
	setDuration(&config.AccessTokenValidityDuration, "ACCESS_TOKEN_VALIDITY")
	setDuration(&config.RefreshTokenValidityDuration, "REFRESH_TOKEN_VALIDITY")
	setDuration(&config.ResetTokenValidityDuration, "RESET_TOKEN_VALIDITY")
	setString(&config.S3RootUser, "S3_ROOT_USER")
	setString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	setString(&config.S3Bucket, "S3_BUCKET")
	setString(&config.S3Region, "S3_REGION")
	setString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	setString(&config.PaymentEndpoint, "PAYMENT_ENDPOINT")
	setString(&config.PaymentAPIKey, "PAYMENT_API_KEY")
	setString(&config.PaymentCurrency, "PAYMENT_CURRENCY")
	setDuration(&config.PaymentTimeout, "PAYMENT_TIMEOUT")
	setString(&config.AmqpURL, "AMQP_URL")
	setString(&config.AmqpExchange, "AMQP_EXCHANGE")
	setString(&config.SMTPAddr, "SMTP_ADDR")
	setString(&config.SMTPFrom, "SMTP_FROM")
	setInt(&config.PageSize, "PAGE_SIZE")
	setDuration(&config.ReconcileInterval, "RECONCILE_INTERVAL")
	setDuration(&config.ReconcileAfter, "RECONCILE_AFTER")
}
