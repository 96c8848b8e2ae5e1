package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/ritvika/paintshop/internal/flagx"
)

// jsonDuration accepts both string values such as "15m" and integer
// nanoseconds when unmarshalling JSON.
type jsonDuration struct {
	time.Duration
}

func (d *jsonDuration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return &json.UnsupportedTypeError{}
	}
}

// jsonConfig is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config. Absent fields leave the current values untouched.
type jsonConfig struct {
	EndpointAddrHTTP             *string       `json:"endpoint_addr_http"`
	DatabaseDSN                  *string       `json:"database_dsn"`
	SecretKey                    *string       `json:"secret_key"`
	AccessTokenValidityDuration  *jsonDuration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *jsonDuration `json:"refresh_token_validity_duration"`
	ResetTokenValidityDuration   *jsonDuration `json:"reset_token_validity_duration"`
	S3RootUser                   *string       `json:"s3_root_user"`
	S3RootPassword               *string       `json:"s3_root_password"`
	S3Bucket                     *string       `json:"s3_bucket"`
	S3Region                     *string       `json:"s3_region"`
	S3BaseEndpoint               *string       `json:"s3_base_endpoint"`
	PaymentEndpoint              *string       `json:"payment_endpoint"`
	PaymentAPIKey                *string       `json:"payment_api_key"`
	PaymentCurrency              *string       `json:"payment_currency"`
	PaymentTimeout               *jsonDuration `json:"payment_timeout"`
	AmqpURL                      *string       `json:"amqp_url"`
	AmqpExchange                 *string       `json:"amqp_exchange"`
	SMTPAddr                     *string       `json:"smtp_addr"`
	SMTPFrom                     *string       `json:"smtp_from"`
	PageSize                     *int          `json:"page_size"`
	ReconcileInterval            *jsonDuration `json:"reconcile_interval"`
	ReconcileAfter               *jsonDuration `json:"reconcile_after"`
}

// parseJson loads configuration values from the JSON file named by the
// -c / -config flags into the provided Config. If no flag is set, nothing
// is loaded. An unreadable or invalid file panics: a server started with a
// broken config file should not come up.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &jsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setDuration := func(dst *time.Duration, src *jsonDuration) {
		if src != nil {
			*dst = src.Duration
		}
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setDuration(&config.ResetTokenValidityDuration, c.ResetTokenValidityDuration)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.PaymentEndpoint, c.PaymentEndpoint)
	setString(&config.PaymentAPIKey, c.PaymentAPIKey)
	setString(&config.PaymentCurrency, c.PaymentCurrency)
	setDuration(&config.PaymentTimeout, c.PaymentTimeout)
	setString(&config.AmqpURL, c.AmqpURL)
	setString(&config.AmqpExchange, c.AmqpExchange)
	setString(&config.SMTPAddr, c.SMTPAddr)
	setString(&config.SMTPFrom, c.SMTPFrom)
	if c.PageSize != nil {
		config.PageSize = *c.PageSize
	}
	setDuration(&config.ReconcileInterval, c.ReconcileInterval)
	setDuration(&config.ReconcileAfter, c.ReconcileAfter)
}
