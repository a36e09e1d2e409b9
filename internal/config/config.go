package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses duration values
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Gateway and ledger timeouts are mandatory
// bounds on the two outbound network calls; the defaults keep a slow
// provider from pinning a checkout request forever.
type Config struct {
	Env            string        // application environment (e.g. "dev", "prod")
	Port           string        // HTTP port to listen on
	PayPalClientID string        // payment gateway REST client id
	PayPalSecret   string        // payment gateway REST secret
	PayPalAPIBase  string        // gateway API base URL (sandbox or live)
	Currency       string        // ISO currency code passed through to the gateway
	CountryCode    string        // country code used on the shipping address
	Locale         string        // locale sent in the gateway application context
	LedgerBaseURL  string        // base URL of the order ledger service
	GatewayTimeout time.Duration // per-call timeout for gateway requests
	LedgerTimeout  time.Duration // per-call timeout for ledger requests
	InvoiceBaseURL string        // base URL encoded into invoice QR references
	RabbitURL      string        // broker URL; events are skipped entirely when empty
}

// Load reads configuration values from environment variables and returns
// a Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message; the rest fall back
// to the defaults of the original deployment (EUR, Spanish address and
// locale).
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		PayPalClientID: must("PAYPAL_CLIENT_ID"),
		PayPalSecret:   must("PAYPAL_SECRET"),
		PayPalAPIBase:  envStr("PAYPAL_API_BASE", "https://api-m.sandbox.paypal.com"),
		Currency:       envStr("CURRENCY", "EUR"),
		CountryCode:    envStr("COUNTRY_CODE", "ES"),
		Locale:         envStr("LOCALE", "es-ES"),
		LedgerBaseURL:  must("LEDGER_BASE_URL"),
		GatewayTimeout: envDur("GATEWAY_TIMEOUT", 20*time.Second),
		LedgerTimeout:  envDur("LEDGER_TIMEOUT", 10*time.Second),
		InvoiceBaseURL: envStr("INVOICE_BASE_URL", "https://tours-paypal.com/invoice"),
		RabbitURL:      envStr("RABBITMQ_URL", envStr("AMQP_URL", "")),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
