package config

import (
	"fmt"
	"time"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	Storage     Storage
	Checkout    Checkout

	Paypal    Paypal    `envPrefix:"PAYPAL_"`
	BrainTree Braintree `envPrefix:"BRAINTREE_"`
	Relay     Relay     `envPrefix:"RELAY_"`
}

type Paypal struct {
	BaseApiURL   string `env:"BASE_API_URL" envDefault:"https://api-m.sandbox.paypal.com"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	Business     string `env:"BUSINESS"`
	StandardURL  string `env:"STANDARD_URL" envDefault:"https://www.sandbox.paypal.com/cgi-bin/webscr"`
	ReturnURL    string `env:"RETURN_URL" envDefault:"http://localhost:8080/api/checkout/return"`
	CancelURL    string `env:"CANCEL_URL" envDefault:"http://localhost:8080/api/checkout/return?cancel=1"`
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT" envDefault:"sandbox"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
	// sandbox test nonce; real checkouts get it from the drop-in UI
	PaymentNonce string `env:"PAYMENT_NONCE" envDefault:"fake-valid-nonce"`
}

// Relay is the thin payment-gateway relay used by the deposit form.
type Relay struct {
	ApiURL    string `env:"API_URL" envDefault:"https://api.pagahoy.com/api/v1/checkout"`
	ApiKey    string `env:"API_KEY"`
	NotifyURL string `env:"NOTIFY_URL"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

type Storage struct {
	Driver        string `env:"STORAGE_DRIVER" envDefault:"sqlite"` // memory, sqlite, mysql, redis
	DatabaseURL   string `env:"DATABASE_URL" envDefault:"storefront.db"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

type Checkout struct {
	Provider         string        `env:"PAYMENT_PROVIDER" envDefault:"simulator"` // simulator, paypal, braintree
	SimulatedLatency time.Duration `env:"SIMULATED_LATENCY" envDefault:"700ms"`
	Currency         string        `env:"CURRENCY" envDefault:"MXN"`
	MerchantName     string        `env:"MERCHANT_NAME" envDefault:"Kovex Shop"`

	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	MaxSessions        int           `env:"SESSION_MAX" envDefault:"10000"`
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory", "sqlite", "mysql", "redis":
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	switch c.Checkout.Provider {
	case "simulator", "paypal", "braintree":
	default:
		return fmt.Errorf("unknown PAYMENT_PROVIDER %q", c.Checkout.Provider)
	}

	if c.Checkout.SimulatedLatency < 0 {
		return fmt.Errorf("SIMULATED_LATENCY must not be negative")
	}
	if c.Checkout.SessionIdleTimeout <= 0 || c.Checkout.MaxSessions <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT and SESSION_MAX must be positive")
	}
	return nil
}

func (c *Config) Addr() string {
	return c.HTTP.Host + ":" + c.HTTP.Port
}
