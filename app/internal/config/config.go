// Package config loads the storefront configuration from STORE_-prefixed
// environment variables and YAML files.
package config

import (
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

type Config struct {
	Addr     string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Database DatabaseConfig
	JWT      JWTConfig
	Paystack PaystackConfig
	SMTP     SMTPConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Graceful GracefulConfig
}

type DatabaseConfig struct {
	Driver          string        `default:"mysql" usage:"mysql or postgres"`
	DSN             string        `usage:"Database connection string"`
	MaxOpenConns    int           `default:"20"`
	MaxIdleConns    int           `default:"10"`
	ConnMaxLifetime time.Duration `default:"30m"`
	Migrate         bool          `default:"true" usage:"Apply embedded migrations on start"`
}

type JWTConfig struct {
	Secret string        `usage:"HMAC secret for access tokens"`
	TTL    time.Duration `default:"24h"`
}

type PaystackConfig struct {
	BaseURL     string        `default:"https://api.paystack.co"`
	SecretKey   string        `usage:"Paystack secret key"`
	CallbackURL string        `usage:"Where the gateway redirects the payer after checkout"`
	Timeout     time.Duration `default:"10s"`
	Breaker     BreakerConfig
}

type BreakerConfig struct {
	MaxFailures uint32        `default:"5" usage:"Consecutive failures before the breaker opens"`
	OpenTimeout time.Duration `default:"30s" usage:"How long the breaker stays open"`
}

type SMTPConfig struct {
	Addr     string        `default:"localhost:2025"`
	From     string        `default:"no-reply@storefront.local"`
	Username string
	Password string
	Timeout  time.Duration `default:"10s"`
}

// RedisConfig is optional; an empty Addr disables the verification cache.
type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	VerificationTTL time.Duration `default:"24h"`
}

// KafkaConfig is optional; no brokers disables order events.
type KafkaConfig struct {
	Brokers []string
	Topic   string `default:"order-events"`
}

type GracefulConfig struct {
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration"`
}

// Load reads configuration from the environment and config files. files
// overrides the default search list when given.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{"config.yaml", "/etc/storefront/config.yaml"}
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STORE",
		SkipFlags: true,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch {
	case c.Database.Driver != "mysql" && c.Database.Driver != "postgres":
		return errors.Errorf("unsupported database driver %q", c.Database.Driver)
	case c.Database.DSN == "":
		return errors.New("database DSN is required: set STORE_DATABASE_DSN")
	case c.JWT.Secret == "":
		return errors.New("JWT secret is required: set STORE_JWT_SECRET")
	case c.Paystack.SecretKey == "":
		return errors.New("paystack secret key is required: set STORE_PAYSTACK_SECRET_KEY")
	}
	return nil
}
