package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("STORE_DATABASE_DSN", "user:pass@tcp(localhost:3306)/store")
	t.Setenv("STORE_JWT_SECRET", "secret")
	t.Setenv("STORE_PAYSTACK_SECRET_KEY", "sk_test")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load("testdata/missing.yaml")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.True(t, cfg.Database.Migrate)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "https://api.paystack.co", cfg.Paystack.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Paystack.Timeout)
	assert.Equal(t, uint32(5), cfg.Paystack.Breaker.MaxFailures)
	assert.Equal(t, "order-events", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadFromEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_ADDR", ":9090")
	t.Setenv("STORE_DATABASE_DRIVER", "Postgres")
	t.Setenv("STORE_PAYSTACK_TIMEOUT", "3s")
	t.Setenv("STORE_PAYSTACK_BREAKER_MAX_FAILURES", "2")
	t.Setenv("STORE_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load("testdata/missing.yaml")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 3*time.Second, cfg.Paystack.Timeout)
	assert.Equal(t, uint32(2), cfg.Paystack.Breaker.MaxFailures)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{Driver: "mysql", DSN: "dsn"},
			JWT:      JWTConfig{Secret: "s"},
			Paystack: PaystackConfig{SecretKey: "sk"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "sqlite" }, wantErr: "unsupported database driver"},
		{name: "missing dsn", mutate: func(c *Config) { c.Database.DSN = "" }, wantErr: "DSN is required"},
		{name: "missing jwt secret", mutate: func(c *Config) { c.JWT.Secret = "" }, wantErr: "JWT secret"},
		{name: "missing paystack key", mutate: func(c *Config) { c.Paystack.SecretKey = "" }, wantErr: "paystack secret key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
