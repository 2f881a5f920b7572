package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StoreBolt     = "bolt"
	StorePostgres = "postgres"
)

type Server struct {
	Port              string   `mapstructure:"port"`
	MaxBodyBytes      int64    `mapstructure:"max-body-bytes"`
	CorsOrigins       []string `mapstructure:"cors-origins"`
	ShutdownTimeoutMs int      `mapstructure:"shutdown-timeout-ms"`
}

type Stripe struct {
	SecretKey         string `mapstructure:"secret-key"`
	WebhookSecret     string `mapstructure:"webhook-secret"`
	WebhookToleranceS int    `mapstructure:"webhook-tolerance-s"`
	APIURL            string `mapstructure:"api-url"`
	TimeoutMs         int    `mapstructure:"timeout-ms"`
}

type Checkout struct {
	ClientURL          string   `mapstructure:"client-url"`
	PaymentMethodTypes []string `mapstructure:"payment-method-types"`
}

type Relay struct {
	CreatiumURL   string `mapstructure:"creatium-url"`
	AutomationURL string `mapstructure:"automation-url"`
	TimeoutMs     int    `mapstructure:"timeout-ms"`
	Parallelism   int    `mapstructure:"parallelism"`
}

// RelayTarget is a named downstream HTTP endpoint.
type RelayTarget struct {
	Name string
	URL  string
}

// Targets returns the configured HTTP relay targets in dispatch order.
func (r Relay) Targets() []RelayTarget {
	var targets []RelayTarget
	if r.CreatiumURL != "" {
		targets = append(targets, RelayTarget{Name: "creatium", URL: r.CreatiumURL})
	}
	if r.AutomationURL != "" {
		targets = append(targets, RelayTarget{Name: "automation", URL: r.AutomationURL})
	}
	return targets
}

type Store struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type Database struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	SSLMode  string `mapstructure:"ssl-mode"`
}

type KafkaWriter struct {
	BatchSize      int `mapstructure:"batch-size"`
	BatchTimeoutMs int `mapstructure:"batch-timeout-ms"`
}

type Kafka struct {
	Broker string      `mapstructure:"broker"`
	Topic  string      `mapstructure:"topic"`
	Writer KafkaWriter `mapstructure:"writer"`
}

type Metrics struct {
	URL          string `mapstructure:"url"`
	IntervalMs   int    `mapstructure:"interval-ms"`
	CommonLabels string `mapstructure:"common-labels"`
}

type Logs struct {
	URL   string `mapstructure:"url"`
	Level string `mapstructure:"level"`
}

type Config struct {
	Server   Server   `mapstructure:"server"`
	Stripe   Stripe   `mapstructure:"stripe"`
	Checkout Checkout `mapstructure:"checkout"`
	Relay    Relay    `mapstructure:"relay"`
	Store    Store    `mapstructure:"store"`
	Database Database `mapstructure:"database"`
	Kafka    Kafka    `mapstructure:"kafka"`
	Metrics  Metrics  `mapstructure:"metrics"`
	Logs     Logs     `mapstructure:"logs"`
}

var envBindings = map[string]string{
	"stripe.secret-key":     "SECRET_KEY",
	"stripe.webhook-secret": "WEBHOOK_SECRET",
	"checkout.client-url":   "CLIENT_URL",
	"server.port":           "PORT",
	"relay.creatium-url":    "CREATIUM_RELAY_URL",
	"relay.automation-url":  "AUTOMATION_RELAY_URL",
	"store.driver":          "STORE_DRIVER",
	"store.path":            "STORE_PATH",
	"database.user":         "DB_USER",
	"database.password":     "DB_PASSWORD",
	"database.name":         "DB_NAME",
	"database.host":         "DB_HOST",
	"database.port":         "DB_PORT",
	"database.ssl-mode":     "SSL_MODE",
	"kafka.broker":          "KAFKA_BROKER",
	"kafka.topic":           "KAFKA_TOPIC",
	"metrics.url":           "METRICS_PUSH_URL",
	"logs.url":              "LOKI_URL",
	"logs.level":            "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.max-body-bytes", 1<<20)
	v.SetDefault("server.cors-origins", []string{"*"})
	v.SetDefault("server.shutdown-timeout-ms", 15_000)

	v.SetDefault("stripe.webhook-tolerance-s", 300)
	v.SetDefault("stripe.timeout-ms", 30_000)

	v.SetDefault("checkout.payment-method-types", []string{"card"})

	v.SetDefault("relay.creatium-url", "https://api.creatium.io/integration-payment/third-party-payment")
	v.SetDefault("relay.timeout-ms", 10_000)
	v.SetDefault("relay.parallelism", 100)

	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("store.path", "relay.db")
	v.SetDefault("database.ssl-mode", "disable")

	v.SetDefault("kafka.topic", "payment-relay-notifications")
	v.SetDefault("kafka.writer.batch-size", 100)
	v.SetDefault("kafka.writer.batch-timeout-ms", 100)

	v.SetDefault("metrics.interval-ms", 10_000)
	v.SetDefault("logs.level", "info")
}

// LoadConfig reads config.yaml from path when present and overlays the
// environment. A .env file in the working directory is loaded first.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, errors.Wrapf(err, "bind env %s", env)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	config.Stripe.SecretKey = strings.TrimSpace(config.Stripe.SecretKey)
	config.Stripe.WebhookSecret = strings.TrimSpace(config.Stripe.WebhookSecret)
	config.Checkout.ClientURL = strings.TrimRight(strings.TrimSpace(config.Checkout.ClientURL), "/")
	config.Store.Driver = strings.ToLower(strings.TrimSpace(config.Store.Driver))

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Stripe.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}
	if c.Stripe.WebhookSecret == "" {
		return errors.New("WEBHOOK_SECRET is required")
	}
	if c.Checkout.ClientURL == "" {
		return errors.New("CLIENT_URL is required")
	}
	if len(c.Relay.Targets()) == 0 && c.Kafka.Broker == "" {
		return errors.New("at least one relay target is required")
	}
	switch c.Store.Driver {
	case StoreMemory, StoreBolt, StorePostgres:
	default:
		return errors.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// Warnings lists settings that are valid but leave a relay target out.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Relay.CreatiumURL == "" {
		warnings = append(warnings, "CREATIUM_RELAY_URL is empty, creatium target disabled")
	}
	if c.Relay.AutomationURL == "" {
		warnings = append(warnings, "AUTOMATION_RELAY_URL is not set, automation target disabled")
	}
	return warnings
}

func MustLoadConfig(path string) *Config {
	config, err := LoadConfig(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return config
}
