package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the api and worker binaries need. Values come from
// an optional YAML file, overridden by environment variables.
type Config struct {
	HTTPPort        string        `yaml:"http_port"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	MongoURI    string `yaml:"mongo_uri"`
	MongoDBName string `yaml:"mongo_db_name"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`

	DBHost            string `yaml:"db_host"`
	DBPort            int    `yaml:"db_port"`
	DBUser            string `yaml:"db_user"`
	DBPassword        string `yaml:"db_password"`
	DBName            string `yaml:"db_name"`
	MigrationsDirPath string `yaml:"migrations_path"`

	KafkaBrokers []string `yaml:"kafka_brokers"`

	PaymentGatewayURL string `yaml:"payment_gateway_url"`
	PaymentEventsURL  string `yaml:"payment_events_url"`
	CepLookupURL      string `yaml:"cep_lookup_url"`

	ShippingFlatFee       string `yaml:"shipping_flat_fee"`
	FreeShippingThreshold string `yaml:"free_shipping_threshold"`
}

func defaults() *Config {
	return &Config{
		HTTPPort:              "8080",
		RequestTimeout:        30 * time.Second,
		ShutdownTimeout:       10 * time.Second,
		MongoURI:              "mongodb://localhost:27017",
		MongoDBName:           "storefront",
		RedisAddr:             "localhost:6379",
		DBHost:                "localhost",
		DBPort:                5432,
		DBUser:                "postgres",
		DBPassword:            "postgres",
		DBName:                "storefront",
		MigrationsDirPath:     "./migrations",
		KafkaBrokers:          []string{"localhost:9092"},
		PaymentGatewayURL:     "http://localhost:9090",
		CepLookupURL:          "https://viacep.com.br/ws",
		ShippingFlatFee:       "0",
		FreeShippingThreshold: "0",
	}
}

// Load reads the YAML file at path when it exists, then applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)
	cfg.MongoURI = getEnv("MONGO_URI", cfg.MongoURI)
	cfg.MongoDBName = getEnv("MONGO_DB_NAME", cfg.MongoDBName)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.MigrationsDirPath = getEnv("MIGRATIONS_PATH", cfg.MigrationsDirPath)
	cfg.PaymentGatewayURL = getEnv("PAYMENT_GATEWAY_URL", cfg.PaymentGatewayURL)
	cfg.PaymentEventsURL = getEnv("PAYMENT_EVENTS_URL", cfg.PaymentEventsURL)
	cfg.CepLookupURL = getEnv("CEP_LOOKUP_URL", cfg.CepLookupURL)
	cfg.ShippingFlatFee = getEnv("SHIPPING_FLAT_FEE", cfg.ShippingFlatFee)
	cfg.FreeShippingThreshold = getEnv("FREE_SHIPPING_THRESHOLD", cfg.FreeShippingThreshold)

	if v := os.Getenv("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_PORT %q: %w", v, err)
		}
		cfg.DBPort = port
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REQUEST_TIMEOUT %q: %w", v, err)
		}
		cfg.RequestTimeout = d
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q: %w", v, err)
		}
		cfg.ShutdownTimeout = d
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		var brokers []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		cfg.KafkaBrokers = brokers
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
