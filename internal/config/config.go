package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Service string

const (
	ServiceMonitor   Service = "monitor"
	ServiceValidator Service = "validator"
	ServiceNotifier  Service = "notifier"
	ServiceRegistry  Service = "registry"
)

const (
	StoreTypePostgres = "postgres"
	StoreTypeSQLite   = "sqlite"
	StoreTypeRedis    = "redis"
)

type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DBConfig     DBConfig
	SQLiteConfig SQLiteConfig
	RedisConfig  RedisConfig
	Kafka        KafkaConfig
	Source       SourceConfig
	Notification NotificationConfig
	Delivery     DeliveryConfig
	HTTP         HTTPConfig

	// StoreType selects the backend: postgres, sqlite or redis (dedup only).
	StoreType string `envconfig:"STORE_TYPE" default:"postgres"`
	// RegistryStoreType overrides StoreType for the webhook registry when set.
	RegistryStoreType string        `envconfig:"REGISTRY_STORE_TYPE"`
	StoreTimeout      time.Duration `envconfig:"STORE_TIMEOUT" default:"5s"`
	HandlerTimeout    time.Duration `envconfig:"HANDLER_TIMEOUT" default:"30s"`
	MigrationsEnabled bool          `envconfig:"MIGRATIONS_ENABLED" default:"true"`
}

type DBConfig struct {
	DBHost          string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort          int           `envconfig:"DB_PORT" default:"5432"`
	DBUser          string        `envconfig:"DB_USER" default:"postgres"`
	DBPassword      string        `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName          string        `envconfig:"DB_NAME" default:"dropwatch"`
	DBSSLMode       string        `envconfig:"DB_SSLMODE" default:"disable"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	ConnectRetries  int           `envconfig:"DB_CONNECT_RETRIES" default:"10"`
	ConnectDelay    time.Duration `envconfig:"DB_CONNECT_DELAY" default:"5s"`
}

type SQLiteConfig struct {
	Path string `envconfig:"SQLITE_PATH" default:"./data/dropwatch.db"`
}

type RedisConfig struct {
	Host      string `envconfig:"REDIS_HOST" default:"localhost"`
	Port      int    `envconfig:"REDIS_PORT" default:"6379"`
	Password  string `envconfig:"REDIS_PASSWORD" default:""`
	DB        int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"dropwatch:seen"`
}

type KafkaConfig struct {
	BrokerURL           string        `envconfig:"KAFKA_BROKER_URL" default:"localhost:9092"`
	RawItemsTopic       string        `envconfig:"QUEUE_RAW_ITEMS"`
	AdmittedItemsTopic  string        `envconfig:"QUEUE_ADMITTED_ITEMS"`
	ConsumerGroupPrefix string        `envconfig:"KAFKA_CONSUMER_GROUP_PREFIX" default:"dropwatch"`
	RetryBackoff        time.Duration `envconfig:"QUEUE_RETRY_BACKOFF" default:"1s"`
	MaxRetryBackoff     time.Duration `envconfig:"QUEUE_MAX_RETRY_BACKOFF" default:"30s"`
	EnsureTopics        bool          `envconfig:"KAFKA_ENSURE_TOPICS" default:"true"`
}

type SourceConfig struct {
	URL          string        `envconfig:"SOURCE_URL"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
	Timeout      time.Duration `envconfig:"SOURCE_TIMEOUT" default:"10s"`
}

type NotificationConfig struct {
	URLBase       string   `envconfig:"URL_BASE"`
	DefaultColor  HexColor `envconfig:"NOTIFICATION_DEFAULT_COLOR" default:"0x00ff00"`
	DefaultTitle  string   `envconfig:"NOTIFICATION_DEFAULT_TITLE" default:"Title Unavailable"`
	DefaultImage  string   `envconfig:"NOTIFICATION_DEFAULT_IMAGE"`
	SizeSeparator string   `envconfig:"NOTIFICATION_DEFAULT_SIZE_SEPARATOR" default:", "`
	SizeGender    string   `envconfig:"NOTIFICATION_SIZE_GENDER" default:"both"`
	Footer        string   `envconfig:"NOTIFICATION_FOOTER" default:"SNKRS Monitor"`
}

type DeliveryConfig struct {
	WebhookTimeout time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"10s"`
	ProbeTimeout   time.Duration `envconfig:"PROBE_TIMEOUT" default:"5s"`
	Concurrency    int           `envconfig:"DELIVERY_CONCURRENCY" default:"8"`
}

type HTTPConfig struct {
	Host            string        `envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"HTTP_PORT" default:"8080"`
	AllowedOrigins  []string      `envconfig:"CORS_ALLOWED_ORIGINS"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
}

// HexColor decodes "0x00ff00", "#00ff00" or a decimal integer.
type HexColor int

func (c *HexColor) Decode(value string) error {
	v := strings.TrimSpace(value)
	if strings.HasPrefix(v, "#") {
		v = "0x" + v[1:]
	}
	n, err := strconv.ParseInt(v, 0, 32)
	if err != nil {
		return fmt.Errorf("invalid color %q: %w", value, err)
	}
	*c = HexColor(n)
	return nil
}

// LoadConfig reads the environment, after loading an optional .env file.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings the given service cannot start without.
func (c *Config) Validate(service Service) error {
	var errs []error
	requireTopic := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Errorf("%s must be set", name))
		}
	}

	switch service {
	case ServiceMonitor:
		requireTopic("QUEUE_RAW_ITEMS", c.Kafka.RawItemsTopic)
		if strings.TrimSpace(c.Source.URL) == "" {
			errs = append(errs, errors.New("SOURCE_URL must be set"))
		}
	case ServiceValidator:
		requireTopic("QUEUE_RAW_ITEMS", c.Kafka.RawItemsTopic)
		requireTopic("QUEUE_ADMITTED_ITEMS", c.Kafka.AdmittedItemsTopic)
		switch c.StoreType {
		case StoreTypePostgres, StoreTypeSQLite, StoreTypeRedis:
		default:
			errs = append(errs, fmt.Errorf("unsupported STORE_TYPE %q", c.StoreType))
		}
	case ServiceNotifier, ServiceRegistry:
		if service == ServiceNotifier {
			requireTopic("QUEUE_ADMITTED_ITEMS", c.Kafka.AdmittedItemsTopic)
		}
		switch c.RegistryStore() {
		case StoreTypePostgres, StoreTypeSQLite:
		default:
			errs = append(errs, fmt.Errorf("unsupported store type %q for the webhook registry", c.RegistryStore()))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown service %q", service))
	}
	return errors.Join(errs...)
}

func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBConfig.DBHost, c.DBConfig.DBPort, c.DBConfig.DBUser, c.DBConfig.DBPassword, c.DBConfig.DBName, c.DBConfig.DBSSLMode)
}

func (c *Config) GetDBMigrationConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBConfig.DBUser, c.DBConfig.DBPassword, c.DBConfig.DBHost, c.DBConfig.DBPort, c.DBConfig.DBName, c.DBConfig.DBSSLMode)
}

func (c *Config) GetKafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.Kafka.BrokerURL, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// RegistryStore returns the backend holding the webhook registry.
func (c *Config) RegistryStore() string {
	if c.RegistryStoreType != "" {
		return c.RegistryStoreType
	}
	return c.StoreType
}

// ConsumerGroup names the consumer group of a pipeline stage.
func (c *Config) ConsumerGroup(service Service) string {
	return c.Kafka.ConsumerGroupPrefix + "-" + string(service)
}

func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisConfig.Host, c.RedisConfig.Port)
}

func (c *Config) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}
