package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("QUEUE_RAW_ITEMS", "raw-items")
	t.Setenv("QUEUE_ADMITTED_ITEMS", "admitted-items")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Source.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", cfg.Source.PollInterval)
	}
	if cfg.StoreType != StoreTypePostgres {
		t.Errorf("StoreType = %q, want postgres", cfg.StoreType)
	}
	if cfg.Notification.DefaultColor != 0x00ff00 {
		t.Errorf("DefaultColor = %#x, want 0x00ff00", int(cfg.Notification.DefaultColor))
	}
	if cfg.Notification.SizeSeparator != ", " {
		t.Errorf("SizeSeparator = %q, want \", \"", cfg.Notification.SizeSeparator)
	}
	if cfg.Kafka.RawItemsTopic != "raw-items" || cfg.Kafka.AdmittedItemsTopic != "admitted-items" {
		t.Errorf("unexpected topics: %q %q", cfg.Kafka.RawItemsTopic, cfg.Kafka.AdmittedItemsTopic)
	}
	if got := cfg.ConsumerGroup(ServiceValidator); got != "dropwatch-validator" {
		t.Errorf("ConsumerGroup = %q", got)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("NOTIFICATION_DEFAULT_COLOR", "#ff0000")
	t.Setenv("KAFKA_BROKER_URL", "k1:9092, k2:9092,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Source.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.Source.PollInterval)
	}
	if cfg.DBConfig.DBHost != "db.internal" || cfg.DBConfig.DBPort != 6543 {
		t.Errorf("DB config not applied: %+v", cfg.DBConfig)
	}
	if cfg.Notification.DefaultColor != 0xff0000 {
		t.Errorf("DefaultColor = %#x", int(cfg.Notification.DefaultColor))
	}
	if got, want := cfg.GetKafkaBrokers(), []string{"k1:9092", "k2:9092"}; !reflect.DeepEqual(got, want) {
		t.Errorf("GetKafkaBrokers = %v, want %v", got, want)
	}
	if len(cfg.HTTP.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v", cfg.HTTP.AllowedOrigins)
	}
	if !strings.Contains(cfg.GetDBConnectionString(), "host=db.internal port=6543") {
		t.Errorf("GetDBConnectionString = %q", cfg.GetDBConnectionString())
	}
}

func TestLoadConfigRejectsBadColor(t *testing.T) {
	t.Setenv("NOTIFICATION_DEFAULT_COLOR", "green")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for non-numeric color")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		service Service
		wantErr string
	}{
		{
			name:    "monitor needs source url",
			cfg:     Config{Kafka: KafkaConfig{RawItemsTopic: "a"}},
			service: ServiceMonitor,
			wantErr: "SOURCE_URL",
		},
		{
			name:    "validator needs both topics",
			cfg:     Config{StoreType: StoreTypeSQLite, Kafka: KafkaConfig{RawItemsTopic: "a"}},
			service: ServiceValidator,
			wantErr: "QUEUE_ADMITTED_ITEMS",
		},
		{
			name:    "validator accepts redis",
			cfg:     Config{StoreType: StoreTypeRedis, Kafka: KafkaConfig{RawItemsTopic: "a", AdmittedItemsTopic: "b"}},
			service: ServiceValidator,
		},
		{
			name:    "registry rejects redis",
			cfg:     Config{StoreType: StoreTypeRedis},
			service: ServiceRegistry,
			wantErr: "webhook registry",
		},
		{
			name:    "registry override wins",
			cfg:     Config{StoreType: StoreTypeRedis, RegistryStoreType: StoreTypeSQLite},
			service: ServiceRegistry,
		},
		{
			name:    "unknown store",
			cfg:     Config{StoreType: "mongo", Kafka: KafkaConfig{RawItemsTopic: "a", AdmittedItemsTopic: "b"}},
			service: ServiceValidator,
			wantErr: "mongo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(tt.service)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
