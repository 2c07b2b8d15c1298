package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Log        LogConfig
	Tracing    TracingConfig
	Scheduling SchedulingConfig
	Security   SecurityConfig
	Kafka      KafkaConfig
	RateLimit  RateLimitConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Version     string
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	// Driver is "postgres" or "memory". The memory driver keeps everything
	// in process and is meant for local runs and demos.
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

// RedisConfig configures the optional slot-listing cache. An empty Addr
// disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
	Service    string

	// Environment is stamped on every entry; "development" also turns on
	// zap's development mode.
	Environment string
	// Sampling caps repeated entries per second at 100 then every 100th.
	Sampling bool
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	// Insecure sends spans over plain HTTP, as to a sidecar collector.
	Insecure   bool
	SampleRate float64
}

type SchedulingConfig struct {
	// SlotWidth is the fixed length of a bookable slot.
	SlotWidth time.Duration
	// Timezone is the IANA zone in which weekly blocks and dates are read.
	Timezone     string
	SlotCacheTTL time.Duration
	// ReminderSpec is a cron expression firing once per ReminderWindow;
	// empty disables reminders.
	ReminderSpec     string
	ReminderLeadTime time.Duration
	ReminderWindow   time.Duration
}

type SecurityConfig struct {
	// HideForbidden renders access denials as 404 so that unauthorized
	// callers cannot tell which resources exist.
	HideForbidden bool
}

// KafkaConfig configures the reminder publisher. No brokers means reminders
// are only logged.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type RateLimitConfig struct {
	LoginPerMinute float64
	LoginBurst     int
}

func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "medbook-api"),
			Environment: getEnv("APP_ENV", "development"),
			Version:     getEnv("APP_VERSION", "0.0.0"),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "postgres"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "medbook"),
			User:            getEnv("DB_USER", "medbook"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSLMODE", "require"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", ""),
			AccessTokenTTL:  getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute),
			RefreshTokenTTL: getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
			Issuer:          getEnv("JWT_ISSUER", "medbook-api"),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
			Service:    getEnv("APP_NAME", "medbook-api"),
			Sampling:   getEnvBool("LOG_SAMPLING", true),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvBool("TRACING_ENABLED", false),
			ServiceName: getEnv("TRACING_SERVICE_NAME", "medbook-api"),
			Endpoint:    getEnv("OTLP_ENDPOINT", "otel-collector:4318"),
			Insecure:    getEnvBool("OTLP_INSECURE", true),
			SampleRate:  getEnvFloat("TRACING_SAMPLE_RATE", 0.1),
		},
		Scheduling: SchedulingConfig{
			SlotWidth:        getEnvDuration("SLOT_WIDTH", 30*time.Minute),
			Timezone:         getEnv("CLINIC_TIMEZONE", "UTC"),
			SlotCacheTTL:     getEnvDuration("SLOT_CACHE_TTL", 60*time.Second),
			ReminderSpec:     getEnv("REMINDER_CRON", "*/5 * * * *"),
			ReminderLeadTime: getEnvDuration("REMINDER_LEAD_TIME", time.Hour),
			ReminderWindow:   getEnvDuration("REMINDER_WINDOW", 5*time.Minute),
		},
		Security: SecurityConfig{
			HideForbidden: getEnvBool("HIDE_FORBIDDEN", false),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_REMINDER_TOPIC", "appointment.reminders"),
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute: getEnvFloat("LOGIN_RATE_PER_MINUTE", 10),
			LoginBurst:     getEnvInt("LOGIN_RATE_BURST", 5),
		},
	}

	cfg.Log.Environment = cfg.App.Environment

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	var errs []string

	if cfg.JWT.Secret == "" {
		errs = append(errs, "JWT_SECRET is required")
	} else if len(cfg.JWT.Secret) < 32 && cfg.App.Environment == "production" {
		errs = append(errs, "JWT_SECRET must be at least 32 characters in production")
	}

	if cfg.Database.Password == "" && cfg.Database.Driver == "postgres" && cfg.App.Environment != "development" {
		errs = append(errs, "DB_PASSWORD is required in non-development environments")
	}

	if cfg.Database.SSLMode == "disable" && cfg.App.Environment == "production" {
		errs = append(errs, "DB_SSLMODE=disable is not allowed in production")
	}

	if cfg.Scheduling.SlotWidth < 5*time.Minute || cfg.Scheduling.SlotWidth > 4*time.Hour {
		errs = append(errs, "SLOT_WIDTH must be between 5m and 4h")
	} else if (24*time.Hour)%cfg.Scheduling.SlotWidth != 0 || cfg.Scheduling.SlotWidth%time.Minute != 0 {
		errs = append(errs, "SLOT_WIDTH must be a whole number of minutes dividing a day")
	}

	if cfg.Database.Driver != "postgres" && cfg.Database.Driver != "memory" {
		errs = append(errs, fmt.Sprintf("DB_DRIVER %q must be postgres or memory", cfg.Database.Driver))
	}

	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Topic == "" {
		errs = append(errs, "KAFKA_REMINDER_TOPIC is required when KAFKA_BROKERS is set")
	}

	if _, err := time.LoadLocation(cfg.Scheduling.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("CLINIC_TIMEZONE %q is not a valid IANA zone", cfg.Scheduling.Timezone))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string) []string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
