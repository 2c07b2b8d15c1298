package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Scheduling.SlotWidth)
	assert.Equal(t, "UTC", cfg.Scheduling.Timezone)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.False(t, cfg.Security.HideForbidden)
	assert.Empty(t, cfg.Redis.Addr)
	assert.True(t, cfg.Log.Sampling)
	assert.Equal(t, "development", cfg.Log.Environment)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("APP_ENV", "development")
	t.Setenv("SLOT_WIDTH", "15m")
	t.Setenv("CLINIC_TIMEZONE", "America/Bogota")
	t.Setenv("HIDE_FORBIDDEN", "true")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_SAMPLING", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.Scheduling.SlotWidth)
	assert.Equal(t, "America/Bogota", cfg.Scheduling.Timezone)
	assert.True(t, cfg.Security.HideForbidden)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Log.Sampling)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing secret",
			env:  map[string]string{"JWT_SECRET": "", "APP_ENV": "development"},
			want: "JWT_SECRET is required",
		},
		{
			name: "short secret in production",
			env:  map[string]string{"JWT_SECRET": "short", "APP_ENV": "production", "DB_PASSWORD": "x"},
			want: "at least 32 characters",
		},
		{
			name: "no db password in staging",
			env:  map[string]string{"JWT_SECRET": "test-secret", "APP_ENV": "staging", "DB_PASSWORD": ""},
			want: "DB_PASSWORD is required",
		},
		{
			name: "odd slot width",
			env:  map[string]string{"JWT_SECRET": "test-secret", "APP_ENV": "development", "SLOT_WIDTH": "7m"},
			want: "SLOT_WIDTH must be a whole number",
		},
		{
			name: "unknown driver",
			env:  map[string]string{"JWT_SECRET": "test-secret", "APP_ENV": "development", "DB_DRIVER": "mysql"},
			want: "DB_DRIVER",
		},
		{
			name: "bad timezone",
			env:  map[string]string{"JWT_SECRET": "test-secret", "APP_ENV": "development", "CLINIC_TIMEZONE": "Nowhere/City"},
			want: "CLINIC_TIMEZONE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_KafkaBrokers(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("APP_ENV", "development")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, ,kafka-2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "appointment.reminders", cfg.Kafka.Topic)
	assert.Equal(t, "postgres", cfg.Database.Driver)
}

func TestLoad_MemoryDriverNeedsNoPassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("APP_ENV", "staging")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("DB_PASSWORD", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Database.Driver)
}
