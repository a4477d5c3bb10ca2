package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
device:
  id: "hallway"
logging:
  level: "debug"
  format: "text"
listener:
  chunk_size: 512
  max_request_size: 4096
  read_timeout: 5s
buzzer:
  driver: "sysfs"
  gpio_pin: 17
mqtt:
  enabled: true
  broker:
    host: "broker.local"
    port: 1883
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "hallway", cfg.Device.ID)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 512, cfg.Listener.ChunkSize)
	assert.Equal(t, 5*time.Second, cfg.Listener.ReadTimeout)
	assert.Equal(t, "sysfs", cfg.Buzzer.Driver)
	assert.Equal(t, 17, cfg.Buzzer.GPIOPin)
	assert.Equal(t, "/sys/class/gpio", cfg.Buzzer.GPIOPath, "default kept when not in file")
	assert.Equal(t, "broker.local", cfg.MQTT.Broker.Host)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "alarm-01", cfg.Device.ID)
	assert.Equal(t, 1024, cfg.Listener.ChunkSize)
	assert.Equal(t, "sim", cfg.Buzzer.Driver)
	assert.False(t, cfg.MQTT.Enabled)
	assert.False(t, cfg.InfluxDB.Enabled)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
buzzer:
  driver: "piezo"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "buzzer.driver")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing device id",
			mutate:  func(c *Config) { c.Device.ID = "" },
			wantErr: true,
		},
		{
			name:    "zero chunk size",
			mutate:  func(c *Config) { c.Listener.ChunkSize = 0 },
			wantErr: true,
		},
		{
			name:    "max request smaller than chunk",
			mutate:  func(c *Config) { c.Listener.MaxRequestSize = 16 },
			wantErr: true,
		},
		{
			name:    "negative read timeout",
			mutate:  func(c *Config) { c.Listener.ReadTimeout = -time.Second },
			wantErr: true,
		},
		{
			name: "sysfs without path",
			mutate: func(c *Config) {
				c.Buzzer.Driver = "sysfs"
				c.Buzzer.GPIOPath = ""
			},
			wantErr: true,
		},
		{
			name:    "managed network without command",
			mutate:  func(c *Config) { c.Network.Manage = true; c.Network.Command = "" },
			wantErr: true,
		},
		{
			name:    "mqtt invalid qos",
			mutate:  func(c *Config) { c.MQTT.Enabled = true; c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "mqtt disabled ignores broker",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 0 },
			wantErr: false,
		},
		{
			name:    "influxdb enabled without url",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true; c.InfluxDB.Bucket = "alarms" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("ALARM_DEVICE_ID", "garage")
	t.Setenv("ALARM_LOGGING_LEVEL", "trace")
	t.Setenv("ALARM_BUZZER_DRIVER", "sysfs")
	t.Setenv("ALARM_BUZZER_GPIO_PIN", "4")
	t.Setenv("ALARM_MQTT_HOST", "mqtt.example.com")
	t.Setenv("ALARM_MQTT_USERNAME", "testuser")
	t.Setenv("ALARM_MQTT_PASSWORD", "testpass")
	t.Setenv("ALARM_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	assert.Equal(t, "garage", cfg.Device.ID)
	assert.Equal(t, "trace", cfg.Logging.Level)
	assert.Equal(t, "sysfs", cfg.Buzzer.Driver)
	assert.Equal(t, 4, cfg.Buzzer.GPIOPin)
	assert.Equal(t, "mqtt.example.com", cfg.MQTT.Broker.Host)
	assert.Equal(t, "testuser", cfg.MQTT.Auth.Username)
	assert.Equal(t, "testpass", cfg.MQTT.Auth.Password)
	assert.Equal(t, "secret-token", cfg.InfluxDB.Token)
}

func TestApplyEnvOverrides_BadPinIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("ALARM_BUZZER_GPIO_PIN", "not-a-number")

	applyEnvOverrides(cfg)

	assert.Equal(t, 2, cfg.Buzzer.GPIOPin)
}

func TestBuzzerConfig_ChirpPattern(t *testing.T) {
	total, on, off := defaultConfig().Buzzer.ChirpPattern()

	assert.Equal(t, 2*time.Second, total)
	assert.Equal(t, 250*time.Millisecond, on)
	assert.Equal(t, 500*time.Millisecond, off)
}
