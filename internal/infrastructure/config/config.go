package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration for the alarm listener.
//
// Device settings (network credentials, port, static addressing) live in the
// key=value settings file handled by the settings package. This structure
// covers everything around them: logging, the wire reader limits, the buzzer
// driver and the optional MQTT and InfluxDB integrations.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Logging  LoggingConfig  `yaml:"logging"`
	Listener ListenerConfig `yaml:"listener"`
	Buzzer   BuzzerConfig   `yaml:"buzzer"`
	Network  NetworkConfig  `yaml:"network"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
}

// DeviceConfig identifies this alarm unit on the event bus and in telemetry.
type DeviceConfig struct {
	ID string `yaml:"id"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// ListenerConfig controls how requests are read off accepted connections.
type ListenerConfig struct {
	// ChunkSize is the size of a single read from the connection.
	ChunkSize int `yaml:"chunk_size"`

	// MaxRequestSize caps the accumulated request (headers and body).
	MaxRequestSize int `yaml:"max_request_size"`

	// ReadTimeout is applied as a read deadline on each accepted connection.
	// Zero disables it, so a stalled client blocks the listener.
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// BuzzerConfig selects and configures the buzzer driver.
type BuzzerConfig struct {
	// Driver is "sysfs" (GPIO value file) or "sim" (log only).
	Driver string `yaml:"driver"`

	// GPIOPin is the pin number exported under GPIOPath.
	GPIOPin int `yaml:"gpio_pin"`

	// GPIOPath is the sysfs GPIO root.
	GPIOPath string `yaml:"gpio_path"`

	// ActiveLow inverts the level written for "on".
	ActiveLow bool `yaml:"active_low"`

	// Chirp is sounded once at startup. Zero Duration disables it.
	Chirp PatternConfig `yaml:"chirp"`
}

// PatternConfig is an on/off buzzer cadence in milliseconds.
type PatternConfig struct {
	Duration int `yaml:"duration_ms"`
	On       int `yaml:"on_ms"`
	Off      int `yaml:"off_ms"`
}

// NetworkConfig controls wireless network bring-up.
type NetworkConfig struct {
	// Manage enables bring-up. Disable on hosts whose network is managed elsewhere.
	Manage bool `yaml:"manage"`

	// Command is the network manager binary (nmcli compatible).
	Command string `yaml:"command"`

	// Interface is the wireless interface name.
	Interface string `yaml:"interface"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults), skipped when path is empty
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ALARM_SECTION_KEY
// For example: ALARM_LOGGING_LEVEL, ALARM_MQTT_HOST
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration with environment overrides applied.
func Default() *Config {
	cfg := defaultConfig()
	applyEnvOverrides(cfg)
	return cfg
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			ID: "alarm-01",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Listener: ListenerConfig{
			ChunkSize:      1024,
			MaxRequestSize: 64 << 10,
		},
		Buzzer: BuzzerConfig{
			Driver:   "sim",
			GPIOPin:  2,
			GPIOPath: "/sys/class/gpio",
			Chirp: PatternConfig{
				Duration: 2000,
				On:       250,
				Off:      500,
			},
		},
		Network: NetworkConfig{
			Manage:    false,
			Command:   "nmcli",
			Interface: "wlan0",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "alarm-01",
			},
			QoS:         1,
			TopicPrefix: "alarm",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ALARM_DEVICE_ID"); v != "" {
		cfg.Device.ID = v
	}

	// Logging
	if v := os.Getenv("ALARM_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ALARM_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Buzzer
	if v := os.Getenv("ALARM_BUZZER_DRIVER"); v != "" {
		cfg.Buzzer.Driver = v
	}
	if v := os.Getenv("ALARM_BUZZER_GPIO_PIN"); v != "" {
		if pin, err := strconv.Atoi(v); err == nil {
			cfg.Buzzer.GPIOPin = pin
		}
	}

	// MQTT
	if v := os.Getenv("ALARM_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("ALARM_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("ALARM_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("ALARM_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// All problems are collected so a single run reports every mistake.
func (c *Config) Validate() error {
	var errs []error

	if c.Device.ID == "" {
		errs = append(errs, errors.New("device.id is required"))
	}

	if c.Listener.ChunkSize <= 0 {
		errs = append(errs, errors.New("listener.chunk_size must be positive"))
	}
	if c.Listener.MaxRequestSize < c.Listener.ChunkSize {
		errs = append(errs, errors.New("listener.max_request_size must be at least listener.chunk_size"))
	}
	if c.Listener.ReadTimeout < 0 {
		errs = append(errs, errors.New("listener.read_timeout cannot be negative"))
	}

	switch strings.ToLower(c.Buzzer.Driver) {
	case "sim":
	case "sysfs":
		if c.Buzzer.GPIOPin < 0 {
			errs = append(errs, errors.New("buzzer.gpio_pin cannot be negative"))
		}
		if c.Buzzer.GPIOPath == "" {
			errs = append(errs, errors.New("buzzer.gpio_path is required for the sysfs driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("buzzer.driver %q is not one of sim, sysfs", c.Buzzer.Driver))
	}
	if c.Buzzer.Chirp.Duration < 0 || c.Buzzer.Chirp.On < 0 || c.Buzzer.Chirp.Off < 0 {
		errs = append(errs, errors.New("buzzer.chirp values cannot be negative"))
	}

	if c.Network.Manage && c.Network.Command == "" {
		errs = append(errs, errors.New("network.command is required when network.manage is enabled"))
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, errors.New("mqtt.broker.host is required"))
		}
		if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
			errs = append(errs, errors.New("mqtt.broker.port must be between 1 and 65535"))
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, errors.New("mqtt.qos must be 0, 1, or 2"))
		}
		if c.MQTT.TopicPrefix == "" {
			errs = append(errs, errors.New("mqtt.topic_prefix is required"))
		}
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, errors.New("influxdb.url is required"))
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, errors.New("influxdb.bucket is required"))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %w", errors.Join(errs...))
	}

	return nil
}

// ChirpPattern returns the startup chirp as durations.
func (b BuzzerConfig) ChirpPattern() (total, on, off time.Duration) {
	return time.Duration(b.Chirp.Duration) * time.Millisecond,
		time.Duration(b.Chirp.On) * time.Millisecond,
		time.Duration(b.Chirp.Off) * time.Millisecond
}
