package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tejusbharadwaj/weatherwidget/internal/api"
)

// Config holds all configuration for our application
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Sensor  SensorConfig  `mapstructure:"sensor"`
	Refresh RefreshConfig `mapstructure:"refresh"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	GRPCPort       int     `mapstructure:"grpc_port" validate:"min=1,max=65535"`
	HTTPAddr       string  `mapstructure:"http_addr" validate:"required"`
	RateLimit      float64 `mapstructure:"rate_limit" validate:"gt=0"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst" validate:"min=1"`
}

type SensorConfig struct {
	URL            string        `mapstructure:"url" validate:"required"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" validate:"gt=0"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes" validate:"min=1"`
	// StrictFields fails a reading that carries an unknown data entry instead
	// of ignoring the entry.
	StrictFields bool `mapstructure:"strict_fields"`
}

type RefreshConfig struct {
	Schedule  string `mapstructure:"schedule" validate:"required"`
	Targets   []int  `mapstructure:"targets" validate:"min=1"`
	BoardSize int    `mapstructure:"board_size" validate:"min=1"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// Load reads configuration from file and environment variables.
//
// $VAR references in the file are expanded first. Any key can then be
// overridden with an APP_ prefixed variable, e.g. APP_SENSOR_URL.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))

	// Reject malformed YAML with the parser's own message
	var rawConfig map[string]interface{}
	if err := yaml.Unmarshal(expanded, &rawConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal raw config: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadConfig(bytes.NewReader(expanded)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks field constraints and the sensor URL.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := api.ValidateSensorURL(c.Sensor.URL); err != nil {
		return fmt.Errorf("invalid config: sensor.url: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.grpc_port", 50051)
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.rate_limit", 5.0)
	v.SetDefault("server.rate_limit_burst", 10)

	// Registered so that APP_SENSOR_URL alone is enough
	v.SetDefault("sensor.url", "")
	v.SetDefault("sensor.connect_timeout", api.DefaultConnectTimeout)
	v.SetDefault("sensor.read_timeout", api.DefaultReadTimeout)
	v.SetDefault("sensor.max_body_bytes", api.DefaultMaxBodyBytes)
	v.SetDefault("sensor.strict_fields", false)

	v.SetDefault("refresh.schedule", "@every 30m")
	v.SetDefault("refresh.targets", []int{1})
	v.SetDefault("refresh.board_size", 64)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
