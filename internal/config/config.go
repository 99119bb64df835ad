package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "MOTOR"

// Config is the full application configuration (configs/config.yml).
type Config struct {
	Port      string          `mapstructure:"port"`
	DB        DBConfig        `mapstructure:"db"`
	Log       LogConfig       `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Device    DeviceConfig    `mapstructure:"device"`
	Commands  CommandsConfig  `mapstructure:"commands"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// DeviceConfig points at the motor controller's HTTP interface.
type DeviceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CommandsConfig bounds fire-and-forget device calls.
type CommandsConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type TelemetryConfig struct {
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	TimerInterval time.Duration `mapstructure:"timer_interval"`
	RoundTo       int           `mapstructure:"round_to"` // 0 disables rounding of the speed readout
}

type SimulatorConfig struct {
	Port string        `mapstructure:"port"`
	Tick time.Duration `mapstructure:"tick"`
}

// setDefaults registers a value for every key so a missing file still yields a usable config.
func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("device.base_url", "http://192.168.4.1")
	v.SetDefault("device.timeout", 2*time.Second)
	v.SetDefault("commands.timeout", 3*time.Second)
	v.SetDefault("telemetry.poll_interval", time.Second)
	v.SetDefault("telemetry.timer_interval", time.Second)
	v.SetDefault("telemetry.round_to", 0)
	v.SetDefault("simulator.port", "8090")
	v.SetDefault("simulator.tick", 100*time.Millisecond)
}

// Load reads config.yml from the given directories (configs/ when none given).
// A missing file is not an error; environment variables MOTOR_<SECTION>_<KEY>
// override file values.
func Load(paths ...string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if len(paths) == 0 {
		paths = []string{"configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the periodic tasks and clients cannot run with.
func (c Config) Validate() error {
	if c.Telemetry.PollInterval <= 0 {
		return errors.New("telemetry.poll_interval must be positive")
	}
	if c.Telemetry.TimerInterval <= 0 {
		return errors.New("telemetry.timer_interval must be positive")
	}
	if c.Telemetry.RoundTo < 0 {
		return errors.New("telemetry.round_to must not be negative")
	}
	if c.Device.BaseURL == "" {
		return errors.New("device.base_url is required")
	}
	return nil
}
