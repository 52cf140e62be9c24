package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/oarkflow/smsc-simulator/pkg/smpp"
)

// EnvPrefix prefixes environment overrides, e.g. SMSCSIM_SERVER_PORT.
const EnvPrefix = "SMSCSIM"

// Config is the simulator configuration.
//
// Sources, highest precedence first: CLI flags, SMSCSIM_* environment
// variables, the configuration file, defaults.
type Config struct {
	Server   ServerConfig               `mapstructure:"server" yaml:"server"`
	Logging  LoggingConfig              `mapstructure:"logging" yaml:"logging"`
	Metrics  MetricsConfig              `mapstructure:"metrics" yaml:"metrics"`
	Throttle ThrottleConfig             `mapstructure:"throttle" yaml:"throttle"`
	Features map[string]map[string]bool `mapstructure:"features" yaml:"features"`
}

// ServerConfig holds the listener and session timer settings.
type ServerConfig struct {
	Host               string        `mapstructure:"host" yaml:"host"`
	Port               int           `mapstructure:"port" validate:"gte=0,lte=65535" yaml:"port"`
	AdminPort          int           `mapstructure:"admin_port" validate:"gte=-1,lte=65535" yaml:"admin_port"`
	MaxConnections     int           `mapstructure:"max_connections" validate:"gte=0" yaml:"max_connections"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout" validate:"gt=0" yaml:"write_timeout"`
	TickInterval       time.Duration `mapstructure:"tick_interval" validate:"gt=0" yaml:"tick_interval"`
	IdleTimeout        time.Duration `mapstructure:"idle_timeout" validate:"gt=0" yaml:"idle_timeout"`
	EnquireLinkTimeout time.Duration `mapstructure:"enquire_link_timeout" validate:"gt=0" yaml:"enquire_link_timeout"`
	UnbindGrace        time.Duration `mapstructure:"unbind_grace" validate:"gte=0" yaml:"unbind_grace"`
	SystemID           string        `mapstructure:"system_id" validate:"required,max=15" yaml:"system_id"`
	DeliveryJitterMin  time.Duration `mapstructure:"delivery_jitter_min" validate:"gte=0" yaml:"delivery_jitter_min"`
	DeliveryJitterMax  time.Duration `mapstructure:"delivery_jitter_max" validate:"gtefield=DeliveryJitterMin" yaml:"delivery_jitter_max"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Host      string `mapstructure:"host" yaml:"host"`
	Port      int    `mapstructure:"port" validate:"gte=0,lte=65535" yaml:"port"`
	Path      string `mapstructure:"path" validate:"startswith=/" yaml:"path"`
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
}

// ThrottleConfig limits submit_sm per bound identity. A zero rate disables
// throttling.
type ThrottleConfig struct {
	SubmitsPerSecond float64 `mapstructure:"submits_per_second" validate:"gte=0" yaml:"submits_per_second"`
	Burst            int     `mapstructure:"burst" validate:"gte=0" yaml:"burst"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero values with defaults.
func ApplyDefaults(cfg *Config) {
	s := &cfg.Server
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 2775
	}
	if s.AdminPort == 0 {
		s.AdminPort = 8728
	}
	if s.MaxConnections == 0 {
		s.MaxConnections = 1000
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 10 * time.Second
	}
	if s.TickInterval == 0 {
		s.TickInterval = time.Second
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = 2 * time.Minute
	}
	if s.EnquireLinkTimeout == 0 {
		s.EnquireLinkTimeout = time.Minute
	}
	if s.UnbindGrace == 0 {
		s.UnbindGrace = 5 * time.Second
	}
	if s.SystemID == "" {
		s.SystemID = smpp.DefaultSystemID
	}
	if s.DeliveryJitterMin == 0 && s.DeliveryJitterMax == 0 {
		s.DeliveryJitterMin = time.Second
		s.DeliveryJitterMax = 5 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "0.0.0.0"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "smscsim"
	}

	if cfg.Throttle.Burst == 0 {
		cfg.Throttle.Burst = 1
	}

	if cfg.Features == nil {
		cfg.Features = map[string]map[string]bool{
			"*": {smpp.FeatureSCInterfaceVersion: true},
		}
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and returns every violation found.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// Load reads configuration from configPath, applying environment overrides,
// defaults and validation. A missing file yields the defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Save writes cfg to path as YAML.
func Save(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SMPPServerConfig converts the server section for smpp.NewServer.
func (c *Config) SMPPServerConfig() *smpp.ServerConfig {
	s := c.Server
	return &smpp.ServerConfig{
		Host:               s.Host,
		Port:               s.Port,
		AdminPort:          s.AdminPort,
		MaxConnections:     s.MaxConnections,
		WriteTimeout:       s.WriteTimeout,
		TickInterval:       s.TickInterval,
		IdleTimeout:        s.IdleTimeout,
		EnquireLinkTimeout: s.EnquireLinkTimeout,
		UnbindGrace:        s.UnbindGrace,
		SystemID:           s.SystemID,
		DeliveryJitterMin:  s.DeliveryJitterMin,
		DeliveryJitterMax:  s.DeliveryJitterMax,
	}
}

func setupViper(v *viper.Viper, configPath string) {
	// SMSCSIM_SERVER_PORT=2776 overrides server.port
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only applies to keys viper already knows about.
	bindEnvKeys(v, reflect.TypeOf(Config{}), "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("smscsim")
		v.SetConfigType("yaml")
	}
}

// bindEnvKeys registers every leaf mapstructure key of t with viper.
func bindEnvKeys(v *viper.Viper, t reflect.Type, prefix string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		key := f.Tag.Get("mapstructure")
		if key == "" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		if f.Type.Kind() == reflect.Struct {
			bindEnvKeys(v, f.Type, key)
			continue
		}
		if f.Type.Kind() == reflect.Map {
			continue
		}
		_ = v.BindEnv(key)
	}
}

// readConfigFile reports whether a configuration file was read.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
	)
}

// durationDecodeHook converts "30s"-style strings and raw numbers to
// time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}
