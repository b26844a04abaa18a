package config

import (
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type HealthCheckConfig struct {
	Interval     string `mapstructure:"interval"`
	ProbeTimeout string `mapstructure:"probe_timeout"`
}

// BreakerConfig carries the circuit breaker parameters as they appear in the
// config file. Durations are strings so operators can write "30s" or "500ms";
// they are parsed where the breaker is built.
type BreakerConfig struct {
	FailureThreshold         int    `mapstructure:"failure_threshold"`
	ErrorThresholdPercentage int    `mapstructure:"error_threshold_percentage"`
	VolumeThreshold          int    `mapstructure:"volume_threshold"`
	ResetTimeout             string `mapstructure:"reset_timeout"`
	OperationTimeout         string `mapstructure:"operation_timeout"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server      ServerConfig             `mapstructure:"server"`
	HealthCheck HealthCheckConfig        `mapstructure:"health_check"`
	Breaker     BreakerConfig            `mapstructure:"breaker"`
	Overrides   map[string]BreakerConfig `mapstructure:"breaker_overrides"`
	Services    map[string]string        `mapstructure:"services"`
	Logging     LoggingConfig            `mapstructure:"logging"`
}

func Load() (*Config, error) {
	viper.SetDefault("server.environment", EnvDev)
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("health_check.interval", "30s")
	viper.SetDefault("health_check.probe_timeout", "5s")
	viper.SetDefault("breaker.failure_threshold", 5)
	viper.SetDefault("breaker.error_threshold_percentage", 50)
	viper.SetDefault("breaker.volume_threshold", 10)
	viper.SetDefault("breaker.reset_timeout", "30s")
	viper.SetDefault("breaker.operation_timeout", "5s")
	viper.SetDefault("logging.level", LogLevelInfo)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Warn("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", viper.ConfigFileUsed()))
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.HealthCheck,
			validation.Required,
			validation.By(func(value interface{}) error {
				hc, ok := value.(HealthCheckConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a HealthCheckConfig")
				}
				return validation.ValidateStruct(&hc,
					validation.Field(&hc.Interval,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&hc.ProbeTimeout,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.Breaker,
			validation.Required,
			validation.By(validateBreakerConfig),
		),
		validation.Field(&c.Overrides,
			validation.By(validateOverrides),
		),
		validation.Field(&c.Services,
			validation.By(validateServices),
		),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	return nil
}

func validateBreakerConfig(value interface{}) error {
	bc, ok := value.(BreakerConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a BreakerConfig")
	}

	if bc.FailureThreshold < 0 {
		return validation.NewError("validation_invalid_threshold", "failure_threshold cannot be negative")
	}

	if bc.ErrorThresholdPercentage < 0 || bc.ErrorThresholdPercentage > 100 {
		return validation.NewError("validation_invalid_percentage", "error_threshold_percentage must be between 0 and 100")
	}

	if bc.VolumeThreshold < 0 {
		return validation.NewError("validation_invalid_threshold", "volume_threshold cannot be negative")
	}

	if bc.ResetTimeout != "" {
		if err := validateDuration(bc.ResetTimeout); err != nil {
			return err
		}
	}

	if bc.OperationTimeout != "" {
		if err := validateDuration(bc.OperationTimeout); err != nil {
			return err
		}
	}

	return nil
}

// validateOverrides checks the optional per-service breaker sections. Empty
// duration fields are allowed: they inherit the defaults when the breaker is
// built.
func validateOverrides(value interface{}) error {
	overrides, ok := value.(map[string]BreakerConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a map of BreakerConfig")
	}

	for name, bc := range overrides {
		if name == "" {
			return validation.NewError("validation_empty_service", "override service name cannot be empty")
		}
		if err := validateBreakerConfig(bc); err != nil {
			return err
		}
	}

	return nil
}

func validateServices(value interface{}) error {
	services, ok := value.(map[string]string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a map of service addresses")
	}

	for name, address := range services {
		if name == "" {
			return validation.NewError("validation_empty_service", "service name cannot be empty")
		}
		if err := validateServiceAddress(address); err != nil {
			return err
		}
	}

	return nil
}

func validateServiceAddress(address string) error {
	if address == "" {
		return validation.NewError("validation_empty_url", "service address cannot be empty")
	}

	parsedURL, err := url.Parse(address)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}
