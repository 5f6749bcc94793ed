package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kirillkom/procura/internal/core/domain"
)

const envPrefix = "PROCURA"

type Config struct {
	APIPort         string
	MetricsPort     string
	LogLevel        string
	ShutdownTimeout time.Duration

	DatasetPath       string
	ProfilePath       string
	OutputDir         string
	CaseReferenceRule domain.CaseReferenceRule
	Timezone          string

	RateLimitRPS   float64
	RateLimitBurst int
	MaxConnections int
	MaxInFlight    int
	QueueWait      time.Duration

	RenderRetryAttempts int
	BreakerEnabled      bool
	BreakerMinRequests  int
	BreakerFailureRatio float64
	BreakerOpenTimeout  time.Duration
}

var defaults = map[string]any{
	"api_port":         "8080",
	"metrics_port":     "",
	"log_level":        "info",
	"shutdown_timeout": "10s",

	"dataset_path":        "",
	"profile_path":        "",
	"output_dir":          ".",
	"case_reference_rule": string(domain.CaseReferencePrefixed),
	"timezone":            "Europe/Rome",

	"rate_limit_rps":   5.0,
	"rate_limit_burst": 10,
	"max_connections":  64,
	"max_in_flight":    16,
	"queue_wait":       "250ms",

	"render_retry_attempts": 2,
	"breaker_enabled":       true,
	"breaker_min_requests":  5,
	"breaker_failure_ratio": 0.6,
	"breaker_open_timeout":  "15s",
}

// Load reads PROCURA_* variables, a .env file in the working directory and,
// when PROCURA_CONFIG names one, a YAML config file. Environment wins.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := newViper()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path := strings.TrimSpace(v.GetString("config")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the built-in settings without reading the environment.
func Default() Config {
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

func fromViper(v *viper.Viper) Config {
	return Config{
		APIPort:         v.GetString("api_port"),
		MetricsPort:     v.GetString("metrics_port"),
		LogLevel:        v.GetString("log_level"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),

		DatasetPath:       v.GetString("dataset_path"),
		ProfilePath:       v.GetString("profile_path"),
		OutputDir:         v.GetString("output_dir"),
		CaseReferenceRule: domain.CaseReferenceRule(strings.ToLower(strings.TrimSpace(v.GetString("case_reference_rule")))),
		Timezone:          v.GetString("timezone"),

		RateLimitRPS:   v.GetFloat64("rate_limit_rps"),
		RateLimitBurst: v.GetInt("rate_limit_burst"),
		MaxConnections: v.GetInt("max_connections"),
		MaxInFlight:    v.GetInt("max_in_flight"),
		QueueWait:      v.GetDuration("queue_wait"),

		RenderRetryAttempts: v.GetInt("render_retry_attempts"),
		BreakerEnabled:      v.GetBool("breaker_enabled"),
		BreakerMinRequests:  v.GetInt("breaker_min_requests"),
		BreakerFailureRatio: v.GetFloat64("breaker_failure_ratio"),
		BreakerOpenTimeout:  v.GetDuration("breaker_open_timeout"),
	}
}

func (c Config) Validate() error {
	var problems []string
	if !c.CaseReferenceRule.Valid() {
		problems = append(problems, fmt.Sprintf("case_reference_rule %q is not one of prefixed, digits", c.CaseReferenceRule))
	}
	if c.RateLimitRPS <= 0 {
		problems = append(problems, "rate_limit_rps must be positive")
	}
	if c.RateLimitBurst <= 0 {
		problems = append(problems, "rate_limit_burst must be positive")
	}
	if c.MaxConnections <= 0 {
		problems = append(problems, "max_connections must be positive")
	}
	if c.MaxInFlight <= 0 {
		problems = append(problems, "max_in_flight must be positive")
	}
	if c.QueueWait < 0 {
		problems = append(problems, "queue_wait must not be negative")
	}
	if c.RenderRetryAttempts <= 0 {
		problems = append(problems, "render_retry_attempts must be positive")
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		problems = append(problems, "breaker_failure_ratio must be in (0, 1]")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("timezone %q: %v", c.Timezone, err))
	}
	if len(problems) > 0 {
		return domain.WrapError(domain.ErrInvalidInput, "config", errors.New(strings.Join(problems, "; ")))
	}
	return nil
}

// Location is the zone used to stamp the procura issue date.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
