// Package config loads runtime configuration from a YAML file, environment
// variables and command-line flags, in that order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/srs"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/training"
)

// envPrefix namespaces environment overrides, e.g. ANKISRV_SERVER__ADDR.
// A double underscore separates nesting levels so keys may contain single
// underscores.
const envPrefix = "ANKISRV_"

// Config is the full runtime configuration.
type Config struct {
	Server struct {
		Addr string `koanf:"addr" validate:"required"`
	} `koanf:"server"`

	Database struct {
		Path string `koanf:"path" validate:"required"`
	} `koanf:"database"`

	Sync struct {
		ReposDir string `koanf:"repos_dir"`
		OnStart  bool   `koanf:"on_start"`
	} `koanf:"sync"`

	Scheduler SchedulerConfig `koanf:"scheduler"`
	Session   SessionConfig   `koanf:"session"`
	Retention RetentionConfig `koanf:"retention"`
}

// SchedulerConfig exposes the scheduler constants that deployments tune.
// The remaining Params fields keep their srs defaults.
type SchedulerConfig struct {
	LearningStepsMinutes   []int   `koanf:"learning_steps_minutes" validate:"min=1,dive,gt=0"`
	GraduatingIntervalDays float64 `koanf:"graduating_interval_days" validate:"gt=0"`
	EasyIntervalDays       float64 `koanf:"easy_interval_days" validate:"gt=0"`
	MaxIntervalDays        float64 `koanf:"max_interval_days" validate:"gte=1"`
	DesiredRetention       float64 `koanf:"desired_retention" validate:"gt=0,lte=1"`
}

// SessionConfig bounds session composition.
type SessionConfig struct {
	MaxSize   int `koanf:"max_size" validate:"gte=1"`
	MaxNew    int `koanf:"max_new" validate:"gte=1"`
	MaxReview int `koanf:"max_review" validate:"gte=1"`
}

// RetentionConfig shapes the forgetting-curve analytics.
type RetentionConfig struct {
	BucketsDays            []int   `koanf:"buckets_days" validate:"min=1,dive,gt=0"`
	ReferenceStabilityDays float64 `koanf:"reference_stability_days" validate:"gt=0"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	var cfg Config
	cfg.Server.Addr = ":8080"
	cfg.Database.Path = "ankisrv.db"
	cfg.Sync.ReposDir = "repos"

	p := srs.DefaultParams()
	for _, step := range p.LearningSteps {
		cfg.Scheduler.LearningStepsMinutes = append(cfg.Scheduler.LearningStepsMinutes, int(step.Minutes()))
	}
	cfg.Scheduler.GraduatingIntervalDays = p.GraduatingIntervalDays
	cfg.Scheduler.EasyIntervalDays = p.EasyIntervalDays
	cfg.Scheduler.MaxIntervalDays = p.MaxIntervalDays
	cfg.Scheduler.DesiredRetention = p.DesiredRetention

	caps := training.DefaultCaps()
	cfg.Session.MaxSize = caps.MaxSession
	cfg.Session.MaxNew = caps.MaxNew
	cfg.Session.MaxReview = caps.MaxReview

	cfg.Retention.BucketsDays = []int{1, 3, 7, 14, 30, 60, 90}
	cfg.Retention.ReferenceStabilityDays = 10

	return &cfg
}

// Load builds the configuration from defaults, then an optional YAML file,
// then environment variables, then flags. The result is validated.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.TrimPrefix(s, envPrefix)
		return strings.ReplaceAll(strings.ToLower(key), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// SchedulerParams materializes srs parameters from the configuration.
func (c *Config) SchedulerParams() *srs.Params {
	p := srs.DefaultParams()

	steps := make([]time.Duration, 0, len(c.Scheduler.LearningStepsMinutes))
	for _, minutes := range c.Scheduler.LearningStepsMinutes {
		steps = append(steps, time.Duration(minutes)*time.Minute)
	}
	p.LearningSteps = steps
	p.GraduatingIntervalDays = c.Scheduler.GraduatingIntervalDays
	p.EasyIntervalDays = c.Scheduler.EasyIntervalDays
	p.MaxIntervalDays = c.Scheduler.MaxIntervalDays
	p.DesiredRetention = c.Scheduler.DesiredRetention

	return p
}

// SessionCaps materializes the session limits.
func (c *Config) SessionCaps() training.Caps {
	return training.Caps{
		MaxSession: c.Session.MaxSize,
		MaxNew:     c.Session.MaxNew,
		MaxReview:  c.Session.MaxReview,
	}
}
