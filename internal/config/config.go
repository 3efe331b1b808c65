package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	S3        S3Config        `mapstructure:"s3"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	Plan      PlanConfig      `mapstructure:"plan"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Mode         string        `mapstructure:"mode"` // gin mode: debug, release, test
}

type DatabaseConfig struct {
	URI            string        `mapstructure:"uri"`
	Name           string        `mapstructure:"name"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// LogConfig controls the zap logger and its rotating file sink.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// PlanConfig holds the memorization policy knobs.
type PlanConfig struct {
	// Timezone decides the calendar day used for failure keys.
	Timezone         string `mapstructure:"timezone"`
	RevisionVerses   int    `mapstructure:"revision_verses"`
	ReductionPercent int    `mapstructure:"reduction_percent"`
	AdjustmentNotice string `mapstructure:"adjustment_notice"`
}

// SchedulerConfig controls the background jobs.
type SchedulerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	ReminderHour  int  `mapstructure:"reminder_hour"`
	AdherenceHour int  `mapstructure:"adherence_hour"`
}

// Enabled reports whether recitation uploads can be served.
func (s S3Config) Enabled() bool {
	return s.BucketName != "" && s.AccessKeyID != "" && s.SecretAccessKey != ""
}

// Location resolves the configured timezone.
func (p PlanConfig) Location() (*time.Location, error) {
	return time.LoadLocation(p.Timezone)
}

// Validate checks values viper cannot check for us.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.Plan.ReductionPercent < 0 || c.Plan.ReductionPercent >= 100 {
		return fmt.Errorf("plan.reduction_percent must be in [0,100), got %d", c.Plan.ReductionPercent)
	}
	if c.Plan.RevisionVerses < 0 {
		return fmt.Errorf("plan.revision_verses must not be negative, got %d", c.Plan.RevisionVerses)
	}
	if _, err := c.Plan.Location(); err != nil {
		return fmt.Errorf("plan.timezone: %w", err)
	}
	for name, hour := range map[string]int{"reminder_hour": c.Scheduler.ReminderHour, "adherence_hour": c.Scheduler.AdherenceHour} {
		if hour < 0 || hour > 23 {
			return fmt.Errorf("scheduler.%s must be in [0,23], got %d", name, hour)
		}
	}
	return nil
}

// LoadConfig reads configuration from file or environment variables.
// A .env file in path, if present, is loaded into the environment first.
func LoadConfig(path string) (config Config, err error) {
	_ = godotenv.Load(path + "/.env") // optional

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// Config file not found; rely on defaults/env vars
		err = nil
	} else if err != nil {
		return
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}
	if err = config.Validate(); err != nil {
		return
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "hifz_tracker")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "recitations")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("plan.timezone", "UTC")
	v.SetDefault("plan.revision_verses", 10)
	v.SetDefault("plan.reduction_percent", 20)
	v.SetDefault("plan.adjustment_notice", "Your memorization plan has been adjusted to help you succeed.")
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.reminder_hour", 18)
	v.SetDefault("scheduler.adherence_hour", 23)
}
