package config

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultConfigDir = "configs"

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type AppConfig struct {
	// Variant is the service queried by one-shot and scheduled runs.
	Variant string `validate:"oneof=national world"`

	DataDir   string `validate:"required"`
	ReportDir string `validate:"required"`

	NDFDEndpoint string `validate:"required,url"`
	WMOBaseURL   string `validate:"required,url"`

	HTTPTimeout          time.Duration `validate:"gt=0"`
	WMORequestsPerSecond float64       `validate:"gte=0"`
	BreakerMaxFailures   uint32        `validate:"gt=0"`

	// Cooldown is the minimum age of the last upstream timestamp before
	// another query may run.
	Cooldown         time.Duration `validate:"gt=0"`
	ArchiveRetention int           `validate:"gt=0"`

	// ScheduleAt is the daily HH:MM run time in schedule and serve modes.
	ScheduleAt string `validate:"clock"`
	LogLevel   string `validate:"oneof=debug info warn error"`
	Port       string `validate:"required,numeric"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return clockPattern.MatchString(fl.Field().String())
	})
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("variant", "national")
	v.SetDefault("data_dir", "program_data")
	v.SetDefault("report_dir", "weather_reports")
	v.SetDefault("ndfd_endpoint", "https://graphical.weather.gov/xml/sample_products/browser_interface/ndfdXMLclient.php")
	v.SetDefault("wmo_base_url", "https://worldweather.wmo.int/en/json")
	v.SetDefault("http_timeout", "30s")
	v.SetDefault("wmo_requests_per_second", 2)
	v.SetDefault("breaker_max_failures", 5)
	v.SetDefault("cooldown", "1h")
	v.SetDefault("archive_retention", 30)
	v.SetDefault("schedule_at", "06:00")
	v.SetDefault("log_level", "info")
	v.SetDefault("port", "8080")
}

// Load reads configuration from .env, the environment and an optional
// configs/config.yml, in that order of precedence, with sensible defaults.
func Load() (*AppConfig, error) {
	return load(defaultConfigDir)
}

func load(configDir string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	v.AddConfigPath(configDir)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &AppConfig{
		Variant:              v.GetString("variant"),
		DataDir:              v.GetString("data_dir"),
		ReportDir:            v.GetString("report_dir"),
		NDFDEndpoint:         v.GetString("ndfd_endpoint"),
		WMOBaseURL:           v.GetString("wmo_base_url"),
		HTTPTimeout:          v.GetDuration("http_timeout"),
		WMORequestsPerSecond: v.GetFloat64("wmo_requests_per_second"),
		BreakerMaxFailures:   v.GetUint32("breaker_max_failures"),
		Cooldown:             v.GetDuration("cooldown"),
		ArchiveRetention:     v.GetInt("archive_retention"),
		ScheduleAt:           v.GetString("schedule_at"),
		LogLevel:             v.GetString("log_level"),
		Port:                 v.GetString("port"),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
