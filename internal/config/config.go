package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/segyhp/deposit-engine/pkg/interest"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	Interest  InterestConfig  `mapstructure:",squash"`
	Maturity  MaturityConfig  `mapstructure:",squash"`
	Health    HealthConfig    `mapstructure:",squash"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"DATABASE_DRIVER"`
	URL             string        `mapstructure:"DATABASE_URL"`
	Host            string        `mapstructure:"DATABASE_HOST"`
	Port            string        `mapstructure:"DATABASE_PORT"`
	Name            string        `mapstructure:"DATABASE_NAME"`
	User            string        `mapstructure:"DATABASE_USER"`
	Password        string        `mapstructure:"DATABASE_PASSWORD"`
	SSLMode         string        `mapstructure:"DATABASE_SSLMODE"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
	AutoMigrate     bool          `mapstructure:"AUTO_MIGRATE"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"REDIS_ENABLED"`
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type SchedulerConfig struct {
	Timezone         string        `mapstructure:"SCHEDULER_TIMEZONE"`
	DailyAccrualSpec string        `mapstructure:"SCHEDULER_DAILY_ACCRUAL_SPEC"`
	AutoMaturitySpec string        `mapstructure:"SCHEDULER_AUTO_MATURITY_SPEC"`
	MaturityScanSpec string        `mapstructure:"SCHEDULER_MATURITY_SCAN_SPEC"`
	NotificationSpec string        `mapstructure:"SCHEDULER_NOTIFICATION_SPEC"`
	LockTTL          time.Duration `mapstructure:"SCHEDULER_LOCK_TTL"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type InterestConfig struct {
	CalculationMethod string `mapstructure:"INTEREST_CALCULATION_METHOD"`
	RoundingMethod    string `mapstructure:"INTEREST_ROUNDING_METHOD"`
	DecimalPlaces     int32  `mapstructure:"INTEREST_DECIMAL_PLACES"`
}

type MaturityConfig struct {
	ScanDaysAhead       int    `mapstructure:"MATURITY_SCAN_DAYS_AHEAD"`
	NotificationChannel string `mapstructure:"MATURITY_NOTIFICATION_CHANNEL"`
}

type HealthConfig struct {
	Timeout time.Duration `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

var defaults = map[string]interface{}{
	"SERVER_PORT":          "8080",
	"SERVER_HOST":          "0.0.0.0",
	"ENV":                  "development",
	"SERVER_READ_TIMEOUT":  "15s",
	"SERVER_WRITE_TIMEOUT": "15s",

	"DATABASE_DRIVER":            DriverPostgres,
	"DATABASE_URL":               "",
	"DATABASE_HOST":              "localhost",
	"DATABASE_PORT":              "5432",
	"DATABASE_NAME":              "deposit_engine",
	"DATABASE_USER":              "postgres",
	"DATABASE_PASSWORD":          "postgres",
	"DATABASE_SSLMODE":           "disable",
	"DATABASE_MAX_OPEN_CONNS":    25,
	"DATABASE_MAX_IDLE_CONNS":    5,
	"DATABASE_CONN_MAX_LIFETIME": "5m",
	"AUTO_MIGRATE":               false,

	"REDIS_ENABLED":  true,
	"REDIS_HOST":     "localhost",
	"REDIS_PORT":     "6379",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,

	"SCHEDULER_TIMEZONE":           "UTC",
	"SCHEDULER_DAILY_ACCRUAL_SPEC": "0 5 0 * * *",
	"SCHEDULER_AUTO_MATURITY_SPEC": "0 30 0 * * *",
	"SCHEDULER_MATURITY_SCAN_SPEC": "0 0 1 * * *",
	"SCHEDULER_NOTIFICATION_SPEC":  "0 0 * * * *",
	"SCHEDULER_LOCK_TTL":           "30m",

	"LOG_LEVEL":  "info",
	"LOG_FORMAT": "json",

	"INTEREST_CALCULATION_METHOD": string(interest.DefaultMethod),
	"INTEREST_ROUNDING_METHOD":    string(interest.DefaultRounding),
	"INTEREST_DECIMAL_PLACES":     interest.DefaultDecimalPlaces,

	"MATURITY_SCAN_DAYS_AHEAD":      30,
	"MATURITY_NOTIFICATION_CHANNEL": "deposit:maturity-alerts",

	"HEALTH_CHECK_TIMEOUT": "5s",
}

// Load reads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	// Don't fail if .env file doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" && c.Database.Host == "" {
			return fmt.Errorf("DATABASE_URL or DATABASE_HOST is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q", DriverPostgres, DriverMemory)
	}

	if _, err := interest.ParseMethod(c.Interest.CalculationMethod); err != nil {
		return fmt.Errorf("INTEREST_CALCULATION_METHOD: %w", err)
	}

	if _, err := interest.ParseRounding(c.Interest.RoundingMethod); err != nil {
		return fmt.Errorf("INTEREST_ROUNDING_METHOD: %w", err)
	}

	if c.Interest.DecimalPlaces < 0 {
		return fmt.Errorf("INTEREST_DECIMAL_PLACES must not be negative")
	}

	if c.Maturity.ScanDaysAhead < 0 {
		return fmt.Errorf("MATURITY_SCAN_DAYS_AHEAD must not be negative")
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid IANA zone: %w", err)
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range map[string]string{
		"SCHEDULER_DAILY_ACCRUAL_SPEC": c.Scheduler.DailyAccrualSpec,
		"SCHEDULER_AUTO_MATURITY_SPEC": c.Scheduler.AutoMaturitySpec,
		"SCHEDULER_MATURITY_SCAN_SPEC": c.Scheduler.MaturityScanSpec,
		"SCHEDULER_NOTIFICATION_SPEC":  c.Scheduler.NotificationSpec,
	} {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s must be a valid cron spec: %w", name, err)
		}
	}

	if c.Health.Timeout <= 0 {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be greater than 0")
	}

	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// UsesMemoryStore reports whether repositories live in process memory
func (c *Config) UsesMemoryStore() bool {
	return c.Database.Driver == DriverMemory
}

// DSN returns the postgres connection string. DATABASE_URL wins over the
// individual fields.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// Addr returns host:port for the redis client
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// GetLocation returns the scheduler timezone
func (c *Config) GetLocation() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetCalculationMethod returns the configured default day-count method
func (c *Config) GetCalculationMethod() interest.Method {
	method, _ := interest.ParseMethod(c.Interest.CalculationMethod)
	return method
}

// GetRoundingPolicy returns the configured default rounding policy
func (c *Config) GetRoundingPolicy() interest.Policy {
	method, _ := interest.ParseRounding(c.Interest.RoundingMethod)
	return interest.Policy{Method: method, Places: c.Interest.DecimalPlaces}
}

// ConfigureLogging applies LOG_LEVEL and LOG_FORMAT to the global logger
func (c *Config) ConfigureLogging() {
	if strings.EqualFold(c.Logging.Format, "text") {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&log.JSONFormatter{})
	}

	level, err := log.ParseLevel(c.Logging.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetReportCaller(c.IsDevelopment())
}
