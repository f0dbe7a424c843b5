package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Point    PointConfig
	Workflow WorkflowConfig
	Audit    AuditConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	Timezone       string
	AllowedOrigins []string
	StorageDriver  string
	SeedPath       string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
}

type PointConfig struct {
	DefaultLocation    string
	ExpectedDailyHours float64
	AllowReentry       bool
}

type WorkflowConfig struct {
	TemplatesPath       string
	SectorMaxDepth      int
	OverdueScanInterval time.Duration
}

type AuditConfig struct {
	BatchSize     int
	FlushInterval time.Duration
	QueueSize     int
}

// Load reads .env when present and builds the configuration from the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	var p parser
	config := &Config{}

	config.App = AppConfig{
		Port:           p.getInt("APP_PORT", 8080),
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Timezone:       getEnv("APP_TIMEZONE", "UTC"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		StorageDriver:  getEnv("STORAGE_DRIVER", StoragePostgres),
		SeedPath:       getEnv("SEED_PATH", ""),
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     p.getInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance_workflow"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: p.getInt("DB_MAX_CONNS", 25),
		MinConns: p.getInt("DB_MIN_CONNS", 5),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: p.getDuration("JWT_ACCESS_EXPIRATION_TIME", time.Hour),
	}

	config.Point = PointConfig{
		DefaultLocation:    getEnv("POINT_DEFAULT_LOCATION", "office"),
		ExpectedDailyHours: p.getFloat("POINT_EXPECTED_DAILY_HOURS", 8),
		AllowReentry:       p.getBool("POINT_ALLOW_REENTRY", false),
	}

	config.Workflow = WorkflowConfig{
		TemplatesPath:       getEnv("TEMPLATES_PATH", ""),
		SectorMaxDepth:      p.getInt("SECTOR_MAX_DEPTH", 32),
		OverdueScanInterval: p.getDuration("OVERDUE_SCAN_INTERVAL", 15*time.Minute),
	}

	config.Audit = AuditConfig{
		BatchSize:     p.getInt("AUDIT_BATCH_SIZE", 100),
		FlushInterval: p.getDuration("AUDIT_FLUSH_INTERVAL", 5*time.Second),
		QueueSize:     p.getInt("AUDIT_QUEUE_SIZE", 1000),
	}

	if p.err != nil {
		return nil, p.err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	switch c.App.StorageDriver {
	case StoragePostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StoragePostgres, StorageMemory, c.App.StorageDriver)
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	if c.Point.ExpectedDailyHours <= 0 || c.Point.ExpectedDailyHours > 24 {
		return fmt.Errorf("POINT_EXPECTED_DAILY_HOURS must be within (0, 24]")
	}
	if c.Workflow.SectorMaxDepth <= 0 {
		return fmt.Errorf("SECTOR_MAX_DEPTH must be positive")
	}
	if c.Workflow.OverdueScanInterval <= 0 {
		return fmt.Errorf("OVERDUE_SCAN_INTERVAL must be positive")
	}
	return nil
}

// Location returns the configured time zone; Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ExpectedDaily is the configured working day length.
func (c *Config) ExpectedDaily() time.Duration {
	return time.Duration(c.Point.ExpectedDailyHours * float64(time.Hour))
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.Database.User),
		url.QueryEscape(c.Database.Password),
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// parser keeps the first conversion error so Load can report it once.
type parser struct {
	err error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
}

func (p *parser) getInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		p.fail(key, value, err)
		return fallback
	}
	return n
}

func (p *parser) getFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		p.fail(key, value, err)
		return fallback
	}
	return f
}

func (p *parser) getBool(key string, fallback bool) bool {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		p.fail(key, value, err)
		return fallback
	}
	return b
}

func (p *parser) getDuration(key string, fallback time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		p.fail(key, value, err)
		return fallback
	}
	return d
}
