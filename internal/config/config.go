package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Auth      AuthConfig
	Storage   StorageConfig
	AI        AIConfig
	Sheets    SheetsConfig
	Scheduler SchedulerConfig
	Metrics   MetricsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// AuthConfig contains session signing and provisioning options.
type AuthConfig struct {
	JWTSecret        string
	SessionTTL       time.Duration
	MagicLinkTTL     time.Duration
	MagicLinkBaseURL string
	// SuperAdminEmails are provisioned to the top privilege exactly once at
	// sign-in. Comma separated in SUPER_ADMIN_EMAILS.
	SuperAdminEmails []string
}

// StorageConfig contains credentials for the Supabase object storage API.
type StorageConfig struct {
	BaseURL    string
	ServiceKey string
	Bucket     string
}

// AIConfig holds settings for the advisory report provider.
type AIConfig struct {
	GeminiKey   string
	GeminiModel string
}

// SheetsConfig contains configuration for the member roster export.
// The export endpoint is disabled when CredentialsPath is empty.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// SchedulerConfig holds cron settings for the daily KPI rollup.
type SchedulerConfig struct {
	CronSchedule string
	Timezone     string
}

// MetricsConfig holds Prometheus options.
type MetricsConfig struct {
	Namespace string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	sessionTTL, err := time.ParseDuration(getenvWithDefault("SESSION_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	magicTTL, err := time.ParseDuration(getenvWithDefault("MAGIC_LINK_TTL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAGIC_LINK_TTL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "coopnet"),
		},
		Auth: AuthConfig{
			JWTSecret:        os.Getenv("JWT_SECRET"),
			SessionTTL:       sessionTTL,
			MagicLinkTTL:     magicTTL,
			MagicLinkBaseURL: getenvWithDefault("MAGIC_LINK_BASE_URL", "http://localhost:8080/login"),
			SuperAdminEmails: splitList(os.Getenv("SUPER_ADMIN_EMAILS")),
		},
		Storage: StorageConfig{
			BaseURL:    os.Getenv("SUPABASE_URL"),
			ServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),
			Bucket:     getenvWithDefault("SUPABASE_BUCKET", "profiles"),
		},
		AI: AIConfig{
			GeminiKey:   os.Getenv("GEMINI_API_KEY"),
			GeminiModel: getenvWithDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_ROSTER_ID"),
		},
		Scheduler: SchedulerConfig{
			CronSchedule: getenvWithDefault("KPI_ROLLUP_SCHEDULE", "0 1 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Asia/Manila"),
		},
		Metrics: MetricsConfig{
			Namespace: getenvWithDefault("METRICS_NAMESPACE", "coopnet"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.MongoDB.URI == "":
		return errors.New("MONGODB_URI must be provided")
	case c.MongoDB.DBName == "":
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be provided")
	}
	if c.Auth.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.Auth.MagicLinkTTL <= 0 {
		return errors.New("MAGIC_LINK_TTL must be positive")
	}

	if c.Scheduler.CronSchedule == "" {
		return errors.New("KPI_ROLLUP_SCHEDULE must be provided")
	}
	if c.Scheduler.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	// Sheets export is optional but must be fully configured when enabled.
	if c.Sheets.CredentialsPath != "" && c.Sheets.SpreadsheetID == "" {
		return errors.New("GOOGLE_SHEET_ROSTER_ID must be provided when sheets export is enabled")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, strings.ToLower(trimmed))
		}
	}
	return out
}
