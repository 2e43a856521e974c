package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"insighthub/internal/analysis"
	"insighthub/internal/core"
)

// Backend names accepted in DATA_BACKEND.
const (
	BackendOrganizze = "organizze"
	BackendDemo      = "demo"
	BackendSQLite    = "sqlite"
	BackendSheets    = "sheets"
)

var validBackends = []string{BackendOrganizze, BackendDemo, BackendSQLite, BackendSheets}

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// Organizze REST API
	OrganizzeEmail     string
	OrganizzeToken     string
	OrganizzeBaseURL   string
	OrganizzeUserAgent string

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleTransactionsSheet  string
	GoogleCategoriesSheet    string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Dashboard service
	CacheSize       int
	CacheTTL        time.Duration
	FetchTimeout    time.Duration
	RefreshInterval time.Duration

	// Presentation
	Locale   string
	LogLevel string

	// Demo backend anchor date, YYYY-MM-DD; empty means today.
	DemoReferenceDate string

	// Insight rule limits
	Thresholds analysis.Thresholds
}

func Load() *Config {
	th := analysis.DefaultThresholds()
	cfg := &Config{
		Port:        getEnv("PORT", "8081"),
		DataBackend: getEnv("DATA_BACKEND", BackendDemo),

		OrganizzeEmail:     getEnv("ORGANIZZE_EMAIL", ""),
		OrganizzeToken:     getEnv("ORGANIZZE_TOKEN", ""),
		OrganizzeBaseURL:   getEnv("ORGANIZZE_BASE_URL", "https://api.organizze.com.br/rest/v2"),
		OrganizzeUserAgent: getEnv("ORGANIZZE_USER_AGENT", "Organizze Insight Hub (contact@example.com)"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/insighthub.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "insighthub"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "refresh_requests"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleTransactionsSheet:  getEnv("GOOGLE_TRANSACTIONS_SHEET", "Transactions"),
		GoogleCategoriesSheet:    getEnv("GOOGLE_CATEGORIES_SHEET", "Categories"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),

		CacheSize:       getEnvInt("CACHE_SIZE", 32),
		CacheTTL:        getEnvDuration("CACHE_TTL", 5*time.Minute),
		FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", 15*time.Second),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 15*time.Minute),

		Locale:   getEnv("LOCALE", "en"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DemoReferenceDate: getEnv("DEMO_REFERENCE_DATE", ""),

		Thresholds: analysis.Thresholds{
			ExpenseChangePct:   getEnvFloat("INSIGHT_EXPENSE_CHANGE_PCT", th.ExpenseChangePct),
			ExpenseHighPct:     getEnvFloat("INSIGHT_EXPENSE_HIGH_PCT", th.ExpenseHighPct),
			RevenueChangePct:   getEnvFloat("INSIGHT_REVENUE_CHANGE_PCT", th.RevenueChangePct),
			RevenueHighPct:     getEnvFloat("INSIGHT_REVENUE_HIGH_PCT", th.RevenueHighPct),
			DominantPct:        getEnvFloat("INSIGHT_DOMINANT_PCT", th.DominantPct),
			DominantHighPct:    getEnvFloat("INSIGHT_DOMINANT_HIGH_PCT", th.DominantHighPct),
			AnomalyMultiplier:  getEnvFloat("INSIGHT_ANOMALY_MULTIPLIER", th.AnomalyMultiplier),
			AnomalyMinExpenses: th.AnomalyMinExpenses,
			SavingsGoodPct:     getEnvFloat("INSIGHT_SAVINGS_GOOD_PCT", th.SavingsGoodPct),
			SavingsLowPct:      getEnvFloat("INSIGHT_SAVINGS_LOW_PCT", th.SavingsLowPct),
			SavingsTarget:      th.SavingsTarget,
		},
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Organizze needs credentials to pass through; the snapshot command uses
	// them too, so they are checked whenever either is set.
	if c.DataBackend == BackendOrganizze || c.OrganizzeEmail != "" || c.OrganizzeToken != "" {
		errors = append(errors, c.validateOrganizze()...)
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate Google Sheets configuration if backend is sheets
	if c.DataBackend == BackendSheets {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleTransactionsSheet == "" {
			errors = append(errors, "Google transactions sheet name is required when using sheets backend")
		}
		if c.GoogleCategoriesSheet == "" {
			errors = append(errors, "Google categories sheet name is required when using sheets backend")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasFile && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Validate dashboard service settings
	if c.CacheSize < 1 || c.CacheSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be between 1 and 10000", c.CacheSize))
	}
	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}
	if c.FetchTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must be at least 1 second", c.FetchTimeout))
	} else if c.FetchTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must be at most 5 minutes", c.FetchTimeout))
	}
	// zero disables the periodic refresh
	if c.RefreshInterval != 0 && c.RefreshInterval < 10*time.Second {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be 0 or at least 10 seconds", c.RefreshInterval))
	} else if c.RefreshInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at most 24 hours", c.RefreshInterval))
	}

	if _, err := language.Parse(c.Locale); err != nil {
		errors = append(errors, fmt.Sprintf("invalid locale '%s': %v", c.Locale, err))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	if c.DemoReferenceDate != "" {
		if _, err := core.ParseDate(c.DemoReferenceDate); err != nil {
			errors = append(errors, fmt.Sprintf("invalid demo reference date '%s': must be YYYY-MM-DD", c.DemoReferenceDate))
		}
	}

	errors = append(errors, validateThresholds(c.Thresholds)...)

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func (c *Config) validateOrganizze() []string {
	var errors []string
	if c.OrganizzeEmail == "" {
		errors = append(errors, "ORGANIZZE_EMAIL is required for the organizze backend")
	}
	if c.OrganizzeToken == "" {
		errors = append(errors, "ORGANIZZE_TOKEN is required for the organizze backend")
	}
	if u, err := url.Parse(c.OrganizzeBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid Organizze base URL '%s': %v", c.OrganizzeBaseURL, err))
	} else if u.Scheme != "https" && u.Scheme != "http" {
		errors = append(errors, fmt.Sprintf("invalid Organizze base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	}
	return errors
}

func validateThresholds(th analysis.Thresholds) []string {
	var errors []string
	pairs := []struct {
		name      string
		base, top float64
	}{
		{"expense change", th.ExpenseChangePct, th.ExpenseHighPct},
		{"revenue change", th.RevenueChangePct, th.RevenueHighPct},
		{"dominant category", th.DominantPct, th.DominantHighPct},
		{"savings", th.SavingsLowPct, th.SavingsGoodPct},
	}
	for _, p := range pairs {
		if p.base < 0 || p.top < 0 {
			errors = append(errors, fmt.Sprintf("invalid %s thresholds: must not be negative", p.name))
		} else if p.top < p.base {
			errors = append(errors, fmt.Sprintf("invalid %s thresholds: upper %.2f is below lower %.2f", p.name, p.top, p.base))
		}
	}
	if th.AnomalyMultiplier <= 0 {
		errors = append(errors, fmt.Sprintf("invalid anomaly multiplier %.2f: must be positive", th.AnomalyMultiplier))
	}
	return errors
}

// ParseLogLevel maps LOG_LEVEL to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level '%s': must be one of debug, info, warn, error", s)
}

// ReferenceDate returns the demo anchor date, or today when unset.
func (c *Config) ReferenceDate(now time.Time) core.Date {
	if d, err := core.ParseDate(c.DemoReferenceDate); err == nil {
		return d
	}
	return core.DateOf(now)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
