package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"platinum/internal/core"
)

type Config struct {
	// HTTP Server
	Port           string
	LogLevel       string
	LogFormat      string
	TrustedProxies []string

	// Backend selection
	DataBackend string

	// BigQuery
	GCPProjectID       string
	BigQueryDataset    string
	BigQueryLocation   string
	TargetsTable       string
	DepositsTable      string
	QueryTimeout       time.Duration
	ServiceAccountJSON string
	ServiceAccountFile string

	// Google Sheets
	GoogleSpreadsheetID string
	TargetsSheetName    string
	DepositsSheetName   string

	// Local warehouses
	SQLiteDBPath  string
	DataDirectory string

	// AMQP
	AMQPURL          string
	AMQPExchange     string
	AMQPDepositQueue string
	AMQPRefreshRoute string

	// Deposit worker
	WorkerMetricsAddr string

	// Auth
	DashboardUser         string
	DashboardPassword     string
	DashboardPasswordHash string
	SessionTTL            time.Duration
	CookieSecure          bool
	LoginRatePerMinute    int

	// Dashboard constants
	MetaMax             float64
	BaseInitial         float64
	SeriesStartDate     string
	Timezone            string
	SubGoalDate         string
	SubGoalValue        float64
	FallbackDailyTarget float64
	QueryCacheTTL       time.Duration
}

var validBackends = []string{"bigquery", "sheets", "sqlite", "memory"}

func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8081"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		TrustedProxies: getEnvList("TRUSTED_PROXIES"),

		DataBackend: getEnv("DATA_BACKEND", "memory"),

		GCPProjectID:       getEnv("GCP_PROJECT_ID", "leads-ts"),
		BigQueryDataset:    getEnv("BIGQUERY_DATASET", "Clone"),
		BigQueryLocation:   getEnv("BIGQUERY_LOCATION", ""),
		TargetsTable:       getEnv("TARGETS_TABLE", "MetasClone"),
		DepositsTable:      getEnv("DEPOSITS_TABLE", "clone_platinum_s"),
		QueryTimeout:       getEnvDuration("QUERY_TIMEOUT", 30*time.Second),
		ServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		TargetsSheetName:    getEnv("TARGETS_SHEET_NAME", "Metas"),
		DepositsSheetName:   getEnv("DEPOSITS_SHEET_NAME", "Depositos"),

		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/platinum.db"),
		DataDirectory: getEnv("DATA_DIRECTORY", "data"),

		AMQPURL:          getEnv("AMQP_URL", ""),
		AMQPExchange:     getEnv("AMQP_EXCHANGE", "platinum"),
		AMQPDepositQueue: getEnv("AMQP_DEPOSIT_QUEUE", "deposits"),
		AMQPRefreshRoute: getEnv("AMQP_REFRESH_ROUTING_KEY", "dashboard.refreshed"),

		WorkerMetricsAddr: getEnv("WORKER_METRICS_ADDR", ""),

		DashboardUser:         getEnv("DASHBOARD_USER", ""),
		DashboardPassword:     getEnv("DASHBOARD_PASSWORD", ""),
		DashboardPasswordHash: getEnv("DASHBOARD_PASSWORD_HASH", ""),
		SessionTTL:            getEnvDuration("SESSION_TTL", 12*time.Hour),
		CookieSecure:          getEnvBool("COOKIE_SECURE", false),
		LoginRatePerMinute:    getEnvInt("LOGIN_RATE_PER_MINUTE", 10),

		MetaMax:             getEnvFloat("META_MAX", 10_000_000),
		BaseInitial:         getEnvFloat("BASE_INITIAL", 5_835_589.90),
		SeriesStartDate:     getEnv("SERIES_START_DATE", "2025-09-22"),
		Timezone:            getEnv("DASHBOARD_TZ", "America/Sao_Paulo"),
		SubGoalDate:         getEnv("SUBGOAL_DATE", "2025-11-15"),
		SubGoalValue:        getEnvFloat("SUBGOAL_VALUE", 9_000_000),
		FallbackDailyTarget: getEnvFloat("FALLBACK_DAILY_TARGET", 10_000),
		QueryCacheTTL:       getEnvDuration("QUERY_CACHE_TTL", 10*time.Minute),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy CIDR '%s'", cidr))
		}
	}

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

	switch c.DataBackend {
	case "bigquery":
		if c.GCPProjectID == "" {
			errors = append(errors, "GCP project ID is required when using bigquery backend")
		}
		if c.BigQueryDataset == "" || c.TargetsTable == "" || c.DepositsTable == "" {
			errors = append(errors, "BigQuery dataset, targets table and deposits table are required when using bigquery backend")
		}
		if c.ServiceAccountFile != "" {
			if _, err := os.Stat(c.ServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("service account file does not exist: %s", c.ServiceAccountFile))
			}
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.TargetsSheetName == "" || c.DepositsSheetName == "" {
			errors = append(errors, "targets and deposits sheet names are required when using sheets backend")
		}
		if c.ServiceAccountJSON == "" && c.ServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.DashboardUser == "" {
		errors = append(errors, "DASHBOARD_USER is required")
	}
	if c.DashboardPassword == "" && c.DashboardPasswordHash == "" {
		errors = append(errors, "either DASHBOARD_PASSWORD or DASHBOARD_PASSWORD_HASH must be provided")
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.LoginRatePerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid login rate %d: must be at least 1 per minute", c.LoginRatePerMinute))
	}

	if _, err := core.ParseDate(c.SeriesStartDate); err != nil {
		errors = append(errors, fmt.Sprintf("invalid series start date '%s': expected YYYY-MM-DD", c.SeriesStartDate))
	}
	if c.SubGoalDate != "" {
		if _, err := core.ParseDate(c.SubGoalDate); err != nil {
			errors = append(errors, fmt.Sprintf("invalid sub-goal date '%s': expected YYYY-MM-DD", c.SubGoalDate))
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}
	if c.MetaMax <= c.BaseInitial {
		errors = append(errors, fmt.Sprintf("goal ceiling %.2f must be greater than base initial %.2f", c.MetaMax, c.BaseInitial))
	}
	if c.FallbackDailyTarget < 0 {
		errors = append(errors, "fallback daily target cannot be negative")
	}
	if c.QueryTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid query timeout %v: must be at least 1 second", c.QueryTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Params converts the dashboard constants into core parameters.
func (c *Config) Params() (core.Params, error) {
	start, err := core.ParseDate(c.SeriesStartDate)
	if err != nil {
		return core.Params{}, fmt.Errorf("series start date: %w", err)
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return core.Params{}, fmt.Errorf("timezone: %w", err)
	}
	p := core.Params{
		StartDate:           start,
		BaseInitial:         c.BaseInitial,
		MetaMax:             c.MetaMax,
		FallbackDailyTarget: c.FallbackDailyTarget,
		Location:            loc,
		SubGoalValue:        c.SubGoalValue,
	}
	if c.SubGoalDate != "" {
		if p.SubGoalDate, err = core.ParseDate(c.SubGoalDate); err != nil {
			return core.Params{}, fmt.Errorf("sub-goal date: %w", err)
		}
	}
	return p, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
