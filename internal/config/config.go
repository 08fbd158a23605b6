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

	"golang.org/x/crypto/bcrypt"

	"igreja/internal/core"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection: csv, sqlite, sheets or memory
	DataBackend string

	// CSV files
	TitheFile      string
	AttendanceFile string

	// Database
	SQLiteDBPath string

	// AMQP (optional; empty URL disables ledger.saved events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID   string
	GoogleTitheSheet      string
	GoogleAttendanceSheet string

	// Reporting
	ReportYear    int
	TitheWindow   int
	RollingWindow int
	LeaderCount   int
	Disciplers    []string
	SessionTypes  []string
	RosterFile    string

	// Admin access
	AdminCodeHash string
	AdminCode     string
	SessionSecret string
	SessionTTL    time.Duration
	CookieSecure  bool

	// TrustedProxies are extra CIDRs whose forwarded headers are honoured,
	// on top of loopback and private networks.
	TrustedProxies []string

	// Observability
	MetricsEnabled bool
	LogLevel       string
	LogFormat      string

	// Worker
	SyncInterval time.Duration

	loadErrors []string
}

func Load() *Config {
	cfg := &Config{
		Port:        getEnv("PORT", "8081"),
		DataBackend: getEnv("DATA_BACKEND", "csv"),

		TitheFile:      getEnv("TITHE_FILE", "./data/dados_dizimos.csv"),
		AttendanceFile: getEnv("ATTENDANCE_FILE", "./data/dados_presenca.csv"),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/igreja.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "igreja"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_mirror"),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleTitheSheet:      getEnv("GOOGLE_TITHE_SHEET", "Dizimos"),
		GoogleAttendanceSheet: getEnv("GOOGLE_ATTENDANCE_SHEET", "Presenca"),

		ReportYear:    getEnvInt("REPORT_YEAR", time.Now().Year()),
		TitheWindow:   getEnvInt("TITHE_WINDOW", 7),
		RollingWindow: getEnvInt("ROLLING_WINDOW", 4),
		LeaderCount:   getEnvInt("LEADER_COUNT", 25),
		Disciplers:    getEnvList("DISCIPLERS"),
		RosterFile:    getEnv("ROSTER_FILE", ""),

		AdminCodeHash: getEnv("ADMIN_CODE_HASH", ""),
		AdminCode:     getEnv("ADMIN_CODE", ""),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTL:    getEnvDuration("SESSION_TTL", 12*time.Hour),
		CookieSecure:  getEnvBool("COOKIE_SECURE", false),

		TrustedProxies: getEnvList("TRUSTED_PROXIES"),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),

		SyncInterval: getEnvDuration("SYNC_INTERVAL", 5*time.Minute),
	}

	if cfg.RosterFile != "" {
		if err := cfg.applyRosterFile(cfg.RosterFile); err != nil {
			cfg.loadErrors = append(cfg.loadErrors, err.Error())
		}
	}

	return cfg
}

// AdminEnabled reports whether any admin credential is configured.
func (c *Config) AdminEnabled() bool {
	return c.AdminCodeHash != "" || c.AdminCode != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	errors := append([]string(nil), c.loadErrors...)

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"csv", "sqlite", "sheets", "memory"}
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
	case "csv":
		if c.TitheFile == "" || c.AttendanceFile == "" {
			errors = append(errors, "TITHE_FILE and ATTENDANCE_FILE cannot be empty when using csv backend")
		}
		if c.TitheFile != "" && c.TitheFile == c.AttendanceFile {
			errors = append(errors, "TITHE_FILE and ATTENDANCE_FILE must be different files")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
	}
	if c.GoogleTitheSheet != "" && c.GoogleTitheSheet == c.GoogleAttendanceSheet {
		errors = append(errors, "GOOGLE_TITHE_SHEET and GOOGLE_ATTENDANCE_SHEET must differ")
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

	// Validate reporting
	if c.TitheWindow != 7 && c.TitheWindow != 12 {
		errors = append(errors, fmt.Sprintf("invalid tithe window %d: must be 7 or 12", c.TitheWindow))
	}
	if c.RollingWindow < 1 || c.RollingWindow > 12 {
		errors = append(errors, fmt.Sprintf("invalid rolling window %d: must be between 1 and 12", c.RollingWindow))
	}
	if c.ReportYear < 1900 || c.ReportYear > 9999 {
		errors = append(errors, fmt.Sprintf("invalid report year %d", c.ReportYear))
	}
	if c.LeaderCount < 1 || c.LeaderCount > 500 {
		errors = append(errors, fmt.Sprintf("invalid leader count %d: must be between 1 and 500", c.LeaderCount))
	}
	if seen := duplicate(c.Disciplers); seen != "" {
		errors = append(errors, fmt.Sprintf("duplicate discipler '%s'", seen))
	}
	for _, t := range c.SessionTypes {
		if _, err := core.ParseSessionType(t); err != nil {
			errors = append(errors, fmt.Sprintf("invalid session type '%s' in roster", t))
		}
	}

	// Validate admin access
	if c.AdminCodeHash != "" {
		if _, err := bcrypt.Cost([]byte(c.AdminCodeHash)); err != nil {
			errors = append(errors, "ADMIN_CODE_HASH is not a bcrypt hash")
		}
	}
	if c.AdminEnabled() && len(c.SessionSecret) < 32 {
		errors = append(errors, "SESSION_SECRET must be at least 32 characters when admin access is enabled")
	}
	if c.SessionTTL < time.Minute || c.SessionTTL > 7*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be between 1 minute and 7 days", c.SessionTTL))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func duplicate(list []string) string {
	seen := make(map[string]struct{}, len(list))
	for _, v := range list {
		if _, ok := seen[v]; ok {
			return v
		}
		seen[v] = struct{}{}
	}
	return ""
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

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
