package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"salesledger/internal/core"
	"salesledger/internal/fiscal"
)

const (
	DefaultFiscalYearEnd = "12-31"
	DefaultCurrency      = "CAD"
	DefaultDenomination  = "Thousands"
	DefaultCompanyName   = "Company"
)

type Config struct {
	// HTTP Server
	Port               string
	CORSAllowedOrigins []string

	// Backend selection
	DataBackend string

	// Memory backend
	LedgerCSVPath string

	// Database
	SQLiteDBPath string

	// AMQP, empty URL disables reload notifications
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Fiscal calendar and reporting
	FiscalYearEnd   string
	AsOfDate        string
	CompanyName     string
	DefaultCurrency string
	Denomination    string

	// Periodic snapshot refresh, zero disables it
	RefreshInterval time.Duration

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		DataBackend:   getEnv("DATA_BACKEND", "memory"),
		LedgerCSVPath: getEnv("LEDGER_CSV_PATH", "./data/ledger.csv"),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/salesledger.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "salesledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_reload"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Sales Ledger"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		FiscalYearEnd:   getEnv("FISCAL_YEAR_END", DefaultFiscalYearEnd),
		AsOfDate:        getEnv("AS_OF_DATE", ""),
		CompanyName:     getEnv("COMPANY_NAME", DefaultCompanyName),
		DefaultCurrency: getEnv("DEFAULT_CURRENCY", DefaultCurrency),
		Denomination:    getEnv("DENOMINATION", DefaultDenomination),

		RefreshInterval: getEnvDuration("LEDGER_REFRESH_INTERVAL", 0),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// FiscalEnd parses FiscalYearEnd. Both a full date (2023-03-31) and a
// month-day pair (03-31) are accepted; the year of a full date is ignored.
func (c *Config) FiscalEnd() (core.FiscalYearEnd, error) {
	raw := strings.TrimSpace(c.FiscalYearEnd)
	parts := strings.Split(raw, "-")
	if len(parts) == 3 {
		parts = parts[1:]
	}
	if len(parts) != 2 {
		return core.FiscalYearEnd{}, &core.ConfigurationError{
			Field:  "FISCAL_YEAR_END",
			Reason: fmt.Sprintf("%q is not YYYY-MM-DD or MM-DD", raw),
		}
	}
	month, merr := strconv.Atoi(parts[0])
	day, derr := strconv.Atoi(parts[1])
	if merr != nil || derr != nil {
		return core.FiscalYearEnd{}, &core.ConfigurationError{
			Field:  "FISCAL_YEAR_END",
			Reason: fmt.Sprintf("%q has non-numeric month or day", raw),
		}
	}
	return core.FiscalYearEnd{Month: time.Month(month), Day: day}, nil
}

// Calendar builds the validated fiscal calendar.
func (c *Config) Calendar() (fiscal.Calendar, error) {
	end, err := c.FiscalEnd()
	if err != nil {
		return fiscal.Calendar{}, err
	}
	cal, err := fiscal.New(end)
	if err != nil {
		reason := err.Error()
		var cerr *core.ConfigurationError
		if errors.As(err, &cerr) {
			reason = cerr.Reason
		}
		return fiscal.Calendar{}, &core.ConfigurationError{Field: "FISCAL_YEAR_END", Reason: reason}
	}
	return cal, nil
}

// AsOf returns the configured reference date, or now in UTC when unset.
func (c *Config) AsOf(now time.Time) (core.Date, error) {
	if strings.TrimSpace(c.AsOfDate) == "" {
		return core.DateOf(now.UTC()), nil
	}
	d, err := core.ParseDate(c.AsOfDate)
	if err != nil {
		return core.Date{}, &core.ConfigurationError{Field: "AS_OF_DATE", Reason: err.Error()}
	}
	return d, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var problems []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"memory", "sheets", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "memory":
		if c.LedgerCSVPath == "" {
			problems = append(problems, "ledger CSV path cannot be empty when using memory backend")
		} else if _, err := os.Stat(c.LedgerCSVPath); errors.Is(err, os.ErrNotExist) {
			problems = append(problems, fmt.Sprintf("ledger CSV file does not exist: %s", c.LedgerCSVPath))
		}

	case "sqlite":
		if c.SQLiteDBPath == "" {
			problems = append(problems, "SQLite database path cannot be empty when using sqlite backend")
		}

	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			problems = append(problems, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			problems = append(problems, "Google Sheet name is required when using sheets backend")
		}

		hasFile := c.GoogleServiceAccountFile != ""
		hasJSON := c.GoogleServiceAccountJSON != ""
		if !hasFile && !hasJSON {
			problems = append(problems, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets backend")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); errors.Is(err, os.ErrNotExist) {
				problems = append(problems, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := c.Calendar(); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := c.AsOf(time.Now()); err != nil {
		problems = append(problems, err.Error())
	}

	if c.DefaultCurrency == "" {
		problems = append(problems, "default currency cannot be empty")
	}

	if c.RefreshInterval < 0 {
		problems = append(problems, fmt.Sprintf("invalid refresh interval %v: must not be negative", c.RefreshInterval))
	} else if c.RefreshInterval > 0 && c.RefreshInterval < time.Second {
		problems = append(problems, fmt.Sprintf("invalid refresh interval %v: must be at least 1 second", c.RefreshInterval))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	// Return combined errors
	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
