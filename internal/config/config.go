package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ReportZone is the fixed offset all report timestamps are rendered in. It
// matches the timezone ManyChat displays campaign history in.
var ReportZone = time.FixedZone("UTC-4", -4*60*60)

// TimestampLayout is the rendering format for report timestamps.
const TimestampLayout = "2006-01-02 15:04:05 UTC-4"

// Config holds the full application configuration.
type Config struct {
	ManyChat   ManyChatConfig   `yaml:"manychat" mapstructure:"manychat"`
	SpunkStats SpunkStatsConfig `yaml:"spunkstats" mapstructure:"spunkstats"`
	Sheets     SheetsConfig     `yaml:"sheets" mapstructure:"sheets"`
	Extract    ExtractConfig    `yaml:"extract" mapstructure:"extract"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ManyChatConfig holds source API credentials and extraction tuning.
type ManyChatConfig struct {
	BaseURL          string   `yaml:"base_url" mapstructure:"base_url"`
	Token            string   `yaml:"token" mapstructure:"token"`
	PagesFile        string   `yaml:"pages_file" mapstructure:"pages_file"`
	RateLimit        float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	MaxConcurrent    int      `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	ExcludeCampaigns []string `yaml:"exclude_campaigns" mapstructure:"exclude_campaigns"`
}

// SpunkStatsConfig holds the revenue reporting API credentials.
type SpunkStatsConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	UserID  string `yaml:"user_id" mapstructure:"user_id"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
}

// SheetsConfig configures the spreadsheet upload endpoint.
type SheetsConfig struct {
	WebAppURL     string `yaml:"webapp_url" mapstructure:"webapp_url"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RetryAttempts int    `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	DetailedSheet string `yaml:"detailed_sheet" mapstructure:"detailed_sheet"`
	SummarySheet  string `yaml:"summary_sheet" mapstructure:"summary_sheet"`
}

// ExtractConfig selects the extraction window.
//
// Mode is one of "today", "yesterday", "specific_date", "date_range".
type ExtractConfig struct {
	Mode         string `yaml:"mode" mapstructure:"mode"`
	SpecificDate string `yaml:"specific_date" mapstructure:"specific_date"`
	RangeStart   string `yaml:"range_start" mapstructure:"range_start"`
	RangeEnd     string `yaml:"range_end" mapstructure:"range_end"`
}

// OutputConfig configures local file emission.
type OutputConfig struct {
	CSVDir          string `yaml:"csv_dir" mapstructure:"csv_dir"`
	IncludeDetailed bool   `yaml:"include_detailed" mapstructure:"include_detailed"`
	IncludeSummary  bool   `yaml:"include_summary" mapstructure:"include_summary"`
	WriteXLSX       bool   `yaml:"write_xlsx" mapstructure:"write_xlsx"`
	ClearFiles      bool   `yaml:"clear_files" mapstructure:"clear_files"`
}

// ServerConfig configures the `serve` sheet endpoint.
type ServerConfig struct {
	Port           int    `yaml:"port" mapstructure:"port"`
	Driver         string `yaml:"driver" mapstructure:"driver"`
	SQLitePath     string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	DatabaseURL    string `yaml:"database_url" mapstructure:"database_url"`
	SpreadsheetURL string `yaml:"spreadsheet_url" mapstructure:"spreadsheet_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SPUNKADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("manychat.base_url", "https://app.manychat.com")
	v.SetDefault("manychat.pages_file", "pages.yaml")
	v.SetDefault("manychat.rate_limit", 5.0)
	v.SetDefault("manychat.max_concurrent", 4)
	v.SetDefault("spunkstats.base_url", "https://dashboard.spunkstats.net")
	v.SetDefault("sheets.timeout_secs", 30)
	v.SetDefault("sheets.retry_attempts", 3)
	v.SetDefault("sheets.detailed_sheet", "source")
	v.SetDefault("sheets.summary_sheet", "total_report")
	v.SetDefault("extract.mode", "today")
	v.SetDefault("output.csv_dir", "./csv_output")
	v.SetDefault("output.include_detailed", true)
	v.SetDefault("output.include_summary", true)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.driver", "sqlite")
	v.SetDefault("server.sqlite_path", "sheets.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// DateRange resolves the configured extraction mode into a start and end date
// (inclusive, YYYY-MM-DD). Misconfigured modes fall back to today rather than
// failing; Validate reports them.
func (e ExtractConfig) DateRange(now time.Time) (string, string) {
	now = now.In(ReportZone)
	today := now.Format("2006-01-02")

	switch e.Mode {
	case "yesterday":
		y := now.AddDate(0, 0, -1).Format("2006-01-02")
		return y, y
	case "specific_date":
		if e.SpecificDate != "" {
			return e.SpecificDate, e.SpecificDate
		}
	case "date_range":
		if e.RangeStart != "" && e.RangeEnd != "" {
			return e.RangeStart, e.RangeEnd
		}
	}
	return today, today
}

// Validate checks the extraction window configuration.
func (e ExtractConfig) Validate() error {
	switch e.Mode {
	case "today", "yesterday":
		return nil
	case "specific_date":
		if e.SpecificDate == "" {
			return eris.New("config: specific_date is required for specific_date mode")
		}
		if _, err := time.Parse("2006-01-02", e.SpecificDate); err != nil {
			return eris.Wrap(err, "config: invalid specific_date (use YYYY-MM-DD)")
		}
		return nil
	case "date_range":
		if e.RangeStart == "" || e.RangeEnd == "" {
			return eris.New("config: range_start and range_end are required for date_range mode")
		}
		start, err := time.Parse("2006-01-02", e.RangeStart)
		if err != nil {
			return eris.Wrap(err, "config: invalid range_start (use YYYY-MM-DD)")
		}
		end, err := time.Parse("2006-01-02", e.RangeEnd)
		if err != nil {
			return eris.Wrap(err, "config: invalid range_end (use YYYY-MM-DD)")
		}
		if start.After(end) {
			return eris.New("config: range_start must not be after range_end")
		}
		return nil
	default:
		return eris.Errorf("config: unknown extract mode %q", e.Mode)
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
