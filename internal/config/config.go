package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. CRUISE_SERVER_PORT
const EnvPrefix = "CRUISE"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Rates     RatesConfig     `yaml:"rates" envconfig:"RATES"`
	Sheets    SheetsConfig    `yaml:"sheets" envconfig:"SHEETS"`
	Retention RetentionConfig `yaml:"retention" envconfig:"RETENTION"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port             int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout      time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout     time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout      time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout  time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	OperationTimeout time.Duration   `yaml:"operation_timeout" envconfig:"OPERATION_TIMEOUT" validate:"gt=0"`
	MaxUploadBytes   int64           `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"gt=0"`
	RateLimit        RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"omitempty,oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"omitempty,oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths. Relative entries resolve against BaseDir,
// and an empty BaseDir means the directory of the running executable.
type PathsConfig struct {
	BaseDir         string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir         string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	UploadsDir      string `yaml:"uploads_dir" envconfig:"UPLOADS_DIR" validate:"required"`
	ResultsDir      string `yaml:"results_dir" envconfig:"RESULTS_DIR" validate:"required"`
	LogsDir         string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
	RatesFile       string `yaml:"rates_file" envconfig:"RATES_FILE" validate:"required"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
}

// PipelineConfig selects between the enrichment variants and optional stages
type PipelineConfig struct {
	// RegionSource is the field the region label is derived from
	RegionSource string `yaml:"region_source" envconfig:"REGION_SOURCE" validate:"oneof=country buyer_name"`
	// CheckinReference is what days_until_checkin counts from
	CheckinReference string  `yaml:"checkin_reference" envconfig:"CHECKIN_REFERENCE" validate:"oneof=now creation_date"`
	ImputeMissing    bool    `yaml:"impute_missing" envconfig:"IMPUTE_MISSING"`
	Workers          int     `yaml:"workers" envconfig:"WORKERS" validate:"min=1,max=64"`
	Markup           float64 `yaml:"markup" envconfig:"MARKUP" validate:"gt=0"`
}

// RatesConfig configures the central-bank rate refresh job
type RatesConfig struct {
	SourceURL       string        `yaml:"source_url" envconfig:"SOURCE_URL" validate:"required,url"`
	StartDate       string        `yaml:"start_date" envconfig:"START_DATE" validate:"required,datetime=2006-01-02"`
	RequestInterval time.Duration `yaml:"request_interval" envconfig:"REQUEST_INTERVAL" validate:"gte=0"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`
	FreshWithin     time.Duration `yaml:"fresh_within" envconfig:"FRESH_WITHIN" validate:"gt=0"`
	StaleAfter      time.Duration `yaml:"stale_after" envconfig:"STALE_AFTER" validate:"gtefield=FreshWithin"`
}

// RetentionConfig bounds how many result files are kept. Zero values disable
// the matching limit.
type RetentionConfig struct {
	MaxAge   time.Duration `yaml:"max_age" envconfig:"MAX_AGE" validate:"gte=0"`
	MaxFiles int           `yaml:"max_files" envconfig:"MAX_FILES" validate:"gte=0"`
	Interval time.Duration `yaml:"interval" envconfig:"INTERVAL" validate:"gte=0"`
}

// SheetsConfig configures optional publishing of results to Google Sheets
type SheetsConfig struct {
	Enabled       bool   `yaml:"enabled" envconfig:"ENABLED"`
	SpreadsheetID string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID" validate:"required_if=Enabled true"`
	SheetName     string `yaml:"sheet_name" envconfig:"SHEET_NAME"`
}

// TelemetryConfig configures OpenTelemetry
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricsEnabled bool    `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// Load loads configuration: defaults, then the optional YAML file, then .env and
// environment variables, which take precedence.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit config file; an empty path skips the file.
func LoadFile(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// A missing .env is the common case
	_ = godotenv.Load()

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file keep
// their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints and normalizes logging settings
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}

	// JSON is the only supported log format
	c.Logging.Format = "json"
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	if c.Logging.Output == "" {
		c.Logging.Output = "console"
	}

	if c.Sheets.SheetName == "" {
		c.Sheets.SheetName = "Sheet1"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG_FILE"); p != "" {
		return p
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:             8080,
			ReadTimeout:      15 * time.Second,
			WriteTimeout:     2 * time.Minute,
			IdleTimeout:      60 * time.Second,
			ShutdownTimeout:  30 * time.Second,
			OperationTimeout: 10 * time.Minute,
			MaxUploadBytes:   DefaultMaxUploadBytes,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   10,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir:    DefaultDataDir,
			UploadsDir: DefaultUploadsDir,
			ResultsDir: DefaultResultsDir,
			LogsDir:    DefaultLogsDir,
			RatesFile:  DefaultRatesFile,
		},
		Pipeline: PipelineConfig{
			RegionSource:     RegionSourceCountry,
			CheckinReference: CheckinReferenceNow,
			Workers:          1,
			Markup:           DefaultMarkup,
		},
		Rates: RatesConfig{
			SourceURL:       DefaultCBRURL,
			StartDate:       DefaultRatesStartDate,
			RequestInterval: 200 * time.Millisecond,
			RequestTimeout:  10 * time.Second,
			FreshWithin:     2 * 24 * time.Hour,
			StaleAfter:      7 * 24 * time.Hour,
		},
		Sheets: SheetsConfig{
			SheetName: "Sheet1",
		},
		Retention: RetentionConfig{
			MaxAge:   30 * 24 * time.Hour,
			MaxFiles: 200,
			Interval: time.Hour,
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			TraceExporter:  "none",
			MetricsEnabled: true,
			SampleRatio:    1.0,
		},
	}
}
