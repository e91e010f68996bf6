package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v2"

	"salesdash/internal/dataprocessing"
)

// Config represents the complete application configuration. Defaults live
// in Default rather than in struct tags so that a YAML file is not
// overwritten by envconfig defaults.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Sources   SourcesConfig   `yaml:"sources" envconfig:"SOURCES"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Refresh   RefreshConfig   `yaml:"refresh" envconfig:"REFRESH"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Metrics   MetricsConfig   `yaml:"metrics" envconfig:"METRICS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
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

// SourcesConfig lists where invoice data comes from. Sources are tried in
// this order: JSON URLs, Google Sheet, xlsx, xls.
type SourcesConfig struct {
	JSONURLs        []string      `yaml:"json_urls" envconfig:"JSON_URLS" validate:"dive,url"`
	SheetID         string        `yaml:"sheet_id" envconfig:"SHEET_ID"`
	SheetRange      string        `yaml:"sheet_range" envconfig:"SHEET_RANGE"`
	CredentialsFile string        `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	APIKey          string        `yaml:"api_key" envconfig:"API_KEY"`
	XLSXPath        string        `yaml:"xlsx_path" envconfig:"XLSX_PATH"`
	XLSXSheet       string        `yaml:"xlsx_sheet" envconfig:"XLSX_SHEET"`
	XLSPath         string        `yaml:"xls_path" envconfig:"XLS_PATH"`
	Timeout         time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
}

// Configured reports whether at least one source is set.
func (s SourcesConfig) Configured() bool {
	return len(s.JSONURLs) > 0 || s.SheetID != "" || s.XLSXPath != "" || s.XLSPath != ""
}

// ReportConfig controls normalization and aggregation.
type ReportConfig struct {
	TopN         int      `yaml:"top_n" envconfig:"TOP_N" validate:"min=1"`
	DatePriority string   `yaml:"date_priority" envconfig:"DATE_PRIORITY"`
	ImageBase    string   `yaml:"image_base" envconfig:"IMAGE_BASE"`
	ImageExts    []string `yaml:"image_exts" envconfig:"IMAGE_EXTS"`
}

// RefreshConfig controls when the dataset is reloaded. An empty schedule
// disables scheduled refresh.
type RefreshConfig struct {
	Schedule string        `yaml:"schedule" envconfig:"SCHEDULE"`
	OnStart  bool          `yaml:"on_start" envconfig:"ON_START"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// MetricsConfig controls OpenTelemetry setup.
type MetricsConfig struct {
	Enabled       bool    `yaml:"enabled" envconfig:"ENABLED"`
	Tracing       bool    `yaml:"tracing" envconfig:"TRACING"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"omitempty,oneof=stdout none"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT"`
}

// Load builds the configuration from defaults, the optional YAML file and
// the environment, then validates it.
func Load() (*Config, error) {
	cfg := Default()

	if path := configFilePath(); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file at path onto cfg.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// configFilePath returns the file named by SALESDASH_CONFIG_FILE, or the
// first existing default location.
func configFilePath() string {
	if path := os.Getenv(ConfigFileEnv); path != "" {
		return path
	}
	for _, location := range []string{"config.yaml", "configs/config.yaml"} {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

var validate = validator.New()

// Validate checks field ranges and cross-field rules. It normalizes the
// logging format to JSON.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	if !c.Sources.Configured() {
		return fmt.Errorf("no data source configured: set %s_SOURCES_JSON_URLS, _SHEET_ID, _XLSX_PATH or _XLS_PATH", EnvPrefix)
	}
	if c.Report.TopN > MaxTopN {
		return fmt.Errorf("report top_n %d exceeds %d", c.Report.TopN, MaxTopN)
	}
	if _, err := dataprocessing.ParseDatePriority(c.Report.DatePriority); err != nil {
		return err
	}
	if c.Refresh.Schedule != "" {
		if _, err := cron.ParseStandard(c.Refresh.Schedule); err != nil {
			return fmt.Errorf("invalid refresh schedule %q: %w", c.Refresh.Schedule, err)
		}
	}
	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified when CORS is enabled")
	}

	c.Logging.Format = "json"
	return nil
}

// DatePriority returns the parsed date priority. Validate has already
// rejected unknown values.
func (c *Config) DatePriority() dataprocessing.DatePriority {
	p, _ := dataprocessing.ParseDatePriority(c.Report.DatePriority)
	return p
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Sources: SourcesConfig{
			SheetRange: "Sheet1",
			Timeout:    DefaultHTTPTimeout,
		},
		Report: ReportConfig{
			TopN:         DefaultTopN,
			DatePriority: string(dataprocessing.DatePriorityFilename),
			ImageBase:    DefaultImageBase,
			ImageExts:    append([]string(nil), DefaultImageExts...),
		},
		Refresh: RefreshConfig{
			OnStart: true,
			Timeout: 2 * time.Minute,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      WebSocketPingPeriod,
			PongWait:        WebSocketPongWait,
		},
		Metrics: MetricsConfig{
			Enabled:       true,
			Tracing:       false,
			TraceExporter: "none",
			SampleRatio:   1.0,
			Environment:   "development",
		},
	}
}
