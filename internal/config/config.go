package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Security   SecurityConfig   `yaml:"security" envconfig:"SECURITY"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	WebSocket  WebSocketConfig  `yaml:"websocket" envconfig:"WEBSOCKET"`
	Dataset    DatasetConfig    `yaml:"dataset" envconfig:"DATASET"`
	Forecast   ForecastConfig   `yaml:"forecast" envconfig:"FORECAST"`
	Evaluation EvaluationConfig `yaml:"evaluation" envconfig:"EVALUATION"`
	Dashboard  DashboardConfig  `yaml:"dashboard" envconfig:"DASHBOARD"`

	ExchangeRates map[int]float64       `yaml:"exchange_rates" ignored:"true" validate:"min=1,dive,gt=0"`
	Sectors       domain.SectorTaxonomy `yaml:"sectors" ignored:"true" validate:"min=1,dive"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`
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
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration.
// Relative file names are resolved against DataDir.
type PathsConfig struct {
	DataDir           string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	ReportsDir        string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	LogsDir           string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
	PopulationFile    string `yaml:"population_file" envconfig:"POPULATION_FILE"`
	EconomicFile      string `yaml:"economic_file" envconfig:"ECONOMIC_FILE"`
	TrainingWorkbook  string `yaml:"training_workbook" envconfig:"TRAINING_WORKBOOK"`
	USDWorkbook       string `yaml:"usd_workbook" envconfig:"USD_WORKBOOK"`
	PopulationReport  string `yaml:"population_report" envconfig:"POPULATION_REPORT"`
	EconomyReport     string `yaml:"economy_report" envconfig:"ECONOMY_REPORT"`
	EvaluationSummary string `yaml:"evaluation_summary" envconfig:"EVALUATION_SUMMARY"`
	ForecastsCSV      string `yaml:"forecasts_csv" envconfig:"FORECASTS_CSV"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
	MaxMessageSize  int64         `yaml:"max_message_size" envconfig:"MAX_MESSAGE_SIZE"`
}

// PopulationColumns names the population source header cells
type PopulationColumns struct {
	Region   string `yaml:"region" envconfig:"REGION" validate:"required"`
	Year     string `yaml:"year" envconfig:"YEAR" validate:"required"`
	Total    string `yaml:"total" envconfig:"TOTAL" validate:"required"`
	Male     string `yaml:"male" envconfig:"MALE"`
	Female   string `yaml:"female" envconfig:"FEMALE"`
	Category string `yaml:"category" envconfig:"CATEGORY"`
}

// DatasetConfig describes the layout of the sources and the workbook
type DatasetConfig struct {
	YearRow           int               `yaml:"year_row" envconfig:"YEAR_ROW" validate:"gte=0"`
	FirstRegionRow    int               `yaml:"first_region_row" envconfig:"FIRST_REGION_ROW" validate:"gtfield=YearRow"`
	RowStride         int               `yaml:"row_stride" envconfig:"ROW_STRIDE" validate:"min=2"`
	Delimiter         string            `yaml:"delimiter" envconfig:"DELIMITER" validate:"len=1"`
	NationalSheet     string            `yaml:"national_sheet" envconfig:"NATIONAL_SHEET" validate:"required"`
	RegionSheet       string            `yaml:"region_sheet" envconfig:"REGION_SHEET" validate:"required,nefield=NationalSheet"`
	PopulationColumns PopulationColumns `yaml:"population_columns" envconfig:"POPULATION_COLUMNS"`
}

// ForecastConfig contains the model knobs of the forecast engine
type ForecastConfig struct {
	Horizon               int     `yaml:"horizon" envconfig:"HORIZON" validate:"min=1,max=100"`
	IntervalWidth         float64 `yaml:"interval_width" envconfig:"INTERVAL_WIDTH" validate:"gt=0,lt=1"`
	ChangepointRange      float64 `yaml:"changepoint_range" envconfig:"CHANGEPOINT_RANGE" validate:"gt=0,lte=1"`
	NChangepoints         int     `yaml:"n_changepoints" envconfig:"N_CHANGEPOINTS" validate:"gte=0"`
	ChangepointPriorScale float64 `yaml:"changepoint_prior_scale" envconfig:"CHANGEPOINT_PRIOR_SCALE" validate:"gt=0"`
	SeasonalityPriorScale float64 `yaml:"seasonality_prior_scale" envconfig:"SEASONALITY_PRIOR_SCALE" validate:"gt=0"`
	YearlySeasonality     bool    `yaml:"yearly_seasonality" envconfig:"YEARLY_SEASONALITY"`
	YearlyOrder           int     `yaml:"yearly_order" envconfig:"YEARLY_ORDER" validate:"gte=0"`
}

// EvaluationConfig contains the rolling origin cross validation windows
type EvaluationConfig struct {
	Initial  time.Duration `yaml:"initial" envconfig:"INITIAL" validate:"gt=0"`
	Period   time.Duration `yaml:"period" envconfig:"PERIOD" validate:"gt=0"`
	Horizon  time.Duration `yaml:"horizon" envconfig:"HORIZON" validate:"gt=0"`
	Parallel bool          `yaml:"parallel" envconfig:"PARALLEL"`
	Workers  int           `yaml:"workers" envconfig:"WORKERS" validate:"gte=0"`
}

// DashboardConfig contains the interactive dashboard bounds
type DashboardConfig struct {
	DefaultHorizon     int      `yaml:"default_horizon" envconfig:"DEFAULT_HORIZON" validate:"min=1,max=30"`
	DefaultTriggerYear int      `yaml:"default_trigger_year" envconfig:"DEFAULT_TRIGGER_YEAR" validate:"min=2024,max=2050"`
	DefaultSeverity    int      `yaml:"default_severity" envconfig:"DEFAULT_SEVERITY" validate:"min=1,max=90"`
	TopSectors         int      `yaml:"top_sectors" envconfig:"TOP_SECTORS" validate:"min=1"`
	TableRows          int      `yaml:"table_rows" envconfig:"TABLE_ROWS" validate:"min=1"`
	ExcludedSectors    []string `yaml:"excluded_sectors" envconfig:"EXCLUDED_SECTORS"`
	ReloadSchedule     string   `yaml:"reload_schedule" envconfig:"RELOAD_SCHEDULE"`
	PreferUSD          bool     `yaml:"prefer_usd" envconfig:"PREFER_USD"`
}

// Load loads configuration from defaults, an optional YAML file and the
// environment. An empty path searches the well-known locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Keys absent from the
// file keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	// Maps and slices are replaced rather than merged by yaml.v2, so the
	// defaults survive only when the file leaves the key out entirely.
	rates, sectors := cfg.ExchangeRates, cfg.Sectors
	cfg.ExchangeRates, cfg.Sectors = nil, nil

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}

	if cfg.ExchangeRates == nil {
		cfg.ExchangeRates = rates
	}
	if cfg.Sectors == nil {
		cfg.Sectors = sectors
	}
	return nil
}

// validate validates the configuration
func (c *Config) validate() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Output = strings.ToLower(c.Logging.Output)

	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if err := c.Sectors.Validate(); err != nil {
		return err
	}

	for _, key := range c.Dashboard.ExcludedSectors {
		found := false
		for _, s := range c.Sectors {
			if s.Key == key {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("excluded sector %q is not part of the taxonomy", key)
		}
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// RateTable returns the configured exchange rates as an immutable table
func (c *Config) RateTable() domain.ExchangeRateTable {
	return domain.NewExchangeRateTable(c.ExchangeRates)
}

// Address returns the listen address of the dashboard server
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
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

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     false,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir:           "data",
			ReportsDir:        "reports",
			LogsDir:           "logs",
			PopulationFile:    PopulationFileName,
			EconomicFile:      EconomicFileName,
			TrainingWorkbook:  TrainingWorkbookName,
			USDWorkbook:       USDWorkbookName,
			PopulationReport:  PopulationReportName,
			EconomyReport:     EconomyReportName,
			EvaluationSummary: EvaluationSummaryName,
			ForecastsCSV:      ForecastsCSVName,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
			MaxMessageSize:  4096,
		},
		Dataset: DatasetConfig{
			YearRow:        DefaultYearRow,
			FirstRegionRow: DefaultFirstRegionRow,
			RowStride:      DefaultRowStride,
			Delimiter:      DefaultDelimiter,
			NationalSheet:  NationalSheetName,
			RegionSheet:    RegionSheetName,
			PopulationColumns: PopulationColumns{
				Region:   "İl",
				Year:     "Yıl",
				Total:    "Toplam_Nüfus",
				Male:     "Erkek",
				Female:   "Kadın",
				Category: "Kategori",
			},
		},
		Forecast: ForecastConfig{
			Horizon:               DefaultHorizon,
			IntervalWidth:         DefaultIntervalWidth,
			ChangepointRange:      DefaultChangepointRange,
			NChangepoints:         DefaultNChangepoints,
			ChangepointPriorScale: DefaultChangepointPriorScale,
			SeasonalityPriorScale: DefaultSeasonalityPriorScale,
			YearlySeasonality:     true,
			YearlyOrder:           DefaultYearlyOrder,
		},
		Evaluation: EvaluationConfig{
			Initial:  DefaultCVInitial,
			Period:   DefaultCVPeriod,
			Horizon:  DefaultCVHorizon,
			Parallel: true,
			Workers:  4,
		},
		Dashboard: DashboardConfig{
			DefaultHorizon:     DefaultHorizon,
			DefaultTriggerYear: DefaultTriggerYear,
			DefaultSeverity:    DefaultSeverity,
			TopSectors:         DefaultTopSectors,
			TableRows:          DefaultTableRows,
			ExcludedSectors:    []string{"manufacturing"},
			ReloadSchedule:     "@every 5m",
			PreferUSD:          true,
		},
		ExchangeRates: DefaultExchangeRates(),
		Sectors:       domain.DefaultSectorTaxonomy(),
	}
}
