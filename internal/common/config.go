package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	App         AppConfig        `toml:"app"`
	Logging     LoggingConfig    `toml:"logging"`
	Pipeline    PipelineConfig   `toml:"pipeline"`
	Analysis    AnalysisConfig   `toml:"analysis"`
	Validation  ValidationConfig `toml:"validation"`
	Synthesis   SynthesisConfig  `toml:"synthesis"`
	Safety      SafetyConfig     `toml:"safety"`
	Ingestion   IngestionConfig  `toml:"ingestion"`
	Feeds       FeedsConfig      `toml:"feeds"`
	Documents   DocumentsConfig  `toml:"documents"`
	Report      ReportConfig     `toml:"report"`
	Storage     StorageConfig    `toml:"storage"`
}

// AppConfig holds run-level settings
type AppConfig struct {
	OutputDir string `toml:"output_dir"` // Report output directory
	Offline   bool   `toml:"offline"`    // Serve everything from the download cache, no network
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// PipelineConfig bounds concurrent phase execution
type PipelineConfig struct {
	Workers int `toml:"workers" validate:"gte=1"` // Max phases running concurrently within a layer
}

// AnalysisConfig carries every analysis module threshold. All values
// are overridable so the scoring rubric is data, not code.
type AnalysisConfig struct {
	// Beneish M-Score bands
	MScoreManipulation float64 `toml:"mscore_manipulation"` // above: likely manipulator
	MScoreSafe         float64 `toml:"mscore_safe"`         // below: safe zone

	// Piotroski F-Score bands
	FScoreStrong   int `toml:"fscore_strong" validate:"gte=0,lte=9"`
	FScoreModerate int `toml:"fscore_moderate" validate:"gte=0,lte=9"`

	// DCF verdict band: intrinsic upside required either way
	DCFUpsidePct float64 `toml:"dcf_upside_pct" validate:"gte=0"`

	// DCF projection settings
	DCFProjectionYears  int     `toml:"dcf_projection_years" validate:"gte=1,lte=20"`
	DCFGrowthCapPct     float64 `toml:"dcf_growth_cap_pct"`
	DCFMinGrowthGapPct  float64 `toml:"dcf_min_growth_gap_pct"` // discount rate must exceed terminal growth by this
	DCFDefaultBeta      float64 `toml:"dcf_default_beta"`       // only used when the quote feed has no beta
	DCFFCFConversionCap float64 `toml:"dcf_fcf_conversion_cap"` // FCF assumed at most this fraction of net profit

	// Peer relative valuation
	PeerDiscountPct float64 `toml:"peer_discount_pct" validate:"gte=0"`

	// Technicals
	RSIOverbought float64 `toml:"rsi_overbought" validate:"gt=0,lte=100"`
	RSIOversold   float64 `toml:"rsi_oversold" validate:"gte=0,lt=100"`
	SMAShortDays  int     `toml:"sma_short_days" validate:"gte=2"`
	SMALongDays   int     `toml:"sma_long_days" validate:"gte=2"`
	RSIPeriodDays int     `toml:"rsi_period_days" validate:"gte=2"`

	// Cash conversion quality
	CFOEBITDAHealthy float64 `toml:"cfo_ebitda_healthy"`
	CFOEBITDAWeak    float64 `toml:"cfo_ebitda_weak"`

	// Altman Z'' bands (emerging market calibration)
	AltmanSafe     float64 `toml:"altman_safe"`
	AltmanDistress float64 `toml:"altman_distress"`

	// Growth bands (CAGR, percent)
	GrowthStrongPct   float64 `toml:"growth_strong_pct"`
	GrowthNegativePct float64 `toml:"growth_negative_pct"`

	// Trend window
	TrendWindowYears int     `toml:"trend_window_years" validate:"gte=2"`
	MarginDriftPp    float64 `toml:"margin_drift_pp"` // margin erosion (pp) that turns the trend negative

	// Working capital cycle
	WCCDeteriorationDays float64 `toml:"wcc_deterioration_days"`

	// Shareholding
	PledgeCautionPct   float64 `toml:"pledge_caution_pct"`
	PromoterDropPp     float64 `toml:"promoter_drop_pp"`     // promoter stake fall (pp) over the window that reads negative
	PromoterHealthyPct float64 `toml:"promoter_healthy_pct"` // stake at or above reads supportive

	// Dividends
	PayoutMaxPct float64 `toml:"payout_max_pct"`

	// DuPont
	ROEHealthyPct float64 `toml:"roe_healthy_pct"`
	LeverageCap   float64 `toml:"leverage_cap"` // equity multiplier above this flags leverage-driven ROE

	// Text lexicon override file (YAML); empty uses the built-in lexicons
	LexiconFile string `toml:"lexicon_file"`
}

// ValidationConfig drives the cross-source validator and trust scoring
type ValidationConfig struct {
	TolerancePct       float64   `toml:"tolerance_pct" validate:"gt=0"`   // relative agreement band
	AbsThreshold       float64   `toml:"abs_threshold" validate:"gte=0"`  // below this magnitude compare absolutely
	AbsTolerance       float64   `toml:"abs_tolerance" validate:"gte=0"`  // absolute agreement band for small values
	ScaleFactor        float64   `toml:"scale_factor" validate:"gt=1"`    // unit mixup factor to try (Lakhs vs Crores = 100)
	ActionMultipliers  []float64 `toml:"action_multipliers"`              // split/bonus ratios tried for per-share concepts
	ActionProximityPct float64   `toml:"action_proximity_pct" validate:"gte=0"`
	MismatchPenalty    float64   `toml:"mismatch_penalty" validate:"gte=0"`
	UnverifiablePen    float64   `toml:"unverifiable_penalty" validate:"gte=0"`
	AuditorFlagPenalty float64   `toml:"auditor_flag_penalty" validate:"gte=0"`
	AuditorPenaltyCap  float64   `toml:"auditor_penalty_cap" validate:"gte=0"`
	GoingConcernPen    float64   `toml:"going_concern_penalty" validate:"gte=0"`
	BandHigh           float64   `toml:"band_high" validate:"gt=0,lte=100"`
	BandModerate       float64   `toml:"band_moderate" validate:"gt=0,lte=100"`
}

// SynthesisConfig drives consensus thresholds
type SynthesisConfig struct {
	BuyThreshold  float64 `toml:"buy_threshold" validate:"gt=0,lte=1"`  // positive fraction at or above = BUY
	HoldThreshold float64 `toml:"hold_threshold" validate:"gt=0,lte=1"` // at or above = HOLD, below = SELL
	HighFloor     int     `toml:"high_floor" validate:"gte=1"`          // available votes for HIGH confidence
	MediumFloor   int     `toml:"medium_floor" validate:"gte=1"`        // available votes for MEDIUM confidence
}

// SafetyConfig drives the kill switch
type SafetyConfig struct {
	TrustFloor        float64  `toml:"trust_floor" validate:"gte=0,lte=100"` // trust below this suspends
	CriticalSignals   []string `toml:"critical_signals"`                     // envelope names whose absence suspends
	AnomalySigma      float64  `toml:"anomaly_sigma" validate:"gt=0"`        // single-period move beyond sigma x vol suspends
	AnomalyWindowDays int      `toml:"anomaly_window_days" validate:"gte=10"`
	MinObservations   int      `toml:"min_observations" validate:"gte=2"` // price points required to judge anomaly
	StalenessFactor   float64  `toml:"staleness_factor" validate:"gt=0"`  // stale past factor x observed cadence
	MinCadenceEvents  int      `toml:"min_cadence_events" validate:"gte=2"`
}

// IngestionConfig configures the fundamentals scraper and quote fetch
type IngestionConfig struct {
	BaseURL        string        `toml:"base_url"`  // fundamentals site, e.g. https://www.screener.in
	QuoteURL       string        `toml:"quote_url"` // daily price history endpoint template ({symbol})
	UserAgent      string        `toml:"user_agent"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	RatePerSecond  float64       `toml:"rate_per_second" validate:"gt=0"` // polite scraping rate
	RateBurst      int           `toml:"rate_burst" validate:"gte=1"`
	CacheTTL       time.Duration `toml:"cache_ttl"` // snapshot younger than this is served from cache
	MaxRetries     int           `toml:"max_retries" validate:"gte=0"`
}

// FeedsConfig configures live market parameter endpoints. Empty URLs
// mean the parameter is simply unavailable; no fallback constants.
type FeedsConfig struct {
	RiskFreeURL    string        `toml:"risk_free_url"` // 10Y G-Sec yield
	IndexURL       string        `toml:"index_url"`     // benchmark index history (for equity risk premium and beta)
	CreditSpreadURL string       `toml:"credit_spread_url"`
	TerminalGapPp  float64       `toml:"terminal_gap_pp" validate:"gte=0"` // terminal growth = risk-free minus this
	ERPFloorPct    float64       `toml:"erp_floor_pct"`                    // sanity band for the derived equity risk premium
	ERPCeilingPct  float64       `toml:"erp_ceiling_pct"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	CacheTTL       time.Duration `toml:"cache_ttl"`
}

// DocumentsConfig configures annual report download and extraction
type DocumentsConfig struct {
	WorkDir         string        `toml:"work_dir"` // scratch dir for PDFs and extracted text
	DownloadTimeout time.Duration `toml:"download_timeout"`
	MaxPDFSizeMB    int           `toml:"max_pdf_size_mb" validate:"gte=1"`
}

// ReportConfig configures report rendering
type ReportConfig struct {
	PDF               bool `toml:"pdf"`                 // also render PDF alongside markdown
	IncludePhaseTrace bool `toml:"include_phase_trace"` // append per-phase execution table
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// NewDefaultConfig returns the full default configuration. Defaults are
// the documented behavior; TOML files, env vars and flags override.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		App: AppConfig{
			OutputDir: "./reports",
			Offline:   false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Pipeline: PipelineConfig{
			Workers: 4,
		},
		Analysis: AnalysisConfig{
			MScoreManipulation:  -1.78,
			MScoreSafe:          -2.22,
			FScoreStrong:        8,
			FScoreModerate:      5,
			DCFUpsidePct:        20.0,
			DCFProjectionYears:  10,
			DCFGrowthCapPct:     20.0,
			DCFMinGrowthGapPct:  2.0,
			DCFDefaultBeta:      0, // no default: beta missing means DCF unavailable
			DCFFCFConversionCap: 1.2,
			PeerDiscountPct:     20.0,
			RSIOverbought:       70,
			RSIOversold:         30,
			SMAShortDays:        50,
			SMALongDays:         200,
			RSIPeriodDays:       14,
			CFOEBITDAHealthy:    0.8,
			CFOEBITDAWeak:       0.5,
			AltmanSafe:          2.6,
			AltmanDistress:      1.1,
			GrowthStrongPct:     12.0,
			GrowthNegativePct:   0.0,
			TrendWindowYears:    5,
			MarginDriftPp:       3.0,
			WCCDeteriorationDays: 15.0,
			PledgeCautionPct:    10.0,
			PromoterDropPp:      2.0,
			PromoterHealthyPct:  45.0,
			PayoutMaxPct:        80.0,
			ROEHealthyPct:       15.0,
			LeverageCap:         3.0,
		},
		Validation: ValidationConfig{
			TolerancePct:       5.0,
			AbsThreshold:       10.0,
			AbsTolerance:       2.0,
			ScaleFactor:        100.0, // Lakhs reported where Crores expected
			ActionMultipliers:  []float64{2, 3, 5, 10},
			ActionProximityPct: 15.0,
			MismatchPenalty:    15.0,
			UnverifiablePen:    4.0,
			AuditorFlagPenalty: 10.0,
			AuditorPenaltyCap:  30.0,
			GoingConcernPen:    25.0,
			BandHigh:           75.0,
			BandModerate:       60.0,
		},
		Synthesis: SynthesisConfig{
			BuyThreshold:  0.65,
			HoldThreshold: 0.45,
			HighFloor:     12,
			MediumFloor:   7,
		},
		Safety: SafetyConfig{
			TrustFloor:        60.0,
			CriticalSignals:   []string{"pnl.revenue", "pnl.net_profit"},
			AnomalySigma:      6.0,
			AnomalyWindowDays: 90,
			MinObservations:   30,
			StalenessFactor:   3.0,
			MinCadenceEvents:  4,
		},
		Ingestion: IngestionConfig{
			BaseURL:        "https://www.screener.in",
			QuoteURL:       "https://query1.finance.yahoo.com/v7/finance/download/{symbol}?range=2y&interval=1d&events=history",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			RequestTimeout: 30 * time.Second,
			RatePerSecond:  0.5, // one request per two seconds
			RateBurst:      1,
			CacheTTL:       12 * time.Hour,
			MaxRetries:     2,
		},
		Feeds: FeedsConfig{
			TerminalGapPp:  2.0,
			ERPFloorPct:    3.0,
			ERPCeilingPct:  8.0,
			RequestTimeout: 15 * time.Second,
			CacheTTL:       6 * time.Hour,
		},
		Documents: DocumentsConfig{
			WorkDir:         "./data/documents",
			DownloadTimeout: 120 * time.Second,
			MaxPDFSizeMB:    80,
		},
		Report: ReportConfig{
			PDF:               true,
			IncludePhaseTrace: true,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/cache",
			},
		},
	}
}

// LoadFromFile loads configuration from a single file
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override
// earlier files; env vars override all files; CLI flags are applied
// last by the caller via ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Expand {env:NAME} references in string fields (tokens, URLs)
	if err := ExpandInStruct(config, GetLogger()); err != nil {
		return nil, fmt.Errorf("failed to expand environment references: %w", err)
	}

	// Apply environment variables (overrides all file configs)
	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: ONESTOCK_ENV, fallback: GO_ENV)
	if env := os.Getenv("ONESTOCK_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// App configuration
	if dir := os.Getenv("ONESTOCK_OUTPUT_DIR"); dir != "" {
		config.App.OutputDir = dir
	}
	if offline := os.Getenv("ONESTOCK_OFFLINE"); offline != "" {
		if b, err := strconv.ParseBool(offline); err == nil {
			config.App.Offline = b
		}
	}

	// Logging configuration
	if level := os.Getenv("ONESTOCK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("ONESTOCK_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("ONESTOCK_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Pipeline configuration
	if workers := os.Getenv("ONESTOCK_PIPELINE_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			config.Pipeline.Workers = w
		}
	}

	// Synthesis thresholds
	if buy := os.Getenv("ONESTOCK_BUY_THRESHOLD"); buy != "" {
		if v, err := strconv.ParseFloat(buy, 64); err == nil {
			config.Synthesis.BuyThreshold = v
		}
	}
	if hold := os.Getenv("ONESTOCK_HOLD_THRESHOLD"); hold != "" {
		if v, err := strconv.ParseFloat(hold, 64); err == nil {
			config.Synthesis.HoldThreshold = v
		}
	}

	// Safety configuration
	if floor := os.Getenv("ONESTOCK_TRUST_FLOOR"); floor != "" {
		if v, err := strconv.ParseFloat(floor, 64); err == nil {
			config.Safety.TrustFloor = v
		}
	}
	if sigma := os.Getenv("ONESTOCK_ANOMALY_SIGMA"); sigma != "" {
		if v, err := strconv.ParseFloat(sigma, 64); err == nil {
			config.Safety.AnomalySigma = v
		}
	}

	// Ingestion configuration
	if baseURL := os.Getenv("ONESTOCK_INGESTION_BASE_URL"); baseURL != "" {
		config.Ingestion.BaseURL = baseURL
	}
	if quoteURL := os.Getenv("ONESTOCK_INGESTION_QUOTE_URL"); quoteURL != "" {
		config.Ingestion.QuoteURL = quoteURL
	}
	if ua := os.Getenv("ONESTOCK_INGESTION_USER_AGENT"); ua != "" {
		config.Ingestion.UserAgent = ua
	}

	// Feeds configuration
	if u := os.Getenv("ONESTOCK_FEEDS_RISK_FREE_URL"); u != "" {
		config.Feeds.RiskFreeURL = u
	}
	if u := os.Getenv("ONESTOCK_FEEDS_INDEX_URL"); u != "" {
		config.Feeds.IndexURL = u
	}

	// Storage configuration
	if badgerPath := os.Getenv("ONESTOCK_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, outputDir string, offline bool, workers int) {
	if outputDir != "" {
		config.App.OutputDir = outputDir
	}
	if offline {
		config.App.Offline = true
	}
	if workers > 0 {
		config.Pipeline.Workers = workers
	}
}

var configValidator = validator.New()

// Validate checks the configuration for values the pipeline cannot run
// with. Any failure here is a startup misconfiguration, the only fatal
// error class.
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return models.Misconfigf("config: %v", err)
	}
	if c.Synthesis.BuyThreshold <= c.Synthesis.HoldThreshold {
		return models.Misconfigf("config: buy_threshold %.2f must exceed hold_threshold %.2f",
			c.Synthesis.BuyThreshold, c.Synthesis.HoldThreshold)
	}
	if c.Synthesis.HighFloor < c.Synthesis.MediumFloor {
		return models.Misconfigf("config: high_floor %d must be at least medium_floor %d",
			c.Synthesis.HighFloor, c.Synthesis.MediumFloor)
	}
	if c.Validation.BandHigh <= c.Validation.BandModerate {
		return models.Misconfigf("config: band_high %.1f must exceed band_moderate %.1f",
			c.Validation.BandHigh, c.Validation.BandModerate)
	}
	if c.Analysis.SMAShortDays >= c.Analysis.SMALongDays {
		return models.Misconfigf("config: sma_short_days %d must be below sma_long_days %d",
			c.Analysis.SMAShortDays, c.Analysis.SMALongDays)
	}
	if c.Analysis.RSIOversold >= c.Analysis.RSIOverbought {
		return models.Misconfigf("config: rsi_oversold %.0f must be below rsi_overbought %.0f",
			c.Analysis.RSIOversold, c.Analysis.RSIOverbought)
	}
	if c.Analysis.FScoreModerate > c.Analysis.FScoreStrong {
		return models.Misconfigf("config: fscore_moderate %d must not exceed fscore_strong %d",
			c.Analysis.FScoreModerate, c.Analysis.FScoreStrong)
	}
	if c.Analysis.MScoreSafe > c.Analysis.MScoreManipulation {
		return models.Misconfigf("config: mscore_safe %.2f must be below mscore_manipulation %.2f",
			c.Analysis.MScoreSafe, c.Analysis.MScoreManipulation)
	}
	for _, m := range c.Validation.ActionMultipliers {
		if m <= 1 {
			return models.Misconfigf("config: action multiplier %.2f must exceed 1", m)
		}
	}
	return nil
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Environment)
	return env == "production" || env == "prod"
}
