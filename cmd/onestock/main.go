// -----------------------------------------------------------------------
// onestock - Single-run equity research CLI
// -----------------------------------------------------------------------

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/rushabhkhandhar/one-stock-solution/internal/app"
	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	symbolFlag   = flag.String("symbol", "", "Stock symbol to analyze, e.g. NSE:RELIANCE (required)")
	symbolFlagS  = flag.String("s", "", "Stock symbol (shorthand)")
	outputDir    = flag.String("output", "", "Report output directory (overrides config)")
	offline      = flag.Bool("offline", false, "Serve everything from the download cache, no network")
	workers      = flag.Int("workers", 0, "Analysis worker pool size (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	// Register custom flag for multiple config files
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	// Parse command-line flags
	flag.Parse()

	// Handle version flag
	if *showVersion || *showVersionV {
		fmt.Printf("onestock version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Merge symbol flags (shorthand takes precedence)
	symbol := *symbolFlag
	if *symbolFlagS != "" {
		symbol = *symbolFlagS
	}
	if symbol == "" {
		fmt.Fprintln(os.Stderr, "a stock symbol is required: -symbol NSE:RELIANCE")
		flag.Usage()
		os.Exit(2)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner
	var err error

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("onestock.toml"); err == nil {
			configFiles = append(configFiles, "onestock.toml")
		} else if _, err := os.Stat("deployments/local/onestock.toml"); err == nil {
			// Fallback: check deployments/local for users running from project root
			configFiles = append(configFiles, "deployments/local/onestock.toml")
		}
	}

	// 1. Load configuration (default -> file1 -> file2 -> ... -> env -> CLI)
	// Later config files override earlier ones
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		// Use temporary logger for startup errors
		tempLogger := arbor.NewLogger()
		tempLogger.Error().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(2)
	}

	// 2. Apply command-line flag overrides (highest priority)
	common.ApplyFlagOverrides(config, *outputDir, *offline, *workers)

	// 3. Initialize logger with final configuration
	logger = common.InitLogger(config)
	common.InstallCrashHandler("")

	// 4. Print banner
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Strs("config_files", configFiles).
		Str("symbol", symbol).
		Str("output_dir", config.App.OutputDir).
		Bool("offline", config.App.Offline).
		Msg("Configuration loaded")

	// Initialize application
	application, err := app.New(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		os.Exit(exitCode(err))
	}
	defer application.Close()

	// A single interrupt cancels the run; storage still closes cleanly
	// through the deferred application.Close.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := application.Analyze(ctx, symbol)
	if err != nil {
		logger.Error().Err(err).Str("symbol", symbol).Msg("Analysis run failed")
		application.Close()
		os.Exit(exitCode(err))
	}

	printSummary(result)
}

// exitCode maps the error taxonomy to process exit codes: 2 for
// misconfiguration, 1 for everything else.
func exitCode(err error) int {
	if errors.Is(err, models.ErrPipelineMisconfiguration) {
		return 2
	}
	return 1
}

// printSummary writes the one-screen run outcome to stdout, separate
// from the structured log stream.
func printSummary(result *app.AnalysisResult) {
	v := result.Verdict
	fmt.Printf("\n%s: %s", v.Symbol, v.Rating)
	if v.Rating == models.RatingSuspended {
		fmt.Printf(" (%s)", v.VetoReason)
	}
	fmt.Println()
	fmt.Printf("  positive fraction %.3f over %d/%d signals, confidence %s\n",
		v.PositiveFraction, v.VotesAvailable, v.VotesRegistered, v.Confidence)
	fmt.Printf("  trust %.0f/100 (%s), %d envelopes available, %d missing\n",
		v.TrustScore, v.TrustBand, v.SignalsAvailable, v.SignalsMissing)
	if result.Artifacts != nil {
		fmt.Printf("  report: %s\n", result.Artifacts.MarkdownPath)
		if result.Artifacts.PDFPath != "" {
			fmt.Printf("  report: %s\n", result.Artifacts.PDFPath)
		}
	}
}
