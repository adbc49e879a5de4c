package common

// Logging setup. One arbor logger per process, configured from the
// [logging] block: level, text or JSON records, and any combination of
// console and file writers. The file writer lands under the report
// output directory so a run's log travels with its artifacts.

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	arbormodels "github.com/ternarybob/arbor/models"
)

const (
	logFileName       = "onestock.log"
	defaultTimeFormat = "15:04:05"
)

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.RWMutex
)

// GetLogger returns the process logger. Before InitLogger has run
// (early startup, config loading) it falls back to a plain console
// logger so nothing is ever logged into the void.
func GetLogger() arbor.ILogger {
	loggerMutex.RLock()
	l := globalLogger
	loggerMutex.RUnlock()
	if l != nil {
		return l
	}

	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	if globalLogger == nil {
		globalLogger = arbor.NewLogger().WithConsoleWriter(consoleWriter(defaultTimeFormat, true))
	}
	return globalLogger
}

// InitLogger builds the run logger from the [logging] config block and
// installs it as the process logger.
func InitLogger(config *Config) arbor.ILogger {
	timeFormat := config.Logging.TimeFormat
	if timeFormat == "" {
		timeFormat = defaultTimeFormat
	}
	textOutput := config.Logging.Format != "json"
	toConsole, toFile := outputTargets(config.Logging.Output)

	logger := arbor.NewLogger()

	if toFile {
		logDir := filepath.Join(config.App.OutputDir, "logs")
		if err := os.MkdirAll(logDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "warning: cannot create log directory %s: %v\n", logDir, err)
			toFile = false
		} else {
			logger = logger.WithFileWriter(arbormodels.WriterConfiguration{
				Type:       arbormodels.LogWriterTypeFile,
				FileName:   filepath.Join(logDir, logFileName),
				TimeFormat: timeFormat,
				MaxSize:    50 * 1024 * 1024,
				MaxBackups: 5,
				OutputType: outputFormat(textOutput),
			})
		}
	}

	// A logger with no writer at all would swallow everything.
	if toConsole || !toFile {
		logger = logger.WithConsoleWriter(consoleWriter(timeFormat, textOutput))
	}

	logger = logger.WithLevelFromString(config.Logging.Level)

	loggerMutex.Lock()
	globalLogger = logger
	loggerMutex.Unlock()
	return logger
}

// outputTargets reads the configured output names, tolerating both
// "stdout" and "console" for the console writer.
func outputTargets(outputs []string) (console, file bool) {
	for _, o := range outputs {
		switch o {
		case "stdout", "console":
			console = true
		case "file":
			file = true
		}
	}
	return console, file
}

func consoleWriter(timeFormat string, textOutput bool) arbormodels.WriterConfiguration {
	return arbormodels.WriterConfiguration{
		Type:       arbormodels.LogWriterTypeConsole,
		TimeFormat: timeFormat,
		OutputType: outputFormat(textOutput),
	}
}

// outputFormat maps the text-vs-json config flag onto arbor's writer
// output formats.
func outputFormat(textOutput bool) arbormodels.OutputFormat {
	if textOutput {
		return arbormodels.OutputFormatLogfmt
	}
	return arbormodels.OutputFormatJSON
}

// GetLogFilePath returns the active log file path, empty when file
// logging is off.
func GetLogFilePath(logger arbor.ILogger) string {
	if logger == nil {
		return ""
	}
	return logger.GetLogFilePath()
}
