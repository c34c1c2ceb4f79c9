package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/datalens-cli/internal/config"
	"github.com/KaramelBytes/datalens-cli/internal/logging"
)

var (
	// Global flags
	cfgFile     string
	flagLogLvl  string
	flagLocale  string
	flagFormat  string
	flagPhrases string

	// Loaded configuration
	cfg *cfgpkg.Global
	log = logging.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "datalens <file>",
	Short: "DataLens CLI: profile a CSV/XLSX dataset into a structured analysis report",
	Long: `DataLens reads a tabular file, cleans and profiles it, and prints a JSON report with
descriptive statistics, correlations, data-quality signals, business insights, chart
suggestions and a predictive correlation screen.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAnalyze,
}

// exitError carries a process exit code. Its message, if any, has already
// been reported on stdout.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Execute is the entry point called by main.main()
func Execute() {
	err := rootCmd.Execute()
	_ = log.Sync()
	if err == nil {
		return
	}
	var ee *exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}
	fmt.Fprintln(os.Stderr, "✗ Error:", err)
	os.Exit(1)
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.datalens/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLvl, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLocale, "locale", "", "report language: en|tr (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "", "output format: json|markdown|html (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagPhrases, "phrases", "", "YAML file overriding report phrases")
	registerAnalyzeFlags(rootCmd)
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults so analysis still runs
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Default()
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("log-level") {
		cfg.LogLevel = flagLogLvl
	}
	if f.Changed("locale") {
		cfg.Locale = flagLocale
	}
	if f.Changed("format") {
		cfg.OutputFormat = flagFormat
	}
	if f.Changed("phrases") {
		cfg.PhrasesFile = flagPhrases
	}

	l, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v; logging disabled\n", err)
		l = logging.Nop()
	}
	log = l
}
