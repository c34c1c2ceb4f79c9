package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/history"
	"github.com/KaramelBytes/datalens-cli/internal/pipeline"
	"github.com/KaramelBytes/datalens-cli/internal/report"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

var (
	anaOutputPath string
	anaSheetName  string
	anaDelimiter  string
	anaMaxRows    int
	anaSave       bool
)

func registerAnalyzeFlags(c *cobra.Command) {
	c.Flags().StringVarP(&anaOutputPath, "output", "o", "", "write the report to this file instead of stdout")
	c.Flags().BoolVar(&anaSave, "save", false, "store the report in the history directory")
	registerInputFlags(c)
}

func registerInputFlags(c *cobra.Command) {
	c.Flags().StringVar(&anaSheetName, "sheet", "", "XLSX: sheet name to analyze (default first sheet)")
	c.Flags().StringVar(&anaDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (auto-detect if omitted)")
	c.Flags().IntVar(&anaMaxRows, "max-rows", 0, "maximum data rows to read (0 = unlimited)")
}

// applyInputFlags copies the input-parsing flags set on c into the config.
func applyInputFlags(c *cobra.Command) error {
	f := c.Flags()
	if f.Changed("sheet") {
		cfg.SheetName = anaSheetName
	}
	if f.Changed("delimiter") {
		if err := cfg.Set("delimiter", anaDelimiter); err != nil {
			return err
		}
	}
	if f.Changed("max-rows") {
		if anaMaxRows < 0 {
			return fmt.Errorf("--max-rows must be >= 0")
		}
		cfg.MaxRows = anaMaxRows
	}
	return nil
}

// buildEngine constructs the analysis engine from the loaded config.
func buildEngine() (*analysis.Engine, error) {
	cat, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}
	return analysis.NewEngine(cat, cfg.Thresholds())
}

// newOrchestrator returns an orchestrator sharing eng; the engine holds no
// per-run state.
func newOrchestrator(eng *analysis.Engine) (*pipeline.Orchestrator, error) {
	opt, err := cfg.DatasetOptions()
	if err != nil {
		return nil, err
	}
	return pipeline.New(eng,
		pipeline.WithDatasetOptions(opt),
		pipeline.WithLogger(log.Named("pipeline")),
	), nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) != 1 {
		return emitFailure(cmd, "file path required")
	}
	if err := applyInputFlags(cmd); err != nil {
		return emitFailure(cmd, err.Error())
	}
	eng, err := buildEngine()
	if err != nil {
		return emitFailure(cmd, err.Error())
	}
	orch, err := newOrchestrator(eng)
	if err != nil {
		return emitFailure(cmd, err.Error())
	}

	rep := orch.Run(args[0])
	body, err := rep.Render(cfg.OutputFormat)
	if err != nil {
		return err
	}
	if anaOutputPath != "" {
		if err := utils.WriteOutput(anaOutputPath, body); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote report to %s\n", anaOutputPath)
	} else {
		fmt.Fprintln(out, string(body))
	}

	if anaSave && rep.Success {
		e, err := history.NewStore(cfg.HistoryDir).Save(filepath.Base(args[0]), rep)
		if err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Saved report %s\n", e.ID)
	}
	if !rep.Success {
		return &exitError{code: 1}
	}
	return nil
}

// emitFailure prints a failure report as JSON and returns the exit error.
func emitFailure(cmd *cobra.Command, msg string) error {
	b, err := report.Failure(msg, time.Now()).JSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return &exitError{code: 1}
}
