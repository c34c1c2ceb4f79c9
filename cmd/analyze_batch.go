package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/datalens-cli/internal/report"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

var (
	abOutDir      string
	abConcurrency int
	abQuiet       bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple CSV/TSV/XLSX files concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		if err := applyInputFlags(cmd); err != nil {
			return err
		}
		eng, err := buildEngine()
		if err != nil {
			return err
		}
		limit := cfg.BatchConcurrency
		if cmd.Flags().Changed("concurrency") {
			limit = abConcurrency
		}
		if limit <= 0 {
			return fmt.Errorf("--concurrency must be > 0")
		}

		reports := make([]*report.AnalysisReport, len(files))
		var g errgroup.Group
		g.SetLimit(limit)
		total := len(files)
		var mu sync.Mutex
		for i, path := range files {
			i, path := i, path
			g.Go(func() error {
				orch, err := newOrchestrator(eng)
				if err != nil {
					return err
				}
				reports[i] = orch.Run(path)
				if !abQuiet {
					mark := "✓"
					if !reports[i].Success {
						mark = "✗"
					}
					mu.Lock()
					defer mu.Unlock()
					fmt.Fprintf(cmd.ErrOrStderr(), "%s [%d/%d] %s\n", mark, i+1, total, filepath.Base(path))
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if abOutDir != "" {
			if err := writeBatch(cmd, files, reports); err != nil {
				return err
			}
		} else if err := printBatch(cmd, reports); err != nil {
			return err
		}

		failed := 0
		for _, r := range reports {
			if !r.Success {
				failed++
			}
		}
		if failed > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "✗ %d of %d files failed\n", failed, total)
			return &exitError{code: 1}
		}
		return nil
	},
}

// expandInputs resolves globs, keeps literal paths that match nothing (they
// yield failure reports) and drops duplicates, preserving argument order.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			matches = []string{arg}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	return files
}

func writeBatch(cmd *cobra.Command, files []string, reports []*report.AnalysisReport) error {
	if err := utils.EnsureDir(abOutDir); err != nil {
		return err
	}
	ext := utils.ExtForFormat(cfg.OutputFormat)
	used := map[string]struct{}{}
	for i, path := range files {
		body, err := reports[i].Render(cfg.OutputFormat)
		if err != nil {
			return err
		}
		name := utils.ReportName(path, ext)
		outFile := filepath.Join(abOutDir, name)
		if _, dup := used[outFile]; dup || fileExists(outFile) {
			stem := strings.TrimSuffix(name, ".report."+ext)
			for idx := 2; ; idx++ {
				cand := filepath.Join(abOutDir, fmt.Sprintf("%s__%d.report.%s", stem, idx, ext))
				if _, taken := used[cand]; !taken && !fileExists(cand) {
					if !abQuiet {
						fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s exists, writing %s instead\n", name, filepath.Base(cand))
					}
					outFile = cand
					break
				}
			}
		}
		used[outFile] = struct{}{}
		if err := utils.WriteOutput(outFile, body); err != nil {
			return fmt.Errorf("write %s: %w", outFile, err)
		}
	}
	return nil
}

func printBatch(cmd *cobra.Command, reports []*report.AnalysisReport) error {
	out := cmd.OutOrStdout()
	switch cfg.OutputFormat {
	case "", "json":
		b, err := utils.PrettyJSON(reports)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
	default:
		for i, r := range reports {
			body, err := r.Render(cfg.OutputFormat)
			if err != nil {
				return err
			}
			if i > 0 {
				fmt.Fprintln(out, "\n---")
			}
			fmt.Fprintln(out, string(body))
		}
	}
	return nil
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "write one report file per input into this directory")
	analyzeBatchCmd.Flags().IntVar(&abConcurrency, "concurrency", 0, "files analyzed in parallel (default from config)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress output")
	registerInputFlags(analyzeBatchCmd)
}
