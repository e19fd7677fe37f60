package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adrata/dataops-cli/internal/pipeline"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Scan a workspace for duplicate companies",
	Long: `Scan every company in a workspace for probable duplicates.

The scan runs a two-pass cascade: exact domain collisions first, then a
fuzzy name match over normalized names. Each pair is reported with a
match type (exact_domain, exact_name, fuzzy_name) and a confidence
score; --save persists the pairs as merge suggestions for review.

Examples:
  # Scan and print pairs
  dedupe --workspace ws_123

  # Tighten the threshold and persist suggestions
  dedupe --workspace ws_123 --threshold 0.85 --save`,
	RunE: runDedupe,
}

func init() {
	f := dedupeCmd.Flags()
	f.String("workspace", "", "workspace ID to scan (required)")
	f.Float64("threshold", 0, "similarity threshold (overrides config)")
	f.String("format", "table", "output format: table or csv")
	f.String("output", "", "output file path (default: stdout)")
	f.Bool("save", false, "save pairs as merge suggestions")
	_ = dedupeCmd.MarkFlagRequired("workspace")

	rootCmd.AddCommand(dedupeCmd)
}

func runDedupe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workspaceID, _ := cmd.Flags().GetString("workspace")
	save, _ := cmd.Flags().GetBool("save")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	if format != "table" && format != "csv" {
		return eris.Errorf("dedupe: --format must be table or csv (got %q)", format)
	}
	if v, _ := cmd.Flags().GetFloat64("threshold"); v > 0 {
		if v > 1 {
			return eris.Errorf("dedupe: --threshold must be in (0, 1] (got %v)", v)
		}
		cfg.Resolve.Threshold = v
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	log := zap.L().With(zap.String("command", "dedupe"))
	log.Info("starting dedupe scan",
		zap.String("workspace_id", workspaceID),
		zap.Float64("threshold", cfg.Resolve.Threshold),
	)

	deduper := pipeline.NewDeduper(st, newMatcher(), pipelineOptions())
	report, err := deduper.Run(ctx, workspaceID)
	if err != nil {
		return err
	}

	if err := outputDedupeReport(report, format, outputPath); err != nil {
		return err
	}

	if save && len(report.Pairs) > 0 {
		if err := deduper.Save(ctx, report); err != nil {
			return err
		}
		fmt.Printf("Saved %d merge suggestions (run %s)\n", len(report.Pairs), report.RunID)
	}

	return nil
}

func outputDedupeReport(report *pipeline.DedupeReport, format, outputPath string) error {
	w := os.Stdout
	if outputPath != "" {
		var err error
		w, err = os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "dedupe: create output file %s", outputPath)
		}
		defer w.Close() //nolint:errcheck
	}

	if format == "csv" {
		return writeDedupeCSV(w, report)
	}
	writeDedupeTable(w, report)
	return nil
}

func writeDedupeTable(w *os.File, report *pipeline.DedupeReport) {
	if len(report.Pairs) == 0 {
		fmt.Fprintf(w, "No duplicates found across %d companies.\n", report.CompaniesScanned)
		return
	}

	fmt.Fprintf(w, "%-40s %-40s %-13s %6s\n", "Company", "Duplicate", "Match", "Conf")
	fmt.Fprintln(w, strings.Repeat("-", 102))
	for _, p := range report.Pairs {
		fmt.Fprintf(w, "%-40s %-40s %-13s %6.2f\n",
			truncate(p.Company.Name, 40),
			truncate(p.Duplicate.Name, 40),
			p.MatchType,
			p.Confidence,
		)
	}
	fmt.Fprintf(w, "\n%d pairs across %d companies (run %s)\n",
		len(report.Pairs), report.CompaniesScanned, report.RunID)
}

func writeDedupeCSV(w *os.File, report *pipeline.DedupeReport) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"company_id", "company_name", "duplicate_id", "duplicate_name", "match_type", "confidence"}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "dedupe: write CSV header")
	}
	for _, p := range report.Pairs {
		row := []string{
			fmt.Sprintf("%d", p.Company.ID),
			p.Company.Name,
			fmt.Sprintf("%d", p.Duplicate.ID),
			p.Duplicate.Name,
			p.MatchType,
			fmt.Sprintf("%.3f", p.Confidence),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "dedupe: write CSV row")
		}
	}
	return nil
}

// truncate shortens s to max runes for table display. Rune-based so
// multi-byte company names never get cut mid-character.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
