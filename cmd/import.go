package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adrata/dataops-cli/internal/importer"
	"github.com/adrata/dataops-cli/internal/pipeline"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a lead list (CSV or XLSX)",
	Long: `Import a lead list, resolving each row against existing CRM
records instead of inserting blindly. Companies resolve by website
domain first, then by fuzzy name match; people resolve by email.
Unresolved rows create new records.

The header row is matched against common column aliases (Name, Contact,
Title, Email, Company, Organization, Website, ...), so column order does
not matter.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	f := importCmd.Flags()
	f.String("workspace", "", "workspace ID to import into (required)")
	_ = importCmd.MarkFlagRequired("workspace")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workspaceID, _ := cmd.Flags().GetString("workspace")
	path := args[0]

	leads, err := importer.ParseLeads(path)
	if err != nil {
		return err
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	log := zap.L().With(zap.String("command", "import"))
	log.Info("starting lead import",
		zap.String("workspace_id", workspaceID),
		zap.String("file", path),
		zap.Int("leads", len(leads)),
	)

	imp := pipeline.NewLeadImporter(st, newMatcher(), pipelineOptions())
	report, err := imp.Run(ctx, workspaceID, leads)
	if err != nil {
		return err
	}

	fmt.Printf("Leads:             %d\n", report.Leads)
	fmt.Printf("Companies created: %d\n", report.CompaniesCreated)
	fmt.Printf("Companies matched: %d\n", report.CompaniesMatched)
	fmt.Printf("People created:    %d\n", report.PeopleCreated)
	fmt.Printf("People matched:    %d\n", report.PeopleMatched)
	fmt.Printf("Skipped:           %d\n", report.SkippedIncomplete)

	return nil
}
