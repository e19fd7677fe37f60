package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adrata/dataops-cli/internal/pipeline"
)

var linkEmailsCmd = &cobra.Command{
	Use:   "link-emails",
	Short: "Attribute unlinked email messages to CRM records",
	Long: `Attribute inbound email messages to people and companies.

Each unlinked message goes through a cascade: the sender address is
checked against known person emails, then the sender domain against
company domains (including base-domain matches like mail.acme.com to
acme.com), then the host name is fuzzy-matched against company names.
Messages from shared mailbox providers stop after the first step.`,
	RunE: runLinkEmails,
}

func init() {
	f := linkEmailsCmd.Flags()
	f.String("workspace", "", "workspace ID (required)")
	f.Int("limit", 500, "maximum messages to process")
	_ = linkEmailsCmd.MarkFlagRequired("workspace")

	rootCmd.AddCommand(linkEmailsCmd)
}

func runLinkEmails(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workspaceID, _ := cmd.Flags().GetString("workspace")
	limit, _ := cmd.Flags().GetInt("limit")

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	log := zap.L().With(zap.String("command", "link-emails"))
	log.Info("starting email attribution",
		zap.String("workspace_id", workspaceID),
		zap.Int("limit", limit),
	)

	linker := pipeline.NewEmailLinker(st, newMatcher(), pipelineOptions())
	report, err := linker.Run(ctx, workspaceID, limit)
	if err != nil {
		return err
	}

	fmt.Printf("Scanned:        %d\n", report.Scanned)
	fmt.Printf("Linked people:  %d\n", report.LinkedPeople)
	fmt.Printf("Linked company: %d\n", report.LinkedCompany)
	fmt.Printf("Unmatched:      %d\n", report.Unmatched)

	return nil
}
