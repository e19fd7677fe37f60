package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adrata/dataops-cli/internal/model"
	"github.com/adrata/dataops-cli/internal/pipeline"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Assign buyer group roles across a workspace",
	Long: `Classify every contact in a workspace into a buyer group role
(Decision Maker, Champion, Stakeholder, Blocker, Introducer) from their
job title, with influence scores adjusted for peer context at the same
company.

Examples:
  # Classify and print per-company coverage
  roles --workspace ws_123

  # Persist assignments
  roles --workspace ws_123 --save`,
	RunE: runRoles,
}

func init() {
	f := rolesCmd.Flags()
	f.String("workspace", "", "workspace ID to classify (required)")
	f.Int64("company", 0, "classify a single company by ID")
	f.Bool("save", false, "save role assignments")
	f.Bool("gaps-only", false, "only print companies missing a decision maker or champion")
	_ = rolesCmd.MarkFlagRequired("workspace")

	rootCmd.AddCommand(rolesCmd)
}

func runRoles(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workspaceID, _ := cmd.Flags().GetString("workspace")
	save, _ := cmd.Flags().GetBool("save")
	gapsOnly, _ := cmd.Flags().GetBool("gaps-only")

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	log := zap.L().With(zap.String("command", "roles"))
	log.Info("starting role assignment", zap.String("workspace_id", workspaceID))

	assigner := pipeline.NewRoleAssigner(st, newClassifier(), pipelineOptions())

	var report *pipeline.RolesReport
	if companyID, _ := cmd.Flags().GetInt64("company"); companyID > 0 {
		report, err = assigner.RunCompany(ctx, workspaceID, companyID)
	} else {
		report, err = assigner.Run(ctx, workspaceID)
	}
	if err != nil {
		return err
	}

	printRolesReport(report, gapsOnly)

	if save && report.Assigned > 0 {
		if err := assigner.Save(ctx, report); err != nil {
			return err
		}
		fmt.Printf("Saved %d role assignments (run %s)\n", report.Assigned, report.RunID)
	}

	return nil
}

func printRolesReport(report *pipeline.RolesReport, gapsOnly bool) {
	for _, c := range report.Companies {
		if c.People == 0 {
			continue
		}
		if gapsOnly && c.HasDecisionMaker() && c.HasChampion() {
			continue
		}

		fmt.Printf("\n%s (%d contacts)\n", c.CompanyName, c.People)
		for _, a := range c.Assignments {
			fmt.Printf("  %-30s %-35s %-15s %3d (%s)\n",
				truncate(a.FullName, 30),
				truncate(a.Title, 35),
				a.Role.Label(),
				a.InfluenceScore,
				a.InfluenceLevel,
			)
		}
		var gaps []string
		if !c.HasDecisionMaker() {
			gaps = append(gaps, "no decision maker")
		}
		if !c.HasChampion() {
			gaps = append(gaps, "no champion")
		}
		if len(gaps) > 0 {
			fmt.Printf("  !! %s\n", strings.Join(gaps, ", "))
		}
	}

	totals := make(map[model.BuyerGroupRole]int)
	for _, c := range report.Companies {
		for role, n := range c.RoleCounts {
			totals[role] += n
		}
	}
	fmt.Printf("\n--- Summary ---\n")
	for _, role := range model.AllRoles {
		fmt.Printf("%-15s %d\n", role.Label(), totals[role])
	}
	fmt.Printf("%-15s %d\n", "Total", report.Assigned)
}
