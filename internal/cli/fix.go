package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pyven-dev/pyven/pkg/reconcile"
)

// fixCommand creates the fix command, the reconciliation entry point.
func (c *CLI) fixCommand() *cobra.Command {
	var (
		yes    bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Reconcile the environment with the declared dependencies",
		Long: `Reconcile the environment with the declared dependencies.

A diagnosis pass classifies every top-level package and derives a plan:
missing packages to install, mismatched packages to update, redundant
declarations to drop, and undeclared installs to pin. The plan is shown
and confirmed before anything runs. Each action is applied independently,
so one failure never aborts the rest. An install that fails because the
pinned version does not exist is retried once with the nearest available
release.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.newSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			spinner := newSpinner(cmd.Context(), "Diagnosing environment...")
			spinner.Start()
			plan, err := s.engine.Diagnose(cmd.Context())
			spinner.Stop()
			if err != nil {
				return err
			}

			if plan.Empty() {
				if c.jsonOut {
					return json.NewEncoder(os.Stdout).Encode(&reconcile.Report{})
				}
				printSuccess("Environment is consistent")
				return nil
			}

			if !c.jsonOut {
				printPlan(plan)
			}
			if dryRun {
				if c.jsonOut {
					return json.NewEncoder(os.Stdout).Encode(plan)
				}
				return nil
			}
			if !yes && !c.jsonOut && !confirm(fmt.Sprintf("Apply %d action(s)?", plan.Count())) {
				printInfo("Aborted")
				return nil
			}

			track := newProgress(c.Logger)
			spinner = newSpinner(cmd.Context(), "Applying plan...")
			spinner.Start()
			report, err := s.engine.Apply(cmd.Context(), plan)
			spinner.Stop()
			if err != nil {
				return err
			}

			if c.jsonOut {
				return json.NewEncoder(os.Stdout).Encode(report)
			}
			printReport(report)
			track.done(fmt.Sprintf("Reconciled %d package(s)", report.Fixed))
			if report.Failed > 0 {
				return fmt.Errorf("%d action(s) failed", report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "apply without confirmation")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the plan without applying it")

	return cmd
}

// printPlan renders the four action buckets.
func printPlan(plan *reconcile.Plan) {
	printBucket("Install", plan.Install, func(i reconcile.PlanItem) string {
		return i.DisplayName + i.TargetSpec
	})
	printBucket("Update", plan.Update, func(i reconcile.PlanItem) string {
		return fmt.Sprintf("%s %s %s %s", i.DisplayName, i.InstalledVersion, iconArrow, i.TargetSpec)
	})
	printBucket("Remove redundant declaration", plan.Deredundant, func(i reconcile.PlanItem) string {
		return i.DisplayName
	})
	printBucket("Declare", plan.Declare, func(i reconcile.PlanItem) string {
		return fmt.Sprintf("%s ==%s", i.DisplayName, i.InstalledVersion)
	})
	printNewline()
}

func printBucket(title string, items []reconcile.PlanItem, format func(reconcile.PlanItem) string) {
	if len(items) == 0 {
		return
	}
	fmt.Println(StyleTitle.Render(title))
	for _, item := range items {
		printDetail("%s", format(item))
	}
}

// printReport renders per-item outcomes and the run summary.
func printReport(report *reconcile.Report) {
	printResults(report.Items)
	printNewline()
	summary := fmt.Sprintf("%d fixed, %d failed", report.Fixed, report.Failed)
	if report.Failed > 0 {
		printWarning("%s", summary)
		return
	}
	printSuccess("%s", summary)
}
