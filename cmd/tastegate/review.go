package main

// #region imports
import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/tastegate/internal/memory"
	"github.com/danielpatrickdp/tastegate/internal/orchestrator"
)

// #endregion

// #region approve-reject

func newApproveCmd(root *rootOptions) *cobra.Command {
	var feedback string
	cmd := &cobra.Command{
		Use:   "approve <run-id>",
		Short: "Record a human approval of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return review(cmd, root, args[0], func(ctx context.Context, m *memory.Memory, r memory.Review) (memory.FeedbackRecord, error) {
				return m.Approve(ctx, r, feedback)
			})
		},
	}
	cmd.Flags().StringVarP(&feedback, "feedback", "m", "", "optional reviewer notes")
	return cmd
}

func newRejectCmd(root *rootOptions) *cobra.Command {
	var feedback string
	cmd := &cobra.Command{
		Use:   "reject <run-id>",
		Short: "Record a human rejection of a run",
		Long: `Reject records why a run was not good enough. The run's critique issues feed
the anti-pattern digest that later rubric judgements are held to.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return review(cmd, root, args[0], func(ctx context.Context, m *memory.Memory, r memory.Review) (memory.FeedbackRecord, error) {
				return m.Reject(ctx, r, feedback)
			})
		},
	}
	cmd.Flags().StringVarP(&feedback, "feedback", "m", "", "why the run was rejected (required)")
	return cmd
}

type decideFunc func(ctx context.Context, m *memory.Memory, r memory.Review) (memory.FeedbackRecord, error)

func review(cmd *cobra.Command, root *rootOptions, runID string, decide decideFunc) error {
	ctx := commandContext(cmd)
	a, err := openApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.outcomes.Get(ctx, runID)
	if err != nil {
		return err
	}
	rec, err := decide(ctx, a.memory, reviewOf(out))
	if err != nil {
		return err
	}

	printf(cmd, "%s %s (%s)\n", rec.Decision, rec.RunID, rec.ID)
	if rec.CriticDisagreement != "" {
		printf(cmd, "note: %s\n", rec.CriticDisagreement)
	}
	return nil
}

// reviewOf is what the reviewer saw: the recorded run and its last verdict.
func reviewOf(out orchestrator.OutcomeRecord) memory.Review {
	return memory.Review{
		RunID:           out.RunID,
		Intent:          out.Request,
		Overall:         out.Outcome == orchestrator.OutcomePassed,
		Severity:        out.Severity,
		TechnicalIssues: out.TechnicalIssues,
		TasteIssues:     out.TasteIssues,
	}
}

// #endregion

// #region reports

func newAntiPatternsCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "antipatterns",
		Short: "Show anti-patterns learned from rejections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			a, err := openApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.Close()

			patterns, err := a.memory.AntiPatterns(ctx)
			if err != nil {
				return err
			}
			stats, err := a.memory.Stats(ctx)
			if err != nil {
				return err
			}

			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"stats":        stats,
					"antiPatterns": patterns,
				})
			}

			printf(cmd, "approvals %d, rejections %d, disagreements %d\n\n",
				stats.Approvals, stats.Rejections, stats.Disagreements)
			if len(patterns) == 0 {
				printf(cmd, "%s\n", memory.FormatDigest(nil))
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "PATTERN\tSEVERITY\tSEEN\tCATEGORY\tLAST SEEN\n")
			for _, p := range patterns {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", p.Pattern, p.Label(), p.Occurrences, p.Category, p.LastSeen.Format(time.DateOnly))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs and pass rates per task type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			a, err := openApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.Close()

			runs, err := a.outcomes.Recent(ctx, limit)
			if err != nil {
				return err
			}
			rates, err := a.outcomes.PassRates(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "RUN\tTYPE\tOUTCOME\tATTEMPTS\tCONFIDENCE\tREASON\tREQUEST\n")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%.2f\t%s\t%s\n",
					r.RunID, r.TaskType, r.Outcome, r.Attempts, r.MaxAttempts,
					r.FinalConfidence, r.Reason, truncate(r.Request, 40))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if len(rates) > 0 {
				printf(cmd, "\npass rates (7-day decay)\n")
				for _, pr := range rates {
					printf(cmd, "  %-10s %.2f over %d runs\n", pr.TaskType, pr.Rate, pr.Samples)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list")
	return cmd
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// #endregion
