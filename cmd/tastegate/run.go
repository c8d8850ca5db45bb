package main

// #region imports
import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/tastegate/internal/orchestrator"
)

// #endregion

// #region run

type runOptions struct {
	*rootOptions
	file        string
	metricsFile string
	outputDir   string
	asJSON      bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "run [request]",
		Short: "Generate a site for one request",
		Long: `Run interprets the request, plans, generates and critiques until the critics
pass or the run is escalated to a human.

Examples:
  tastegate run "A landing page for a small tea brand"
  tastegate run --file brief.txt --metrics-file run.prom
  echo "portfolio for a ceramicist" | tastegate run -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := readRequest(cmd, args, opts.file)
			if err != nil {
				return err
			}
			return runRequest(cmd, opts, request)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read the request from a file")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile after the run")
	cmd.Flags().StringVarP(&opts.outputDir, "out", "o", "", "output directory (overrides output.dir)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the full run result as JSON")
	return cmd
}

func readRequest(cmd *cobra.Command, args []string, file string) (string, error) {
	switch {
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read request: %w", err)
		}
		return string(b), nil
	case len(args) == 1 && args[0] != "-":
		return args[0], nil
	case len(args) == 1:
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	default:
		return "", errors.New("a request is required: pass it as an argument, --file, or - for stdin")
	}
}

func runRequest(cmd *cobra.Command, opts *runOptions, request string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	a, err := openApp(ctx, opts.rootOptions)
	if err != nil {
		return err
	}
	defer a.Close()
	if opts.outputDir != "" {
		a.cfg.Output.Dir = opts.outputDir
	}

	orch, writer, err := a.orchestrator(ctx)
	if err != nil {
		return err
	}

	res, runErr := orch.Run(ctx, request)

	if opts.metricsFile != "" {
		if err := a.metrics.WriteTextfile(opts.metricsFile); err != nil {
			a.logger.Warn("failed to write metrics", zap.String("path", opts.metricsFile), zap.Error(err))
		}
	}

	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		printRunSummary(cmd, res, writer.Root())
	}
	return runErr
}

func printRunSummary(cmd *cobra.Command, res orchestrator.Result, outDir string) {
	printf(cmd, "run       %s\n", res.RunID)
	printf(cmd, "task      %s (%.2f)\n", res.Classification.Type, res.Classification.Confidence)
	printf(cmd, "strategy  %s, %d plans, %d attempts max\n",
		res.Strategy.Strictness, res.Strategy.PlanCount, res.Strategy.MaxRegenerations)
	printf(cmd, "outcome   %s after %d attempt(s), confidence %.2f\n",
		res.Outcome, res.Attempts, res.Confidence.Overall)
	if res.Verdict != nil {
		printf(cmd, "verdict   %s (%s)\n", res.Verdict.Severity, res.Verdict.Rule)
		if issues := res.Verdict.Issues(); len(issues) > 0 {
			printf(cmd, "issues    %s\n", strings.Join(issues, "; "))
		}
	}
	if res.Escalation != nil {
		printf(cmd, "escalated %s [%s]: review with `tastegate approve|reject %s`\n",
			res.Escalation.Reason, res.Escalation.Urgency, res.RunID)
	}
	if len(res.Artifacts.Files) > 0 {
		printf(cmd, "files     %d written to %s\n", len(res.Artifacts.Files), outDir)
	}
}

// commandContext falls back to Background for commands executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// #endregion
