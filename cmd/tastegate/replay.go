package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/tastegate/internal/config"
	"github.com/danielpatrickdp/tastegate/internal/critique"
	"github.com/danielpatrickdp/tastegate/internal/logging"
	"github.com/danielpatrickdp/tastegate/internal/replay"
)

type replayOptions struct {
	out     string
	verbose bool
}

func newReplayCmd(root *rootOptions) *cobra.Command {
	opts := &replayOptions{}
	cmd := &cobra.Command{
		Use:   "replay <fixture.json>...",
		Short: "Replay recorded scenarios against a scripted model",
		Long: `replay runs each fixture through the full loop with scripted model answers
and compares the outcome, attempt count and per-prompt call counts with what the
fixture expects. No model backend or persistent storage is touched.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, root, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.out, "out", "", "write passing artifacts under this directory")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log the replayed runs")
	return cmd
}

func runReplay(cmd *cobra.Command, root *rootOptions, opts *replayOptions, paths []string) error {
	cfg, err := config.Load(root.configPath, root.envFiles...)
	if err != nil {
		return err
	}
	rules, err := critique.LoadRulesFile(cfg.Critique.RulesFile)
	if err != nil {
		return err
	}
	level := "error"
	if opts.verbose {
		level = cfg.Log.Level
	}
	logger, err := logging.New(level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	failed := 0
	for _, path := range paths {
		f, err := replay.LoadFixture(path)
		if err != nil {
			return err
		}
		res, err := replay.Replay(commandContext(cmd), f, replay.Options{Rules: rules, OutputDir: opts.out, Logger: logger})
		if err != nil {
			return fmt.Errorf("replay %s: %w", path, err)
		}
		if res.Passed() {
			printf(cmd, "PASS %s (%s after %d attempts)\n", path, res.Run.Outcome, res.Run.Attempts)
			continue
		}
		failed++
		printf(cmd, "FAIL %s\n", path)
		for _, m := range res.Mismatches {
			printf(cmd, "  %s\n", m)
		}
		if res.Err != nil {
			printf(cmd, "  run error: %v\n", res.Err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d fixtures failed", failed, len(paths))
	}
	return nil
}
