// Command tastegate drives the generation loop and records human review.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	envFiles   []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "tastegate",
		Short: "Generate calm sites and escalate when taste cannot be defended",
		Long: `tastegate turns a free-text site request into a plan, code and a critique
verdict, regenerating with simpler plans until the critics pass or a human is needed.

Configuration is read from embedded defaults, then --config, then TASTEGATE_*
environment variables (TASTEGATE_MODELS__CALL_TIMEOUT=60s).`,
		Version:       version,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "dotenv files loaded before reading the environment")

	root.AddCommand(
		newRunCmd(opts),
		newApproveCmd(opts),
		newRejectCmd(opts),
		newAntiPatternsCmd(opts),
		newHistoryCmd(opts),
		newReplayCmd(opts),
	)
	return root
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
