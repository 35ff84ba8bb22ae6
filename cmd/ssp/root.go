package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "configs/config.yaml"

type rootOptions struct {
	configPath string
}

// resolveConfigPath prefers --config, then CONFIG_PATH, then the default.
func (o *rootOptions) resolveConfigPath(cmd *cobra.Command) string {
	if cmd.Flags().Changed("config") {
		return o.configPath
	}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return o.configPath
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "ssp",
		Short:        "SSP Command Center scoring service",
		Long:         "ssp scores territory opportunities against market signals, serves the scores over HTTP and posts a daily digest to Teams.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "path to config file (env CONFIG_PATH)")

	root.AddCommand(
		newServeCmd(opts),
		newRecomputeCmd(opts),
		newDigestCmd(opts),
		newScoreCmd(opts),
		newTagCmd(),
		newSeedCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ssp %s (commit: %s)\n", version, commit)
		},
	}
}
