// Package commands implements the ignitedb CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	version string
	dataDir string
	rootCmd = &cobra.Command{
		Use:   "ignitedb",
		Short: "Inspect and operate an ignitedb data directory",
		Long: `ignitedb is a small operational tool for the embeddable
Bitcask-style key-value store of the same name: put, get and delete
individual keys, and trigger a compaction cycle by hand.`,
	}
)

// Execute runs the CLI.
func Execute(v string) error {
	version = v

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (overrides config/env)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	rootCmd.AddCommand(
		versionCmd(),
		putCmd(),
		getCmd(),
		deleteCmd(),
		compactCmd(),
	)

	return rootCmd.Execute()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("ignitedb version %s\n", version)
		},
	}
}
