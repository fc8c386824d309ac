/*
Copyright © 2023 sanix-darker <s4nixd@gmail.com>

*/

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "localreview",
	Short: "Review your local changes with a local model.",
	Long: `Review working-tree, staged or committed changes file by file with a model
served by a local Ollama instance. Nothing leaves your machine.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.config/localreview/config.yml)")
	flags.String("log-level", "", "diagnostic log level: trace, debug, info, warn, error or off")
	flags.String("log-format", "console", "diagnostic log format: console or json")
	flags.Bool("debug", false, "shorthand for --log-level debug")
}
