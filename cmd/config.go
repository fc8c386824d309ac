package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sanix-darker/localreview/internal/common"
	"github.com/sanix-darker/localreview/internal/config"
	"github.com/sanix-darker/localreview/internal/printers"
)

func init() {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage localreview configuration",
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigEffectiveCmd())
	configCmd.AddCommand(newConfigValidateCmd())
	rootCmd.AddCommand(configCmd)
}

// configTarget is the file the config subcommands work on: --config when
// given, the default location otherwise.
func configTarget(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path, nil
	}
	return config.GetConfigFilePath()
}

func newConfigInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create default config file at ~/.config/localreview/config.yml",
		Run: func(cmd *cobra.Command, args []string) {
			cfgPath, err := configTarget(cmd)
			exitOnError(err)

			force, _ := cmd.Flags().GetBool("force")
			var confirm printers.IPrinters = printers.NewPrinters()
			if force {
				confirm = printers.AutoConfirm(true)
			}

			written, err := writeSampleConfig(cfgPath, confirm)
			exitOnError(err)
			if !written {
				common.LogInfo(fmt.Sprintf("Config file left unchanged at %s", cfgPath), nil)
				return
			}
			common.LogInfo(fmt.Sprintf("Config file created at %s", cfgPath), nil)
		},
	}
	initCmd.Flags().BoolP("force", "f", false, "overwrite an existing file without asking")
	return initCmd
}

// writeSampleConfig writes config.SampleYAML to path. An existing file is
// only replaced when confirm agrees.
func writeSampleConfig(path string, confirm printers.IPrinters) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("error creating config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if !confirm.Confirm(fmt.Sprintf("%s already exists, overwrite it?", path)) {
			return false, nil
		}
	}

	if err := os.WriteFile(path, []byte(config.SampleYAML()), 0o644); err != nil {
		return false, fmt.Errorf("error writing config: %w", err)
	}
	return true, nil
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print current config file",
		Run: func(cmd *cobra.Command, args []string) {
			cfgPath, err := configTarget(cmd)
			exitOnError(err)
			showConfigFile(cmd.OutOrStdout(), cfgPath)
		},
	}
}

func showConfigFile(out io.Writer, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(out, "No config file found at %s\n", path)
		fmt.Fprintln(out, "\nDefault configuration:")
		fmt.Fprintln(out, config.SampleYAML())
		return
	}

	fmt.Fprintf(out, "# Config file: %s\n", path)
	fmt.Fprintln(out, string(data))
}

func newConfigEffectiveCmd() *cobra.Command {
	effectiveCmd := &cobra.Command{
		Use:   "effective",
		Short: "Print effective config after env/flag overrides",
		Run: func(cmd *cobra.Command, args []string) {
			conf, err := loadConfig(cmd)
			exitOnError(err)
			exitOnError(printEffective(cmd.OutOrStdout(), conf))
		},
	}
	addConfigOverrideFlags(effectiveCmd)
	return effectiveCmd
}

func printEffective(out io.Writer, conf config.Config) error {
	if conf.ConfigFile != "" {
		fmt.Fprintf(out, "# Config file: %s\n", conf.ConfigFile)
	}
	data, err := yaml.Marshal(conf.Effective())
	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func newConfigValidateCmd() *cobra.Command {
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate config values and patterns",
		Run: func(cmd *cobra.Command, args []string) {
			conf, err := loadConfig(cmd)
			exitOnError(err)

			if !reportValidation(cmd.OutOrStdout(), conf) {
				os.Exit(1)
			}
		},
	}
	addConfigOverrideFlags(validateCmd)
	return validateCmd
}

// reportValidation prints every problem of conf and reports whether it is
// valid.
func reportValidation(out io.Writer, conf config.Config) bool {
	problems := conf.Validate()
	if len(problems) > 0 {
		fmt.Fprintln(out, "Configuration is invalid:")
		for _, p := range problems {
			fmt.Fprintf(out, "- %s\n", p)
		}
		return false
	}
	fmt.Fprintln(out, "Configuration is valid.")
	return true
}

// addConfigOverrideFlags lets `config effective` and `config validate` see
// the same flag overrides as `review`.
func addConfigOverrideFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("backend", "", "model service backend")
	flags.String("endpoint", "", "model service URL")
	flags.String("model", "", "model identifier")
	flags.StringSlice("include", nil, "only review paths matching these regular expressions")
	flags.StringSlice("exclude", nil, "never review paths matching these regular expressions")
	flags.Float64("temperature", 0, "sampling temperature")
	flags.Int("max-tokens", 0, "reply length bound")
	flags.Int64("max-file-size", 0, "size ceiling in bytes")
	flags.Duration("timeout", 0, "per-file request timeout")
}
