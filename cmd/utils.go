/*
Copyright © 2023 sanix-darker <s4nixd@gmail.com>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sanix-darker/localreview/internal/common"
	"github.com/sanix-darker/localreview/internal/config"
	"github.com/sanix-darker/localreview/internal/core"
	"github.com/sanix-darker/localreview/internal/logger"
)

// loadConfig resolves the configuration of a command: defaults, then the
// config file, then LOCALREVIEW_* variables, then flags. It also sets up the
// diagnostic logger.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	v := config.NewViper()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return config.Config{}, err
	}

	path, _ := cmd.Flags().GetString("config")
	conf, err := config.Load(v, path)
	if err != nil {
		return conf, err
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		conf.LogLevel = "debug"
	}
	format, _ := cmd.Flags().GetString("log-format")
	logger.Init(logger.Options{Level: conf.LogLevel, Format: format})

	conf.OutWriter = cmd.OutOrStdout()
	conf.ErrWriter = cmd.ErrOrStderr()
	conf.InReader = cmd.InOrStdin()

	logger.Named("cmd").Debug().
		Str("command", cmd.CommandPath()).
		Str("config_file", conf.ConfigFile).
		Str("model", conf.Model).
		Str("endpoint", conf.Endpoint).
		Msg("configuration loaded")
	return conf, nil
}

// fatalMessage formats err for the terminal, followed by its remedy when the
// error has one.
func fatalMessage(err error) string {
	msg := fmt.Sprintf("[x] %v", err)
	if remedy := core.Remedy(err); remedy != "" {
		msg += "\n    -> " + remedy
	}
	return msg
}

// exitOnError prints err with its remedy and stops the program.
func exitOnError(err error) {
	if err == nil {
		return
	}
	common.LogError(fatalMessage(err), true, false, nil)
}

// errNothingToReview is returned when the selected change set is empty.
var errNothingToReview = errors.New("no changes to review")
