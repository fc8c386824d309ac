/*
Copyright © 2023 sanix-darker <s4nixd@gmail.com>
*/
package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
)

// Out and Err are where LogInfo and LogError write; tests swap them.
var (
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr
)

// exit is os.Exit, replaced in tests.
var exit = os.Exit

// LogError: to print an error message
// in case of "critic" at true, the program will stop on code 1
func LogError(
	message string,
	critic bool,
	help_menu bool,
	help_callback func() error,
) {
	fmt.Fprintf(Err, "%s\n", message)

	if critic {
		if help_menu && help_callback != nil {
			_ = help_callback()
		}
		exit(1)
	}
}

// LogInfo: for a simple logging info
func LogInfo(
	message string,
	callback func(),
) {
	fmt.Fprintf(Out, "%s\n", message)

	// for a given callback
	if callback != nil {
		callback()
	}
}

// GetArgByKey get an argument value based on a key input + a strict mode for required params
func GetArgByKey(
	key string,
	cmdFlags *pflag.FlagSet,
	strictMode bool,
	help func() error,
) string {
	value, err := cmdFlags.GetString(key)
	if strictMode && (err != nil || strings.TrimSpace(value) == "") {
		msg := fmt.Sprintf("[x] %v, is not set and is required for your command.\n", key)
		LogError(msg, true, true, help)
	}
	return value
}

// ExtractFilePair splits an "old,new" argument into two existing regular
// files.
func ExtractFilePair(value string) (string, string, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("expected two comma-separated files, got %q", value)
	}

	var out [2]string
	for i, p := range parts {
		p = filepath.Clean(strings.TrimSpace(p))
		info, err := os.Stat(p)
		if err != nil {
			return "", "", fmt.Errorf("[x] Error: %w", err)
		}
		if info.IsDir() {
			return "", "", fmt.Errorf("[x] Error: %s is a directory", p)
		}
		out[i] = p
	}
	return out[0], out[1], nil
}
