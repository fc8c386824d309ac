package config

import (
	"fmt"
	"strings"
)

// SampleYAML returns a commented config file holding the defaults, as
// written by `localreview config init`.
func SampleYAML() string {
	var sb strings.Builder
	sb.WriteString("# localreview configuration\n")
	sb.WriteString("# Every key can be overridden with a LOCALREVIEW_<KEY> environment variable\n")
	sb.WriteString("# or the matching command-line flag.\n\n")

	sb.WriteString("# Model service backend and its Ollama-compatible endpoint.\n")
	fmt.Fprintf(&sb, "%s: %s\n", KeyBackend, DefaultBackend)
	fmt.Fprintf(&sb, "%s: %s\n", KeyEndpoint, DefaultEndpoint)
	fmt.Fprintf(&sb, "%s: %s\n\n", KeyModel, DefaultModel)

	sb.WriteString("# Sampling and budgets. timeout bounds each file's request.\n")
	fmt.Fprintf(&sb, "%s: %g\n", KeyTemperature, DefaultTemperature)
	fmt.Fprintf(&sb, "%s: %d\n", KeyMaxTokens, DefaultMaxTokens)
	fmt.Fprintf(&sb, "%s: %s\n\n", KeyTimeout, DefaultTimeout)

	sb.WriteString("# Files larger than this many bytes are reported, not analyzed.\n")
	fmt.Fprintf(&sb, "%s: %d\n\n", KeyMaxFileSize, DefaultMaxFileSize)

	sb.WriteString("# Regular expressions matched anywhere in the file path.\n")
	sb.WriteString("# exclude always wins over include; an empty include list means everything.\n")
	fmt.Fprintf(&sb, "%s: []\n", KeyInclude)
	fmt.Fprintf(&sb, "%s:\n", KeyExclude)
	for _, p := range DefaultExclude {
		fmt.Fprintf(&sb, "  - '%s'\n", p)
	}

	sb.WriteString("\n# Replaces the built-in review instructions when set.\n")
	fmt.Fprintf(&sb, "%s: \"\"\n\n", KeyPromptTemplate)

	sb.WriteString("# trace, debug, info, warn, error or off\n")
	fmt.Fprintf(&sb, "%s: %s\n", KeyLogLevel, DefaultLogLevel)
	return sb.String()
}
