package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sanix-darker/localreview/internal/config"
	"github.com/sanix-darker/localreview/internal/provider"
)

// NewHealthCmd checks that the model service is reachable and the configured
// model installed.
func NewHealthCmd() *cobra.Command {
	healthCmd := &cobra.Command{
		Use:     "health",
		Short:   "Check that the model service is up and the model installed.",
		Example: "localreview health\nlocalreview health --endpoint http://gpu-box:11434 --model qwen2.5-coder:7b",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			conf, err := loadConfig(cmd)
			exitOnError(err)

			client, err := newClient(conf)
			exitOnError(err)

			exitOnError(runHealth(cmd.Context(), conf, client, conf.OutWriter))
		},
	}

	healthCmd.Flags().String("backend", "", "model service backend")
	healthCmd.Flags().String("endpoint", "", "model service URL")
	healthCmd.Flags().String("model", "", "model identifier")
	healthCmd.Flags().Duration("timeout", 0, "probe timeout")
	return healthCmd
}

func runHealth(ctx context.Context, conf config.Config, client provider.Prober, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := preflight(ctx, conf, client); err != nil {
		return err
	}
	fmt.Fprintf(out, "[ok] %s is reachable at %s and model %q is installed\n", conf.Backend, conf.Endpoint, conf.Model)
	return nil
}

func init() {
	rootCmd.AddCommand(NewHealthCmd())
}
