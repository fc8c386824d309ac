package cmd

import (
	"context"
	"fmt"

	"github.com/sanix-darker/localreview/internal/config"
	"github.com/sanix-darker/localreview/internal/provider"
	_ "github.com/sanix-darker/localreview/internal/provider/all"
)

// newClient creates the model service client from the current config.
var newClient = func(conf config.Config) (provider.Client, error) {
	return provider.Get(conf.Backend, provider.Settings{
		Endpoint: conf.Endpoint,
		Model:    conf.Model,
		Timeout:  conf.Timeout,
	})
}

// preflight probes the service once. An unhealthy service or a missing model
// is returned as a *core.Error carrying the remedy code.
func preflight(ctx context.Context, conf config.Config, client provider.Prober) error {
	health := client.Probe(ctx)
	if err := health.Err(); err != nil {
		return fmt.Errorf("%s backend at %s: %w", conf.Backend, conf.Endpoint, err)
	}
	return nil
}
