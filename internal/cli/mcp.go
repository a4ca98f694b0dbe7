package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/usestring/threatfox/pkg/client"
	"github.com/usestring/threatfox/pkg/mcpsrv"
)

func newMCPCmd(d *deps) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the ThreatFox tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, closeClient, err := d.newMCPServer(metricsAddr)
			if err != nil {
				return err
			}
			defer closeClient()

			slog.Info("starting ThreatFox MCP server on stdio")
			if err := srv.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("server error: %w", err)
			}
			slog.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", d.cfg.MetricsAddr, "Serve Prometheus metrics on this address (empty disables)")
	return cmd
}

// newMCPServer opens the client the server runs on. The returned func closes it.
func (d *deps) newMCPServer(metricsAddr string) (*mcpsrv.Server, func(), error) {
	var extra []client.Option
	reg := prometheus.NewRegistry()
	if metricsAddr != "" {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		extra = append(extra, client.WithMetrics(reg))
	}

	c, err := client.Open(d.clientOptions(extra...)...)
	if err != nil {
		return nil, nil, err
	}
	closeClient := func() {
		if err := c.Close(); err != nil {
			slog.Warn("closing client", "error", err)
		}
	}

	if _, ok := d.resolver.APIKey(); !ok && d.apiKey == "" {
		slog.Warn("no ThreatFox API key configured, requests may be rejected")
	}

	srv, err := mcpsrv.NewServer(c,
		mcpsrv.WithResolver(d.resolver),
		mcpsrv.WithMetrics(metricsAddr, reg),
	)
	if err != nil {
		closeClient()
		return nil, nil, err
	}
	return srv, closeClient, nil
}
