// Package cli implements the threatfox command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/usestring/threatfox/internal/config"
	"github.com/usestring/threatfox/internal/logging"
	"github.com/usestring/threatfox/pkg/client"
)

// deps is shared by every command. Flag values are bound to its fields.
type deps struct {
	cfg    *config.Config
	out    io.Writer
	errOut io.Writer

	debug      bool
	apiKey     string
	saveAPIKey string
	saveAPIURL string
	jq         string
	strict     bool

	resolver   *config.Resolver
	saved      bool
	logCleanup func() error
}

// Execute runs the command line with args, writing results to out.
func Execute(ctx context.Context, cfg *config.Config, args []string, out, errOut io.Writer) error {
	d := &deps{cfg: cfg, out: out, errOut: errOut}
	defer d.close()

	root := newRootCmd(d)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.ExecuteContext(ctx)
}

func newRootCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "threatfox",
		Short:         "Tool for interacting with the ThreatFox API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return d.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if d.saved {
				return nil
			}
			return cmd.Help()
		},
	}

	f := cmd.PersistentFlags()
	f.BoolVarP(&d.debug, "debug", "d", false, "Turn on debug logging")
	f.StringVar(&d.apiKey, "api-key", "", "A ThreatFox API key to use")
	f.StringVar(&d.saveAPIKey, "save-api-key", "", "Save a ThreatFox API key to use as the default")
	f.StringVar(&d.saveAPIURL, "save-api-url", "", "Save a ThreatFox API URL to use as the default")
	f.StringVar(&d.jq, "jq", "", "jq expression applied to the result before printing")
	f.BoolVar(&d.strict, "strict", false, "Validate query payloads locally before sending")

	cmd.AddCommand(
		newIOCCmd(d),
		newMalwareCmd(d),
		newTagCmd(d),
		newSubmitCmd(d),
		newMCPCmd(d),
	)
	return cmd
}

// setup configures logging, loads the persisted configuration and applies
// the --save-* flags.
func (d *deps) setup() error {
	cleanup, err := logging.Setup(d.loggingConfig())
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	d.logCleanup = cleanup

	if err := d.validateJQ(); err != nil {
		return err
	}

	store, err := config.LoadStore(d.cfg.StorePaths()...)
	if err != nil {
		return err
	}
	d.resolver = config.NewResolver(store)

	if d.saveAPIKey != "" {
		if err := store.SaveAPIKey(d.saveAPIKey, d.cfg.ConfigPath); err != nil {
			return err
		}
		d.resolver.SetAPIKey(d.saveAPIKey)
		d.saved = true
	}
	if d.saveAPIURL != "" {
		if err := store.SaveAPIURL(d.saveAPIURL, d.cfg.ConfigPath); err != nil {
			return err
		}
		d.resolver.SetAPIURL(d.saveAPIURL)
		d.saved = true
	}
	return nil
}

// loggingConfig overlays the configured logging values on the defaults.
// Unset levels, formats and rotation limits keep their default.
func (d *deps) loggingConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.FilePath = d.cfg.LogFile
	lc.Output = d.errOut
	lc.Compress = d.cfg.LogCompress
	if d.cfg.LogLevel != "" {
		lc.Level = d.cfg.LogLevel
	}
	if d.cfg.LogFormat != "" {
		lc.Format = d.cfg.LogFormat
	}
	if d.cfg.LogMaxSizeMB > 0 {
		lc.MaxSizeMB = d.cfg.LogMaxSizeMB
	}
	if d.cfg.LogMaxBackups > 0 {
		lc.MaxBackups = d.cfg.LogMaxBackups
	}
	if d.cfg.LogMaxAgeDays > 0 {
		lc.MaxAgeDays = d.cfg.LogMaxAgeDays
	}
	if d.debug {
		lc.Level = "debug"
	}
	return lc
}

// clientOptions builds the client options from the flags and the resolver.
func (d *deps) clientOptions(extra ...client.Option) []client.Option {
	opts := []client.Option{
		client.WithSource(d.resolver),
		client.WithHTTPTimeout(d.cfg.HTTPClientTimeout),
	}
	if d.apiKey != "" {
		opts = append(opts, client.WithAPIKey(d.apiKey))
	}
	if d.strict {
		opts = append(opts, client.WithValidation())
	}
	return append(opts, extra...)
}

// withClient runs fn with a client that is closed afterwards.
func (d *deps) withClient(ctx context.Context, fn func(context.Context, *client.Client) error) error {
	return client.WithClient(ctx, fn, d.clientOptions()...)
}

// limit returns the result limit for tag and malware queries.
func (d *deps) limit() int {
	n, ok, err := d.resolver.MaxResultConstraint()
	if err != nil {
		slog.Warn("ignoring malformed max_result_constraint", "error", err)
		return client.MaxLimit
	}
	if ok && n > 0 && n < client.MaxLimit {
		return n
	}
	return client.MaxLimit
}

func (d *deps) close() {
	if d.logCleanup != nil {
		_ = d.logCleanup()
	}
}
