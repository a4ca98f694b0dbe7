package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/usestring/threatfox/pkg/client"
)

var errAllIOCsConstrained = errors.New("--get-all-available-iocs is not allowed while max_result_constraint is configured")

func newIOCCmd(d *deps) *cobra.Command {
	var (
		iocID      int64
		searchIOC  string
		searchHash string
		types      bool
		days       int
		all        bool
	)

	cmd := &cobra.Command{
		Use:     "ioc",
		Aliases: []string{"i"},
		Short:   "ThreatFox IOC API interface",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var run func(context.Context, *client.Client) (client.Response, error)

			switch {
			case flags.Changed("ioc-id"):
				run = func(ctx context.Context, c *client.Client) (client.Response, error) {
					return c.GetIOCByID(ctx, iocID)
				}
			case searchIOC != "":
				run = func(ctx context.Context, c *client.Client) (client.Response, error) {
					return c.SearchIOC(ctx, searchIOC)
				}
			case searchHash != "":
				run = func(ctx context.Context, c *client.Client) (client.Response, error) {
					return c.SearchHash(ctx, searchHash)
				}
			case types:
				run = func(ctx context.Context, c *client.Client) (client.Response, error) {
					return c.GetIOCThreatTypes(ctx)
				}
			case flags.Changed("bulk-day-filter-iocs"):
				run = func(ctx context.Context, c *client.Client) (client.Response, error) {
					return c.GetIOCs(ctx, days)
				}
			case all:
				if _, ok, err := d.resolver.MaxResultConstraint(); ok || err != nil {
					return errAllIOCsConstrained
				}
				run = func(ctx context.Context, c *client.Client) (client.Response, error) {
					return c.GetIOCs(ctx, client.MaxDays)
				}
			default:
				if d.saved {
					return nil
				}
				return cmd.Help()
			}

			return d.withClient(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				return d.result(run(ctx, c))
			})
		},
	}

	f := cmd.Flags()
	f.Int64VarP(&iocID, "ioc-id", "i", 0, "Get an IOC with this ID")
	f.StringVarP(&searchIOC, "search-ioc", "s", "", "Search for an IOC with this value")
	f.StringVar(&searchHash, "search-hash", "", "Search for IOCs associated with this SHA256 or MD5 hash")
	f.BoolVarP(&types, "get-ioc-types", "t", false, "Get the supported IOC / threat types from ThreatFox")
	f.IntVarP(&days, "bulk-day-filter-iocs", "b", 0, "Get the IOCs first seen within this many days")
	f.BoolVar(&all, "get-all-available-iocs", false, "Get every IOC ThreatFox currently makes available")
	return cmd
}
