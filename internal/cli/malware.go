package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/usestring/threatfox/pkg/client"
)

func newMalwareCmd(d *deps) *cobra.Command {
	var (
		queryMalware string
		searchFamily string
		platform     string
		list         bool
	)

	cmd := &cobra.Command{
		Use:     "malware",
		Aliases: []string{"m"},
		Short:   "Interact with ThreatFox malware APIs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if platform != "" && !slices.Contains(client.Platforms, platform) {
				return fmt.Errorf("--platform must be one of %s", strings.Join(client.Platforms, ", "))
			}

			var run func(context.Context, *client.Client) (client.Response, error)
			switch {
			case queryMalware != "":
				limit := d.limit()
				run = func(ctx context.Context, c *client.Client) (client.Response, error) {
					return c.QueryMalwareIOCs(ctx, queryMalware, limit)
				}
			case searchFamily != "":
				run = func(ctx context.Context, c *client.Client) (client.Response, error) {
					return c.SearchMalwareFamilies(ctx, searchFamily, platform)
				}
			case list:
				run = func(ctx context.Context, c *client.Client) (client.Response, error) {
					return c.GetMalwareList(ctx)
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
	f.StringVarP(&queryMalware, "query-malware", "q", "", "Search for IOCs associated with a malware family")
	f.StringVarP(&searchFamily, "search-malware-families", "s", "", "Search for malware names by name, alias or label")
	f.StringVar(&platform, "platform", "", "Restrict the family search to a platform ("+strings.Join(client.Platforms, ", ")+")")
	f.BoolVarP(&list, "get-malware-list", "g", false, "Get the list of supported malware families")
	return cmd
}
