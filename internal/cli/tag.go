package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/usestring/threatfox/pkg/client"
)

func newTagCmd(d *deps) *cobra.Command {
	var (
		queryTag string
		list     bool
	)

	cmd := &cobra.Command{
		Use:     "tag",
		Aliases: []string{"t"},
		Short:   "ThreatFox tag operations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var run func(context.Context, *client.Client) (client.Response, error)
			switch {
			case queryTag != "":
				limit := d.limit()
				run = func(ctx context.Context, c *client.Client) (client.Response, error) {
					return c.QueryTag(ctx, queryTag, limit)
				}
			case list:
				run = func(ctx context.Context, c *client.Client) (client.Response, error) {
					return c.GetTagList(ctx)
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
	f.StringVarP(&queryTag, "query-tag", "t", "", "Search for IOCs associated with this tag")
	f.BoolVarP(&list, "get-tag-list", "l", false, "Get the list of tags known to ThreatFox")
	return cmd
}
