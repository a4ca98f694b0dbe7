package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/usestring/threatfox/pkg/client"
)

func newSubmitCmd(d *deps) *cobra.Command {
	var (
		req        client.SubmitRequest
		confidence int
	)

	cmd := &cobra.Command{
		Use:     "submit",
		Aliases: []string{"s"},
		Short:   "Submit IOCs to ThreatFox",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if confidence < 0 || confidence > 100 {
				return fmt.Errorf("--confidence-level must be between 0 and 100, got %d", confidence)
			}
			req.ConfidenceLevel = &confidence

			return d.withClient(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				return d.result(c.SubmitIOCs(ctx, req))
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.ThreatType, "threat-type", "", "Threat type, see ioc --get-ioc-types")
	f.StringVar(&req.IOCType, "ioc-type", "", "IOC type, see ioc --get-ioc-types")
	f.StringVarP(&req.Malware, "malware", "m", "", "Correctly mapped Malpedia malware name")
	f.StringArrayVarP(&req.IOCs, "ioc-value", "i", nil, "IOC value, repeat as many times as needed")
	f.IntVar(&confidence, "confidence-level", client.DefaultConfidenceLevel, "Confidence level 0-100")
	f.StringVarP(&req.Reference, "reference", "r", "", "A reference URL")
	f.StringArrayVarP(&req.Tags, "tag", "t", nil, "Tag, repeat as many times as needed")
	f.StringVarP(&req.Comment, "comment", "c", "", "Your comment on the IOCs")
	f.BoolVar(&req.Anonymous, "make-anonymous", false, "Make the submission anonymous")

	for _, name := range []string{"threat-type", "ioc-type", "malware", "ioc-value"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
