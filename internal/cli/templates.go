package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
)

func templatesCommand(cfg *config) *cli.Command {
	return &cli.Command{
		Name:  "templates",
		Usage: "List prompt templates",
		Action: func(ctx context.Context, c *cli.Command) error {
			s, err := cfg.open(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			list, err := s.Templates.ListTemplates()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.Root().Writer, 0, 0, 2, ' ', 0)
			for _, t := range list {
				def := ""
				if t.IsDefault {
					def = "default"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\n", t.ID, t.Name, def)
			}
			return tw.Flush()
		},
	}
}
