package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"prompter/internal/models"
)

func modelsCommand(cfg *config) *cli.Command {
	toggle := func(enabled bool) cli.ActionFunc {
		return func(ctx context.Context, c *cli.Command) error {
			key := strings.TrimSpace(c.Args().First())
			if key == "" {
				return goerr.New("model key is required")
			}
			s, err := cfg.open(ctx)
			if err != nil {
				return err
			}
			defer s.close()
			return s.ModelCatalog.SetEnabled(key, enabled)
		}
	}

	return &cli.Command{
		Name:  "models",
		Usage: "List, toggle and select catalog models",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Show every catalog model; > marks the one new generations use",
				Action: func(ctx context.Context, c *cli.Command) error {
					s, err := cfg.open(ctx)
					if err != nil {
						return err
					}
					defer s.close()

					settings, err := s.AppSettings.Get()
					if err != nil {
						return err
					}
					current := ""
					if chosen, err := s.ModelCatalog.Choose(settings.DefaultModelKey); err == nil {
						current = chosen.Key
					}

					tw := tabwriter.NewWriter(c.Root().Writer, 0, 0, 2, ' ', 0)
					for _, group := range s.ModelCatalog.Providers() {
						for _, m := range group.Models {
							mark := " "
							if m.Key == current {
								mark = ">"
							}
							state := "on"
							if !m.Enabled {
								state = "off"
							}
							fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", mark, m.Key, m.Label, state)
						}
					}
					return tw.Flush()
				},
			},
			{Name: "enable", Usage: "Enable a model", ArgsUsage: "<key>", Action: toggle(true)},
			{Name: "disable", Usage: "Disable a model", ArgsUsage: "<key>", Action: toggle(false)},
			{
				Name:      "use",
				Usage:     "Make a model the default for new generations (empty key clears it)",
				ArgsUsage: "[key]",
				Action: func(ctx context.Context, c *cli.Command) error {
					s, err := cfg.open(ctx)
					if err != nil {
						return err
					}
					defer s.close()

					key := strings.TrimSpace(c.Args().First())
					if key != "" {
						if _, err := s.ModelCatalog.Choose(key); err != nil {
							return err
						}
					}
					settings, err := s.AppSettings.Get()
					if err != nil {
						return err
					}
					_, err = s.AppSettings.UpdateGeneration(settings.Backend, key,
						models.SystemPromptVariant(settings.SystemPromptVariant), settings.CustomSystemPrompt)
					return err
				},
			},
		},
	}
}
