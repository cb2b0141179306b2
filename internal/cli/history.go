package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const promptPreviewWidth = 60

func historyCommand(cfg *config) *cli.Command {
	var all bool

	return &cli.Command{
		Name:    "history",
		Aliases: []string{"ls"},
		Usage:   "List history records, newest first",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "all",
				Aliases:     []string{"a"},
				Usage:       "Include archived records",
				Destination: &all,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			s, err := cfg.open(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			tw := tabwriter.NewWriter(c.Root().Writer, 0, 0, 2, ' ', 0)
			for _, rec := range s.History.List(all) {
				flags := ""
				if rec.IsFavorite {
					flags += "*"
				}
				if rec.IsArchived {
					flags += "A"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
					rec.ID,
					rec.Status,
					len(rec.Versions),
					flags,
					rec.CreatedAt.Local().Format("2006-01-02 15:04"),
					truncate(rec.PromptText, promptPreviewWidth),
				)
			}
			return tw.Flush()
		},
	}
}

func showCommand(cfg *config) *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "show",
		Usage:     "Show a record and all of its versions",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "Print the record as JSON",
				Destination: &asJSON,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := requireID(c)
			if err != nil {
				return err
			}
			s, err := cfg.open(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			rec, err := s.History.Get(id)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if asJSON {
				data, err := json.MarshalIndent(rec, "", "  ")
				if err != nil {
					return goerr.Wrap(err, "failed to marshal record")
				}
				fmt.Fprintln(w, string(data))
				return nil
			}

			fmt.Fprintf(w, "ID:      %s\n", rec.ID)
			fmt.Fprintf(w, "Status:  %s\n", rec.Status)
			fmt.Fprintf(w, "Created: %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			if rec.ErrorMessage != "" {
				fmt.Fprintf(w, "Error:   %s\n", rec.ErrorMessage)
			}
			fmt.Fprintf(w, "\nPrompt:\n%s\n", rec.PromptText)
			for i, v := range rec.Versions {
				marker := " "
				if i == rec.SelectedVersionIndex {
					marker = ">"
				}
				fmt.Fprintf(w, "\n%s Version %d (%s)\n%s\n", marker, i+1, v.CreatedAt.Local().Format("2006-01-02 15:04"), v.Output)
			}
			return nil
		},
	}
}

func deleteCommand(cfg *config) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete a record and its versions",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := requireID(c)
			if err != nil {
				return err
			}
			s, err := cfg.open(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			return s.History.Delete(id)
		},
	}
}

func exportCommand(cfg *config) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write every record to a JSON snapshot",
		ArgsUsage: "<path>",
		Action: func(ctx context.Context, c *cli.Command) error {
			path := c.Args().First()
			if path == "" {
				return goerr.New("snapshot path is required")
			}
			s, err := cfg.open(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			n, err := s.History.ExportSnapshot(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "exported %d records to %s\n", n, path)
			return nil
		},
	}
}

func importCommand(cfg *config) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Load records from a JSON snapshot, skipping known ids",
		ArgsUsage: "<path>",
		Action: func(ctx context.Context, c *cli.Command) error {
			path := c.Args().First()
			if path == "" {
				return goerr.New("snapshot path is required")
			}
			s, err := cfg.open(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			result, err := s.History.ImportSnapshot(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "imported %d records (%d skipped)\n", result.Imported, result.Skipped)
			return nil
		},
	}
}

func importLegacyCommand(cfg *config) *cli.Command {
	return &cli.Command{
		Name:      "import-legacy",
		Usage:     "Migrate prompt_history*.json files into the database",
		ArgsUsage: "[dir]",
		Action: func(ctx context.Context, c *cli.Command) error {
			s, err := cfg.open(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			result, err := s.History.ImportLegacy(c.Args().First())
			if err != nil {
				return err
			}
			w := c.Root().Writer
			for _, f := range result.Files {
				fmt.Fprintf(w, "read %s\n", f)
			}
			fmt.Fprintf(w, "imported %d records (%d skipped)\n", result.Imported, result.Skipped)
			return nil
		},
	}
}

func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
