package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"prompter/internal/models"
)

func generateCommand(cfg *config) *cli.Command {
	var (
		system     string
		templateID int64
	)

	return &cli.Command{
		Name:      "generate",
		Aliases:   []string{"gen"},
		Usage:     "Expand a prompt idea and print the result",
		ArgsUsage: "<text>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "system",
				Aliases:     []string{"s"},
				Usage:       "System instruction (defaults to the configured system prompt)",
				Destination: &system,
			},
			&cli.IntFlag{
				Name:        "template",
				Aliases:     []string{"t"},
				Usage:       "Template ID to render the text into",
				Destination: &templateID,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			text := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(text) == "" {
				return goerr.New("prompt text is required")
			}

			s, err := cfg.open(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			if system == "" {
				if system, err = s.AppSettings.ResolveSystemPrompt(); err != nil {
					return goerr.Wrap(err, "failed to resolve system prompt")
				}
			}

			var id string
			if templateID > 0 {
				id, err = s.Generations.SubmitWithTemplate(uint(templateID), text, system)
			} else {
				id, err = s.Generations.Submit(text, system)
			}
			if err != nil {
				return goerr.Wrap(err, "failed to submit prompt")
			}

			rec, err := s.wait(ctx, id)
			if err != nil {
				return err
			}
			return printResult(c.Root().Writer, rec)
		},
	}
}

func retryCommand(cfg *config) *cli.Command {
	return &cli.Command{
		Name:      "retry",
		Usage:     "Generate a new version for a failed or cancelled record",
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

			if err := s.Generations.Retry(id); err != nil {
				return goerr.Wrap(err, "failed to retry", goerr.V("id", id))
			}
			rec, err := s.wait(ctx, id)
			if err != nil {
				return err
			}
			return printResult(c.Root().Writer, rec)
		},
	}
}

// wait shows a spinner until the record leaves the active set. Interrupting
// cancels the generation.
func (s *session) wait(ctx context.Context, id string) (*models.HistoryRecord, error) {
	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
		spinner.WithWriter(os.Stderr),
		spinner.WithSuffix(" generating..."),
	)
	sp.Start()
	rec, err := s.Generations.Await(ctx, id)
	sp.Stop()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.Generations.Cancel(id)
			return nil, goerr.New("generation cancelled", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed waiting for generation", goerr.V("id", id))
	}
	return rec, nil
}

func printResult(w io.Writer, rec *models.HistoryRecord) error {
	switch rec.Status {
	case models.StatusCompleted:
		v, ok := rec.SelectedVersion()
		if !ok {
			return goerr.New("completed record has no versions", goerr.V("id", rec.ID))
		}
		fmt.Fprintln(w, v.Output)
		return nil
	case models.StatusFailed:
		return goerr.New(rec.ErrorMessage, goerr.V("id", rec.ID))
	case models.StatusCancelled:
		return goerr.New("generation cancelled", goerr.V("id", rec.ID))
	case models.StatusPending, models.StatusGenerating:
		return goerr.New("generation did not finish", goerr.V("id", rec.ID), goerr.V("status", rec.Status))
	default:
		return goerr.New("unknown status", goerr.V("status", rec.Status))
	}
}

func requireID(c *cli.Command) (string, error) {
	id := strings.TrimSpace(c.Args().First())
	if id == "" {
		return "", goerr.New("record id is required")
	}
	return id, nil
}
