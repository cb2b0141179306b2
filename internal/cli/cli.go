package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	var cfg config

	cmd := &cli.Command{
		Name:  "prompter",
		Usage: "Turn rough prompt ideas into better prompts",
		Flags: globalFlags(&cfg),
		Commands: []*cli.Command{
			generateCommand(&cfg),
			historyCommand(&cfg),
			showCommand(&cfg),
			retryCommand(&cfg),
			deleteCommand(&cfg),
			templatesCommand(&cfg),
			exportCommand(&cfg),
			importCommand(&cfg),
			importLegacyCommand(&cfg),
			keysCommand(&cfg),
			modelsCommand(&cfg),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
