package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func keysCommand(cfg *config) *cli.Command {
	return &cli.Command{
		Name:  "keys",
		Usage: "Manage provider API keys in the system keyring",
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Store the API key for a provider (reads PROMPTER_API_KEY when no key is given)",
				ArgsUsage: "<provider> [key]",
				Action: func(ctx context.Context, c *cli.Command) error {
					provider := strings.TrimSpace(c.Args().Get(0))
					key := strings.TrimSpace(c.Args().Get(1))
					if key == "" {
						key = strings.TrimSpace(os.Getenv("PROMPTER_API_KEY"))
					}
					if provider == "" || key == "" {
						return goerr.New("provider and key are required")
					}
					s, err := cfg.open(ctx)
					if err != nil {
						return err
					}
					defer s.close()
					return s.Keyring.StoreApiKey(provider, []byte(key))
				},
			},
			{
				Name:      "delete",
				Usage:     "Remove the API key for a provider",
				ArgsUsage: "<provider>",
				Action: func(ctx context.Context, c *cli.Command) error {
					s, err := cfg.open(ctx)
					if err != nil {
						return err
					}
					defer s.close()
					return s.Keyring.DeleteApiKey(c.Args().First())
				},
			},
			{
				Name:  "list",
				Usage: "List providers with a stored key",
				Action: func(ctx context.Context, c *cli.Command) error {
					s, err := cfg.open(ctx)
					if err != nil {
						return err
					}
					defer s.close()
					keys, err := s.Keyring.ListApiKeys()
					if err != nil {
						return err
					}
					for _, k := range keys {
						fmt.Fprintln(c.Root().Writer, k["provider"])
					}
					return nil
				},
			},
		},
	}
}
