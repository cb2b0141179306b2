package assets

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed prompts/*.md
var promptFiles embed.FS

// SystemPrompt returns the built-in system prompt text for a variant name.
func SystemPrompt(variant string) (string, error) {
	data, err := promptFiles.ReadFile("prompts/" + variant + ".md")
	if err != nil {
		return "", fmt.Errorf("system prompt %q not found: %w", variant, err)
	}
	return strings.TrimSpace(string(data)), nil
}
