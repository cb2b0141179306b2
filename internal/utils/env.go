package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

// LoadEnv loads the project root .env followed by extra files. Missing files
// are skipped and values already in the environment are never overridden.
func LoadEnv(extra ...string) error {
	var paths []string
	if root, err := FindProjectRoot(); err == nil {
		paths = append(paths, filepath.Join(root, ".env"))
	}
	paths = append(paths, extra...)

	for _, p := range paths {
		if p == "" || !FileExists(p) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}
