package integration_tests

import (
	"os"
	"path/filepath"
)

func writeLegacy(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	doc := `[{"id":"legacy-1","promptText":"legacy idea","createdAt":"2024-03-01T09:00:00Z","output":"legacy output"}]`
	return os.WriteFile(path, []byte(doc), 0o600)
}
