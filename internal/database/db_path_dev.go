//go:build !prod

package database

// GetDefaultDBPath returns the database path for development mode.
// In dev mode, the database is stored in the working directory for easy inspection.
func GetDefaultDBPath() string {
	return "prompter.db"
}

// ConfigDir returns the directory holding app data in development mode.
func ConfigDir() string {
	return "."
}

func IsDevelopment() bool {
	return true
}
