package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// GetGlobalConfigDir returns the path to the global configuration directory
// (~/.promptdash). It's a variable to allow overriding in tests.
var GetGlobalConfigDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".promptdash"), nil
}

// GetContextStoreDir returns the directory holding per-project context.
// Resolution order (first match wins):
// 1. Explicit config via "store.contextDir" (Viper/env/flag)
// 2. Local project directory: .promptdash/context (if exists)
// 3. Global fallback: ~/.promptdash/context
func GetContextStoreDir() string {
	if path := viper.GetString("store.contextDir"); path != "" {
		return path
	}

	localDir := filepath.Join(".promptdash", "context")
	if info, err := os.Stat(localDir); err == nil && info.IsDir() {
		return localDir
	}

	dir, err := GetGlobalConfigDir()
	if err != nil {
		return "./context"
	}
	return filepath.Join(dir, "context")
}

// GetAnalyticsDBPath returns the analytics database file location, resolved
// the same way as the context store directory.
func GetAnalyticsDBPath() string {
	if path := viper.GetString("analytics.dbPath"); path != "" {
		return path
	}

	localDir := ".promptdash"
	if info, err := os.Stat(localDir); err == nil && info.IsDir() {
		return filepath.Join(localDir, "analytics.db")
	}

	dir, err := GetGlobalConfigDir()
	if err != nil {
		return "./analytics.db"
	}
	return filepath.Join(dir, "analytics.db")
}
