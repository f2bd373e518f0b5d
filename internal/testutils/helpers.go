// Package testutils holds fixtures shared by package tests: temporary source
// trees and ready-to-use configurations.
package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/conneroisu/srcguard/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// CreateSourceFile writes content to rel under dir, creating parent
// directories, and returns the full path.
func CreateSourceFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// CreateSourceTree creates a temporary directory holding files, keyed by
// slash-separated relative path.
func CreateSourceTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		CreateSourceFile(t, root, filepath.FromSlash(rel), content)
	}
	return root
}

// CreateTestConfig returns the default configuration, isolated from the
// global viper instance and the environment, with a short watch debounce.
func CreateTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(viper.New())
	require.NoError(t, err)
	cfg.Watch.Debounce = 20 * time.Millisecond
	return cfg
}
