package config

import (
	"os"
	"path/filepath"
)

const (
	runtimePathEnv     = "VRMENTOR_RUNTIME_PATH"
	defaultRuntimePath = ".vrmentor"
)

// GetRuntimePath resolves the runtime directory. Relative paths live under the user's home.
func GetRuntimePath() string {
	return resolveRuntimePath(os.Getenv(runtimePathEnv))
}

func resolveRuntimePath(path string) string {
	if path == "" {
		path = defaultRuntimePath
	}

	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}

func GetEnvFilePath() string {
	return filepath.Join(GetRuntimePath(), ".env")
}
