package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindEnvFile resolves filename to an existing regular file. Absolute paths
// are checked as given; relative names are looked up in the working
// directory and then in each parent. An empty filename means .env.
func FindEnvFile(filename string) (string, error) {
	if filename == "" {
		filename = ".env"
	}
	if filepath.IsAbs(filename) {
		if isRegularFile(filename) {
			return filename, nil
		}
		return "", fmt.Errorf("%s: %w", filename, os.ErrNotExist)
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for dir := wd; ; dir = filepath.Dir(dir) {
		if candidate := filepath.Join(dir, filename); isRegularFile(candidate) {
			return candidate, nil
		}
		if filepath.Dir(dir) == dir {
			return "", fmt.Errorf("%s not found above %s: %w", filename, wd, os.ErrNotExist)
		}
	}
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
