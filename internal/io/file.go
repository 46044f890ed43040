package io

import (
	"fmt"
	"os"
)

// FileExists checks to see if a regular file exists at the given path.
// A directory at the path is reported as not existing.
func FileExists(filePath string) (bool, error) {
	info, err := os.Stat(filePath)
	switch {
	case os.IsNotExist(err):
		return false, nil
	case err == nil:
		return !info.IsDir(), nil
	default:
		return false, fmt.Errorf("failed to check for existence of file at path '%s': %w", filePath, err)
	}
}
