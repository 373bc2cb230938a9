// Package validation checks user-supplied paths and file modes.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// formatExtensions lists the file extensions accepted per export format.
var formatExtensions = map[string][]string{
	"csv":  {".csv", ".txt"},
	"xlsx": {".xlsx"},
}

// IsValidOutputPath checks that path can receive an export in format: it must
// not be an existing directory and its extension must suit the format.
func IsValidOutputPath(path, format string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("output path is empty")
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return fmt.Errorf("output path %s is a directory", path)
	case err != nil && !os.IsNotExist(err):
		return fmt.Errorf("error checking path %s: %w", path, err)
	}

	allowed, ok := formatExtensions[format]
	if !ok {
		return fmt.Errorf("unsupported output format: %s", format)
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}
	return fmt.Errorf("output path %s should end in %s for %s output", path, strings.Join(allowed, " or "), format)
}

// IsValidFilePermissions checks that a file holding statement data is not
// accessible to other users.
func IsValidFilePermissions(mode os.FileMode) error {
	if mode&0007 != 0 {
		return fmt.Errorf("file permissions are too permissive: %s. Recommended 0600", mode.String())
	}
	return nil
}
