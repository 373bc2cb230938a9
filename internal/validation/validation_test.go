package validation_test

import (
	"os"
	"path/filepath"
	"testing"

	"budge/statements/internal/validation"

	"github.com/stretchr/testify/assert"
)

func TestIsValidOutputPath(t *testing.T) {
	tmpDir := t.TempDir()
	existing := filepath.Join(tmpDir, "old.csv")
	assert.NoError(t, os.WriteFile(existing, []byte("x"), 0600))

	tests := []struct {
		name        string
		path        string
		format      string
		errContains string
	}{
		{name: "new csv file", path: filepath.Join(tmpDir, "out.csv"), format: "csv"},
		{name: "csv as txt", path: filepath.Join(tmpDir, "out.TXT"), format: "csv"},
		{name: "overwrite existing file", path: existing, format: "csv"},
		{name: "new xlsx file", path: filepath.Join(tmpDir, "out.xlsx"), format: "xlsx"},
		{name: "empty path", path: " ", format: "csv", errContains: "output path is empty"},
		{name: "directory", path: tmpDir, format: "csv", errContains: "is a directory"},
		{name: "extension mismatch", path: filepath.Join(tmpDir, "out.csv"), format: "xlsx", errContains: "should end in .xlsx"},
		{name: "unknown format", path: filepath.Join(tmpDir, "out.json"), format: "json", errContains: "unsupported output format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.IsValidOutputPath(tt.path, tt.format)
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errContains)
		})
	}
}

func TestIsValidFilePermissions(t *testing.T) {
	tests := []struct {
		name        string
		mode        os.FileMode
		expectError bool
	}{
		{"owner only", 0600, false},
		{"group readable", 0640, false},
		{"world readable", 0644, true},
		{"world writable", 0666, true},
		{"everything", 0777, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.IsValidFilePermissions(tt.mode)
			if tt.expectError {
				assert.ErrorContains(t, err, "too permissive")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
