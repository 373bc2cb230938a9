// Package scanner turns command line paths into the list of statement files
// to ingest.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"budge/statements/internal/logging"
)

// DefaultExtensions are the statement file extensions picked up from
// directories.
var DefaultExtensions = []string{".csv"}

// StatementScanner expands directories into statement files.
type StatementScanner struct {
	extensions map[string]bool
	logger     logging.Logger
}

// NewStatementScanner creates a scanner matching the given extensions,
// case-insensitively. Nil or empty means DefaultExtensions.
func NewStatementScanner(extensions []string, logger logging.Logger) *StatementScanner {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	s := &StatementScanner{
		extensions: make(map[string]bool, len(extensions)),
		logger:     logging.OrDefault(logger).WithField("component", "StatementScanner"),
	}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.extensions[ext] = true
	}
	return s
}

// Expand returns the statement files named by paths, in argument order.
// A directory contributes its own matching files, sorted by name; its
// subdirectories are not entered. Files and paths that do not exist are
// passed through unchanged so ingestion can report them.
func (s *StatementScanner) Expand(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				s.logger.WithError(err).Warn("Failed to stat path", logging.F(logging.FieldFile, p))
			}
			files = append(files, p)
			continue
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		dirFiles, err := s.scanDirectory(p)
		if err != nil {
			return nil, err
		}
		files = append(files, dirFiles...)
	}

	s.logger.Debug("Input paths expanded",
		logging.F("paths", len(paths)),
		logging.F(logging.FieldCount, len(files)))
	return files, nil
}

func (s *StatementScanner) scanDirectory(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !s.matches(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)

	if len(files) == 0 {
		s.logger.Warn("No statement files in directory", logging.F(logging.FieldFile, dir))
	}
	return files, nil
}

func (s *StatementScanner) matches(name string) bool {
	return s.extensions[strings.ToLower(filepath.Ext(name))]
}
