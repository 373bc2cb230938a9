package pipeline

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"budge/statements/internal/logging"
	"budge/statements/internal/models"
	"budge/statements/internal/parsererror"
)

// maxLineBytes bounds a single statement line.
const maxLineBytes = 1024 * 1024

// fileResult is what reading one statement file produced.
type fileResult struct {
	index   int
	records []models.Record
	errs    []error
}

// readAll reads files with up to p.workers goroutines. Results come back in
// the order of files regardless of completion order.
func (p *Pipeline) readAll(files []string) []fileResult {
	results := make([]fileResult, len(files))
	if len(files) == 0 {
		return results
	}

	workers := p.workers
	if workers > len(files) {
		workers = len(files)
	}
	if workers <= 1 {
		for i, path := range files {
			results[i] = p.readFile(i, path)
		}
		return results
	}

	jobs := make(chan int, len(files))
	out := make(chan fileResult, len(files))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out <- p.readFile(i, files[i])
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(out)
	}()

	for result := range out {
		results[result.index] = result
	}

	p.logger.Debug("Concurrent read completed",
		logging.F(logging.FieldCount, len(files)),
		logging.F("workers", workers))
	return results
}

// readFile reads one statement file. The first line is a header and blank
// lines are ignored. Every row failure is collected; an open or read failure
// ends the file.
func (p *Pipeline) readFile(index int, path string) fileResult {
	result := fileResult{index: index}
	name := filepath.Base(path)

	f, err := os.Open(path) // #nosec G304 -- statement paths are user input by nature
	if err != nil {
		result.errs = append(result.errs, &parsererror.FileAccessError{
			File:     name,
			NotFound: errors.Is(err, fs.ErrNotExist),
			Err:      err,
		})
		return result
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			p.logger.WithError(cerr).Warn("Failed to close statement file", logging.F(logging.FieldFile, path))
		}
	}()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo == 1 {
			continue
		}

		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields, err := p.normalizer.Normalize(line)
		if err != nil {
			var loc parsererror.Locator
			if errors.As(err, &loc) {
				loc.Locate(name, lineNo)
			}
			result.errs = append(result.errs, err)
			continue
		}

		rec, err := p.factory.Build(fields, name, lineNo)
		if err != nil {
			result.errs = append(result.errs, err)
			continue
		}
		result.records = append(result.records, rec)
	}

	if err := scanner.Err(); err != nil {
		result.errs = append(result.errs, &parsererror.FileAccessError{File: name, Err: err})
	}

	p.logger.Debug("Statement file read",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(result.records)),
		logging.F("errors", len(result.errs)))
	return result
}
