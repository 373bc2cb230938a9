// Package export writes classified records to CSV and XLSX files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"budge/statements/internal/dateutils"
	"budge/statements/internal/logging"
	"budge/statements/internal/models"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

// Supported output formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// SheetName is the worksheet XLSX exports are written to.
const SheetName = "Records"

// Row is the flat export layout of a classified record.
type Row struct {
	Date              string `csv:"date"`
	Account           string `csv:"account"`
	Type              string `csv:"type"`
	Description       string `csv:"description"`
	Amount            string `csv:"amount"`
	PostedDate        string `csv:"posted_date"`
	Reference         string `csv:"reference"`
	Memo              string `csv:"memo"`
	Category          string `csv:"category"`
	ParsedDescription string `csv:"parsed_description"`
	ParsedAmount      string `csv:"parsed_amount"`
	CounterAccount    string `csv:"counter_account"`
	Classified        bool   `csv:"classified"`
	Rule              string `csv:"rule"`
	Key               string `csv:"key"`
	LinkedKey         string `csv:"linked_key"`
	SourceFile        string `csv:"source_file"`
	SourceLine        int    `csv:"source_line"`
}

var headers = []string{
	"date", "account", "type", "description", "amount", "posted_date", "reference", "memo",
	"category", "parsed_description", "parsed_amount", "counter_account", "classified", "rule",
	"key", "linked_key", "source_file", "source_line",
}

func (r Row) values() []interface{} {
	return []interface{}{
		r.Date, r.Account, r.Type, r.Description, r.Amount, r.PostedDate, r.Reference, r.Memo,
		r.Category, r.ParsedDescription, r.ParsedAmount, r.CounterAccount, r.Classified, r.Rule,
		r.Key, r.LinkedKey, r.SourceFile, r.SourceLine,
	}
}

// ParseFormat validates an output format name.
func ParseFormat(name string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(name)); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want %s or %s)", name, FormatCSV, FormatXLSX)
	}
}

// SortRecords returns records ordered by date. Records on the same date keep
// their relative order.
func SortRecords(records []models.ClassifiedRecord) []models.ClassifiedRecord {
	sorted := make([]models.ClassifiedRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// ToRows converts records to export rows in date order.
func ToRows(records []models.ClassifiedRecord) []Row {
	sorted := SortRecords(records)
	rows := make([]Row, len(sorted))
	for i, rec := range sorted {
		row := Row{
			Date:              dateutils.ToISODate(rec.Date),
			Account:           rec.Account,
			Type:              rec.Type,
			Description:       rec.Description,
			Amount:            rec.Amount.StringFixed(2),
			Reference:         rec.Reference,
			Memo:              rec.Memo,
			Category:          rec.Category.String(),
			ParsedDescription: rec.ParsedDescription,
			CounterAccount:    rec.CounterAccount,
			Classified:        rec.IsClassified,
			Rule:              rec.Rule,
			Key:               rec.Key.String(),
			LinkedKey:         rec.LinkedKey.String(),
			SourceFile:        rec.SourceFile,
			SourceLine:        rec.SourceLine,
		}
		if rec.PostedDate != nil {
			row.PostedDate = dateutils.ToISODate(*rec.PostedDate)
		}
		if rec.IsClassified {
			row.ParsedAmount = rec.ParsedAmount.StringFixed(2)
		}
		rows[i] = row
	}
	return rows
}

// Exporter writes records to files.
type Exporter struct {
	delimiter rune
	logger    logging.Logger
}

// NewExporter creates an Exporter. A zero delimiter means comma.
func NewExporter(delimiter rune, logger logging.Logger) *Exporter {
	if delimiter == 0 {
		delimiter = ','
	}
	return &Exporter{delimiter: delimiter, logger: logging.OrDefault(logger)}
}

// Write dispatches on format.
func (e *Exporter) Write(format string, records []models.ClassifiedRecord, path string) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	if f == FormatXLSX {
		return e.WriteXLSX(records, path)
	}
	return e.WriteCSV(records, path)
}

// WriteCSV writes records to a CSV file with a header row.
func (e *Exporter) WriteCSV(records []models.ClassifiedRecord, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	file, err := os.Create(path) // #nosec G304 -- output path is user supplied
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			e.logger.WithError(err).Warn("Failed to close file")
		}
	}()

	rows := ToRows(records)
	csvWriter := csv.NewWriter(file)
	csvWriter.Comma = e.delimiter
	if err := gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}

	e.logger.Info("Records exported",
		logging.F(logging.FieldOutputFile, path),
		logging.F(logging.FieldCount, len(rows)),
		logging.F("format", FormatCSV))
	return nil
}

// WriteXLSX writes records to a single-sheet workbook with a header row.
func (e *Exporter) WriteXLSX(records []models.ClassifiedRecord, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.WithError(err).Warn("Failed to close workbook")
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("error naming sheet: %w", err)
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	rows := ToRows(records)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row.values()
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("error writing row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("error saving workbook: %w", err)
	}

	e.logger.Info("Records exported",
		logging.F(logging.FieldOutputFile, path),
		logging.F(logging.FieldCount, len(rows)),
		logging.F("format", FormatXLSX))
	return nil
}
