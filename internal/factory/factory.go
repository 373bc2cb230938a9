// Package factory builds immutable Records from normalized statement rows.
package factory

import (
	"errors"
	"strings"

	"budge/statements/internal/dateutils"
	"budge/statements/internal/models"
	"budge/statements/internal/parsererror"

	"github.com/shopspring/decimal"
)

// Option configures a RecordFactory.
type Option func(*RecordFactory)

// WithDateLayouts sets the accepted date layouts, tried in order.
func WithDateLayouts(layouts ...string) Option {
	return func(f *RecordFactory) {
		if len(layouts) > 0 {
			f.layouts = layouts
		}
	}
}

// WithKeySource replaces the random key source. Used by tests.
func WithKeySource(next func() models.RecordKey) Option {
	return func(f *RecordFactory) {
		if next != nil {
			f.nextKey = next
		}
	}
}

// RecordFactory turns models.NormalizedFields into models.Record values.
type RecordFactory struct {
	layouts []string
	nextKey func() models.RecordKey
}

// New creates a RecordFactory with the default date layouts and uuid keys.
func New(opts ...Option) *RecordFactory {
	f := &RecordFactory{
		layouts: dateutils.DefaultLayouts,
		nextKey: models.NewRecordKey,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Build parses the fields of one row. Dates and amounts are validated strictly;
// a failure is returned as *parsererror.FieldParseError located at sourceFile:line.
func (f *RecordFactory) Build(fields models.NormalizedFields, sourceFile string, line int) (models.Record, error) {
	loc := parsererror.Location{File: sourceFile, Line: line}

	account := strings.TrimSpace(fields[models.FieldAccount])
	if account == "" {
		return models.Record{}, &parsererror.FieldParseError{
			Location: loc, Kind: parsererror.MissingField, Field: "account", Value: fields[models.FieldAccount],
			Err: errors.New("account marker is empty"),
		}
	}

	date, err := dateutils.ParseStrict(fields[models.FieldDate], f.layouts)
	if err != nil {
		return models.Record{}, &parsererror.FieldParseError{
			Location: loc, Kind: parsererror.BadDate, Field: "date", Value: fields[models.FieldDate], Err: err,
		}
	}

	posted, err := dateutils.ParseOptional(fields[models.FieldPostedDate], f.layouts)
	if err != nil {
		return models.Record{}, &parsererror.FieldParseError{
			Location: loc, Kind: parsererror.BadDate, Field: "posted_date", Value: fields[models.FieldPostedDate], Err: err,
		}
	}

	txType := strings.TrimSpace(fields[models.FieldType])
	amount, err := ParseAmount(fields[models.FieldAmount])
	if err != nil {
		return models.Record{}, &parsererror.FieldParseError{
			Location: loc, Kind: parsererror.BadAmount, Field: "amount", Value: fields[models.FieldAmount], Err: err,
		}
	}

	return models.Record{
		Key:         f.nextKey(),
		Account:     account,
		Date:        date,
		PostedDate:  posted,
		Type:        txType,
		Description: strings.TrimSpace(fields[models.FieldDescription]),
		Amount:      signForType(amount, txType),
		Reference:   strings.TrimSpace(fields[models.FieldReference]),
		Memo:        strings.TrimSpace(fields[models.FieldMemo]),
		SourceFile:  sourceFile,
		SourceLine:  line,
	}, nil
}

// ParseAmount parses a statement amount. A single leading currency symbol is
// allowed, as is a parenthesised negative; anything else must be a plain decimal.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, errors.New("empty amount")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	signs := 0
	consumeSign := func() {
		if s == "" || (s[0] != '-' && s[0] != '+') {
			return
		}
		if s[0] == '-' {
			negative = !negative
		}
		s = strings.TrimSpace(s[1:])
		signs++
	}
	consumeSign()
	s = trimCurrency(s)
	consumeSign()
	if signs > 1 || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return decimal.Zero, errors.New("misplaced sign")
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

func trimCurrency(s string) string {
	for _, symbol := range []string{"$", "€", "£"} {
		if strings.HasPrefix(s, symbol) {
			return strings.TrimSpace(strings.TrimPrefix(s, symbol))
		}
	}
	return s
}

// signForType applies the DEBIT/CREDIT sign convention; other types keep
// the sign written in the file.
func signForType(amount decimal.Decimal, txType string) decimal.Decimal {
	switch strings.ToUpper(txType) {
	case models.TypeDebit:
		return amount.Abs().Neg()
	case models.TypeCredit:
		return amount.Abs()
	default:
		return amount
	}
}
