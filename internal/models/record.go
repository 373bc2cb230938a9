package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordKey identifies a record within a store. It is assigned once when the
// record is built and survives cloning and reprocessing.
type RecordKey string

// NewRecordKey returns a fresh random key.
func NewRecordKey() RecordKey {
	return RecordKey(uuid.NewString())
}

// IsZero reports whether the key was never assigned.
func (k RecordKey) IsZero() bool {
	return k == ""
}

func (k RecordKey) String() string {
	return string(k)
}

// Record is a transaction as read from a statement file. Records are built
// once by the factory and never modified afterwards.
type Record struct {
	Key         RecordKey       `yaml:"key"`
	Account     string          `yaml:"account"`
	Date        time.Time       `yaml:"date"`
	PostedDate  *time.Time      `yaml:"posted_date,omitempty"`
	Type        string          `yaml:"type"`
	Description string          `yaml:"description"`
	Amount      decimal.Decimal `yaml:"amount"`
	Reference   string          `yaml:"reference,omitempty"`
	Memo        string          `yaml:"memo,omitempty"`
	SourceFile  string          `yaml:"source_file"`
	SourceLine  int             `yaml:"source_line"`
}

// Equal reports whether two records carry identical data.
func (r Record) Equal(other Record) bool {
	return r.Key == other.Key &&
		r.Account == other.Account &&
		r.Date.Equal(other.Date) &&
		equalOptionalTime(r.PostedDate, other.PostedDate) &&
		r.Type == other.Type &&
		r.Description == other.Description &&
		r.Amount.Equal(other.Amount) &&
		r.Reference == other.Reference &&
		r.Memo == other.Memo &&
		r.SourceFile == other.SourceFile &&
		r.SourceLine == other.SourceLine
}

func (r Record) clone() Record {
	if r.PostedDate != nil {
		posted := *r.PostedDate
		r.PostedDate = &posted
	}
	return r
}

func equalOptionalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
