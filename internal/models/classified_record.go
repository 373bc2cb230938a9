package models

import (
	"github.com/shopspring/decimal"
)

// ClassifiedRecord wraps a Record with the outcome of classification.
type ClassifiedRecord struct {
	Record `yaml:",inline"`

	Category          Category        `yaml:"category,omitempty"`
	ParsedDescription string          `yaml:"parsed_description,omitempty"`
	ParsedAmount      decimal.Decimal `yaml:"parsed_amount"`
	CounterAccount    string          `yaml:"counter_account,omitempty"`
	LinkedKey         RecordKey       `yaml:"linked_key,omitempty"`
	Rule              string          `yaml:"rule,omitempty"`
	IsClassified      bool            `yaml:"is_classified"`
}

// Classification is what a rule engine assigns to a record on a match.
type Classification struct {
	Category    Category
	Description string
	Amount      decimal.Decimal
	Rule        string
}

// NewClassifiedRecord wraps r in an unclassified ClassifiedRecord.
func NewClassifiedRecord(r Record) ClassifiedRecord {
	return ClassifiedRecord{Record: r}
}

// Clone returns an independent copy of the record.
func (c ClassifiedRecord) Clone() ClassifiedRecord {
	c.Record = c.Record.clone()
	return c
}

// Apply stores a classification and marks the record as classified.
// Empty descriptions fall back to the raw description.
func (c *ClassifiedRecord) Apply(cl Classification) {
	c.Category = cl.Category
	c.ParsedDescription = cl.Description
	if c.ParsedDescription == "" {
		c.ParsedDescription = c.Description
	}
	c.ParsedAmount = cl.Amount
	c.Rule = cl.Rule
	c.IsClassified = true
}

// IsTransfer reports whether the record was classified as a transfer.
func (c ClassifiedRecord) IsTransfer() bool {
	return c.Category.IsTransfer()
}

// DisplayDescription returns the parsed description, or the raw one if unset.
func (c ClassifiedRecord) DisplayDescription() string {
	if c.ParsedDescription != "" {
		return c.ParsedDescription
	}
	return c.Description
}

// Equal reports whether two classified records carry identical data.
func (c ClassifiedRecord) Equal(other ClassifiedRecord) bool {
	return c.Record.Equal(other.Record) &&
		c.Category == other.Category &&
		c.ParsedDescription == other.ParsedDescription &&
		c.ParsedAmount.Equal(other.ParsedAmount) &&
		c.CounterAccount == other.CounterAccount &&
		c.LinkedKey == other.LinkedKey &&
		c.Rule == other.Rule &&
		c.IsClassified == other.IsClassified
}
