// Package transfer cleans up the descriptions of inter-account transfers.
package transfer

import (
	"strings"

	"budge/statements/internal/logging"
	"budge/statements/internal/models"
)

// DefaultBoilerplate lists the channel tags banks wrap around transfer
// descriptions.
var DefaultBoilerplate = []string{
	"- -SCU Mobile/",
	"Home Banking Transfer/",
	"/-SCU Mobile",
}

// leadingSeparator is dropped once from the start of a cleaned description.
const leadingSeparator = "- "

// Resolver strips boilerplate from transfer-classified records. Working out
// which account a transfer went to is left to the account matcher.
type Resolver struct {
	boilerplate []string
	logger      logging.Logger
}

// NewResolver creates a Resolver removing the given literals; nil or empty
// means DefaultBoilerplate.
func NewResolver(boilerplate []string, logger logging.Logger) *Resolver {
	if len(boilerplate) == 0 {
		boilerplate = DefaultBoilerplate
	}
	return &Resolver{
		boilerplate: boilerplate,
		logger:      logging.OrDefault(logger),
	}
}

// Resolve rewrites rec.ParsedDescription in place. Records not classified as
// transfers are left untouched.
func (r *Resolver) Resolve(rec *models.ClassifiedRecord) {
	if rec == nil || !rec.IsTransfer() {
		return
	}

	before := rec.DisplayDescription()
	cleaned := Clean(before, r.boilerplate)
	rec.ParsedDescription = cleaned

	r.logger.Debug("Transfer description cleaned",
		logging.F(logging.FieldRecordKey, rec.Key),
		logging.F("before", before),
		logging.F("after", cleaned))
}

// Clean removes every occurrence of each boilerplate literal, then a single
// leading "- " separator, then surrounding whitespace. Literals that are not
// present are ignored.
func Clean(description string, boilerplate []string) string {
	for _, literal := range boilerplate {
		if literal == "" {
			continue
		}
		description = strings.ReplaceAll(description, literal, "")
	}
	description = strings.TrimPrefix(strings.TrimLeft(description, " "), leadingSeparator)
	return strings.TrimSpace(description)
}
