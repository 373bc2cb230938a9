// Package normalizer reduces ragged statement lines to a fixed number of fields.
//
// Statement exports do not quote their description column, so a description
// containing the delimiter arrives split over several tokens. The normalizer
// rebuilds it by width: every token beyond the expected arity is folded back
// into the description slot, which is the only column allowed to contain the
// delimiter.
package normalizer

import (
	"strings"

	"budge/statements/internal/models"
	"budge/statements/internal/parsererror"
)

// DefaultDelimiter separates tokens in statement exports.
const DefaultDelimiter = ","

// Normalizer splits raw lines into models.NormalizedFields.
type Normalizer struct {
	delimiter string
}

// New returns a Normalizer splitting on delimiter; empty means DefaultDelimiter.
func New(delimiter string) *Normalizer {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	return &Normalizer{delimiter: delimiter}
}

// Normalize splits line and merges surplus tokens into the description field.
// Lines with fewer than models.FieldCount tokens yield a *parsererror.MalformedRowError.
func (n *Normalizer) Normalize(line string) (models.NormalizedFields, error) {
	var fields models.NormalizedFields

	tokens := strings.Split(line, n.delimiter)
	if len(tokens) < models.FieldCount {
		return fields, &parsererror.MalformedRowError{Tokens: len(tokens), Want: models.FieldCount}
	}

	// Each contraction joins tokens 3 and 4 with a single space, so after
	// extra contractions slot 3 holds tokens 3..3+extra joined by spaces.
	extra := len(tokens) - models.FieldCount
	last := models.FieldDescription + extra

	copy(fields[:models.FieldDescription], tokens[:models.FieldDescription])
	fields[models.FieldDescription] = strings.Join(tokens[models.FieldDescription:last+1], " ")
	copy(fields[models.FieldDescription+1:], tokens[last+1:])

	return fields, nil
}
