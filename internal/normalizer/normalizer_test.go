package normalizer

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"budge/statements/internal/models"
	"budge/statements/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contract applies the one-step contraction literally, as a reference for
// the direct join used by Normalize.
func contract(tokens []string) []string {
	out := make([]string, 0, len(tokens)-1)
	out = append(out, tokens[0], tokens[1], tokens[2])
	out = append(out, tokens[3]+" "+tokens[4])
	return append(out, tokens[5:]...)
}

func TestNormalize_ExactWidthPassesThrough(t *testing.T) {
	n := New("")
	fields, err := n.Normalize("JCHK,01/05/2024,DEBIT,Coffee Shop,-3.50,01/06/2024,REF1,memo")
	require.NoError(t, err)

	assert.Equal(t, models.NormalizedFields{
		"JCHK", "01/05/2024", "DEBIT", "Coffee Shop", "-3.50", "01/06/2024", "REF1", "memo",
	}, fields)
}

func TestNormalize_MergesEmbeddedDelimiters(t *testing.T) {
	n := New(",")
	fields, err := n.Normalize("JCHK,01/05/2024,DEBIT,Coffee, Shop, Downtown,3.50,,,")
	require.NoError(t, err)

	assert.Equal(t, "JCHK", fields[models.FieldAccount])
	assert.Equal(t, "01/05/2024", fields[models.FieldDate])
	assert.Equal(t, "DEBIT", fields[models.FieldType])
	assert.Equal(t, "Coffee  Shop  Downtown", fields.Description())
	assert.Equal(t, "3.50", fields[models.FieldAmount])
	assert.Equal(t, "", fields[models.FieldPostedDate])
	assert.Equal(t, "", fields[models.FieldReference])
	assert.Equal(t, "", fields[models.FieldMemo])
}

func TestNormalize_ShortLinesAreMalformed(t *testing.T) {
	n := New(",")
	for _, line := range []string{"", "JCHK", "JCHK,01/05/2024,DEBIT,Coffee,3.50,,"} {
		t.Run(fmt.Sprintf("%q", line), func(t *testing.T) {
			_, err := n.Normalize(line)
			var malformed *parsererror.MalformedRowError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, len(strings.Split(line, ",")), malformed.Tokens)
			assert.Equal(t, models.FieldCount, malformed.Want)
		})
	}
}

func TestNormalize_CustomDelimiter(t *testing.T) {
	n := New(";")
	fields, err := n.Normalize("SAV;2024-02-01;CREDIT;Interest;paid;1.25;;;")
	require.NoError(t, err)
	assert.Equal(t, "Interest paid", fields.Description())
	assert.Equal(t, "1.25", fields[models.FieldAmount])
}

func TestNormalize_MatchesStepwiseContraction(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	n := New(",")

	for i := 0; i < 200; i++ {
		count := models.FieldCount + rng.Intn(10)
		tokens := make([]string, count)
		for j := range tokens {
			tokens[j] = fmt.Sprintf("t%d", rng.Intn(1000))
		}
		line := strings.Join(tokens, ",")

		expected := tokens
		for k := 0; k < count-models.FieldCount; k++ {
			expected = contract(expected)
		}
		require.Len(t, expected, models.FieldCount)

		fields, err := n.Normalize(line)
		require.NoError(t, err)
		assert.Equal(t, expected, fields[:], "line %q", line)
		assert.Equal(t, tokens[:3], fields[:3], "leading fields must be unchanged")

		again, err := n.Normalize(line)
		require.NoError(t, err)
		assert.Equal(t, fields, again, "normalize must be deterministic")
	}
}
