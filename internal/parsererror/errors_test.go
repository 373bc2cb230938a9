package parsererror

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileAccessError(t *testing.T) {
	notFound := &FileAccessError{File: "feb.csv", NotFound: true, Err: fs.ErrNotExist}
	assert.Equal(t, "feb.csv wasn't found!", notFound.Error())
	assert.True(t, errors.Is(notFound, fs.ErrNotExist))

	denied := &FileAccessError{File: "mar.csv", Err: fs.ErrPermission}
	assert.Equal(t, "I/O error when opening mar.csv to read: permission denied", denied.Error())
}

func TestMalformedRowError(t *testing.T) {
	err := &MalformedRowError{Tokens: 5, Want: 8}
	assert.Equal(t, "malformed row: expected at least 8 fields, got 5", err.Error())

	err.Locate("jan.csv", 4)
	assert.Equal(t, "jan.csv:4: malformed row: expected at least 8 fields, got 5", err.Error())
}

func TestFieldParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      *FieldParseError
		expected string
	}{
		{
			name:     "bad date with cause",
			err:      &FieldParseError{Location: Location{File: "jan.csv", Line: 3}, Kind: BadDate, Field: "date", Value: "13/45/2024", Err: errors.New("no layout matched")},
			expected: "jan.csv:3: bad date in date '13/45/2024': no layout matched",
		},
		{
			name:     "bad amount without location",
			err:      &FieldParseError{Kind: BadAmount, Field: "amount", Value: "abc"},
			expected: "bad amount in amount 'abc'",
		},
		{
			name:     "missing value",
			err:      &FieldParseError{Location: Location{File: "x.csv", Line: 3}, Kind: MissingField, Field: "account", Value: ""},
			expected: "x.csv:3: missing value in account ''",
		},
		{
			name:     "file only",
			err:      &FieldParseError{Location: Location{File: "x.csv"}, Kind: WrongFieldCount, Field: "account", Value: ""},
			expected: "x.csv: wrong field count in account ''",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestLocatorImplementations(t *testing.T) {
	var _ Locator = &MalformedRowError{}
	var _ Locator = &FieldParseError{}
}

func TestIngestionError(t *testing.T) {
	assert.NoError(t, Join(nil))

	first := &FileAccessError{File: "a.csv", NotFound: true}
	second := &MalformedRowError{Location: Location{File: "b.csv", Line: 2}, Tokens: 3, Want: 8}
	err := Join([]error{first, second})
	require.Error(t, err)

	assert.Equal(t, "a.csv wasn't found!\nb.csv:2: malformed row: expected at least 8 fields, got 3", err.Error())

	var agg *IngestionError
	require.True(t, errors.As(err, &agg))
	assert.Equal(t, 2, agg.Len())

	var malformed *MalformedRowError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, 3, malformed.Tokens)
}

func TestIsRowError(t *testing.T) {
	assert.True(t, IsRowError(&MalformedRowError{}))
	assert.True(t, IsRowError(&FieldParseError{Kind: BadAmount}))
	assert.False(t, IsRowError(&FileAccessError{File: "a"}))
	assert.False(t, IsRowError(errors.New("other")))
}

func TestCategorizationError(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := &CategorizationError{Record: "k1", Strategy: "AI", Err: cause}
	assert.Equal(t, "categorization failed for k1 using AI: quota exceeded", err.Error())
	assert.ErrorIs(t, err, cause)
}
