package export_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"budge/statements/cmd/export"
	"budge/statements/cmd/internal/clitest"
	"budge/statements/cmd/process"
	"budge/statements/internal/models"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type exportedRow struct {
	Date        string `csv:"date"`
	Account     string `csv:"account"`
	Description string `csv:"description"`
	Category    string `csv:"category"`
}

func TestExportCommand_Flags(t *testing.T) {
	format := export.Cmd.Flags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "f", format.Shorthand)
	assert.Equal(t, "csv", format.DefValue)

	output := export.Cmd.Flags().Lookup("output")
	require.NotNil(t, output)
	assert.Equal(t, "o", output.Shorthand)

	for _, name := range []string{"account", "from", "to", "description", "category", "classified", "unclassified"} {
		assert.NotNil(t, export.Cmd.Flags().Lookup(name), name)
	}
}

func TestFlags_Criteria(t *testing.T) {
	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		flags   export.Flags
		check   func(t *testing.T, f export.Flags)
		wantErr string
	}{
		{
			name:  "no filters",
			flags: export.Flags{},
			check: func(t *testing.T, f export.Flags) {
				c, err := f.Criteria()
				require.NoError(t, err)
				assert.Nil(t, c.From)
				assert.Nil(t, c.To)
				assert.Nil(t, c.Classified)
				assert.Equal(t, models.CategoryNone, c.Category)
			},
		},
		{
			name:  "date range and category",
			flags: export.Flags{From: "2024-03-01", To: "2024-04-01", Category: "dining", Account: "JCHK"},
			check: func(t *testing.T, f export.Flags) {
				c, err := f.Criteria()
				require.NoError(t, err)
				require.NotNil(t, c.From)
				require.NotNil(t, c.To)
				assert.True(t, march.Equal(*c.From))
				assert.True(t, april.Equal(*c.To))
				assert.Equal(t, models.CategoryDining, c.Category)
				assert.Equal(t, "JCHK", c.Account)
			},
		},
		{
			name:  "unclassified only",
			flags: export.Flags{Unclassified: true},
			check: func(t *testing.T, f export.Flags) {
				c, err := f.Criteria()
				require.NoError(t, err)
				require.NotNil(t, c.Classified)
				assert.False(t, *c.Classified)
			},
		},
		{name: "bad from", flags: export.Flags{From: "03/01/2024"}, wantErr: "invalid --from date"},
		{name: "bad to", flags: export.Flags{To: "soon"}, wantErr: "invalid --to date"},
		{name: "inverted range", flags: export.Flags{From: "2024-04-01", To: "2024-03-01"}, wantErr: "is before --from"},
		{name: "unknown category", flags: export.Flags{Category: "VACATION"}, wantErr: "unknown category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantErr != "" {
				_, err := tt.flags.Criteria()
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			tt.check(t, tt.flags)
		})
	}
}

func TestExportCommand_WritesFilteredCSV(t *testing.T) {
	dir := clitest.Workspace(t, "rules:\n  - name: coffee\n    category: DINING\n    description: [coffee]\n")
	statement := clitest.Statement(t, dir, "march.csv",
		"JCHK,03/14/2024,DEBIT,Coffee bar,3.00,,,",
		"SAV,03/02/2024,CREDIT,Interest,1.20,,,",
		"JCHK,03/01/2024,DEBIT,Coffee corner,4.50,,,",
		"JCHK,04/02/2024,DEBIT,Coffee bar,3.00,,,",
	)
	process.Cmd.SetOut(io.Discard)
	require.NoError(t, process.Cmd.RunE(process.Cmd, []string{statement}))

	output := filepath.Join(dir, "out", "march.csv")
	flags := map[string]string{
		"format":   "csv",
		"output":   output,
		"account":  "JCHK",
		"from":     "2024-03-01",
		"to":       "2024-03-31",
		"category": "",
	}
	for name, value := range flags {
		require.NoError(t, export.Cmd.Flags().Set(name, value))
	}

	var out bytes.Buffer
	export.Cmd.SetOut(&out)
	require.NoError(t, export.Cmd.RunE(export.Cmd, nil))
	assert.Equal(t, "Exported 2 record(s) to "+output+"\n", out.String())

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()

	var rows []exportedRow
	require.NoError(t, gocsv.UnmarshalFile(f, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-03-01", rows[0].Date)
	assert.Equal(t, "Coffee corner", rows[0].Description)
	assert.Equal(t, "2024-03-14", rows[1].Date)
	assert.Equal(t, "DINING", rows[1].Category)
}

func TestExportCommand_RejectsUnknownFormat(t *testing.T) {
	clitest.Workspace(t, "rules: []\n")
	require.NoError(t, export.Cmd.Flags().Set("format", "pdf"))
	require.NoError(t, export.Cmd.Flags().Set("output", filepath.Join(t.TempDir(), "x.pdf")))
	t.Cleanup(func() { _ = export.Cmd.Flags().Set("format", "csv") })

	err := export.Cmd.RunE(export.Cmd, nil)
	assert.ErrorContains(t, err, "unsupported export format")
}
