package process_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"budge/statements/cmd/internal/clitest"
	"budge/statements/cmd/process"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coffeeRule = "rules:\n  - name: coffee\n    category: DINING\n    description: [coffee]\n"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	process.Cmd.SetOut(&out)
	err := process.Cmd.RunE(process.Cmd, args)
	return out.String(), err
}

func TestProcessCommand_Metadata(t *testing.T) {
	assert.True(t, strings.HasPrefix(process.Cmd.Use, "process"))
	assert.Contains(t, process.Cmd.Short, "Ingest statement files")
	assert.NotNil(t, process.Cmd.RunE)
	assert.Error(t, process.Cmd.Args(process.Cmd, nil))
}

func TestProcessCommand_CommitsDirectory(t *testing.T) {
	dir := clitest.Workspace(t, coffeeRule)
	statements := filepath.Join(dir, "statements")
	require.NoError(t, os.Mkdir(statements, 0750))
	clitest.Statement(t, statements, "march.csv", "JCHK,03/12/2024,DEBIT,Coffee,Shop,4.50,,,")

	out, err := run(t, statements)
	require.NoError(t, err)
	assert.Equal(t, "Processed 1 file(s)\n", out)

	data, err := os.ReadFile(clitest.Snapshot(dir))
	require.NoError(t, err)
	assert.Contains(t, string(data), "DINING")
	assert.Contains(t, string(data), "Coffee Shop")
}

func TestProcessCommand_ReportsEveryProblem(t *testing.T) {
	dir := clitest.Workspace(t, coffeeRule)
	good := clitest.Statement(t, dir, "good.csv", "JCHK,03/12/2024,DEBIT,Coffee bar,3.00,,,")
	bad := clitest.Statement(t, dir, "bad.csv", "JCHK,03/12/2024")

	_, err := run(t, good, bad, filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.Equal(t,
		"bad.csv:2: malformed row: expected at least 8 fields, got 2\nmissing.csv wasn't found!",
		err.Error())

	data, err := os.ReadFile(clitest.Snapshot(dir))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Coffee bar")
}

func TestProcessCommand_EmptyDirectory(t *testing.T) {
	dir := clitest.Workspace(t, coffeeRule)
	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.Mkdir(empty, 0750))

	out, err := run(t, empty)
	require.NoError(t, err)
	assert.Equal(t, "No statement files to process\n", out)
}
