// Package clitest sets up throwaway workspaces for command tests.
package clitest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"budge/statements/cmd/root"

	"github.com/stretchr/testify/require"
)

// StatementHeader is the header line of a statement export.
const StatementHeader = "account,date,type,description,amount,posted_date,reference,memo"

// Workspace writes rules, accounts and a config file pointing every path into
// a fresh directory, and selects that config for the commands. The record
// snapshot lives at Snapshot(dir).
func Workspace(t *testing.T, rules string) string {
	t.Helper()
	dir := t.TempDir()
	Write(t, filepath.Join(dir, "rules.yaml"), rules)
	Write(t, filepath.Join(dir, "accounts.yaml"), "accounts:\n  - id: checking\n    marker: JCHK\n  - id: savings\n    marker: SAV\n")
	Write(t, filepath.Join(dir, "budge.yaml"), strings.Join([]string{
		"log:",
		"  level: error",
		"rules:",
		"  file: " + filepath.Join(dir, "rules.yaml"),
		"  mappings_file: " + filepath.Join(dir, "mappings.yaml"),
		"accounts:",
		"  file: " + filepath.Join(dir, "accounts.yaml"),
		"store:",
		"  path: " + Snapshot(dir),
	}, "\n")+"\n")

	root.ConfigFile = filepath.Join(dir, "budge.yaml")
	t.Cleanup(func() { root.ConfigFile = "" })
	return dir
}

// Snapshot is the record snapshot path of a workspace.
func Snapshot(dir string) string {
	return filepath.Join(dir, "records.yaml")
}

// Write creates path with content.
func Write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

// Statement writes a statement file with the given rows under dir.
func Statement(t *testing.T, dir, name string, rows ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	Write(t, path, StatementHeader+"\n"+strings.Join(rows, "\n")+"\n")
	return path
}
