// Package process handles statement ingestion
package process

import (
	"fmt"

	"budge/statements/cmd/root"

	"github.com/spf13/cobra"
)

// Cmd represents the process command
var Cmd = &cobra.Command{
	Use:   "process <file-or-directory>...",
	Short: "Ingest statement files into the record store",
	Long: `Ingest bank statement CSV files into the record store.

Directories are expanded to the statement files they contain. Every row is
classified, transfers are cleaned up and linked to their counterpart, and the
whole batch is committed at once. If any file or row fails to read, nothing is
committed and every problem is reported.

Example:
  budge process statements/2024-03/ savings.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: processFunc,
}

func processFunc(cmd *cobra.Command, args []string) (err error) {
	c, err := root.NewContainer(cmd)
	if err != nil {
		return err
	}
	defer root.CloseContainer(c, &err)

	files, err := c.GetScanner().Expand(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "No statement files to process")
		return err
	}

	if err := c.GetPipeline().Process(root.Context(cmd), files); err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Processed %d file(s)\n", len(files))
	return err
}
