// Package reprocess handles reclassification of stored records
package reprocess

import (
	"fmt"

	"budge/statements/cmd/root"

	"github.com/spf13/cobra"
)

// Cmd represents the reprocess command
var Cmd = &cobra.Command{
	Use:   "reprocess",
	Short: "Retry classification of unclassified records",
	Long: `Run every unclassified record in the store through the current rules again.

Records that now classify are updated together; classified records are never
touched. Use this after editing rules, mappings or accounts.`,
	Args: cobra.NoArgs,
	RunE: reprocessFunc,
}

func reprocessFunc(cmd *cobra.Command, _ []string) (err error) {
	c, err := root.NewContainer(cmd)
	if err != nil {
		return err
	}
	defer root.CloseContainer(c, &err)

	updated, err := c.GetPipeline().ReprocessStore(root.Context(cmd))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Reprocessed %d record(s)\n", updated)
	return err
}
