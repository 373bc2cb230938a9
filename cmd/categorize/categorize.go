// Package categorize handles ad-hoc classification of a single description
package categorize

import (
	"fmt"
	"time"

	"budge/statements/cmd/root"
	"budge/statements/internal/factory"
	"budge/statements/internal/models"

	"github.com/spf13/cobra"
)

var (
	// Account is the account marker the sample transaction belongs to.
	Account string
	// Type is the transaction type, DEBIT or CREDIT.
	Type string
	// Amount is the transaction amount.
	Amount string
)

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize <description>",
	Short: "Show how a transaction description would be classified",
	Long: `Run one transaction description through the configured mappings, rules and
optional AI fallback without touching the record store. Useful for testing
rule changes before reprocessing.`,
	Args: cobra.ExactArgs(1),
	RunE: categorizeFunc,
}

func init() {
	Cmd.Flags().StringVarP(&Account, "account", "a", "manual", "Account marker")
	Cmd.Flags().StringVarP(&Type, "type", "t", models.TypeDebit, "Transaction type")
	Cmd.Flags().StringVarP(&Amount, "amount", "m", "0", "Transaction amount")
}

func categorizeFunc(cmd *cobra.Command, args []string) (err error) {
	c, err := root.NewContainer(cmd)
	if err != nil {
		return err
	}
	defer root.CloseContainer(c, &err)

	layouts := c.GetConfig().Input.DateLayouts
	f := factory.New(factory.WithDateLayouts(layouts...))
	fields := models.NormalizedFields{
		Account, time.Now().Format(layouts[0]), Type, args[0], Amount, "", "", "",
	}
	record, err := f.Build(fields, "command line", 1)
	if err != nil {
		return err
	}

	rec := models.NewClassifiedRecord(record)
	out := cmd.OutOrStdout()
	if !c.GetCategorizer().Classify(root.Context(cmd), &rec) {
		_, err = fmt.Fprintln(out, "No rule matched")
		return err
	}
	c.GetResolver().Resolve(&rec)

	_, err = fmt.Fprintf(out, "Category: %s\nRule: %s\nDescription: %s\n",
		rec.Category, rec.Rule, rec.DisplayDescription())
	return err
}
