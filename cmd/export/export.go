// Package export handles writing stored records to CSV or XLSX
package export

import (
	"fmt"
	"time"

	"budge/statements/cmd/root"
	"budge/statements/internal/dateutils"
	"budge/statements/internal/export"
	"budge/statements/internal/models"
	"budge/statements/internal/recordstore"
	"budge/statements/internal/validation"

	"github.com/spf13/cobra"
)

// Flags holds the export command options.
type Flags struct {
	Format       string
	Output       string
	Account      string
	From         string
	To           string
	Description  string
	Category     string
	Classified   bool
	Unclassified bool
}

var flags Flags

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored records to CSV or XLSX",
	Long: `Export stored records sorted by date.

Filters combine: only records matching all of them are written. Dates use the
YYYY-MM-DD layout and both bounds are inclusive.

Example:
  budge export --format xlsx --output march.xlsx --from 2024-03-01 --to 2024-03-31`,
	Args: cobra.NoArgs,
	RunE: exportFunc,
}

func init() {
	Cmd.Flags().StringVarP(&flags.Format, "format", "f", export.FormatCSV, "Output format (csv or xlsx)")
	Cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Output file")
	Cmd.Flags().StringVarP(&flags.Account, "account", "a", "", "Only records of this account")
	Cmd.Flags().StringVar(&flags.From, "from", "", "Only records on or after this date")
	Cmd.Flags().StringVar(&flags.To, "to", "", "Only records on or before this date")
	Cmd.Flags().StringVarP(&flags.Description, "description", "d", "", "Only records whose description contains this text")
	Cmd.Flags().StringVar(&flags.Category, "category", "", "Only records of this category")
	Cmd.Flags().BoolVar(&flags.Classified, "classified", false, "Only classified records")
	Cmd.Flags().BoolVar(&flags.Unclassified, "unclassified", false, "Only unclassified records")
	_ = Cmd.MarkFlagRequired("output")
	Cmd.MarkFlagsMutuallyExclusive("classified", "unclassified")
}

// Criteria converts the filter flags into store criteria.
func (f Flags) Criteria() (recordstore.Criteria, error) {
	criteria := recordstore.Criteria{
		Account:     f.Account,
		Description: f.Description,
	}

	var err error
	if criteria.From, err = parseBound("from", f.From); err != nil {
		return criteria, err
	}
	if criteria.To, err = parseBound("to", f.To); err != nil {
		return criteria, err
	}
	if criteria.From != nil && criteria.To != nil && criteria.To.Before(*criteria.From) {
		return criteria, fmt.Errorf("--to %s is before --from %s", f.To, f.From)
	}

	if f.Category != "" {
		if criteria.Category, err = models.ParseCategory(f.Category); err != nil {
			return criteria, err
		}
	}

	switch {
	case f.Classified:
		classified := true
		criteria.Classified = &classified
	case f.Unclassified:
		classified := false
		criteria.Classified = &classified
	}
	return criteria, nil
}

func parseBound(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	date, err := dateutils.ParseStrict(value, []string{dateutils.DateLayoutISO})
	if err != nil {
		return nil, fmt.Errorf("invalid --%s date %q: %w", name, value, err)
	}
	return &date, nil
}

func exportFunc(cmd *cobra.Command, _ []string) (err error) {
	format, err := export.ParseFormat(flags.Format)
	if err != nil {
		return err
	}
	if err := validation.IsValidOutputPath(flags.Output, format); err != nil {
		return err
	}
	criteria, err := flags.Criteria()
	if err != nil {
		return err
	}

	c, err := root.NewContainer(cmd)
	if err != nil {
		return err
	}
	defer root.CloseContainer(c, &err)

	records, err := c.Records(root.Context(cmd), criteria)
	if err != nil {
		return err
	}
	if err := c.GetExporter().Write(format, export.SortRecords(records), flags.Output); err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d record(s) to %s\n", len(records), flags.Output)
	return err
}
