package transfer

import (
	"testing"

	"budge/statements/internal/logging"
	"budge/statements/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func transferRecord(description string) *models.ClassifiedRecord {
	rec := models.NewClassifiedRecord(models.Record{
		Key:         models.NewRecordKey(),
		Account:     "JCHK",
		Description: description,
		Amount:      decimal.NewFromInt(-100),
	})
	rec.Apply(models.Classification{Category: models.CategoryTransfer, Amount: rec.Amount, Rule: "transfers"})
	return &rec
}

func TestResolve_StripsMobileBankingBoilerplate(t *testing.T) {
	rec := transferRecord("- -SCU Mobile/Home Banking Transfer/John to Jane/-SCU Mobile")
	NewResolver(nil, logging.NewMockLogger()).Resolve(rec)

	assert.Equal(t, "John to Jane", rec.ParsedDescription)
	assert.Equal(t, "- -SCU Mobile/Home Banking Transfer/John to Jane/-SCU Mobile", rec.Description, "raw description is kept")
}

func TestResolve_UsesParsedDescriptionWhenSet(t *testing.T) {
	rec := transferRecord("raw text")
	rec.ParsedDescription = "Home Banking Transfer/Savings top-up"

	NewResolver(nil, logging.NewMockLogger()).Resolve(rec)
	assert.Equal(t, "Savings top-up", rec.ParsedDescription)
}

func TestResolve_IgnoresNonTransfers(t *testing.T) {
	logger := logging.NewMockLogger()
	resolver := NewResolver(nil, logger)

	unclassified := models.NewClassifiedRecord(models.Record{Description: "- -SCU Mobile/Rent"})
	resolver.Resolve(&unclassified)
	assert.Equal(t, "", unclassified.ParsedDescription)

	dining := models.NewClassifiedRecord(models.Record{Description: "Home Banking Transfer/Cafe"})
	dining.Apply(models.Classification{Category: models.CategoryDining, Description: "Home Banking Transfer/Cafe"})
	resolver.Resolve(&dining)
	assert.Equal(t, "Home Banking Transfer/Cafe", dining.ParsedDescription)

	resolver.Resolve(nil)
	assert.Empty(t, logger.GetEntries())
}

func TestClean(t *testing.T) {
	tests := []struct {
		name        string
		description string
		boilerplate []string
		expected    string
	}{
		{name: "nothing to strip", description: "John to Jane", boilerplate: DefaultBoilerplate, expected: "John to Jane"},
		{name: "order independent", description: "/-SCU MobileA/-SCU Mobile - -SCU Mobile/", boilerplate: DefaultBoilerplate, expected: "A"},
		{name: "leading separator once", description: "- - Savings", boilerplate: DefaultBoilerplate, expected: "- Savings"},
		{name: "custom literals", description: "ONLINE XFER: Rent", boilerplate: []string{"ONLINE XFER:"}, expected: "Rent"},
		{name: "empty literal ignored", description: "Rent", boilerplate: []string{""}, expected: "Rent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Clean(tt.description, tt.boilerplate))
		})
	}
}
