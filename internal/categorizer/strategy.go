package categorizer

import (
	"context"

	"budge/statements/internal/models"
)

// CategorizationStrategy defines one method of classifying a record.
// Strategies are tried in order until one matches.
type CategorizationStrategy interface {
	// Categorize inspects rec and returns the classification to apply.
	// The boolean reports whether the strategy matched. Strategies must not
	// modify rec.
	Categorize(ctx context.Context, rec models.ClassifiedRecord) (models.Classification, bool, error)

	// Name returns the name of this strategy for logging and debugging purposes.
	Name() string
}

// ConfigSource supplies the YAML-backed data the strategies are built from.
type ConfigSource interface {
	LoadRules() ([]models.Rule, error)
	LoadMappings() (map[string]models.Category, error)
	SaveMappings(mappings map[string]models.Category) error
}
