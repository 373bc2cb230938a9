package categorizer

import (
	"context"

	"budge/statements/internal/models"
)

// AIClient defines the interface for AI-based categorization services.
// Implementations return the raw category name suggested for the record;
// the strategy validates it against the closed category set.
type AIClient interface {
	Categorize(ctx context.Context, rec models.ClassifiedRecord, allowed []models.Category) (string, error)
}
