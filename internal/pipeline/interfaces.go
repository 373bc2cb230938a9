package pipeline

import (
	"context"

	"budge/statements/internal/models"
)

// RuleEngine classifies a record in place. It returns false, leaving rec
// untouched, when no rule applies.
type RuleEngine interface {
	Classify(ctx context.Context, rec *models.ClassifiedRecord) bool
}

// TransferResolver cleans up transfer-classified records.
type TransferResolver interface {
	Resolve(rec *models.ClassifiedRecord)
}

// AccountMatcher attaches counter-account information to a record.
type AccountMatcher interface {
	Match(rec *models.ClassifiedRecord)
}

// PoolPreparer is implemented by matchers that correlate records with each
// other. Prepare receives every stored record followed by the records under
// work, before any of them is matched.
type PoolPreparer interface {
	Prepare(pool []models.ClassifiedRecord)
}

// RecordStore is where classified records end up.
type RecordStore interface {
	CommitBatch(ctx context.Context, batch []models.ClassifiedRecord) error
	CommitReprocess(ctx context.Context, pre, post []models.ClassifiedRecord) error
	Unclassified(ctx context.Context) ([]models.ClassifiedRecord, error)
	All(ctx context.Context) ([]models.ClassifiedRecord, error)
}
