package categorizer

import (
	"context"
	"strings"
	"time"

	"budge/statements/internal/logging"
	"budge/statements/internal/models"
)

// AIStrategy classifies records by asking an AIClient. Answers outside the
// closed category set count as no match.
type AIStrategy struct {
	aiClient AIClient
	timeout  time.Duration
	logger   logging.Logger
}

// NewAIStrategy creates a new AIStrategy. A zero timeout means no deadline
// beyond the caller's context.
func NewAIStrategy(aiClient AIClient, timeout time.Duration, logger logging.Logger) *AIStrategy {
	return &AIStrategy{
		aiClient: aiClient,
		timeout:  timeout,
		logger:   logging.OrDefault(logger),
	}
}

// Name returns the name of this strategy for logging and debugging.
func (s *AIStrategy) Name() string {
	return "AI"
}

// Categorize asks the AI client for a category.
func (s *AIStrategy) Categorize(ctx context.Context, rec models.ClassifiedRecord) (models.Classification, bool, error) {
	if s.aiClient == nil || strings.TrimSpace(rec.Description) == "" {
		return models.Classification{}, false, nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	answer, err := s.aiClient.Categorize(ctx, rec, models.AllCategories())
	if err != nil {
		return models.Classification{}, false, err
	}

	category, err := models.ParseCategory(answer)
	if err != nil {
		s.logger.Debug("AI returned an unknown category",
			logging.F(logging.FieldStrategy, s.Name()),
			logging.F(logging.FieldRecordKey, rec.Key),
			logging.F("ai_category", answer))
		return models.Classification{}, false, nil
	}

	s.logger.Debug("Record categorized using AI",
		logging.F(logging.FieldStrategy, s.Name()),
		logging.F(logging.FieldRecordKey, rec.Key),
		logging.F(logging.FieldCategory, category))

	return models.Classification{
		Category:    category,
		Description: strings.TrimSpace(rec.Description),
		Amount:      rec.Amount,
		Rule:        s.Name(),
	}, true, nil
}
