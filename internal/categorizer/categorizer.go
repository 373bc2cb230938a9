// Package categorizer classifies records by trying several strategies in
// order:
// 1. Exact description to category mapping from a YAML file
// 2. Priority-ordered YAML rules
// 3. An optional AI fallback backed by Gemini
package categorizer

import (
	"context"
	"fmt"
	"time"

	"budge/statements/internal/logging"
	"budge/statements/internal/models"
	"budge/statements/internal/parsererror"
)

// Categorizer runs the strategy chain against records.
type Categorizer struct {
	strategies []CategorizationStrategy
	direct     *DirectMappingStrategy
	source     ConfigSource
	logger     logging.Logger
}

// Options tune the optional parts of the chain.
type Options struct {
	// AIClient enables the AI strategy when non-nil.
	AIClient AIClient
	// AITimeout bounds each AI request.
	AITimeout time.Duration
	// Learn stores AI answers as direct mappings so later runs do not need
	// the AI again.
	Learn bool
}

// NewCategorizer builds the direct mapping, rule and optional AI strategies
// from source.
func NewCategorizer(source ConfigSource, opts Options, logger logging.Logger) (*Categorizer, error) {
	logger = logging.OrDefault(logger)

	mappings, err := source.LoadMappings()
	if err != nil {
		return nil, fmt.Errorf("failed to load mappings: %w", err)
	}
	rules, err := source.LoadRules()
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	direct := NewDirectMappingStrategy(mappings, logger)
	ruleStrategy, err := NewRuleStrategy(rules, logger)
	if err != nil {
		return nil, err
	}

	c := &Categorizer{
		strategies: []CategorizationStrategy{direct, ruleStrategy},
		source:     source,
		logger:     logger,
	}
	if opts.AIClient != nil {
		c.strategies = append(c.strategies, NewAIStrategy(opts.AIClient, opts.AITimeout, logger))
		if opts.Learn {
			c.direct = direct
		}
	}

	logger.Info("Categorizer initialized",
		logging.F("mappings", len(mappings)),
		logging.F("rules", ruleStrategy.Len()),
		logging.F("ai_enabled", opts.AIClient != nil))
	return c, nil
}

// NewCategorizerWithStrategies creates a Categorizer running exactly the
// given strategies, in order.
func NewCategorizerWithStrategies(logger logging.Logger, strategies ...CategorizationStrategy) *Categorizer {
	return &Categorizer{
		strategies: strategies,
		logger:     logging.OrDefault(logger),
	}
}

// Classify tries each strategy in turn. On the first match the result is
// applied to rec and true is returned. Otherwise rec is left exactly as it
// was. Strategy errors are logged and treated as no match.
func (c *Categorizer) Classify(ctx context.Context, rec *models.ClassifiedRecord) bool {
	if rec == nil {
		return false
	}

	for _, strategy := range c.strategies {
		cl, found, err := strategy.Categorize(ctx, *rec)
		if err != nil {
			c.logger.WithError(&parsererror.CategorizationError{
				Record:   rec.Key.String(),
				Strategy: strategy.Name(),
				Err:      err,
			}).Warn("Categorization strategy failed", logging.F(logging.FieldStrategy, strategy.Name()))
			continue
		}
		if !found {
			continue
		}
		if !cl.Category.IsValid() {
			c.logger.Warn("Strategy returned an invalid category",
				logging.F(logging.FieldStrategy, strategy.Name()),
				logging.F(logging.FieldCategory, cl.Category))
			continue
		}

		if c.direct != nil && strategy.Name() == "AI" {
			c.direct.Learn(rec.Description, cl.Category)
		}

		rec.Apply(cl)
		return true
	}

	c.logger.Debug("No strategy matched", logging.F(logging.FieldRecordKey, rec.Key))
	return false
}

// SaveLearned persists mappings learned from the AI strategy. It is a no-op
// when nothing was learned.
func (c *Categorizer) SaveLearned() error {
	if c.direct == nil || c.source == nil {
		return nil
	}
	mappings, dirty := c.direct.Snapshot()
	if !dirty {
		return nil
	}
	if err := c.source.SaveMappings(mappings); err != nil {
		return fmt.Errorf("failed to save learned mappings: %w", err)
	}
	c.logger.Info("Saved learned mappings", logging.F(logging.FieldCount, len(mappings)))
	return nil
}
