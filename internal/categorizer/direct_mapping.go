package categorizer

import (
	"context"
	"strings"
	"sync"

	"budge/statements/internal/logging"
	"budge/statements/internal/models"
)

// DirectMappingStrategy classifies records whose raw description exactly
// matches a known mapping, ignoring case and surrounding space.
type DirectMappingStrategy struct {
	mappings map[string]models.Category
	dirty    bool
	logger   logging.Logger
	mu       sync.RWMutex
}

// NewDirectMappingStrategy creates a strategy from the given mappings.
func NewDirectMappingStrategy(mappings map[string]models.Category, logger logging.Logger) *DirectMappingStrategy {
	s := &DirectMappingStrategy{
		mappings: make(map[string]models.Category, len(mappings)),
		logger:   logging.OrDefault(logger),
	}
	for description, category := range mappings {
		s.mappings[mappingKey(description)] = category
	}
	return s
}

func mappingKey(description string) string {
	return strings.ToLower(strings.TrimSpace(description))
}

// Name returns the name of this strategy for logging and debugging.
func (s *DirectMappingStrategy) Name() string {
	return "DirectMapping"
}

// Categorize looks the raw description up in the mappings.
func (s *DirectMappingStrategy) Categorize(_ context.Context, rec models.ClassifiedRecord) (models.Classification, bool, error) {
	key := mappingKey(rec.Description)
	if key == "" {
		return models.Classification{}, false, nil
	}

	s.mu.RLock()
	category, found := s.mappings[key]
	s.mu.RUnlock()
	if !found {
		return models.Classification{}, false, nil
	}

	s.logger.Debug("Record categorized using direct mapping",
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

// Learn adds or replaces the mapping for description.
func (s *DirectMappingStrategy) Learn(description string, category models.Category) {
	key := mappingKey(description)
	if key == "" || !category.IsValid() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mappings[key] != category {
		s.mappings[key] = category
		s.dirty = true
	}
}

// Snapshot returns a copy of the current mappings and whether any were
// learned since the last Snapshot.
func (s *DirectMappingStrategy) Snapshot() (map[string]models.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]models.Category, len(s.mappings))
	for k, v := range s.mappings {
		out[k] = v
	}
	dirty := s.dirty
	s.dirty = false
	return out, dirty
}
