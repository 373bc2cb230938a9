package store

import (
	"budge/statements/internal/models"
)

// MockConfigStore is an in-memory stand-in for ConfigStore in tests.
type MockConfigStore struct {
	Rules    []models.Rule
	Mappings map[string]models.Category
	Accounts []models.Account

	LoadRulesError    error
	LoadMappingsError error
	LoadAccountsError error
	SaveMappingsError error

	SavedMappings map[string]models.Category
}

// LoadRules returns the mock rules.
func (m *MockConfigStore) LoadRules() ([]models.Rule, error) {
	if m.LoadRulesError != nil {
		return nil, m.LoadRulesError
	}
	return m.Rules, nil
}

// LoadMappings returns a copy of the mock mappings.
func (m *MockConfigStore) LoadMappings() (map[string]models.Category, error) {
	if m.LoadMappingsError != nil {
		return nil, m.LoadMappingsError
	}
	result := make(map[string]models.Category, len(m.Mappings))
	for k, v := range m.Mappings {
		result[k] = v
	}
	return result, nil
}

// SaveMappings records the saved mappings.
func (m *MockConfigStore) SaveMappings(mappings map[string]models.Category) error {
	if m.SaveMappingsError != nil {
		return m.SaveMappingsError
	}
	m.SavedMappings = make(map[string]models.Category, len(mappings))
	for k, v := range mappings {
		m.SavedMappings[k] = v
	}
	return nil
}

// LoadAccounts returns the mock accounts.
func (m *MockConfigStore) LoadAccounts() ([]models.Account, error) {
	if m.LoadAccountsError != nil {
		return nil, m.LoadAccountsError
	}
	return m.Accounts, nil
}
