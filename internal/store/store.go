// Package store loads and saves the YAML files that drive classification:
// rules, exact description mappings and declared accounts.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"budge/statements/internal/logging"
	"budge/statements/internal/models"

	"gopkg.in/yaml.v3"
)

// Default file names looked up when none is configured.
const (
	DefaultRulesFile    = "rules.yaml"
	DefaultMappingsFile = "mappings.yaml"
	DefaultAccountsFile = "accounts.yaml"
)

// ConfigStore manages loading and saving of classification data
type ConfigStore struct {
	RulesFile    string
	MappingsFile string
	AccountsFile string

	logger logging.Logger
}

// NewConfigStore creates a store reading the given files. Empty names fall
// back to the defaults.
func NewConfigStore(rulesFile, mappingsFile, accountsFile string, logger logging.Logger) *ConfigStore {
	return &ConfigStore{
		RulesFile:    rulesFile,
		MappingsFile: mappingsFile,
		AccountsFile: accountsFile,
		logger:       logging.OrDefault(logger),
	}
}

// FindConfigFile looks for a configuration file in standard locations
func (s *ConfigStore) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
		filepath.Join(".budge", filename),
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		configPath := filepath.Join(homeDir, ".budge", filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	return "", os.ErrNotExist
}

// readConfigFile returns the contents of the named file, or nil data when it
// cannot be found anywhere.
func (s *ConfigStore) readConfigFile(filename, fallback string) ([]byte, string, error) {
	if filename == "" {
		filename = fallback
	}

	path, err := s.FindConfigFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Configuration file not found", logging.F(logging.FieldFile, filename))
			return nil, filename, nil
		}
		return nil, filename, fmt.Errorf("error resolving %s: %w", filename, err)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from configuration
	if err != nil {
		return nil, path, fmt.Errorf("error reading %s: %w", path, err)
	}
	return data, path, nil
}

// LoadRules loads classification rules, sorted by descending priority. Rules
// with equal priority keep their file order. A missing file yields no rules.
func (s *ConfigStore) LoadRules() ([]models.Rule, error) {
	data, path, err := s.readConfigFile(s.RulesFile, DefaultRulesFile)
	if err != nil || data == nil {
		return []models.Rule{}, err
	}

	var cfg models.RulesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing rules file %s: %w", path, err)
	}

	for i, rule := range cfg.Rules {
		if strings.TrimSpace(rule.Name) == "" {
			cfg.Rules[i].Name = fmt.Sprintf("rule-%d", i+1)
		}
		if _, err := models.ParseCategory(rule.Category); err != nil {
			return nil, fmt.Errorf("rule %q in %s: %w", cfg.Rules[i].Name, path, err)
		}
	}

	sort.SliceStable(cfg.Rules, func(i, j int) bool {
		return cfg.Rules[i].Priority > cfg.Rules[j].Priority
	})

	s.logger.Debug("Loaded rules",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(cfg.Rules)))
	return cfg.Rules, nil
}

// LoadMappings loads the exact description to category mappings. Keys are
// returned as written; matching is case-insensitive in the categorizer.
func (s *ConfigStore) LoadMappings() (map[string]models.Category, error) {
	data, path, err := s.readConfigFile(s.MappingsFile, DefaultMappingsFile)
	if err != nil || data == nil {
		return map[string]models.Category{}, err
	}

	var cfg models.MappingsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing mappings file %s: %w", path, err)
	}

	mappings := make(map[string]models.Category, len(cfg.Mappings))
	for description, name := range cfg.Mappings {
		category, err := models.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("mapping %q in %s: %w", description, path, err)
		}
		mappings[description] = category
	}

	s.logger.Debug("Loaded mappings",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(mappings)))
	return mappings, nil
}

// SaveMappings writes the mappings back to the mappings file, creating it
// when it does not exist yet.
func (s *ConfigStore) SaveMappings(mappings map[string]models.Category) error {
	filename := s.MappingsFile
	if filename == "" {
		filename = DefaultMappingsFile
	}

	path, err := s.FindConfigFile(filename)
	if err != nil {
		path = filename
	}

	if err := os.MkdirAll(filepath.Dir(path), models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	cfg := models.MappingsConfig{Mappings: make(map[string]string, len(mappings))}
	for description, category := range mappings {
		cfg.Mappings[description] = category.String()
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling mappings: %w", err)
	}
	if err := os.WriteFile(path, data, models.PermissionDataFile); err != nil {
		return fmt.Errorf("error writing mappings: %w", err)
	}

	s.logger.Debug("Saved mappings",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(mappings)))
	return nil
}

// LoadAccounts loads the declared accounts. Ids must be present and unique.
func (s *ConfigStore) LoadAccounts() ([]models.Account, error) {
	data, path, err := s.readConfigFile(s.AccountsFile, DefaultAccountsFile)
	if err != nil || data == nil {
		return []models.Account{}, err
	}

	var cfg models.AccountsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing accounts file %s: %w", path, err)
	}

	seen := make(map[string]bool, len(cfg.Accounts))
	for i, account := range cfg.Accounts {
		if strings.TrimSpace(account.ID) == "" {
			return nil, fmt.Errorf("account #%d in %s has no id", i+1, path)
		}
		if seen[account.ID] {
			return nil, fmt.Errorf("duplicate account id %q in %s", account.ID, path)
		}
		seen[account.ID] = true
	}

	s.logger.Debug("Loaded accounts",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(cfg.Accounts)))
	return cfg.Accounts, nil
}
