package models

// Account is a declared account that statements can be attributed to.
type Account struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Marker  string   `yaml:"marker"`
	Aliases []string `yaml:"aliases"`
}

// AccountsConfig represents the structure of the accounts YAML file
type AccountsConfig struct {
	Accounts []Account `yaml:"accounts"`
}

// Rule is one entry of the rules YAML file. All non-empty conditions must hold
// for the rule to match.
type Rule struct {
	Name              string   `yaml:"name"`
	Category          string   `yaml:"category"`
	Priority          int      `yaml:"priority"`
	Description       []string `yaml:"description"`
	Regex             string   `yaml:"regex,omitempty"`
	Type              string   `yaml:"type,omitempty"`
	Account           string   `yaml:"account,omitempty"`
	MinAmount         *string  `yaml:"min_amount,omitempty"`
	MaxAmount         *string  `yaml:"max_amount,omitempty"`
	ParsedDescription string   `yaml:"parsed_description,omitempty"`
	AbsoluteAmount    bool     `yaml:"absolute_amount,omitempty"`
}

// RulesConfig represents the structure of the rules YAML file
type RulesConfig struct {
	Rules []Rule `yaml:"rules"`
}

// MappingsConfig maps exact raw descriptions to category names.
type MappingsConfig struct {
	Mappings map[string]string `yaml:"mappings"`
}
