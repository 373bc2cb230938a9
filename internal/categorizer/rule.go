package categorizer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"budge/statements/internal/logging"
	"budge/statements/internal/models"

	"github.com/shopspring/decimal"
)

// RuleStrategy classifies records with YAML rules. Rules are evaluated in
// the order given and the first one whose conditions all hold wins.
type RuleStrategy struct {
	rules  []compiledRule
	logger logging.Logger
}

type compiledRule struct {
	name        string
	category    models.Category
	patterns    []string
	re          *regexp.Regexp
	txType      string
	account     string
	minAmount   *decimal.Decimal
	maxAmount   *decimal.Decimal
	description string
	absolute    bool
}

// NewRuleStrategy compiles rules. A rule with an unknown category, a bad
// regex, an unparseable amount bound or no condition at all is rejected.
func NewRuleStrategy(rules []models.Rule, logger logging.Logger) (*RuleStrategy, error) {
	s := &RuleStrategy{
		rules:  make([]compiledRule, 0, len(rules)),
		logger: logging.OrDefault(logger),
	}
	for _, rule := range rules {
		compiled, err := compileRule(rule)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.Name, err)
		}
		s.rules = append(s.rules, compiled)
	}
	return s, nil
}

func compileRule(rule models.Rule) (compiledRule, error) {
	category, err := models.ParseCategory(rule.Category)
	if err != nil {
		return compiledRule{}, err
	}

	c := compiledRule{
		name:        rule.Name,
		category:    category,
		txType:      strings.TrimSpace(rule.Type),
		account:     strings.TrimSpace(rule.Account),
		description: strings.TrimSpace(rule.ParsedDescription),
		absolute:    rule.AbsoluteAmount,
	}

	for _, p := range rule.Description {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			c.patterns = append(c.patterns, p)
		}
	}

	if rule.Regex != "" {
		if c.re, err = regexp.Compile(rule.Regex); err != nil {
			return compiledRule{}, fmt.Errorf("invalid regex: %w", err)
		}
	}

	if c.minAmount, err = parseBound(rule.MinAmount); err != nil {
		return compiledRule{}, fmt.Errorf("invalid min_amount: %w", err)
	}
	if c.maxAmount, err = parseBound(rule.MaxAmount); err != nil {
		return compiledRule{}, fmt.Errorf("invalid max_amount: %w", err)
	}

	if len(c.patterns) == 0 && c.re == nil && c.txType == "" && c.account == "" &&
		c.minAmount == nil && c.maxAmount == nil {
		return compiledRule{}, fmt.Errorf("no conditions")
	}
	return c, nil
}

func parseBound(raw *string) (*decimal.Decimal, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*raw))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// matches reports whether every configured condition holds for rec.
// Amount bounds compare against the signed amount.
func (c compiledRule) matches(rec models.ClassifiedRecord) bool {
	if len(c.patterns) > 0 {
		description := strings.ToLower(rec.Description)
		found := false
		for _, p := range c.patterns {
			if strings.Contains(description, p) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if c.re != nil && !c.re.MatchString(rec.Description) {
		return false
	}
	if c.txType != "" && !strings.EqualFold(c.txType, strings.TrimSpace(rec.Type)) {
		return false
	}
	if c.account != "" && !strings.EqualFold(c.account, rec.Account) {
		return false
	}
	if c.minAmount != nil && rec.Amount.LessThan(*c.minAmount) {
		return false
	}
	if c.maxAmount != nil && rec.Amount.GreaterThan(*c.maxAmount) {
		return false
	}
	return true
}

func (c compiledRule) classify(rec models.ClassifiedRecord) models.Classification {
	cl := models.Classification{
		Category:    c.category,
		Description: c.description,
		Amount:      rec.Amount,
		Rule:        c.name,
	}
	if cl.Description == "" {
		cl.Description = strings.TrimSpace(rec.Description)
	}
	if c.absolute {
		cl.Amount = rec.Amount.Abs()
	}
	return cl
}

// Name returns the name of this strategy for logging and debugging.
func (s *RuleStrategy) Name() string {
	return "Rule"
}

// Len returns the number of compiled rules.
func (s *RuleStrategy) Len() int {
	return len(s.rules)
}

// Categorize returns the classification of the first matching rule.
func (s *RuleStrategy) Categorize(_ context.Context, rec models.ClassifiedRecord) (models.Classification, bool, error) {
	for _, rule := range s.rules {
		if !rule.matches(rec) {
			continue
		}

		s.logger.Debug("Record categorized using rule",
			logging.F(logging.FieldStrategy, s.Name()),
			logging.F(logging.FieldRecordKey, rec.Key),
			logging.F(logging.FieldRule, rule.name),
			logging.F(logging.FieldCategory, rule.category))
		return rule.classify(rec), true, nil
	}
	return models.Classification{}, false, nil
}
