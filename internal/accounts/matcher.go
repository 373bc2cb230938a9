// Package accounts attributes records to declared accounts and links the two
// legs of inter-account transfers.
package accounts

import (
	"strings"
	"sync"

	"budge/statements/internal/dateutils"
	"budge/statements/internal/logging"
	"budge/statements/internal/models"

	"github.com/shopspring/decimal"
)

// Defaults for counterpart detection.
var (
	DefaultAmountTolerance = decimal.NewFromFloat(0.01)
	DefaultDateWindowDays  = 5
)

// Options tune counterpart detection.
type Options struct {
	// AmountTolerance is the largest accepted difference between a transfer
	// amount and the negated counterpart amount.
	AmountTolerance decimal.Decimal
	// DateWindowDays is the largest accepted distance between the two dates.
	DateWindowDays int
}

// DefaultOptions returns the tolerance and window used when configuration
// does not override them.
func DefaultOptions() Options {
	return Options{AmountTolerance: DefaultAmountTolerance, DateWindowDays: DefaultDateWindowDays}
}

// Matcher sets the counter-account of records. Transfers are linked to their
// counterpart in the prepared pool; everything else falls back to alias
// matching against declared accounts.
//
// A pool record is linked to at most one transfer. Once two records are
// paired, each one links back to the other and neither is offered to a
// third record.
type Matcher struct {
	accounts  []models.Account
	byMarker  map[string]models.Account
	tolerance decimal.Decimal
	window    int
	logger    logging.Logger

	mu     sync.Mutex
	pool   []models.ClassifiedRecord
	claims map[models.RecordKey]models.RecordKey
}

// NewMatcher creates a matcher over the declared accounts. Options are taken
// as given, so a zero tolerance and window only link exact same-day
// counterparts. Negative values are clamped to zero.
func NewMatcher(accounts []models.Account, opts Options, logger logging.Logger) *Matcher {
	m := &Matcher{
		accounts:  accounts,
		byMarker:  make(map[string]models.Account, len(accounts)),
		tolerance: opts.AmountTolerance,
		window:    opts.DateWindowDays,
		logger:    logging.OrDefault(logger),
		claims:    make(map[models.RecordKey]models.RecordKey),
	}
	if m.tolerance.IsNegative() {
		m.tolerance = decimal.Zero
	}
	if m.window < 0 {
		m.window = 0
	}
	for _, account := range accounts {
		if account.Marker != "" {
			m.byMarker[strings.ToUpper(account.Marker)] = account
		}
	}
	return m
}

// Prepare replaces the pool of records that transfers are linked against.
// The matcher keeps its own copy and never modifies pool entries. Links
// already recorded on pool entries are treated as claimed.
func (m *Matcher) Prepare(pool []models.ClassifiedRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pool = make([]models.ClassifiedRecord, len(pool))
	copy(m.pool, pool)
	m.claims = make(map[models.RecordKey]models.RecordKey)
	for _, rec := range m.pool {
		if rec.LinkedKey.IsZero() {
			continue
		}
		m.claims[rec.Key] = rec.LinkedKey
		if _, taken := m.claims[rec.LinkedKey]; !taken {
			m.claims[rec.LinkedKey] = rec.Key
		}
	}
}

// AccountID returns the declared id for a statement marker, or the marker
// itself when no account declares it.
func (m *Matcher) AccountID(marker string) string {
	if account, ok := m.byMarker[strings.ToUpper(marker)]; ok {
		return account.ID
	}
	return marker
}

// Match sets rec.CounterAccount, and rec.LinkedKey for linked transfers.
// Records without any match are left unchanged.
func (m *Matcher) Match(rec *models.ClassifiedRecord) {
	if rec == nil {
		return
	}

	if rec.IsTransfer() {
		if counterpart, ok := m.counterpart(*rec); ok {
			rec.CounterAccount = m.AccountID(counterpart.Account)
			rec.LinkedKey = counterpart.Key
			m.logger.Debug("Transfer linked",
				logging.F(logging.FieldRecordKey, rec.Key),
				logging.F("linked_key", counterpart.Key),
				logging.F(logging.FieldAccount, rec.CounterAccount))
			return
		}
	}

	if account, ok := m.byAlias(*rec); ok {
		rec.CounterAccount = account.ID
		m.logger.Debug("Counter-account matched by alias",
			logging.F(logging.FieldRecordKey, rec.Key),
			logging.F(logging.FieldAccount, account.ID))
	}
}

// counterpart returns the record rec is already paired with, or else picks
// the closest unclaimed opposite-signed record on another account and claims
// it. Ties are broken by amount difference, then pool order.
func (m *Matcher) counterpart(rec models.ClassifiedRecord) (models.ClassifiedRecord, bool) {
	if rec.Amount.IsZero() {
		return models.ClassifiedRecord{}, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if partner, ok := m.claims[rec.Key]; ok {
		for _, candidate := range m.pool {
			if candidate.Key == partner {
				return candidate, true
			}
		}
		return models.ClassifiedRecord{}, false
	}

	ownAccount := m.AccountID(rec.Account)
	best := -1
	var bestDays int
	var bestDiff decimal.Decimal

	for i, candidate := range m.pool {
		if candidate.Key == rec.Key || m.AccountID(candidate.Account) == ownAccount {
			continue
		}
		if _, claimed := m.claims[candidate.Key]; claimed {
			continue
		}
		diff := candidate.Amount.Add(rec.Amount).Abs()
		if diff.GreaterThan(m.tolerance) {
			continue
		}
		days := dateutils.DaysApart(rec.Date, candidate.Date)
		if days > m.window {
			continue
		}
		if best < 0 || days < bestDays || (days == bestDays && diff.LessThan(bestDiff)) {
			best, bestDays, bestDiff = i, days, diff
		}
	}

	if best < 0 {
		return models.ClassifiedRecord{}, false
	}
	found := m.pool[best]
	m.claims[rec.Key] = found.Key
	m.claims[found.Key] = rec.Key
	return found, true
}

// byAlias returns the first declared account, other than the record's own,
// with an alias contained in the record's description.
func (m *Matcher) byAlias(rec models.ClassifiedRecord) (models.Account, bool) {
	description := strings.ToLower(rec.DisplayDescription())
	if description == "" {
		return models.Account{}, false
	}

	ownAccount := m.AccountID(rec.Account)
	for _, account := range m.accounts {
		if account.ID == ownAccount {
			continue
		}
		for _, alias := range account.Aliases {
			alias = strings.ToLower(strings.TrimSpace(alias))
			if alias != "" && strings.Contains(description, alias) {
				return account, true
			}
		}
	}
	return models.Account{}, false
}
