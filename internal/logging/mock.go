package logging

import "sync"

// LogEntry is one entry captured by MockLogger.
type LogEntry struct {
	Level   string
	Message string
	Fields  []Field
	Error   error
}

// MockLogger records entries for assertions. Derived loggers append to the
// same journal as the logger they came from.
type MockLogger struct {
	journal *journal
	err     error
	fields  []Field
}

type journal struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewMockLogger returns a MockLogger with an empty journal.
func NewMockLogger() *MockLogger {
	return &MockLogger{journal: &journal{}}
}

func (m *MockLogger) add(level, msg string, fields []Field) {
	entry := LogEntry{Level: level, Message: msg, Error: m.err}
	entry.Fields = append(append(entry.Fields, m.fields...), fields...)

	m.journal.mu.Lock()
	m.journal.entries = append(m.journal.entries, entry)
	m.journal.mu.Unlock()
}

func (m *MockLogger) derive(err error, fields []Field) *MockLogger {
	return &MockLogger{
		journal: m.journal,
		err:     err,
		fields:  append(append([]Field(nil), m.fields...), fields...),
	}
}

func (m *MockLogger) Debug(msg string, fields ...Field) { m.add("DEBUG", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...Field)  { m.add("INFO", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...Field)  { m.add("WARN", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...Field) { m.add("ERROR", msg, fields) }

func (m *MockLogger) WithError(err error) Logger { return m.derive(err, nil) }

func (m *MockLogger) WithField(key string, value interface{}) Logger {
	return m.derive(m.err, []Field{F(key, value)})
}

func (m *MockLogger) WithFields(fields ...Field) Logger { return m.derive(m.err, fields) }

// GetEntries returns a copy of the journal.
func (m *MockLogger) GetEntries() []LogEntry {
	m.journal.mu.Lock()
	defer m.journal.mu.Unlock()
	return append([]LogEntry(nil), m.journal.entries...)
}

// HasEntry reports whether an entry with level and message was logged.
func (m *MockLogger) HasEntry(level, message string) bool {
	for _, entry := range m.GetEntries() {
		if entry.Level == level && entry.Message == message {
			return true
		}
	}
	return false
}
