package recordstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"budge/statements/internal/logging"
	"budge/statements/internal/models"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// snapshotVersion is written to persisted snapshots.
const snapshotVersion = 1

// snapshot is an immutable view of the store. Commits build a new one and
// swap it in, so readers never see a partial commit.
type snapshot struct {
	records []models.ClassifiedRecord
	index   map[models.RecordKey]int
}

func newSnapshot(records []models.ClassifiedRecord) *snapshot {
	s := &snapshot{
		records: records,
		index:   make(map[models.RecordKey]int, len(records)),
	}
	for i, rec := range records {
		s.index[rec.Key] = i
	}
	return s
}

// MemoryStore is a copy-on-write record store. Reads are lock free; commits
// are serialised and become visible all at once.
//
// Each saved snapshot carries a revision. Save only writes when there are
// unsaved commits, and refuses to replace a file whose revision is not the
// one this store last loaded or wrote.
type MemoryStore struct {
	current  atomic.Pointer[snapshot]
	mu       sync.Mutex
	revision string
	dirty    bool
	logger   logging.Logger
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(logger logging.Logger) *MemoryStore {
	s := &MemoryStore{logger: logging.OrDefault(logger)}
	s.current.Store(newSnapshot(nil))
	return s
}

func cloneAll(records []models.ClassifiedRecord, keep func(models.ClassifiedRecord) bool) []models.ClassifiedRecord {
	out := make([]models.ClassifiedRecord, 0, len(records))
	for _, rec := range records {
		if keep == nil || keep(rec) {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	return len(s.current.Load().records)
}

// All returns a copy of every record in insertion order.
func (s *MemoryStore) All(_ context.Context) ([]models.ClassifiedRecord, error) {
	return cloneAll(s.current.Load().records, nil), nil
}

// Unclassified returns a copy of every record not yet classified.
func (s *MemoryStore) Unclassified(_ context.Context) ([]models.ClassifiedRecord, error) {
	return cloneAll(s.current.Load().records, func(rec models.ClassifiedRecord) bool {
		return !rec.IsClassified
	}), nil
}

// Get returns a copy of the record stored under key.
func (s *MemoryStore) Get(_ context.Context, key models.RecordKey) (models.ClassifiedRecord, error) {
	snap := s.current.Load()
	i, ok := snap.index[key]
	if !ok {
		return models.ClassifiedRecord{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return snap.records[i].Clone(), nil
}

// Filter returns copies of the records matching every set criterion.
func (s *MemoryStore) Filter(criteria Criteria) []models.ClassifiedRecord {
	return cloneAll(s.current.Load().records, criteria.Matches)
}

// CommitBatch appends records. Nothing is stored if any key is empty,
// already present or repeated within the batch.
func (s *MemoryStore) CommitBatch(_ context.Context, batch []models.ClassifiedRecord) error {
	if len(batch) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current.Load()
	if err := checkNewKeys(batch, cur.index); err != nil {
		return err
	}

	records := make([]models.ClassifiedRecord, 0, len(cur.records)+len(batch))
	records = append(records, cur.records...)
	records = append(records, cloneAll(batch, nil)...)
	s.current.Store(newSnapshot(records))
	s.dirty = true

	s.logger.Debug("Batch committed",
		logging.F(logging.FieldCount, len(batch)),
		logging.F("total", len(records)))
	return nil
}

func checkNewKeys(batch []models.ClassifiedRecord, existing map[models.RecordKey]int) error {
	seen := make(map[models.RecordKey]bool, len(batch))
	for _, rec := range batch {
		if rec.Key.IsZero() {
			return fmt.Errorf("%w: record %s:%d has no key", ErrDuplicateKey, rec.SourceFile, rec.SourceLine)
		}
		if _, ok := existing[rec.Key]; ok || seen[rec.Key] {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, rec.Key)
		}
		seen[rec.Key] = true
	}
	return nil
}

// CommitReprocess replaces each pre-image with its post-image. The commit is
// rejected as a whole when the lists do not pair up, a key is missing, a
// stored record no longer equals its pre-image, or a record would lose its
// classification.
func (s *MemoryStore) CommitReprocess(_ context.Context, pre, post []models.ClassifiedRecord) error {
	if err := checkPairs(pre, post); err != nil {
		return err
	}
	if len(pre) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current.Load()
	positions := make([]int, len(pre))
	for i := range pre {
		pos, ok := cur.index[pre[i].Key]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, pre[i].Key)
		}
		if !cur.records[pos].Equal(pre[i]) {
			return fmt.Errorf("%w: %s", ErrConflict, pre[i].Key)
		}
		positions[i] = pos
	}

	records := make([]models.ClassifiedRecord, len(cur.records))
	copy(records, cur.records)
	for i, pos := range positions {
		records[pos] = post[i].Clone()
	}
	s.current.Store(&snapshot{records: records, index: cur.index})
	s.dirty = true

	s.logger.Debug("Reprocess committed", logging.F(logging.FieldCount, len(post)))
	return nil
}

// checkPairs validates the shape of a reprocess commit independently of the
// stored data.
func checkPairs(pre, post []models.ClassifiedRecord) error {
	if len(pre) != len(post) {
		return fmt.Errorf("%w: %d pre-images for %d post-images", ErrConflict, len(pre), len(post))
	}
	seen := make(map[models.RecordKey]bool, len(pre))
	for i := range pre {
		if pre[i].Key != post[i].Key {
			return fmt.Errorf("%w: pre-image %s paired with %s", ErrConflict, pre[i].Key, post[i].Key)
		}
		if seen[pre[i].Key] {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, pre[i].Key)
		}
		seen[pre[i].Key] = true
		if pre[i].IsClassified && !post[i].IsClassified {
			return fmt.Errorf("%w: %s", ErrDemotion, pre[i].Key)
		}
	}
	return nil
}

// persisted is the on-disk snapshot layout.
type persisted struct {
	Version  int                       `yaml:"version"`
	Revision string                    `yaml:"revision,omitempty"`
	SavedAt  time.Time                 `yaml:"saved_at"`
	Records  []models.ClassifiedRecord `yaml:"records"`
}

// Dirty reports whether the store holds commits not yet saved.
func (s *MemoryStore) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Load replaces the store contents with the snapshot at path, discarding
// unsaved commits. A missing file leaves the store empty.
func (s *MemoryStore) Load(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from configuration
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.reset(nil, "")
			s.logger.Info("No record snapshot yet", logging.F(logging.FieldFile, path))
			return nil
		}
		return fmt.Errorf("failed to read record snapshot %s: %w", path, err)
	}

	var p persisted
	if err := yaml.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to parse record snapshot %s: %w", path, err)
	}
	if p.Version > snapshotVersion {
		return fmt.Errorf("record snapshot %s has unsupported version %d", path, p.Version)
	}
	if err := checkNewKeys(p.Records, nil); err != nil {
		return fmt.Errorf("record snapshot %s: %w", path, err)
	}

	s.reset(p.Records, p.Revision)

	s.logger.Info("Record snapshot loaded",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(p.Records)))
	return nil
}

func (s *MemoryStore) reset(records []models.ClassifiedRecord, revision string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirty {
		s.logger.Warn("Discarding unsaved record commits")
	}
	s.current.Store(newSnapshot(records))
	s.revision = revision
	s.dirty = false
}

// diskRevision returns the revision of the snapshot at path and whether the
// file exists.
func diskRevision(path string) (string, bool, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from configuration
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read record snapshot %s: %w", path, err)
	}
	var head struct {
		Revision string `yaml:"revision"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return "", true, fmt.Errorf("failed to parse record snapshot %s: %w", path, err)
	}
	return head.Revision, true, nil
}

// Save writes the current contents to path when there are unsaved commits.
// The file is written next to its destination and renamed into place. If the
// file on disk was rewritten since it was loaded, Save returns
// ErrSnapshotChanged and leaves it alone.
func (s *MemoryStore) Save(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		s.logger.Debug("Record snapshot unchanged, not saving", logging.F(logging.FieldFile, path))
		return nil
	}

	onDisk, exists, err := diskRevision(path)
	if err != nil {
		return err
	}
	if exists && onDisk != s.revision {
		return fmt.Errorf("%w: %s was rewritten by another process, reload it and retry", ErrSnapshotChanged, path)
	}

	snap := s.current.Load()
	revision := uuid.NewString()
	data, err := yaml.Marshal(persisted{
		Version:  snapshotVersion,
		Revision: revision,
		SavedAt:  time.Now().UTC(),
		Records:  snap.records,
	})
	if err != nil {
		return fmt.Errorf("failed to encode record snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, models.PermissionDirectory); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if _, statErr := os.Stat(tmpName); statErr == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write record snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write record snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace record snapshot: %w", err)
	}
	s.revision = revision
	s.dirty = false

	s.logger.Info("Record snapshot saved",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(snap.records)))
	return nil
}

// Criteria selects records in Filter. Zero fields match everything.
type Criteria struct {
	Account     string
	From        *time.Time
	To          *time.Time
	Description string
	Category    models.Category
	Classified  *bool
}

// Matches reports whether rec satisfies every set criterion. Date bounds are
// inclusive and the description test is a case-insensitive substring match
// on the parsed or raw description.
func (c Criteria) Matches(rec models.ClassifiedRecord) bool {
	if c.Account != "" && !strings.EqualFold(c.Account, rec.Account) {
		return false
	}
	if c.From != nil && rec.Date.Before(*c.From) {
		return false
	}
	if c.To != nil && rec.Date.After(*c.To) {
		return false
	}
	if c.Description != "" {
		needle := strings.ToLower(c.Description)
		if !strings.Contains(strings.ToLower(rec.Description), needle) &&
			!strings.Contains(strings.ToLower(rec.ParsedDescription), needle) {
			return false
		}
	}
	if c.Category != models.CategoryNone && c.Category != rec.Category {
		return false
	}
	if c.Classified != nil && *c.Classified != rec.IsClassified {
		return false
	}
	return true
}
