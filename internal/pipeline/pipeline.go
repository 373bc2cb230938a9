// Package pipeline ingests statement files and classifies their records.
//
// Process reads files, classifies every record and commits the whole batch
// at once, or nothing when any file or row failed. Reprocess retries
// classification of unresolved records and commits only those that
// succeeded.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"budge/statements/internal/factory"
	"budge/statements/internal/logging"
	"budge/statements/internal/models"
	"budge/statements/internal/normalizer"
	"budge/statements/internal/parsererror"
)

// Pipeline wires the ingestion and classification steps together.
type Pipeline struct {
	normalizer *normalizer.Normalizer
	factory    *factory.RecordFactory
	engine     RuleEngine
	resolver   TransferResolver
	matcher    AccountMatcher
	store      RecordStore
	workers    int
	logger     logging.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithNormalizer replaces the default comma normalizer.
func WithNormalizer(n *normalizer.Normalizer) Option {
	return func(p *Pipeline) { p.normalizer = n }
}

// WithFactory replaces the default record factory.
func WithFactory(f *factory.RecordFactory) Option {
	return func(p *Pipeline) { p.factory = f }
}

// WithWorkers sets how many files are read concurrently.
func WithWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = n }
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// New creates a pipeline around its collaborators.
func New(engine RuleEngine, resolver TransferResolver, matcher AccountMatcher, store RecordStore, opts ...Option) *Pipeline {
	p := &Pipeline{
		engine:   engine,
		resolver: resolver,
		matcher:  matcher,
		store:    store,
		workers:  1,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.normalizer == nil {
		p.normalizer = normalizer.New(normalizer.DefaultDelimiter)
	}
	if p.factory == nil {
		p.factory = factory.New()
	}
	p.logger = logging.OrDefault(p.logger)
	return p
}

// Process ingests files. Every file and row failure is collected; if there
// is any, the returned *parsererror.IngestionError lists them all in file
// then row order and the store is not touched. Otherwise every record is
// classified and the batch is committed in one call.
func (p *Pipeline) Process(ctx context.Context, files []string) error {
	start := time.Now()

	var (
		records []models.Record
		errs    []error
	)
	for _, result := range p.readAll(files) {
		records = append(records, result.records...)
		errs = append(errs, result.errs...)
	}

	if err := parsererror.Join(errs); err != nil {
		p.logger.WithError(err).Error("Ingestion failed, nothing committed",
			logging.F(logging.FieldCount, len(errs)),
			logging.F(logging.FieldOperation, "process"))
		return err
	}

	batch := make([]models.ClassifiedRecord, len(records))
	for i, rec := range records {
		batch[i] = models.NewClassifiedRecord(rec)
	}
	if err := p.preparePool(ctx, batch); err != nil {
		return err
	}

	classifiedCount := 0
	for i := range batch {
		if p.classify(ctx, &batch[i]) {
			classifiedCount++
		}
	}

	if len(batch) > 0 {
		if err := p.store.CommitBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to commit batch: %w", err)
		}
	}

	p.logger.Info("Statements processed",
		logging.F("files", len(files)),
		logging.F(logging.FieldCount, len(batch)),
		logging.F("classified", classifiedCount),
		logging.F(logging.FieldDuration, time.Since(start).String()))
	return nil
}

// Reprocess retries classification of the unclassified candidates. Each
// candidate's pre-image is kept as given and a clone is classified, so a
// failed attempt changes nothing. Successful records are committed together
// with their pre-images in one call; the number committed is returned.
func (p *Pipeline) Reprocess(ctx context.Context, candidates []models.ClassifiedRecord) (int, error) {
	work := make([]models.ClassifiedRecord, 0, len(candidates))
	for _, c := range candidates {
		if !c.IsClassified {
			work = append(work, c)
		}
	}

	if err := p.preparePool(ctx, nil); err != nil {
		return 0, err
	}

	var pre, post []models.ClassifiedRecord
	for _, candidate := range work {
		outcome := p.attempt(ctx, candidate)
		if !outcome.updated {
			continue
		}
		pre = append(pre, candidate)
		post = append(post, outcome.state)
	}

	if len(post) == 0 {
		p.logger.Info("Reprocess found nothing new", logging.F("candidates", len(work)))
		return 0, nil
	}

	if err := p.store.CommitReprocess(ctx, pre, post); err != nil {
		return 0, fmt.Errorf("failed to commit reprocess: %w", err)
	}

	p.logger.Info("Reprocess committed",
		logging.F("candidates", len(work)),
		logging.F(logging.FieldCount, len(post)))
	return len(post), nil
}

// ReprocessStore reprocesses every unclassified record in the store.
func (p *Pipeline) ReprocessStore(ctx context.Context) (int, error) {
	candidates, err := p.store.Unclassified(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read unclassified records: %w", err)
	}
	return p.Reprocess(ctx, candidates)
}

// outcome of one reprocess attempt. The zero value means unchanged.
type outcome struct {
	updated bool
	state   models.ClassifiedRecord
}

func (p *Pipeline) attempt(ctx context.Context, candidate models.ClassifiedRecord) outcome {
	state := candidate.Clone()
	if !p.classify(ctx, &state) {
		return outcome{}
	}
	return outcome{updated: true, state: state}
}

// classify runs the rule engine, transfer resolution and account matching
// against rec and reports whether the rule engine matched.
func (p *Pipeline) classify(ctx context.Context, rec *models.ClassifiedRecord) bool {
	ok := p.engine.Classify(ctx, rec)
	if ok && rec.IsTransfer() {
		p.resolver.Resolve(rec)
	}
	p.matcher.Match(rec)
	return ok
}

// preparePool hands the matcher every stored record plus the batch under
// work, when the matcher wants them.
func (p *Pipeline) preparePool(ctx context.Context, batch []models.ClassifiedRecord) error {
	preparer, ok := p.matcher.(PoolPreparer)
	if !ok {
		return nil
	}

	stored, err := p.store.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stored records: %w", err)
	}
	pool := make([]models.ClassifiedRecord, 0, len(stored)+len(batch))
	pool = append(pool, stored...)
	pool = append(pool, batch...)
	preparer.Prepare(pool)
	return nil
}
