// Package container provides dependency injection for the budge statements
// application. It centralizes the creation and wiring of all application
// dependencies, making them explicit and testable.
package container

import (
	"context"
	"errors"
	"fmt"
	"os"

	"budge/statements/internal/accounts"
	"budge/statements/internal/categorizer"
	"budge/statements/internal/config"
	"budge/statements/internal/export"
	"budge/statements/internal/factory"
	"budge/statements/internal/logging"
	"budge/statements/internal/models"
	"budge/statements/internal/normalizer"
	"budge/statements/internal/pipeline"
	"budge/statements/internal/recordstore"
	"budge/statements/internal/scanner"
	"budge/statements/internal/scheduler"
	"budge/statements/internal/store"
	"budge/statements/internal/transfer"
	"budge/statements/internal/validation"
)

// Container holds all application dependencies and provides methods to
// access them. It is immutable after creation.
type Container struct {
	logger      logging.Logger
	config      *config.Config
	configStore *store.ConfigStore
	gemini      *categorizer.GeminiClient
	categorizer *categorizer.Categorizer
	matcher     *accounts.Matcher
	resolver    *transfer.Resolver
	records     pipeline.RecordStore
	memory      *recordstore.MemoryStore
	postgres    *recordstore.PostgresStore
	pipeline    *pipeline.Pipeline
	scanner     *scanner.StatementScanner
	exporter    *export.Exporter
	scheduler   *scheduler.Scheduler
}

// NewContainer creates and wires all application dependencies.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return NewContainerWithLogger(ctx, cfg, config.ConfigureLoggingFromConfig(cfg))
}

// NewContainerWithLogger is NewContainer with an externally supplied logger.
func NewContainerWithLogger(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	logger = logging.OrDefault(logger)

	c := &Container{
		logger:      logger,
		config:      cfg,
		configStore: store.NewConfigStore(cfg.Rules.File, cfg.Rules.MappingsFile, cfg.Accounts.File, logger),
	}

	opts := categorizer.Options{
		AITimeout: cfg.AITimeout(),
		Learn:     cfg.AI.Learn,
	}
	if cfg.AI.Enabled && cfg.AI.APIKey != "" {
		gemini, err := categorizer.NewGeminiClient(ctx, cfg.AI.APIKey, cfg.AI.Model, logger)
		if err != nil {
			return nil, err
		}
		c.gemini = gemini
		opts.AIClient = gemini
		logger.Info("AI categorization enabled")
	} else {
		logger.Info("AI categorization disabled")
	}

	cat, err := categorizer.NewCategorizer(c.configStore, opts, logger)
	if err != nil {
		c.closeClients()
		return nil, err
	}
	c.categorizer = cat

	declared, err := c.configStore.LoadAccounts()
	if err != nil {
		c.closeClients()
		return nil, err
	}
	c.matcher = accounts.NewMatcher(declared, accounts.Options{
		AmountTolerance: cfg.AmountTolerance(),
		DateWindowDays:  cfg.Matcher.DateWindowDays,
	}, logger)

	if err := c.openRecordStore(ctx); err != nil {
		c.closeClients()
		return nil, err
	}

	c.resolver = transfer.NewResolver(cfg.Transfer.Boilerplate, logger)
	c.pipeline = pipeline.New(
		cat,
		c.resolver,
		c.matcher,
		c.records,
		pipeline.WithNormalizer(normalizer.New(cfg.Input.Delimiter)),
		pipeline.WithFactory(factory.New(factory.WithDateLayouts(cfg.Input.DateLayouts...))),
		pipeline.WithWorkers(cfg.Input.Workers),
		pipeline.WithLogger(logger),
	)
	c.scanner = scanner.NewStatementScanner(cfg.Input.Extensions, logger)
	c.exporter = export.NewExporter(rune(cfg.Input.Delimiter[0]), logger)
	c.scheduler = scheduler.New(c.reprocessJob, cfg.ScheduleTimeout(), logger)

	logger.Info("Container initialized successfully",
		logging.F(logging.FieldBackend, cfg.Store.Backend),
		logging.F("accounts_count", len(declared)),
		logging.F("ai_enabled", c.gemini != nil))

	return c, nil
}

func (c *Container) openRecordStore(ctx context.Context) error {
	switch c.config.Store.Backend {
	case config.BackendPostgres:
		pg, err := recordstore.NewPostgresStore(ctx, c.config.Store.DSN, c.logger)
		if err != nil {
			return err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return err
		}
		c.postgres = pg
		c.records = pg
	default:
		mem := recordstore.NewMemoryStore(c.logger)
		if err := mem.Load(c.config.Store.Path); err != nil {
			return err
		}
		if info, err := os.Stat(c.config.Store.Path); err == nil {
			if err := validation.IsValidFilePermissions(info.Mode().Perm()); err != nil {
				c.logger.Warn("Record snapshot is readable by other users",
					logging.F(logging.FieldFile, c.config.Store.Path),
					logging.F(logging.FieldError, err))
			}
		}
		c.memory = mem
		c.records = mem
	}
	return nil
}

// reprocessJob is the scheduled unit of work: reprocess every stored
// unclassified record and persist the outcome. The memory snapshot is
// reloaded first so records committed by other processes since the last run
// are kept.
func (c *Container) reprocessJob(ctx context.Context) error {
	if c.memory != nil {
		if err := c.memory.Load(c.config.Store.Path); err != nil {
			return err
		}
	}
	updated, err := c.pipeline.ReprocessStore(ctx)
	if err != nil {
		return err
	}
	c.logger.Info("Reprocess finished", logging.F(logging.FieldCount, updated))
	return c.Persist()
}

// Records returns the stored records matching criteria, in store order.
func (c *Container) Records(ctx context.Context, criteria recordstore.Criteria) ([]models.ClassifiedRecord, error) {
	if c.memory != nil {
		return c.memory.Filter(criteria), nil
	}
	all, err := c.records.All(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]models.ClassifiedRecord, 0, len(all))
	for _, rec := range all {
		if criteria.Matches(rec) {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

// Persist writes the memory snapshot, when that backend is in use and has
// unsaved commits, and any mappings the categorizer learned.
func (c *Container) Persist() error {
	var errs []error
	if c.memory != nil {
		if err := c.memory.Save(c.config.Store.Path); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.categorizer.SaveLearned(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetConfigStore returns the store for rules, mappings and accounts.
func (c *Container) GetConfigStore() *store.ConfigStore {
	return c.configStore
}

// GetCategorizer returns the container's categorizer instance.
func (c *Container) GetCategorizer() *categorizer.Categorizer {
	return c.categorizer
}

// GetMatcher returns the account matcher.
func (c *Container) GetMatcher() *accounts.Matcher {
	return c.matcher
}

// GetResolver returns the transfer description resolver.
func (c *Container) GetResolver() *transfer.Resolver {
	return c.resolver
}

// GetRecordStore returns the configured record store backend.
func (c *Container) GetRecordStore() pipeline.RecordStore {
	return c.records
}

// GetPipeline returns the ingestion pipeline.
func (c *Container) GetPipeline() *pipeline.Pipeline {
	return c.pipeline
}

// GetScanner returns the statement file scanner.
func (c *Container) GetScanner() *scanner.StatementScanner {
	return c.scanner
}

// GetExporter returns the record exporter.
func (c *Container) GetExporter() *export.Exporter {
	return c.exporter
}

// GetScheduler returns the reprocess scheduler.
func (c *Container) GetScheduler() *scheduler.Scheduler {
	return c.scheduler
}

func (c *Container) closeClients() {
	if c.gemini != nil {
		if err := c.gemini.Close(); err != nil {
			c.logger.Warn("Failed to close AI client", logging.F(logging.FieldError, err))
		}
		c.gemini = nil
	}
	if c.postgres != nil {
		c.postgres.Close()
		c.postgres = nil
	}
}

// Close persists pending state and releases external clients.
func (c *Container) Close() error {
	c.scheduler.Stop()
	err := c.Persist()
	c.closeClients()
	c.logger.Info("Container closed")
	return err
}
