package recordstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budge/statements/internal/logging"
	"budge/statements/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	seq                BIGSERIAL,
	key                TEXT PRIMARY KEY,
	account            TEXT NOT NULL,
	date               DATE NOT NULL,
	posted_date        DATE,
	type               TEXT NOT NULL DEFAULT '',
	description        TEXT NOT NULL DEFAULT '',
	amount             TEXT NOT NULL,
	reference          TEXT NOT NULL DEFAULT '',
	memo               TEXT NOT NULL DEFAULT '',
	source_file        TEXT NOT NULL DEFAULT '',
	source_line        INTEGER NOT NULL DEFAULT 0,
	category           TEXT NOT NULL DEFAULT '',
	parsed_description TEXT NOT NULL DEFAULT '',
	parsed_amount      TEXT NOT NULL DEFAULT '0',
	counter_account    TEXT NOT NULL DEFAULT '',
	linked_key         TEXT NOT NULL DEFAULT '',
	rule               TEXT NOT NULL DEFAULT '',
	is_classified      BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS records_unclassified_idx ON records (seq) WHERE NOT is_classified;
`

const selectColumns = `key, account, date, posted_date, type, description, amount, reference, memo,
	source_file, source_line, category, parsed_description, parsed_amount,
	counter_account, linked_key, rule, is_classified`

const insertSQL = `INSERT INTO records (` + selectColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

const updateSQL = `UPDATE records SET
	category = $2, parsed_description = $3, parsed_amount = $4,
	counter_account = $5, linked_key = $6, rule = $7, is_classified = $8
	WHERE key = $1`

// PostgresStore keeps records in a Postgres table. Every commit runs in a
// single transaction.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewPostgresStore connects to dsn and verifies the connection.
func NewPostgresStore(ctx context.Context, dsn string, logger logging.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	return &PostgresStore{pool: pool, logger: logging.OrDefault(logger)}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// EnsureSchema creates the records table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create records schema: %w", err)
	}
	return nil
}

// CommitBatch inserts records in one transaction.
func (s *PostgresStore) CommitBatch(ctx context.Context, batch []models.ClassifiedRecord) error {
	if len(batch) == 0 {
		return nil
	}
	if err := checkNewKeys(batch, nil); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, rec := range batch {
		if _, err := tx.Exec(ctx, insertSQL, insertArgs(rec)...); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("%w: %s", ErrDuplicateKey, rec.Key)
			}
			return fmt.Errorf("failed to insert record %s: %w", rec.Key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	s.logger.Debug("Batch committed",
		logging.F(logging.FieldBackend, "postgres"),
		logging.F(logging.FieldCount, len(batch)))
	return nil
}

// CommitReprocess replaces pre-images with post-images in one transaction,
// locking each row and checking it still equals its pre-image.
func (s *PostgresStore) CommitReprocess(ctx context.Context, pre, post []models.ClassifiedRecord) error {
	if err := checkPairs(pre, post); err != nil {
		return err
	}
	if len(pre) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i := range pre {
		row := tx.QueryRow(ctx, `SELECT `+selectColumns+` FROM records WHERE key = $1 FOR UPDATE`, string(pre[i].Key))
		stored, err := scanRecord(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %s", ErrNotFound, pre[i].Key)
			}
			return fmt.Errorf("failed to read record %s: %w", pre[i].Key, err)
		}
		if !stored.Equal(pre[i]) {
			return fmt.Errorf("%w: %s", ErrConflict, pre[i].Key)
		}

		p := post[i]
		if _, err := tx.Exec(ctx, updateSQL,
			string(p.Key), string(p.Category), p.ParsedDescription, p.ParsedAmount.String(),
			p.CounterAccount, string(p.LinkedKey), p.Rule, p.IsClassified); err != nil {
			return fmt.Errorf("failed to update record %s: %w", p.Key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reprocess: %w", err)
	}
	s.logger.Debug("Reprocess committed",
		logging.F(logging.FieldBackend, "postgres"),
		logging.F(logging.FieldCount, len(post)))
	return nil
}

// All returns every record in insertion order.
func (s *PostgresStore) All(ctx context.Context) ([]models.ClassifiedRecord, error) {
	return s.query(ctx, `SELECT `+selectColumns+` FROM records ORDER BY seq`)
}

// Unclassified returns every record not yet classified, in insertion order.
func (s *PostgresStore) Unclassified(ctx context.Context) ([]models.ClassifiedRecord, error) {
	return s.query(ctx, `SELECT `+selectColumns+` FROM records WHERE NOT is_classified ORDER BY seq`)
}

func (s *PostgresStore) query(ctx context.Context, sql string) ([]models.ClassifiedRecord, error) {
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []models.ClassifiedRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return out, nil
}

func insertArgs(rec models.ClassifiedRecord) []any {
	return []any{
		string(rec.Key), rec.Account, rec.Date, rec.PostedDate, rec.Type, rec.Description,
		rec.Amount.String(), rec.Reference, rec.Memo, rec.SourceFile, rec.SourceLine,
		string(rec.Category), rec.ParsedDescription, rec.ParsedAmount.String(),
		rec.CounterAccount, string(rec.LinkedKey), rec.Rule, rec.IsClassified,
	}
}

func scanRecord(row pgx.Row) (models.ClassifiedRecord, error) {
	var (
		rec                  models.ClassifiedRecord
		key, category, link  string
		amount, parsedAmount string
		date                 time.Time
		posted               *time.Time
	)
	err := row.Scan(&key, &rec.Account, &date, &posted, &rec.Type, &rec.Description,
		&amount, &rec.Reference, &rec.Memo, &rec.SourceFile, &rec.SourceLine,
		&category, &rec.ParsedDescription, &parsedAmount,
		&rec.CounterAccount, &link, &rec.Rule, &rec.IsClassified)
	if err != nil {
		return models.ClassifiedRecord{}, err
	}

	rec.Key = models.RecordKey(key)
	rec.Category = models.Category(category)
	rec.LinkedKey = models.RecordKey(link)
	rec.Date = date
	rec.PostedDate = posted
	if rec.Amount, err = decimal.NewFromString(amount); err != nil {
		return models.ClassifiedRecord{}, fmt.Errorf("record %s has invalid amount %q: %w", key, amount, err)
	}
	if rec.ParsedAmount, err = decimal.NewFromString(parsedAmount); err != nil {
		return models.ClassifiedRecord{}, fmt.Errorf("record %s has invalid parsed amount %q: %w", key, parsedAmount, err)
	}
	return rec, nil
}
