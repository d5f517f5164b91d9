package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

const sqliteBusyTimeoutMS = 5000

// SQLLedger persists published articles; the unique link column makes inserts idempotent.
type SQLLedger struct {
	db       *sql.DB
	builder  sq.StatementBuilderType
	location *time.Location
	now      func() time.Time
}

var _ ports.Ledger = (*SQLLedger)(nil)

// Option customizes a SQLLedger.
type Option func(*SQLLedger)

// WithClock overrides the publication timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *SQLLedger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLocation sets the timezone used for calendar-date reports.
func WithLocation(loc *time.Location) Option {
	return func(l *SQLLedger) {
		if loc != nil {
			l.location = loc
		}
	}
}

// Open connects to the configured engine and creates the schema.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*SQLLedger, error) {
	d, err := lookupDialect(driver)
	if err != nil {
		return nil, err
	}
	if dsn == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	if d.driver == "sqlite" {
		if dir := sqliteDir(dsn); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create ledger dir: %w", err)
			}
		}
	}

	if d.driver == "sqlite" {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	if d.driver == "sqlite" {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driver, err)
	}

	ledger, err := NewSQLLedger(ctx, db, driver, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return ledger, nil
}

// NewSQLLedger wires an existing sql.DB and ensures the schema exists.
func NewSQLLedger(ctx context.Context, db *sql.DB, driver string, opts ...Option) (*SQLLedger, error) {
	d, err := lookupDialect(driver)
	if err != nil {
		return nil, err
	}

	l := &SQLLedger{
		db:       db,
		builder:  sq.StatementBuilder.PlaceholderFormat(d.placeholder),
		location: time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("%w: create schema: %w", domain.ErrStorage, err)
		}
	}

	return l, nil
}

// Close releases the database handle.
func (l *SQLLedger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Contains reports whether the link was already published.
func (l *SQLLedger) Contains(ctx context.Context, link string) (bool, error) {
	query, args, err := l.builder.Select("1").From(ledgerTable).Where(sq.Eq{"link": link}).Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build contains: %w", err)
	}

	var one int
	err = l.db.QueryRowContext(ctx, query, args...).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("%w: query link: %w", domain.ErrStorage, err)
	}
	return true, nil
}

// Record inserts the entry unless its link is already present.
// It reports whether this call created the entry.
func (l *SQLLedger) Record(ctx context.Context, entry domain.LedgerEntry) (bool, error) {
	if strings.TrimSpace(entry.Link) == "" {
		return false, fmt.Errorf("%w: empty link", domain.ErrInvalidInput)
	}

	publishedAt := entry.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = l.now()
	}

	query, args, err := l.builder.
		Insert(ledgerTable).
		Columns("title", "link", "source", "message_id", "published_at").
		Values(entry.Title, entry.Link, entry.Source, nullableRef(entry.MessageRef), publishedAt.UTC().UnixMicro()).
		Suffix("ON CONFLICT (link) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	res, err := l.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: insert entry: %w", domain.ErrStorage, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected: %w", domain.ErrStorage, err)
	}
	return affected > 0, nil
}

// LookupForDelete returns the transport reference stored for link.
func (l *SQLLedger) LookupForDelete(ctx context.Context, link string) (domain.MessageRef, bool, error) {
	query, args, err := l.builder.Select("message_id").From(ledgerTable).Where(sq.Eq{"link": link}).Limit(1).ToSql()
	if err != nil {
		return 0, false, fmt.Errorf("build lookup: %w", err)
	}

	var ref sql.NullInt64
	err = l.db.QueryRowContext(ctx, query, args...).Scan(&ref)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("%w: lookup link: %w", domain.ErrStorage, err)
	}

	if !ref.Valid {
		return 0, true, nil
	}
	return domain.MessageRef(ref.Int64), true, nil
}

// Remove deletes the entry for link and reports whether one existed.
func (l *SQLLedger) Remove(ctx context.Context, link string) (bool, error) {
	query, args, err := l.builder.Delete(ledgerTable).Where(sq.Eq{"link": link}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete: %w", err)
	}

	res, err := l.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: delete entry: %w", domain.ErrStorage, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected: %w", domain.ErrStorage, err)
	}
	return affected > 0, nil
}

// Report lists entries matching filter, newest first.
func (l *SQLLedger) Report(ctx context.Context, filter domain.ReportFilter) ([]domain.LedgerEntry, error) {
	q := l.builder.
		Select("title", "link", "source", "message_id", "published_at").
		From(ledgerTable).
		OrderBy("published_at DESC", "id DESC")

	switch filter.Kind {
	case domain.ReportDate:
		start := time.Date(filter.Day.Year(), filter.Day.Month(), filter.Day.Day(), 0, 0, 0, 0, l.location)
		end := start.AddDate(0, 0, 1)
		q = q.Where(sq.And{
			sq.GtOrEq{"published_at": start.UTC().UnixMicro()},
			sq.Lt{"published_at": end.UTC().UnixMicro()},
		})
	case domain.ReportLast:
		if filter.Limit <= 0 {
			return nil, fmt.Errorf("%w: report limit must be positive", domain.ErrInvalidInput)
		}
		q = q.Limit(uint64(filter.Limit))
	default:
		limit := filter.Limit
		if limit <= 0 {
			limit = domain.DefaultReportLimit
		}
		q = q.Limit(uint64(limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query report: %w", domain.ErrStorage, err)
	}

	var entries []domain.LedgerEntry
	for rows.Next() {
		var (
			entry  domain.LedgerEntry
			ref    sql.NullInt64
			micros int64
		)
		if err := rows.Scan(&entry.Title, &entry.Link, &entry.Source, &ref, &micros); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("%w: scan entry: %w", domain.ErrStorage, err)
		}
		if ref.Valid {
			entry.MessageRef = domain.MessageRef(ref.Int64)
		}
		entry.PublishedAt = time.UnixMicro(micros).In(l.location)
		entries = append(entries, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("%w: rows iteration: %w", domain.ErrStorage, rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("%w: close rows: %w", domain.ErrStorage, closeErr)
	}

	return entries, nil
}

func nullableRef(ref domain.MessageRef) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(ref), Valid: ref != 0}
}

// sqliteDSN makes writers wait for a lock held by another process instead of failing with SQLITE_BUSY.
func sqliteDSN(dsn string) string {
	var pragmas []string
	if !strings.Contains(dsn, "busy_timeout") {
		pragmas = append(pragmas, "_pragma=busy_timeout("+strconv.Itoa(sqliteBusyTimeoutMS)+")")
	}
	if dsn != ":memory:" && !strings.Contains(dsn, "journal_mode") {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	if len(pragmas) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(pragmas, "&")
}

func sqliteDir(dsn string) string {
	if i := strings.IndexByte(dsn, '?'); i >= 0 {
		dsn = dsn[:i]
	}
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return ""
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return ""
	}
	return dir
}
