package sqlengine

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/sqlengine/internal/adapters"
)

const (
	// DialectPostgres selects PostgreSQL SQL and error codes.
	DialectPostgres = "postgres"

	// DialectSQLite3 selects SQLite SQL and error codes.
	DialectSQLite3 = "sqlite3"
)

const (
	logMsgBeginTxFailed       = "failed to begin transaction"
	logMsgCommitFailed        = "failed to commit transaction"
	logMsgRollbackFailed      = "failed to roll back transaction"
	logMsgMigrationFailed     = "schema migration failed"
	logMsgUnitCompleted       = "unit of work completed"
	logMsgUnitRolledBack      = "unit of work rolled back"
	logMsgSchemaMigrated      = "schema migrated"
	logMsgConcurrencyConflict = "concurrency conflict detected"
	logAttrDialect            = "dialect"
	logAttrStatements         = "statements"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Store is a circulation.Engine backed by PostgreSQL or SQLite.
type Store struct {
	db               adapters.DBAdapter
	dialect          string
	logger           circulation.Logger
	contextualLogger circulation.ContextualLogger
	metricsCollector circulation.MetricsCollector
	tracingCollector circulation.TracingCollector
}

var _ circulation.Engine = (*Store)(nil)

// NewStoreFromPGXPool creates a new PostgreSQL Store using a pgx Pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil {
		return nil, circulation.ErrNilDatabaseConnection
	}

	s, err := newStore(options)
	if err != nil {
		return nil, err
	}

	if s.dialect != DialectPostgres {
		return nil, fmt.Errorf("%w: pgx pools only support %q", circulation.ErrUnsupportedDialect, DialectPostgres)
	}

	s.db = adapters.NewPGXAdapter(db)

	return s, nil
}

// NewStoreFromPGXPoolWithReplica creates a new PostgreSQL Store using a primary and a replica pgx Pool.
// Reads with a context marked by circulation.WithEventualConsistency are routed to the replica,
// everything else (including every unit of work) goes to the primary.
func NewStoreFromPGXPoolWithReplica(primary, replica *pgxpool.Pool, options ...Option) (*Store, error) {
	if primary == nil || replica == nil {
		return nil, circulation.ErrNilDatabaseConnection
	}

	s, err := NewStoreFromPGXPool(primary, options...)
	if err != nil {
		return nil, err
	}

	s.db = adapters.NewPGXAdapterWithReplica(primary, replica)

	return s, nil
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
// For DialectSQLite3 the pool is limited to a single connection.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, circulation.ErrNilDatabaseConnection
	}

	s, err := newStore(options)
	if err != nil {
		return nil, err
	}

	if s.dialect == DialectSQLite3 {
		db.SetMaxOpenConns(1)
	}

	s.db = adapters.NewSQLAdapter(db, txOptions(s.dialect))

	return s, nil
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
// For DialectSQLite3 the pool is limited to a single connection.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, circulation.ErrNilDatabaseConnection
	}

	s, err := newStore(options)
	if err != nil {
		return nil, err
	}

	if s.dialect == DialectSQLite3 {
		db.SetMaxOpenConns(1)
	}

	s.db = adapters.NewSQLXAdapter(db, txOptions(s.dialect))

	return s, nil
}

func newStore(options []Option) (*Store, error) {
	s := &Store{dialect: DialectPostgres}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func txOptions(dialect string) *sql.TxOptions {
	if dialect == DialectPostgres {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}

	return nil
}

// Dialect returns the SQL dialect of the Store.
func (s *Store) Dialect() string {
	return s.dialect
}

// Migrate creates all tables and indexes that do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	ddl, err := schemaFS.ReadFile("schema/" + s.dialect + ".sql")
	if err != nil {
		return fmt.Errorf("%w: %q", circulation.ErrUnsupportedDialect, s.dialect)
	}

	statements := splitStatements(string(ddl))

	for _, statement := range statements {
		start := time.Now()
		_, execErr := s.db.Exec(ctx, statement)
		s.logQueryWithDuration(ctx, statement, actionMigrate, time.Since(start))

		if execErr != nil {
			s.logError(ctx, logMsgMigrationFailed, execErr, logAttrQuery, statement)
			return errors.Join(circulation.ErrWritingFailed, execErr)
		}
	}

	s.logOperation(ctx, logMsgSchemaMigrated, logAttrDialect, s.dialect, logAttrStatements, len(statements))

	return nil
}

func splitStatements(ddl string) []string {
	statements := make([]string, 0)

	for _, part := range strings.Split(ddl, ";") {
		if statement := strings.TrimSpace(part); statement != "" {
			statements = append(statements, statement)
		}
	}

	return statements
}

// Atomically runs fn inside one database transaction.
// The transaction is committed if fn returns nil and rolled back otherwise, also when fn panics.
func (s *Store) Atomically(ctx context.Context, fn circulation.TxFunc) (err error) {
	tracing, ctx := s.startUnitTracing(ctx)
	metrics := s.startUnitMetrics(ctx)
	start := time.Now()

	dbTx, beginErr := s.db.BeginTx(ctx)
	if beginErr != nil {
		err = s.translate(beginErr, circulation.ErrWritingFailed)
		s.logError(ctx, logMsgBeginTxFailed, beginErr)
		s.finishUnit(ctx, tracing, metrics, err, time.Since(start))

		return err
	}

	defer func() {
		if r := recover(); r != nil {
			s.rollback(ctx, dbTx)
			panic(r)
		}
	}()

	if err = fn(&view{store: s, q: dbTx}); err != nil {
		s.rollback(ctx, dbTx)
		s.logOperation(ctx, logMsgUnitRolledBack, logAttrError, err.Error())
		s.finishUnit(ctx, tracing, metrics, err, time.Since(start))

		return err
	}

	if commitErr := dbTx.Commit(ctx); commitErr != nil {
		err = s.translate(commitErr, circulation.ErrWritingFailed)
		s.logError(ctx, logMsgCommitFailed, commitErr)
		s.finishUnit(ctx, tracing, metrics, err, time.Since(start))

		return err
	}

	duration := time.Since(start)
	s.logOperation(ctx, logMsgUnitCompleted, logAttrDurationMS, toMilliseconds(duration))
	s.finishUnit(ctx, tracing, metrics, nil, duration)

	return nil
}

func (s *Store) rollback(ctx context.Context, dbTx adapters.DBTx) {
	if err := dbTx.Rollback(context.WithoutCancel(ctx)); err != nil {
		s.logWarn(ctx, logMsgRollbackFailed, err)
	}
}

// reader returns a view that runs each statement on its own, outside of any unit of work.
func (s *Store) reader() *view {
	return &view{store: s, q: s.db}
}

// GetBook returns the active book with the given id.
func (s *Store) GetBook(ctx context.Context, id int64) (circulation.Book, error) {
	return s.reader().GetBook(ctx, id)
}

// GetStudent returns the active student with the given id.
func (s *Store) GetStudent(ctx context.Context, id int64) (circulation.Student, error) {
	return s.reader().GetStudent(ctx, id)
}

// ListBooks returns all active books ordered by id.
func (s *Store) ListBooks(ctx context.Context) ([]circulation.Book, error) {
	return s.reader().ListBooks(ctx)
}

// ListStudents returns all active students ordered by id.
func (s *Store) ListStudents(ctx context.Context) ([]circulation.Student, error) {
	return s.reader().ListStudents(ctx)
}

// SetBookAvailable sets the availability flag of a book.
func (s *Store) SetBookAvailable(ctx context.Context, id int64, available bool) error {
	return s.Atomically(ctx, func(tx circulation.Tx) error {
		return tx.SetBookAvailable(ctx, id, available)
	})
}

// AddBook adds an available book to the catalog.
func (s *Store) AddBook(ctx context.Context, title, author string) (book circulation.Book, err error) {
	err = s.Atomically(ctx, func(tx circulation.Tx) error {
		book, err = tx.AddBook(ctx, title, author)
		return err
	})

	return book, err
}

// AddStudent registers a student.
func (s *Store) AddStudent(ctx context.Context, name, email string) (student circulation.Student, err error) {
	err = s.Atomically(ctx, func(tx circulation.Tx) error {
		student, err = tx.AddStudent(ctx, name, email)
		return err
	})

	return student, err
}

// RemoveBook soft-deletes a book that is not on loan.
func (s *Store) RemoveBook(ctx context.Context, id int64) error {
	return s.Atomically(ctx, func(tx circulation.Tx) error {
		return tx.RemoveBook(ctx, id)
	})
}

// RemoveStudent soft-deletes a student without open issue logs.
func (s *Store) RemoveStudent(ctx context.Context, id int64) error {
	return s.Atomically(ctx, func(tx circulation.Tx) error {
		return tx.RemoveStudent(ctx, id)
	})
}

// GetEntry returns the issue log with the given id.
func (s *Store) GetEntry(ctx context.Context, logID int64) (circulation.IssueLog, error) {
	return s.reader().GetEntry(ctx, logID)
}

// OpenEntryForBook returns the open issue log of a book, if there is one.
func (s *Store) OpenEntryForBook(ctx context.Context, bookID int64) (circulation.IssueLog, bool, error) {
	return s.reader().OpenEntryForBook(ctx, bookID)
}

// OpenEntriesForStudent returns the open issue logs of a student.
func (s *Store) OpenEntriesForStudent(ctx context.Context, studentID int64) ([]circulation.IssueLog, error) {
	return s.reader().OpenEntriesForStudent(ctx, studentID)
}

// Entries returns all issue logs ordered by id.
func (s *Store) Entries(ctx context.Context) ([]circulation.IssueLog, error) {
	return s.reader().Entries(ctx)
}

// CreateEntry appends an open issue log.
func (s *Store) CreateEntry(ctx context.Context, studentID, bookID int64, issueDate time.Time) (entry circulation.IssueLog, err error) {
	err = s.Atomically(ctx, func(tx circulation.Tx) error {
		entry, err = tx.CreateEntry(ctx, studentID, bookID, issueDate)
		return err
	})

	return entry, err
}

// CloseEntry sets the return date of an open issue log.
func (s *Store) CloseEntry(ctx context.Context, logID int64, returnDate time.Time) (entry circulation.IssueLog, err error) {
	err = s.Atomically(ctx, func(tx circulation.Tx) error {
		entry, err = tx.CloseEntry(ctx, logID, returnDate)
		return err
	})

	return entry, err
}

// AddAdmin adds administrator credentials.
func (s *Store) AddAdmin(ctx context.Context, username, password string) (circulation.Admin, error) {
	return s.reader().AddAdmin(ctx, username, password)
}

// AuthenticateAdmin checks username and password against the stored credentials.
func (s *Store) AuthenticateAdmin(ctx context.Context, username, password string) (circulation.Admin, error) {
	return s.reader().AuthenticateAdmin(ctx, username, password)
}
