package sqlengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/sqlengine/internal/adapters"
)

const (
	tableBooks     = "books"
	tableStudents  = "students"
	tableIssueLogs = "issuelogs"
	tableAdmins    = "admins"

	colBookID     = "book_id"
	colStudentID  = "student_id"
	colLogID      = "log_id"
	colAdminID    = "admin_id"
	colTitle      = "title"
	colAuthor     = "author"
	colAvailable  = "available"
	colRemoved    = "removed"
	colName       = "name"
	colEmail      = "email"
	colIssueDate  = "issue_date"
	colReturnDate = "return_date"
	colUsername   = "username"
	colPassword   = "password"

	logMsgBuildQueryFailed   = "failed to build query"
	logMsgDBQueryFailed      = "database query execution failed"
	logMsgDBExecFailed       = "database statement execution failed"
	logMsgScanRowFailed      = "failed to scan database row"
	logMsgRowsAffectedFailed = "failed to get rows affected count"
)

// sqlBuilder is implemented by all goqu datasets.
type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

// view is a circulation.Tx bound to either a transaction or the plain connection pool.
type view struct {
	store *Store
	q     adapters.Querier
}

var _ circulation.Tx = (*view)(nil)

func (v *view) builder() goqu.DialectWrapper {
	return goqu.Dialect(v.store.dialect)
}

func (v *view) toSQL(ctx context.Context, stmt sqlBuilder) (string, error) {
	sqlQuery, _, err := stmt.ToSQL()
	if err != nil {
		v.store.logError(ctx, logMsgBuildQueryFailed, err)
		return "", errors.Join(circulation.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, nil
}

// query runs sqlQuery and calls scan once per row. Rows are closed before it returns,
// so that the next statement can run on the same connection.
func (v *view) query(ctx context.Context, action, sqlQuery string, scan func(rows adapters.DBRows) error) error {
	start := time.Now()
	rows, err := v.q.Query(ctx, sqlQuery)
	duration := time.Since(start)
	v.store.logQueryWithDuration(ctx, sqlQuery, action, duration)

	if err != nil {
		v.store.logError(ctx, logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)
		v.store.recordDuration(ctx, metricQueryDuration, duration, action, statusError)
		return v.store.translate(err, circulation.ErrQueryingFailed)
	}
	defer v.store.closeRows(ctx, rows)

	for rows.Next() {
		if scanErr := scan(rows); scanErr != nil {
			v.store.logError(ctx, logMsgScanRowFailed, scanErr)
			return errors.Join(circulation.ErrScanningDBRowFailed, scanErr)
		}
	}

	if err = rows.Err(); err != nil {
		v.store.logError(ctx, logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)
		return v.store.translate(err, circulation.ErrQueryingFailed)
	}

	v.store.recordDuration(ctx, metricQueryDuration, duration, action, statusSuccess)

	return nil
}

func (v *view) selectRows(ctx context.Context, stmt sqlBuilder, scan func(rows adapters.DBRows) error) error {
	sqlQuery, err := v.toSQL(ctx, stmt)
	if err != nil {
		return err
	}

	return v.query(ctx, actionQuery, sqlQuery, scan)
}

// insert runs an INSERT and returns the generated id. Both dialects support RETURNING,
// but goqu only renders it for postgres, so it is appended here.
func (v *view) insert(ctx context.Context, stmt sqlBuilder, idColumn string) (int64, error) {
	sqlQuery, err := v.toSQL(ctx, stmt)
	if err != nil {
		return 0, err
	}

	sqlQuery += " RETURNING " + idColumn

	var id int64
	err = v.query(ctx, actionInsert, sqlQuery, func(rows adapters.DBRows) error {
		return rows.Scan(&id)
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

// update runs an UPDATE and returns the number of affected rows.
func (v *view) update(ctx context.Context, stmt sqlBuilder) (int64, error) {
	sqlQuery, err := v.toSQL(ctx, stmt)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	result, err := v.q.Exec(ctx, sqlQuery)
	v.store.logQueryWithDuration(ctx, sqlQuery, actionUpdate, time.Since(start))

	if err != nil {
		v.store.logError(ctx, logMsgDBExecFailed, err, logAttrQuery, sqlQuery)
		return 0, v.store.translate(err, circulation.ErrWritingFailed)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		v.store.logError(ctx, logMsgRowsAffectedFailed, err)
		return 0, errors.Join(circulation.ErrWritingFailed, err)
	}

	return rowsAffected, nil
}

// === Catalog ===

func (v *view) selectBooks() *goqu.SelectDataset {
	return v.builder().
		From(tableBooks).
		Select(colBookID, colTitle, colAuthor, colAvailable).
		Where(goqu.Ex{colRemoved: false}).
		Order(goqu.I(colBookID).Asc())
}

func scanBook(rows adapters.DBRows) (circulation.Book, error) {
	var book circulation.Book
	err := rows.Scan(&book.ID, &book.Title, &book.Author, &book.Available)

	return book, err
}

func (v *view) GetBook(ctx context.Context, id int64) (circulation.Book, error) {
	books, err := v.collectBooks(ctx, v.selectBooks().Where(goqu.Ex{colBookID: id}))
	if err != nil {
		return circulation.Book{}, err
	}

	if len(books) == 0 {
		return circulation.Book{}, fmt.Errorf("book %d: %w", id, circulation.ErrNotFound)
	}

	return books[0], nil
}

func (v *view) ListBooks(ctx context.Context) ([]circulation.Book, error) {
	return v.collectBooks(ctx, v.selectBooks())
}

func (v *view) collectBooks(ctx context.Context, stmt sqlBuilder) ([]circulation.Book, error) {
	books := make([]circulation.Book, 0)

	err := v.selectRows(ctx, stmt, func(rows adapters.DBRows) error {
		book, err := scanBook(rows)
		if err != nil {
			return err
		}

		books = append(books, book)

		return nil
	})

	return books, err
}

func (v *view) selectStudents() *goqu.SelectDataset {
	return v.builder().
		From(tableStudents).
		Select(colStudentID, colName, colEmail).
		Where(goqu.Ex{colRemoved: false}).
		Order(goqu.I(colStudentID).Asc())
}

func (v *view) GetStudent(ctx context.Context, id int64) (circulation.Student, error) {
	students, err := v.collectStudents(ctx, v.selectStudents().Where(goqu.Ex{colStudentID: id}))
	if err != nil {
		return circulation.Student{}, err
	}

	if len(students) == 0 {
		return circulation.Student{}, fmt.Errorf("student %d: %w", id, circulation.ErrNotFound)
	}

	return students[0], nil
}

func (v *view) ListStudents(ctx context.Context) ([]circulation.Student, error) {
	return v.collectStudents(ctx, v.selectStudents())
}

func (v *view) collectStudents(ctx context.Context, stmt sqlBuilder) ([]circulation.Student, error) {
	students := make([]circulation.Student, 0)

	err := v.selectRows(ctx, stmt, func(rows adapters.DBRows) error {
		var student circulation.Student
		if err := rows.Scan(&student.ID, &student.Name, &student.Email); err != nil {
			return err
		}

		students = append(students, student)

		return nil
	})

	return students, err
}

func (v *view) SetBookAvailable(ctx context.Context, id int64, available bool) error {
	rowsAffected, err := v.update(ctx, v.builder().
		Update(tableBooks).
		Set(goqu.Record{colAvailable: available}).
		Where(goqu.Ex{colBookID: id, colRemoved: false}))
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("book %d: %w", id, circulation.ErrNotFound)
	}

	return nil
}

func (v *view) AddBook(ctx context.Context, title, author string) (circulation.Book, error) {
	if err := circulation.ValidateBook(title, author); err != nil {
		return circulation.Book{}, err
	}

	book := circulation.Book{
		Title:     strings.TrimSpace(title),
		Author:    strings.TrimSpace(author),
		Available: true,
	}

	id, err := v.insert(ctx, v.builder().
		Insert(tableBooks).
		Rows(goqu.Record{colTitle: book.Title, colAuthor: book.Author, colAvailable: true, colRemoved: false}),
		colBookID)
	if err != nil {
		return circulation.Book{}, err
	}

	book.ID = id

	return book, nil
}

func (v *view) AddStudent(ctx context.Context, name, email string) (circulation.Student, error) {
	if err := circulation.ValidateStudent(name, email); err != nil {
		return circulation.Student{}, err
	}

	student := circulation.Student{
		Name:  strings.TrimSpace(name),
		Email: circulation.NormalizeEmail(email),
	}

	id, err := v.insert(ctx, v.builder().
		Insert(tableStudents).
		Rows(goqu.Record{colName: student.Name, colEmail: student.Email, colRemoved: false}),
		colStudentID)
	if err != nil {
		return circulation.Student{}, fmt.Errorf("student email %q: %w", student.Email, err)
	}

	student.ID = id

	return student, nil
}

func (v *view) RemoveBook(ctx context.Context, id int64) error {
	if _, err := v.GetBook(ctx, id); err != nil {
		return err
	}

	_, open, err := v.OpenEntryForBook(ctx, id)
	if err != nil {
		return err
	}

	if open {
		return fmt.Errorf("remove book %d: %w", id, circulation.ErrConflict)
	}

	_, err = v.update(ctx, v.builder().
		Update(tableBooks).
		Set(goqu.Record{colRemoved: true}).
		Where(goqu.Ex{colBookID: id}))

	return err
}

func (v *view) RemoveStudent(ctx context.Context, id int64) error {
	if _, err := v.GetStudent(ctx, id); err != nil {
		return err
	}

	open, err := v.OpenEntriesForStudent(ctx, id)
	if err != nil {
		return err
	}

	if len(open) > 0 {
		return fmt.Errorf("remove student %d: %w", id, circulation.ErrConflict)
	}

	_, err = v.update(ctx, v.builder().
		Update(tableStudents).
		Set(goqu.Record{colRemoved: true}).
		Where(goqu.Ex{colStudentID: id}))

	return err
}

// === Ledger ===

func (v *view) selectEntries() *goqu.SelectDataset {
	return v.builder().
		From(tableIssueLogs).
		Select(colLogID, colStudentID, colBookID, colIssueDate, colReturnDate).
		Order(goqu.I(colLogID).Asc())
}

func (v *view) collectEntries(ctx context.Context, stmt sqlBuilder) ([]circulation.IssueLog, error) {
	entries := make([]circulation.IssueLog, 0)

	err := v.selectRows(ctx, stmt, func(rows adapters.DBRows) error {
		var entry circulation.IssueLog
		var issueDate time.Time
		var returnDate sql.NullTime

		if err := rows.Scan(&entry.ID, &entry.StudentID, &entry.BookID, &issueDate, &returnDate); err != nil {
			return err
		}

		entry.IssueDate = circulation.Day(issueDate)
		if returnDate.Valid {
			entry.ReturnDate = circulation.Day(returnDate.Time)
		}

		entries = append(entries, entry)

		return nil
	})

	return entries, err
}

func (v *view) GetEntry(ctx context.Context, logID int64) (circulation.IssueLog, error) {
	entries, err := v.collectEntries(ctx, v.selectEntries().Where(goqu.Ex{colLogID: logID}))
	if err != nil {
		return circulation.IssueLog{}, err
	}

	if len(entries) == 0 {
		return circulation.IssueLog{}, fmt.Errorf("issue log %d: %w", logID, circulation.ErrNotFound)
	}

	return entries[0], nil
}

func (v *view) OpenEntryForBook(ctx context.Context, bookID int64) (circulation.IssueLog, bool, error) {
	entries, err := v.collectEntries(ctx, v.selectEntries().Where(
		goqu.C(colBookID).Eq(bookID),
		goqu.C(colReturnDate).IsNull(),
	))
	if err != nil {
		return circulation.IssueLog{}, false, err
	}

	if len(entries) == 0 {
		return circulation.IssueLog{}, false, nil
	}

	return entries[0], true, nil
}

func (v *view) OpenEntriesForStudent(ctx context.Context, studentID int64) ([]circulation.IssueLog, error) {
	return v.collectEntries(ctx, v.selectEntries().Where(
		goqu.C(colStudentID).Eq(studentID),
		goqu.C(colReturnDate).IsNull(),
	))
}

func (v *view) Entries(ctx context.Context) ([]circulation.IssueLog, error) {
	return v.collectEntries(ctx, v.selectEntries())
}

func (v *view) CreateEntry(ctx context.Context, studentID, bookID int64, issueDate time.Time) (circulation.IssueLog, error) {
	if err := circulation.ValidateDay("issue date", issueDate); err != nil {
		return circulation.IssueLog{}, err
	}

	if _, err := v.GetStudent(ctx, studentID); err != nil {
		return circulation.IssueLog{}, err
	}

	if _, err := v.GetBook(ctx, bookID); err != nil {
		return circulation.IssueLog{}, err
	}

	_, open, err := v.OpenEntryForBook(ctx, bookID)
	if err != nil {
		return circulation.IssueLog{}, err
	}

	if open {
		return circulation.IssueLog{}, fmt.Errorf("book %d: %w", bookID, circulation.ErrUnavailable)
	}

	entry := circulation.IssueLog{
		StudentID: studentID,
		BookID:    bookID,
		IssueDate: circulation.Day(issueDate),
	}

	id, err := v.insert(ctx, v.builder().
		Insert(tableIssueLogs).
		Rows(goqu.Record{
			colStudentID: studentID,
			colBookID:    bookID,
			colIssueDate: entry.IssueDateString(),
		}),
		colLogID)
	if err != nil {
		return circulation.IssueLog{}, err
	}

	entry.ID = id

	return entry, nil
}

func (v *view) CloseEntry(ctx context.Context, logID int64, returnDate time.Time) (circulation.IssueLog, error) {
	if err := circulation.ValidateDay("return date", returnDate); err != nil {
		return circulation.IssueLog{}, err
	}

	entry, err := v.GetEntry(ctx, logID)
	if err != nil {
		return circulation.IssueLog{}, err
	}

	if !entry.IsOpen() {
		return circulation.IssueLog{}, fmt.Errorf("issue log %d: %w", logID, circulation.ErrAlreadyClosed)
	}

	entry.ReturnDate = circulation.Day(returnDate)

	rowsAffected, err := v.update(ctx, v.builder().
		Update(tableIssueLogs).
		Set(goqu.Record{colReturnDate: entry.ReturnDateString()}).
		Where(goqu.C(colLogID).Eq(logID), goqu.C(colReturnDate).IsNull()))
	if err != nil {
		return circulation.IssueLog{}, err
	}

	if rowsAffected == 0 {
		return circulation.IssueLog{}, circulation.ErrConcurrencyConflict
	}

	return entry, nil
}

// === Admins ===

func (v *view) AddAdmin(ctx context.Context, username, password string) (circulation.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return circulation.Admin{}, fmt.Errorf("%w: username and password must not be empty", circulation.ErrInvalidInput)
	}

	id, err := v.insert(ctx, v.builder().
		Insert(tableAdmins).
		Rows(goqu.Record{colUsername: username, colPassword: password}),
		colAdminID)
	if err != nil {
		return circulation.Admin{}, fmt.Errorf("admin %q: %w", username, err)
	}

	return circulation.Admin{ID: id, Username: username, Password: password}, nil
}

func (v *view) AuthenticateAdmin(ctx context.Context, username, password string) (circulation.Admin, error) {
	var admin circulation.Admin
	found := false

	err := v.selectRows(ctx, v.builder().
		From(tableAdmins).
		Select(colAdminID, colUsername, colPassword).
		Where(goqu.Ex{colUsername: strings.TrimSpace(username)}),
		func(rows adapters.DBRows) error {
			found = true
			return rows.Scan(&admin.ID, &admin.Username, &admin.Password)
		})
	if err != nil {
		return circulation.Admin{}, err
	}

	if !found || !circulation.PasswordMatches(admin.Password, password) {
		return circulation.Admin{}, circulation.ErrInvalidCredentials
	}

	return admin, nil
}
