package exportissuelogs

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Header is the column header of the plain export.
var Header = []string{"log_id", "student_id", "book_id", "issue_date", "return_date"}

// NameColumns are appended to Header by the WithNames variant.
var NameColumns = []string{"student_name", "book_title"}

// Export is the tabular form of the ledger, header first.
type Export struct {
	Header []string
	Rows   [][]string
}

// Count returns the number of exported issue logs.
func (e Export) Count() int {
	return len(e.Rows)
}

// WriteCSV writes the export as CSV to w.
func (e Export) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(e.Header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	if err := writer.WriteAll(e.Rows); err != nil {
		return fmt.Errorf("writing csv rows: %w", err)
	}

	return nil
}
