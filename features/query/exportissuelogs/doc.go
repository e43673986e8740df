// Package exportissuelogs implements the CSV export of the circulation ledger.
//
// The export has one row per issue log, ordered by log id:
//
//	log_id,student_id,book_id,issue_date,return_date
//	1,1,1,2026-10-18,2026-10-25
//	2,2,1,2026-10-26,
//
// Dates use the YYYY-MM-DD layout and an open entry has an empty return_date.
// The WithNames variant appends student_name and book_title; names of removed
// students and books are empty.
package exportissuelogs
