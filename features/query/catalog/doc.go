// Package catalog implements the catalog listing shown on the admin dashboard: books, optionally
// only the available ones, and students.
package catalog
