// Package addbook implements the Add Book use case: putting a new title into the catalog.
package addbook
