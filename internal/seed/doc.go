// Package seed loads books, students and admins from a YAML file into an engine.
package seed
