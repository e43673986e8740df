// Package app builds the command and query handlers shared by the HTTP surface and the CLI.
package app
