// Package cli implements the circulation command line: the admin HTTP server, migrations,
// seeding, and one subcommand per catalog, circulation and reporting operation.
package cli
