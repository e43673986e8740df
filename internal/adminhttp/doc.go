// Package adminhttp serves the administrative HTTP surface of the circulation tracker.
//
// Every route except /health, /login and /logout requires a session created by POST /login.
// Writes go through the command handlers and reads through the query handlers of an app.HandlerBundle.
package adminhttp
