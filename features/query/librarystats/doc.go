// Package librarystats computes the counters shown on the admin dashboard.
package librarystats
