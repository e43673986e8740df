package librarystats

// LibraryStats represents the dashboard counters.
type LibraryStats struct {
	TotalTitles     int `json:"total_titles"`
	AvailableTitles int `json:"available_titles"`
	Students        int `json:"students"`
	OpenIssues      int `json:"open_issues"`
	ClosedIssues    int `json:"closed_issues"`
}
