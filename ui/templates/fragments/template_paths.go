// Package fragments provides template path constants for organized template management
package fragments

import "strings"

// Template path constants for organized fragment access
const (
	// Ratio templates
	StatisticsTable = "ratios/statistics_table.html"
	Histogram       = "ratios/histogram.html"
	RatioStudy      = "ratios/study.html"

	// Parcel templates
	ParcelList       = "parcels/parcel_list.html"
	ComparablesTable = "parcels/comparables_table.html"
	AppealsList      = "parcels/appeals_list.html"

	// Full pages
	NoticePage = "notice.html"
)

// GetAllTemplatePaths returns all template paths for registration
func GetAllTemplatePaths() []string {
	return []string{
		StatisticsTable,
		Histogram,
		RatioStudy,
		ParcelList,
		ComparablesTable,
		AppealsList,
		NoticePage,
	}
}

// IsFragment reports whether path names a partial rather than a full page
func IsFragment(path string) bool {
	return strings.Contains(path, "/")
}
