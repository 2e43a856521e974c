package backend

import (
	"context"
	"time"

	"insighthub/internal/source"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the source instance and optional cleanup function
type BackendResult struct {
	Type    BackendType
	Source  source.Source
	Cleanup CleanupFunc
}

// Close runs Cleanup when one is set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates data sources based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Organizze specific
	OrganizzeEmail     string
	OrganizzeToken     string
	OrganizzeBaseURL   string
	OrganizzeUserAgent string
	FetchTimeout       time.Duration

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleTransactionsSheet  string
	GoogleCategoriesSheet    string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Demo specific
	ReferenceDate string
}

// BackendType represents the type of backend
type BackendType string

const (
	OrganizzeBackend BackendType = "organizze"
	DemoBackend      BackendType = "demo"
	SQLiteBackend    BackendType = "sqlite"
	SheetsBackend    BackendType = "sheets"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case OrganizzeBackend, DemoBackend, SQLiteBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
