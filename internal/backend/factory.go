package backend

import (
	"context"
	"fmt"
	"time"

	"insighthub/internal/core"
	"insighthub/internal/log"
	"insighthub/internal/source/memory"
	"insighthub/internal/source/organizze"
	"insighthub/internal/source/sheets"
	"insighthub/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
	now    func() time.Time
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
		now:    time.Now,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case OrganizzeBackend:
		return f.createOrganizzeBackend(config)
	case DemoBackend:
		return f.createDemoBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createOrganizzeBackend(config Config) (*BackendResult, error) {
	client, err := organizze.NewClient(organizze.ClientConfig{
		Email:     config.OrganizzeEmail,
		Token:     config.OrganizzeToken,
		BaseURL:   config.OrganizzeBaseURL,
		UserAgent: config.OrganizzeUserAgent,
		Timeout:   config.FetchTimeout,
		Logger:    f.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Organizze client: %w", err)
	}

	f.logger.Info("Initialized Organizze backend", log.FieldEndpoint, config.OrganizzeBaseURL)
	return &BackendResult{Type: OrganizzeBackend, Source: client}, nil
}

func (f *DefaultFactory) createDemoBackend(config Config) (*BackendResult, error) {
	ref := core.DateOf(f.now())
	if config.ReferenceDate != "" {
		d, err := core.ParseDate(config.ReferenceDate)
		if err != nil {
			return nil, fmt.Errorf("invalid demo reference date %q: %w", config.ReferenceDate, err)
		}
		ref = d
	}

	f.logger.Info("Initialized demo backend", "reference_date", ref.String())
	return &BackendResult{Type: DemoBackend, Source: memory.NewDemo(ref)}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{Type: SQLiteBackend, Source: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := sheets.NewClient(ctx, sheets.Config{
		SpreadsheetID:     config.GoogleSpreadsheetID,
		TransactionsSheet: config.GoogleTransactionsSheet,
		CategoriesSheet:   config.GoogleCategoriesSheet,
		CredentialsJSON:   config.GoogleServiceAccountJSON,
		CredentialsFile:   config.GoogleServiceAccountFile,
		Logger:            f.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)
	return &BackendResult{Type: SheetsBackend, Source: cli}, nil
}
