package backend

import (
	"context"
	"errors"
	"fmt"

	applog "platinum/internal/log"
	"platinum/internal/storage"
	"platinum/internal/warehouse"
	"platinum/internal/warehouse/bigquery"
	"platinum/internal/warehouse/memory"
	"platinum/internal/warehouse/sheets"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(applog.ComponentBackend)}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case BigQueryBackend:
		return f.createBigQueryBackend(ctx, config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createBigQueryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	creds, err := warehouse.LoadCredentials(config.ServiceAccountJSON, config.ServiceAccountFile)
	if err != nil && !errors.Is(err, warehouse.ErrNoCredentials) {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	cli, err := bigquery.New(ctx, bigquery.Options{
		ProjectID:       config.GCPProjectID,
		Dataset:         config.BigQueryDataset,
		TargetsTable:    config.TargetsTable,
		DepositsTable:   config.DepositsTable,
		Location:        config.BigQueryLocation,
		Timeout:         config.QueryTimeout,
		CredentialsJSON: creds,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize BigQuery client: %w", err)
	}

	f.logger.Info("Initialized BigQuery backend",
		"project", config.GCPProjectID,
		"dataset", config.BigQueryDataset,
		"service_account", len(creds) > 0)

	return &BackendResult{Backend: cli}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	creds, err := warehouse.LoadCredentials(config.ServiceAccountJSON, config.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	cli, err := sheets.New(ctx, sheets.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		TargetsSheet:    config.TargetsSheetName,
		DepositsSheet:   config.DepositsSheetName,
		CredentialsJSON: creds,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)
	return &BackendResult{Backend: cli}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{
		Backend: repo,
		Cleanup: repo.Close,
		Ping:    repo.Ping,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store, err := memory.NewFromFiles(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory backend fixtures: %w", err)
	}

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)
	return &BackendResult{Backend: store}, nil
}
