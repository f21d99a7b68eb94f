package backend

import (
	"errors"
	"fmt"
	"time"

	"platinum/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// BigQuery
	GCPProjectID     string
	BigQueryDataset  string
	BigQueryLocation string
	TargetsTable     string
	DepositsTable    string
	QueryTimeout     time.Duration

	// Google credentials, shared by BigQuery and Sheets
	ServiceAccountJSON string
	ServiceAccountFile string

	// Google Sheets
	GoogleSpreadsheetID string
	TargetsSheetName    string
	DepositsSheetName   string

	// SQLite
	SQLiteDBPath string

	// Memory
	DataDirectory string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		GCPProjectID:     appConfig.GCPProjectID,
		BigQueryDataset:  appConfig.BigQueryDataset,
		BigQueryLocation: appConfig.BigQueryLocation,
		TargetsTable:     appConfig.TargetsTable,
		DepositsTable:    appConfig.DepositsTable,
		QueryTimeout:     appConfig.QueryTimeout,

		ServiceAccountJSON: appConfig.ServiceAccountJSON,
		ServiceAccountFile: appConfig.ServiceAccountFile,

		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		TargetsSheetName:    appConfig.TargetsSheetName,
		DepositsSheetName:   appConfig.DepositsSheetName,

		SQLiteDBPath:  appConfig.SQLiteDBPath,
		DataDirectory: appConfig.DataDirectory,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case BigQueryBackend:
		if c.GCPProjectID == "" || c.BigQueryDataset == "" {
			return errors.New("project and dataset are required for bigquery backend")
		}
		if c.TargetsTable == "" || c.DepositsTable == "" {
			return errors.New("targets and deposits tables are required for bigquery backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets backend")
		}
		if c.ServiceAccountJSON == "" && c.ServiceAccountFile == "" {
			return errors.New("service account credentials are required for sheets backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case MemoryBackend:
		// DataDirectory defaults to "data".
	}
	return nil
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := []BackendType{BigQueryBackend, SheetsBackend, SQLiteBackend, MemoryBackend}
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
