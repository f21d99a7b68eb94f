package warehouse

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"platinum/internal/core"
)

func TestDepositEvent_Validate(t *testing.T) {
	day := core.NewDate(2025, time.September, 22)
	tests := []struct {
		name    string
		event   DepositEvent
		wantErr bool
	}{
		{"valid", DepositEvent{ID: "d1", Date: day, Amount: 10}, false},
		{"zero amount is allowed", DepositEvent{ID: "d1", Date: day}, false},
		{"missing id", DepositEvent{Date: day, Amount: 10}, true},
		{"missing date", DepositEvent{ID: "d1", Amount: 10}, true},
		{"negative amount", DepositEvent{ID: "d1", Date: day, Amount: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidEvent) {
				t.Fatalf("error should wrap ErrInvalidEvent: %v", err)
			}
		})
	}
}

func TestLoadCredentials(t *testing.T) {
	file := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(file, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	b, err := LoadCredentials(`{"inline":true}`, file)
	if err != nil || string(b) != `{"inline":true}` {
		t.Fatalf("inline should win: %s %v", b, err)
	}
	b, err = LoadCredentials("", file)
	if err != nil || string(b) != `{"type":"service_account"}` {
		t.Fatalf("file not read: %s %v", b, err)
	}
	if _, err := LoadCredentials("", ""); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("want ErrNoCredentials, got %v", err)
	}
	if _, err := LoadCredentials("", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestColumnIndexAndCellString(t *testing.T) {
	headers := []string{" data_meta ", "Meta_Diaria", "META_ACUMULADA"}
	if got := ColumnIndex(headers, "meta_acumulada"); got != 2 {
		t.Errorf("ColumnIndex = %d, want 2", got)
	}
	if got := ColumnIndex(headers, "date", "data_meta"); got != 0 {
		t.Errorf("ColumnIndex alias = %d, want 0", got)
	}
	if got := ColumnIndex(headers, "missing"); got != -1 {
		t.Errorf("ColumnIndex missing = %d", got)
	}
	if CellString(nil) != "" || CellString(" 12 ") != "12" || CellString(1.5) != "1.5" {
		t.Error("unexpected CellString rendering")
	}
}
