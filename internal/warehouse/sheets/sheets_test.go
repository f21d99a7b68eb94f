package sheets

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "platinum/internal/log"
	"platinum/internal/warehouse"
)

func TestParseTargets_WithHeader(t *testing.T) {
	values := [][]any{
		{"data_meta", "Meta_Diaria", "Meta_Acumulada"},
		{"2025-09-22", 10000.0, 5845589.9},
		{"2025-09-23", "", ""},
		{"", 1.0, 2.0},
		{"24/09/2025", "12.000,50", "5.857.590,40"},
	}
	rows := parseTargets(values)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].Daily.Value != 10000 || rows[0].Cumulative.Value != 5845589.9 {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Daily.Valid || rows[1].Cumulative.Valid {
		t.Errorf("blank cells should be null: %+v", rows[1])
	}
	if rows[2].Daily.Value != 12000.5 || rows[2].Cumulative.Value != 5857590.4 {
		t.Errorf("brazilian numbers not parsed: %+v", rows[2])
	}
}

func TestParseTargets_ReorderedHeaderAndHeaderless(t *testing.T) {
	reordered := [][]any{
		{"Meta_Acumulada", "data_meta", "Meta_Diaria"},
		{100.0, "2025-09-22", 5.0},
	}
	rows := parseTargets(reordered)
	if len(rows) != 1 || rows[0].Date != "2025-09-22" || rows[0].Daily.Value != 5 || rows[0].Cumulative.Value != 100 {
		t.Fatalf("reordered header not honoured: %+v", rows)
	}

	headerless := [][]any{{"2025-09-22", 1.0, 2.0}}
	rows = parseTargets(headerless)
	if len(rows) != 1 || rows[0].Cumulative.Value != 2 {
		t.Fatalf("headerless sheet should use positional columns: %+v", rows)
	}
}

func TestAggregateDeposits(t *testing.T) {
	values := [][]any{
		{"data_deposito", "deposito"},
		{"2025-09-23", 50.0},
		{"22/09/2025", "R$ 100,00"},
		{"2025-09-22", 25.5},
		{"2025-09-22", "n/a"},
		{"not a date", 1.0},
	}
	rows := aggregateDeposits(values)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3: %+v", len(rows), rows)
	}
	if rows[0].Date != "2025-09-22" || rows[0].Count != 3 || rows[0].Sum.Value != 125.5 {
		t.Errorf("unexpected 22/09 aggregate: %+v", rows[0])
	}
	if rows[1].Date != "2025-09-23" || rows[1].Count != 1 || rows[1].Sum.Value != 50 {
		t.Errorf("unexpected 23/09 aggregate: %+v", rows[1])
	}
	if rows[2].Date != "not a date" {
		t.Errorf("unparseable date should be kept verbatim: %+v", rows[2])
	}
}

func TestClient_ReadsRanges(t *testing.T) {
	var ranges []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ranges = append(ranges, r.URL.Path)
		if r.URL.Query().Get("valueRenderOption") != "UNFORMATTED_VALUE" {
			http.Error(w, "unexpected render option", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.Path, "Metas") {
			io.WriteString(w, `{"range":"Metas!A1:C3","values":[["data_meta","Meta_Diaria","Meta_Acumulada"],["2025-09-22",10000,5845589.9]]}`)
			return
		}
		io.WriteString(w, `{"range":"Depositos!A1:B3","values":[["data_deposito","deposito"],["2025-09-22",10],["2025-09-22",5]]}`)
	}))
	defer srv.Close()

	c, err := New(context.Background(), Options{
		SpreadsheetID: "sheet-id",
		TargetsSheet:  "Metas",
		DepositsSheet: "Depositos",
		Endpoint:      srv.URL + "/",
		HTTPClient:    srv.Client(),
	}, applog.New(applog.Config{Output: io.Discard}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	targets, err := c.ReadTargets(context.Background())
	if err != nil || len(targets) != 1 {
		t.Fatalf("ReadTargets() = %+v, %v", targets, err)
	}
	deposits, err := c.ReadDeposits(context.Background())
	if err != nil || len(deposits) != 1 || deposits[0].Count != 2 || deposits[0].Sum.Value != 15 {
		t.Fatalf("ReadDeposits() = %+v, %v", deposits, err)
	}
	if len(ranges) != 2 {
		t.Fatalf("expected two range reads, got %v", ranges)
	}
	if tb := c.Tables(); tb.Backend != "sheets" || tb.Targets != "Metas" {
		t.Errorf("unexpected tables: %+v", tb)
	}
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "id"}, nil)
	if !errors.Is(err, warehouse.ErrNoCredentials) {
		t.Fatalf("want ErrNoCredentials, got %v", err)
	}
}
