package http

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()
	NewResponse().Status(http.StatusAccepted).Header("X-Test", "1").BodyString("test").Write(w)

	if w.Code != http.StatusAccepted {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusAccepted)
	}
	if w.Body.String() != "test" || w.Header().Get("X-Test") != "1" {
		t.Errorf("unexpected response: %q %v", w.Body.String(), w.Header())
	}
}

func TestResponseBuilder_JSON(t *testing.T) {
	w := httptest.NewRecorder()
	NewResponse().JSON(map[string]any{"value": 1.5, "missing": nil}).Write(w)

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got["value"] != 1.5 || got["missing"] != nil {
		t.Errorf("unexpected body: %v", got)
	}
}

func TestResponseBuilder_JSONEncodingFailure(t *testing.T) {
	w := httptest.NewRecorder()
	b := NewResponse().JSON(math.NaN())
	if b.Err() == nil {
		t.Fatal("expected encoding error for NaN")
	}
	b.Write(w)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
}

func TestErrorResponse_Escapes(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorResponse(http.StatusBadRequest, `<script>alert("x")</script>`).Write(w)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status code = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "<script>") {
		t.Errorf("message not escaped: %s", w.Body.String())
	}
}

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	JSONError(http.StatusServiceUnavailable, "sem dados").Write(w)
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), `"error":"sem dados"`) {
		t.Errorf("unexpected response: %d %s", w.Code, w.Body.String())
	}
}
