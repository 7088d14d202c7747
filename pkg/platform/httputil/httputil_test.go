package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	dErrors "persreg/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error gets generic message", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.Wrap(errors.New("pq: relation does not exist"), dErrors.CodeInternal, "query failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]any
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["success"] != false {
			t.Fatalf("expected success=false, got %v", body["success"])
		}
		if body["error"] != "Internal server error" {
			t.Fatalf("expected generic message, got %q", body["error"])
		}
	})

	t.Run("validation error surfaces its message", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeValidation, "nationalCode must be exactly 12 digits"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]any
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "nationalCode must be exactly 12 digits" {
			t.Fatalf("expected validation message, got %q", body["error"])
		}
	})

	t.Run("uncoded error is treated as internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("plain failure"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})
}

func TestWriteListIncludesPagination(t *testing.T) {
	w := httptest.NewRecorder()
	WriteList(w, []string{}, Pagination{Page: 1, Limit: 10, Total: 0, TotalPages: 0})

	var body struct {
		Success    bool        `json:"success"`
		Data       []string    `json:"data"`
		Pagination *Pagination `json:"pagination"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Success {
		t.Fatalf("expected success=true")
	}
	if body.Data == nil {
		t.Fatalf("expected data to be an empty array, not omitted")
	}
	if body.Pagination == nil || body.Pagination.Limit != 10 {
		t.Fatalf("expected pagination block, got %+v", body.Pagination)
	}
}

func TestWriteRouteNotFoundEchoesPathAndMethod(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPut, "/individuals/not-a-uuid", nil)
	WriteRouteNotFound(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["error"] != "Not found" || body["path"] != "/individuals/not-a-uuid" || body["method"] != http.MethodPut {
		t.Fatalf("unexpected body: %v", body)
	}
}
