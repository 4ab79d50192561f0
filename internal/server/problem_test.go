package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteProblem(t *testing.T) {
	w := httptest.NewRecorder()

	WriteProblem(w, Problem{
		Type:     ProblemTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   "route /api/widgets not found",
		Instance: "/api/widgets",
	})

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content-type = %q, want %q", ct, "application/problem+json")
	}

	var p Problem
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if p.Type != ProblemTypeNotFound {
		t.Errorf("type = %q, want %q", p.Type, ProblemTypeNotFound)
	}
	if p.Title != "Not Found" {
		t.Errorf("title = %q, want %q", p.Title, "Not Found")
	}
	if p.Status != 404 {
		t.Errorf("status = %d, want 404", p.Status)
	}
	if p.Detail != "route /api/widgets not found" {
		t.Errorf("detail = %q, want %q", p.Detail, "route /api/widgets not found")
	}
	if p.Instance != "/api/widgets" {
		t.Errorf("instance = %q, want %q", p.Instance, "/api/widgets")
	}
}

func TestNotFound(t *testing.T) {
	w := httptest.NewRecorder()
	NotFound(w, "missing", "/test")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}

	var p Problem
	json.NewDecoder(w.Body).Decode(&p)
	if p.Type != ProblemTypeNotFound {
		t.Errorf("type = %q, want %q", p.Type, ProblemTypeNotFound)
	}
}

func TestBadRequest(t *testing.T) {
	w := httptest.NewRecorder()
	BadRequest(w, "invalid input", "/test")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var p Problem
	json.NewDecoder(w.Body).Decode(&p)
	if p.Type != ProblemTypeBadRequest {
		t.Errorf("type = %q, want %q", p.Type, ProblemTypeBadRequest)
	}
}

func TestInternalError(t *testing.T) {
	w := httptest.NewRecorder()
	InternalError(w, "something broke", "/test")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	var p Problem
	json.NewDecoder(w.Body).Decode(&p)
	if p.Type != ProblemTypeInternal {
		t.Errorf("type = %q, want %q", p.Type, ProblemTypeInternal)
	}
}

func TestRateLimited(t *testing.T) {
	w := httptest.NewRecorder()
	RateLimited(w, "slow down", "/test")

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}

	var p Problem
	json.NewDecoder(w.Body).Decode(&p)
	if p.Type != ProblemTypeRateLimited {
		t.Errorf("type = %q, want %q", p.Type, ProblemTypeRateLimited)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	MethodNotAllowed(w, "use POST", "/api/parts/update")

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}

	var p Problem
	json.NewDecoder(w.Body).Decode(&p)
	if p.Type != ProblemTypeMethodNotAllowed || p.Instance != "/api/parts/update" {
		t.Errorf("problem = %+v", p)
	}
}

func TestProblemTypes_MatchStatusTextSlug(t *testing.T) {
	for status, typ := range map[int]string{
		http.StatusNotFound:            ProblemTypeNotFound,
		http.StatusBadRequest:          ProblemTypeBadRequest,
		http.StatusInternalServerError: ProblemTypeInternal,
		http.StatusMethodNotAllowed:    ProblemTypeMethodNotAllowed,
		http.StatusTooManyRequests:     ProblemTypeRateLimited,
	} {
		slug := strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "-")
		if typ != problemBase+slug {
			t.Errorf("%d: type = %q, want slug %q", status, typ, slug)
		}
	}
}

func TestWriteProblem_OmitsEmptyOptionalFields(t *testing.T) {
	w := httptest.NewRecorder()

	WriteProblem(w, Problem{
		Type:   ProblemTypeInternal,
		Title:  "Internal Server Error",
		Status: 500,
	})

	var raw map[string]interface{}
	json.NewDecoder(w.Body).Decode(&raw)

	if _, ok := raw["detail"]; ok {
		t.Error("expected detail to be omitted when empty")
	}
	if _, ok := raw["instance"]; ok {
		t.Error("expected instance to be omitted when empty")
	}
}
