package news

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newModule(t *testing.T, dir, content string) *Module {
	t.Helper()
	v := viper.New()
	v.Set("content", content)
	m := New(dir)
	if err := m.Init(v, zap.NewNop()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return m
}

func TestContent(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{name: "default", want: DefaultContent},
		{name: "configured", content: "Patch day!", want: "Patch day!"},
		{name: "file wins", file: "  From file\n\n", content: "Patch day!", want: "From file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.file != "" {
				if err := os.WriteFile(filepath.Join(dir, File), []byte(tt.file), 0o600); err != nil {
					t.Fatal(err)
				}
			}
			if got := newModule(t, dir, tt.content).Content(); got != tt.want {
				t.Errorf("Content() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContent_FileEditedWithoutRestart(t *testing.T) {
	dir := t.TempDir()
	m := newModule(t, dir, "")
	if m.Content() != DefaultContent {
		t.Fatal("expected default before file exists")
	}
	if err := os.WriteFile(filepath.Join(dir, File), []byte("Fresh"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := m.Content(); got != "Fresh" {
		t.Errorf("Content() = %q, want %q", got, "Fresh")
	}
}

func TestHandleNews(t *testing.T) {
	m := newModule(t, t.TempDir(), "Server maintenance tonight")
	mux := http.NewServeMux()
	for _, r := range m.Routes() {
		mux.HandleFunc(r.Method+" /api/news"+r.Path, r.Handler)
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/news", http.NoBody))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["content"] != "Server maintenance tonight" {
		t.Errorf("content = %q", body["content"])
	}
}
