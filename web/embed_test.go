package web

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPageHandlerServesIndex(t *testing.T) {
	for _, path := range []string{"/", "/some/deep/link"} {
		w := httptest.NewRecorder()
		PageHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
		if !strings.Contains(w.Body.String(), `id="stage"`) {
			t.Errorf("%s: expected page shell", path)
		}
	}
}

func TestPageHandlerServesAssets(t *testing.T) {
	w := httptest.NewRecorder()
	PageHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/app.js", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Type"), "javascript") {
		t.Errorf("unexpected content type %q", w.Header().Get("Content-Type"))
	}
}

func TestPageHandlerShellIsNotCached(t *testing.T) {
	for _, path := range []string{"/", "/index.html", "/greeting/anything"} {
		w := httptest.NewRecorder()
		PageHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
		if got := w.Header().Get("Cache-Control"); got != "no-cache" {
			t.Errorf("%s: expected no-cache, got %q", path, got)
		}
	}

	w := httptest.NewRecorder()
	PageHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/style.css", nil))
	if got := w.Header().Get("Cache-Control"); got == "no-cache" {
		t.Errorf("expected assets to be cacheable, got %q", got)
	}
}

// Duplicated browser tabs copy sessionStorage, so the tab id is never stored.
func TestPageScriptMintsTabPerLoad(t *testing.T) {
	script, err := fs.ReadFile(staticFS, "static/app.js")
	if err != nil {
		t.Fatalf("read app.js: %v", err)
	}
	if strings.Contains(string(script), "sessionStorage") || strings.Contains(string(script), "localStorage") {
		t.Error("tab id must not be persisted in browser storage")
	}
	if !strings.Contains(string(script), `"session replaced"`) {
		t.Error("expected the script to stop reconnecting once its session is replaced")
	}
}
