// Package web embeds the page shell (static/) and provides an HTTP handler
// that serves it. The shell only opens the live socket; every screen is
// rendered server-side.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed all:static
var staticFS embed.FS

const shellPage = "index.html"

// PageHandler returns an http.Handler that serves the embedded page shell.
// Script and style assets are served as files. Every other path gets the
// shell with Cache-Control: no-cache.
func PageHandler() http.Handler {
	subFS, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("web: failed to create sub filesystem: " + err.Error())
	}

	assets := http.FileServerFS(subFS)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name != "" && name != shellPage {
			if info, err := fs.Stat(subFS, name); err == nil && !info.IsDir() {
				w.Header().Set("Cache-Control", "public, max-age=300")
				assets.ServeHTTP(w, r)
				return
			}
		}

		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		page, err := fs.ReadFile(subFS, shellPage)
		if err != nil {
			http.Error(w, "page unavailable", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(page)
	})
}
