package api

import (
	"net/http"
	"os"
	"path/filepath"
)

// StaticHandler serves the front-end extension files from dir. Directories
// and missing files are a 404.
func StaticHandler(dir string) http.Handler {
	fileServer := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.FromSlash(r.URL.Path))
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		if filepath.Ext(path) == ".js" {
			w.Header().Set("Content-Type", "application/javascript")
		}
		fileServer.ServeHTTP(w, r)
	})
}
