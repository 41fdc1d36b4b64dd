package main

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/zonroxx/FitQuest-AI/internal/errors"
	"github.com/zonroxx/FitQuest-AI/ui"
)

// fileServerHandler serves the embedded static assets and answers every other path with the not-found page.
func (app *application) fileServerHandler() (http.Handler, error) {
	static, err := fs.Sub(ui.Files, "static")
	if err != nil {
		return nil, errors.Wrap(err, "embedded static files")
	}
	fileServer := cacheForever(http.FileServerFS(static))
	notFound := noCache(http.HandlerFunc(app.notFound))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "" || name == "." || !fs.ValidPath(name) {
			notFound.ServeHTTP(w, r)
			return
		}
		if stat, statErr := fs.Stat(static, name); statErr != nil || stat.IsDir() {
			notFound.ServeHTTP(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	}), nil
}
