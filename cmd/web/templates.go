package main

import (
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/zonroxx/FitQuest-AI/internal/contexthelpers"
	"github.com/zonroxx/FitQuest-AI/internal/errors"
	"github.com/zonroxx/FitQuest-AI/ui"
)

type BaseTemplateData struct {
	CurrentPath string
	RequestID   string
}

func newBaseTemplateData(r *http.Request) BaseTemplateData {
	return BaseTemplateData{
		CurrentPath: contexthelpers.CurrentPath(r.Context()),
		RequestID:   contexthelpers.RequestID(r.Context()),
	}
}

type badRequestTemplateData struct {
	BaseTemplateData
	Message string
}

// templateFS returns the embedded templates, or the directory at path when set so that templates can be edited
// without rebuilding.
func templateFS(path string) (fs.FS, error) {
	if path == "" {
		sub, err := fs.Sub(ui.Files, "templates")
		if err != nil {
			return nil, errors.Wrap(err, "embedded templates")
		}
		return sub, nil
	}
	stat, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "stat template path", slog.String("path", path))
	}
	if !stat.IsDir() {
		return nil, errors.New("template path is not a directory", slog.String("path", path))
	}
	return os.DirFS(path), nil
}
