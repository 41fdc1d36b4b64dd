package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/zonroxx/FitQuest-AI/internal/errors"
)

// maxBodyBytes limits request bodies. Profiles are small.
const maxBodyBytes = 64 * 1024

// errorResponse is the JSON body of every API error.
type errorResponse struct {
	Error string `json:"error"`
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", errors.SlogError(err))
	if isAPIRequest(r) {
		app.writeJSON(w, r, http.StatusInternalServerError,
			errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
		return
	}
	app.render(w, r, http.StatusInternalServerError, "error", newBaseTemplateData(r))
}

// clientError reports a problem with the request. The message is shown to the caller.
func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, message string) {
	app.logger.LogAttrs(r.Context(), slog.LevelDebug, "client error",
		slog.Int("status_code", status), slog.String("message", message))
	if isAPIRequest(r) {
		app.writeJSON(w, r, status, errorResponse{Error: message})
		return
	}
	app.render(w, r, status, "bad-request", badRequestTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Message:          message,
	})
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		app.writeJSON(w, r, http.StatusNotFound, errorResponse{Error: http.StatusText(http.StatusNotFound)})
		return
	}
	app.render(w, r, http.StatusNotFound, "not-found", newBaseTemplateData(r))
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "failed to marshal response", errors.SlogError(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// readJSON decodes the single JSON value in the request body into v.
func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "decode body")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must contain a single JSON object")
	}
	return nil
}

// redirect detects if the request is originating from a fetch API call or a top-level navigation and points the user
// to the correct URL.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	if r.Header.Get("Sec-Fetch-Dest") == "empty" {
		w.Header().Set("Content-Location", path)
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, path, http.StatusSeeOther)
}
