package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/zonroxx/FitQuest-AI/internal/errors"
)

// maxCSPReportBytes is plenty for a single violation report.
const maxCSPReportBytes = 64 * 1024

// cspViolationReport is the body browsers send to the report-uri of the Content-Security-Policy.
type cspViolationReport struct {
	CSPReport struct {
		DocumentURI        string `json:"document-uri"`
		Referrer           string `json:"referrer"`
		ViolatedDirective  string `json:"violated-directive"`
		EffectiveDirective string `json:"effective-directive"`
		Disposition        string `json:"disposition"`
		BlockedURI         string `json:"blocked-uri"`
		LineNumber         int    `json:"line-number"`
		SourceFile         string `json:"source-file"`
		ScriptSample       string `json:"script-sample"`
	} `json:"csp-report"`
}

// cspViolation logs Content-Security-Policy violation reports.
func (app *application) cspViolation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contentType := r.Header.Get("Content-Type")
	if contentType != "" && contentType != "application/csp-report" && contentType != "application/json" {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "CSP violation report with unexpected content type",
			slog.String("content_type", contentType))
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCSPReportBytes))
	if err != nil {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "failed to read CSP violation report", errors.SlogError(err))
		app.clientError(w, r, http.StatusBadRequest, "unreadable report")
		return
	}

	var report cspViolationReport
	if err = json.Unmarshal(body, &report); err != nil {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "failed to parse CSP violation report",
			errors.SlogError(err), slog.String("body", string(body)))
		app.clientError(w, r, http.StatusBadRequest, "invalid report")
		return
	}

	rep := report.CSPReport
	app.logger.LogAttrs(ctx, slog.LevelWarn, "CSP violation detected",
		slog.String("document_uri", rep.DocumentURI),
		slog.String("violated_directive", rep.ViolatedDirective),
		slog.String("effective_directive", rep.EffectiveDirective),
		slog.String("blocked_uri", rep.BlockedURI),
		slog.String("source_file", rep.SourceFile),
		slog.Int("line_number", rep.LineNumber),
		slog.String("script_sample", rep.ScriptSample),
		slog.String("disposition", rep.Disposition),
		slog.String("referrer", rep.Referrer),
		slog.String("user_agent", r.Header.Get("User-Agent")))

	w.WriteHeader(http.StatusNoContent)
}
