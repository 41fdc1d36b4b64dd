package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (app *application) routes() (*http.ServeMux, error) {
	mux := http.NewServeMux()

	var (
		shared = func(next http.Handler) http.Handler {
			return app.recoverPanic(app.logAndTraceRequest(secureHeaders(app.crossOriginProtection(
				commonContext(next)))))
		}
		standard = func(next http.Handler) http.Handler {
			return shared(noCache(app.timeout(defaultTimeout, next)))
		}
		// generation may call every configured model before falling back to rules.
		generation = func(next http.Handler) http.Handler {
			return shared(noCache(app.timeout(app.generationTimeout, next)))
		}
	)

	mux.Handle("POST /api/plans", generation(http.HandlerFunc(app.planCreatePOST)))
	mux.Handle("GET /api/plans", standard(http.HandlerFunc(app.planListGET)))
	mux.Handle("GET /api/plans/{id}", standard(http.HandlerFunc(app.planGET)))
	mux.Handle("DELETE /api/plans/{id}", standard(http.HandlerFunc(app.planDELETE)))
	mux.Handle("GET /api/catalog", standard(http.HandlerFunc(app.catalogGET)))
	mux.Handle("GET /api/healthy", standard(http.HandlerFunc(app.healthy)))
	mux.Handle("GET /api/test/timeout", standard(http.HandlerFunc(app.testTimeout)))
	mux.Handle("POST /api/csp-violation-report", standard(http.HandlerFunc(app.cspViolation)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{})) //nolint:exhaustruct // defaults

	mux.Handle("POST /plans", generation(http.HandlerFunc(app.planFormPOST)))
	mux.Handle("GET /plans/{id}", standard(http.HandlerFunc(app.planPageGET)))
	mux.Handle("POST /plans/{id}/delete", standard(http.HandlerFunc(app.planDeletePOST)))

	// Home route (most specific)
	mux.Handle("GET /{$}", standard(http.HandlerFunc(app.home)))

	// File server with custom 404 handling
	fileServerHandler, err := app.fileServerHandler()
	if err != nil {
		return nil, fmt.Errorf("fileServerHandler: %w", err)
	}
	mux.Handle("/", shared(app.timeout(defaultTimeout, fileServerHandler)))

	return mux, nil
}
