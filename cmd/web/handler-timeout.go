package main

import (
	"net/http"
	"strconv"
	"time"
)

// timeoutBody is served with 503 Service Unavailable when a handler misses its deadline.
const timeoutBody = `<html lang="en">
<head><title>Timeout</title></head>
<body>
<h1>Timeout</h1>
<p>Generating the plan took too long. Please try again.</p>
</body>
</html>
`

// testTimeout sleeps for the sleep_ms query parameter so that timeouts can be exercised.
func (app *application) testTimeout(w http.ResponseWriter, r *http.Request) {
	sleepMsStr := r.URL.Query().Get("sleep_ms")
	if sleepMsStr == "" {
		sleepMsStr = "0"
	}

	sleepMs, err := strconv.Atoi(sleepMsStr)
	if err != nil {
		app.clientError(w, r, http.StatusBadRequest, "invalid sleep_ms parameter")
		return
	}

	select {
	case <-r.Context().Done():
		return
	case <-time.After(time.Duration(sleepMs) * time.Millisecond):
	}

	app.writeJSON(w, r, http.StatusOK, map[string]any{"status": "completed", "slept_ms": sleepMs})
}
