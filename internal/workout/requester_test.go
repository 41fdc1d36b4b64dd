package workout_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/zonroxx/FitQuest-AI/internal/testhelpers"
	"github.com/zonroxx/FitQuest-AI/internal/workout"
)

// completionBody wraps content in a minimal chat completion response.
func completionBody(t *testing.T, model, content string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1,
		"model":   model,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	if err != nil {
		t.Fatalf("marshal completion: %v", err)
	}
	return body
}

// fakeModelServer answers chat completions with the status and content configured per model and records the
// models it was asked for. A raw body replaces the chat completion envelope for its model.
type fakeModelServer struct {
	t        *testing.T
	mu       sync.Mutex
	calls    []string
	statuses map[string]int
	contents map[string]string
	raw      map[string]string
	delay    map[string]time.Duration
}

func newFakeModelServer(t *testing.T) (*fakeModelServer, *httptest.Server) {
	t.Helper()
	f := &fakeModelServer{
		t:        t,
		mu:       sync.Mutex{},
		calls:    nil,
		statuses: map[string]int{},
		contents: map[string]string{},
		raw:      map[string]string{},
		delay:    map[string]time.Duration{},
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeModelServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/v1/chat/completions" {
		http.NotFound(w, r)
		return
	}
	if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.MaxTokens != 1000 || req.Temperature != 0.7 || len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		http.Error(w, "unexpected request parameters", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.calls = append(f.calls, req.Model)
	status, ok := f.statuses[req.Model]
	content := f.contents[req.Model]
	raw, isRaw := f.raw[req.Model]
	delay := f.delay[req.Model]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(delay):
		}
	}
	if !ok {
		status = http.StatusOK
	}
	if status != http.StatusOK {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"message":"model unavailable","type":"server_error"}}`))
		return
	}
	if isRaw {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(raw))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(completionBody(f.t, req.Model, content))
}

func (f *fakeModelServer) modelCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newTestRequester(t *testing.T, srv *httptest.Server, models []string, reg prometheus.Registerer,
) *workout.ModelRequester {
	t.Helper()
	var metrics *workout.Metrics
	if reg != nil {
		metrics = workout.NewMetrics(reg)
	}
	return workout.NewModelRequester(workout.ModelConfig{
		APIKey:     "test-token",
		BaseURL:    srv.URL + "/v1",
		Models:     models,
		Timeout:    time.Second,
		HTTPClient: srv.Client(),
	}, testhelpers.NewLogger(testhelpers.NewWriter(t)), metrics)
}

func TestModelRequester_fallsThroughModelsInOrder(t *testing.T) {
	fake, srv := newFakeModelServer(t)
	models := []string{"m1", "m2", "m3", "m4"}
	fake.statuses["m1"] = http.StatusServiceUnavailable
	fake.statuses["m2"] = http.StatusTooManyRequests
	fake.statuses["m3"] = http.StatusInternalServerError
	fake.contents["m4"] = `{"weekly_schedule":[]}`
	reg := prometheus.NewPedanticRegistry()

	got, err := newTestRequester(t, srv, models, reg).RequestCompletion(t.Context(), "prompt")
	if err != nil {
		t.Fatalf("RequestCompletion() error = %v", err)
	}

	if diff := cmp.Diff(models, fake.modelCalls()); diff != "" {
		t.Errorf("model calls mismatch (-want +got):\n%s", diff)
	}
	if got.Model != "m4" {
		t.Errorf("Model = %q, want m4", got.Model)
	}
	if !strings.Contains(string(got.Envelope), `"content":"{\"weekly_schedule\":[]}"`) {
		t.Errorf("Envelope = %s, want the raw response body", got.Envelope)
	}

	expected := `
# HELP fitquest_model_attempts_total Calls to the text-generation service by model and outcome.
# TYPE fitquest_model_attempts_total counter
fitquest_model_attempts_total{model="m1",outcome="http_error"} 1
fitquest_model_attempts_total{model="m2",outcome="http_error"} 1
fitquest_model_attempts_total{model="m3",outcome="http_error"} 1
fitquest_model_attempts_total{model="m4",outcome="success"} 1
`
	if err = testutil.GatherAndCompare(reg, strings.NewReader(expected), "fitquest_model_attempts_total"); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}

func TestModelRequester_stopsAtFirstSuccess(t *testing.T) {
	fake, srv := newFakeModelServer(t)
	fake.contents["m1"] = "hello"

	if _, err := newTestRequester(t, srv, []string{"m1", "m2"}, nil).RequestCompletion(t.Context(), "p"); err != nil {
		t.Fatalf("RequestCompletion() error = %v", err)
	}
	if diff := cmp.Diff([]string{"m1"}, fake.modelCalls()); diff != "" {
		t.Errorf("model calls mismatch (-want +got):\n%s", diff)
	}
}

func TestModelRequester_stopsAtUndecodableSuccess(t *testing.T) {
	fake, srv := newFakeModelServer(t)
	fake.raw["m1"] = "<html>upstream says hi</html>"
	reg := prometheus.NewPedanticRegistry()

	got, err := newTestRequester(t, srv, []string{"m1", "m2", "m3", "m4"}, reg).RequestCompletion(t.Context(), "p")
	if err != nil {
		t.Fatalf("RequestCompletion() error = %v", err)
	}
	if diff := cmp.Diff([]string{"m1"}, fake.modelCalls()); diff != "" {
		t.Errorf("model calls mismatch (-want +got):\n%s", diff)
	}
	if got.Model != "m1" || string(got.Envelope) != "<html>upstream says hi</html>" {
		t.Errorf("RequestCompletion() = %q %q, want the raw m1 body", got.Model, got.Envelope)
	}

	expected := `
# HELP fitquest_model_attempts_total Calls to the text-generation service by model and outcome.
# TYPE fitquest_model_attempts_total counter
fitquest_model_attempts_total{model="m1",outcome="success"} 1
`
	if err = testutil.GatherAndCompare(reg, strings.NewReader(expected), "fitquest_model_attempts_total"); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}

func TestModelRequester_allModelsFail(t *testing.T) {
	fake, srv := newFakeModelServer(t)
	fake.statuses["m1"] = http.StatusBadGateway
	fake.statuses["m2"] = http.StatusUnauthorized

	_, err := newTestRequester(t, srv, []string{"m1", "m2"}, nil).RequestCompletion(t.Context(), "p")
	if !errors.Is(err, workout.ErrAllModelsFailed) {
		t.Fatalf("RequestCompletion() error = %v, want ErrAllModelsFailed", err)
	}
	if len(fake.modelCalls()) != 2 {
		t.Errorf("calls = %v, want both models", fake.modelCalls())
	}
}

func TestModelRequester_timeoutMovesOn(t *testing.T) {
	fake, srv := newFakeModelServer(t)
	fake.delay["slow"] = 5 * time.Second
	fake.contents["fast"] = "ok"
	reg := prometheus.NewPedanticRegistry()

	requester := workout.NewModelRequester(workout.ModelConfig{
		APIKey:     "test-token",
		BaseURL:    srv.URL + "/v1/",
		Models:     []string{"slow", "fast"},
		Timeout:    100 * time.Millisecond,
		HTTPClient: srv.Client(),
	}, testhelpers.NewLogger(testhelpers.NewWriter(t)), workout.NewMetrics(reg))

	got, err := requester.RequestCompletion(t.Context(), "p")
	if err != nil {
		t.Fatalf("RequestCompletion() error = %v", err)
	}
	if got.Model != "fast" {
		t.Errorf("Model = %q, want fast", got.Model)
	}

	expected := `
# HELP fitquest_model_attempts_total Calls to the text-generation service by model and outcome.
# TYPE fitquest_model_attempts_total counter
fitquest_model_attempts_total{model="fast",outcome="success"} 1
fitquest_model_attempts_total{model="slow",outcome="timeout"} 1
`
	if err = testutil.GatherAndCompare(reg, strings.NewReader(expected), "fitquest_model_attempts_total"); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}

func TestModelRequester_cancelledContext(t *testing.T) {
	fake, srv := newFakeModelServer(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := newTestRequester(t, srv, []string{"m1", "m2"}, nil).RequestCompletion(ctx, "p")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RequestCompletion() error = %v, want context.Canceled", err)
	}
	if calls := fake.modelCalls(); len(calls) != 0 {
		t.Errorf("calls = %v, want none", calls)
	}
}

func TestGenerator_Generate_overModelRequester(t *testing.T) {
	const threeDayPlan = `Here you go:
{"weekly_schedule":[
 {"day":1,"focus":"Upper Body","exercises":[{"name":"Push-ups","type":"strength","sets":3,"reps":12}]},
 {"day":2,"focus":"Lower Body","exercises":[{"name":"Bodyweight Squats","type":"strength","sets":3,"reps":15}]},
 {"day":3,"focus":"Core","exercises":[{"name":"Plank","type":"core","duration":45}]}
]}`

	tests := []struct {
		name        string
		setup       func(f *fakeModelServer)
		wantCalls   []string
		wantSource  workout.Source
		wantReason  workout.FallbackReason
		wantDayOnes []string
	}{
		{
			name: "last model answers",
			setup: func(f *fakeModelServer) {
				f.statuses["m1"] = http.StatusServiceUnavailable
				f.statuses["m2"] = http.StatusTooManyRequests
				f.statuses["m3"] = http.StatusInternalServerError
				f.contents["m4"] = threeDayPlan
			},
			wantCalls:   []string{"m1", "m2", "m3", "m4"},
			wantSource:  workout.SourceModel,
			wantReason:  workout.ReasonNone,
			wantDayOnes: []string{"Push-ups"},
		},
		{
			name: "html with success status",
			setup: func(f *fakeModelServer) {
				f.raw["m1"] = "<html>upstream says hi</html>"
				f.contents["m2"] = threeDayPlan
			},
			wantCalls:   []string{"m1"},
			wantSource:  workout.SourceRules,
			wantReason:  workout.ReasonExtractionMiss,
			wantDayOnes: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, srv := newFakeModelServer(t)
			tt.setup(fake)
			g := newStubGenerator(t, newTestRequester(t, srv, []string{"m1", "m2", "m3", "m4"}, nil))

			got := g.Generate(t.Context(), baseProfile())

			if diff := cmp.Diff(tt.wantCalls, fake.modelCalls()); diff != "" {
				t.Errorf("model calls mismatch (-want +got):\n%s", diff)
			}
			if got.Source != tt.wantSource || got.FallbackReason != tt.wantReason {
				t.Fatalf("Source = %q reason %q, want %q reason %q",
					got.Source, got.FallbackReason, tt.wantSource, tt.wantReason)
			}
			if len(got.WeeklySchedule) != 3 {
				t.Fatalf("days = %d, want 3", len(got.WeeklySchedule))
			}
			if tt.wantDayOnes == nil {
				return
			}
			if diff := cmp.Diff(tt.wantDayOnes, exerciseNames(got.WeeklySchedule[0])); diff != "" {
				t.Errorf("day 1 mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]string{"Plank"}, exerciseNames(got.WeeklySchedule[2])); diff != "" {
				t.Errorf("day 3 mismatch (-want +got):\n%s", diff)
			}
			if got.WeeklySchedule[2].Focus != "Core" {
				t.Errorf("day 3 focus = %q, want Core", got.WeeklySchedule[2].Focus)
			}
		})
	}
}
