package workout

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/zonroxx/FitQuest-AI/internal/errors"
)

// Defaults for the hosted inference router.
const (
	DefaultModelBaseURL = "https://router.huggingface.co/v1"
	DefaultModelTimeout = 60 * time.Second
	maxCompletionTokens = 1000
	temperature         = 0.7
)

// DefaultModels returns the model identifiers tried in order.
func DefaultModels() []string {
	return []string{
		"Qwen/Qwen3-Next-80B-A3B-Instruct:novita",
		"deepseek-ai/DeepSeek-R1:novita",
		"deepseek-ai/DeepSeek-V3:nebius",
		"deepseek-ai/DeepSeek-R1-Distill-Qwen-1.5B:featherless-ai",
	}
}

var ErrAllModelsFailed = errors.NewSentinel("all models failed")

// Completion is the raw chat completion response body returned by one model.
type Completion struct {
	Model    string
	Envelope []byte
}

// Requester sends a prompt to a text-generation service.
type Requester interface {
	RequestCompletion(ctx context.Context, prompt string) (Completion, error)
}

// ModelConfig configures a ModelRequester. Zero values fall back to the defaults above.
type ModelConfig struct {
	APIKey     string
	BaseURL    string
	Models     []string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// ModelRequester calls an OpenAI-compatible chat completion endpoint, trying each configured model in order until one
// answers with a successful status.
type ModelRequester struct {
	client  openai.Client
	models  []string
	timeout time.Duration
	logger  *slog.Logger
	metrics *Metrics
}

// NewModelRequester creates a requester. metrics may be nil.
func NewModelRequester(cfg ModelConfig, logger *slog.Logger, metrics *Metrics) *ModelRequester {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultModelBaseURL
	}
	models := cfg.Models
	if len(models) == 0 {
		models = DefaultModels()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultModelTimeout
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(strings.TrimSuffix(baseURL, "/") + "/"),
		// Each model is attempted once. Falling through to the next model is the retry.
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &ModelRequester{
		client:  openai.NewClient(opts...),
		models:  models,
		timeout: timeout,
		logger:  logger,
		metrics: metrics,
	}
}

type attemptOutcome string

const (
	outcomeSuccess   attemptOutcome = "success"
	outcomeHTTPError attemptOutcome = "http_error"
	outcomeTimeout   attemptOutcome = "timeout"
	outcomeError     attemptOutcome = "error"
)

// RequestCompletion returns the body of the first response with a success status, whatever it contains. Non-2xx
// statuses, timeouts and transport errors move on to the next model. When every model fails the error wraps
// ErrAllModelsFailed and the last failure.
func (r *ModelRequester) RequestCompletion(ctx context.Context, prompt string) (Completion, error) {
	var lastErr error
	for i, model := range r.models {
		if err := ctx.Err(); err != nil {
			return Completion{}, errors.Wrap(err, "request cancelled", slog.Int("attempted_models", i))
		}

		logAttrs := []slog.Attr{
			slog.String("model", model), slog.Int("attempt", i+1), slog.Int("models", len(r.models)),
		}
		start := time.Now()

		envelope, err := r.attempt(ctx, model, prompt)
		logAttrs = append(logAttrs, slog.Duration("duration", time.Since(start)))
		if err == nil {
			r.metrics.observeAttempt(model, outcomeSuccess)
			r.logger.LogAttrs(ctx, slog.LevelInfo, "model succeeded", logAttrs...)
			return Completion{Model: model, Envelope: envelope}, nil
		}

		outcome := classifyAttemptError(err)
		r.metrics.observeAttempt(model, outcome)
		logAttrs = append(logAttrs, slog.String("outcome", string(outcome)), errors.SlogError(err))
		r.logger.LogAttrs(ctx, slog.LevelWarn, "model failed", logAttrs...)
		lastErr = err
	}
	return Completion{}, errors.Wrap(errors.Join(ErrAllModelsFailed, lastErr), "request completion",
		slog.Int("attempted_models", len(r.models)))
}

func (r *ModelRequester) attempt(ctx context.Context, model, prompt string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// The raw body is kept even when it is not a chat completion; extraction decides what to make of it.
	var body []byte
	_, err := r.client.Chat.Completions.New(ctx,
		openai.ChatCompletionNewParams{ //nolint:exhaustruct // only need to set a few fields.
			Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
			Model:       openai.ChatModel(model),
			MaxTokens:   openai.Int(maxCompletionTokens),
			Temperature: openai.Float(temperature),
		},
		option.WithResponseBodyInto(&body))
	if err != nil {
		return nil, errors.Wrap(err, "chat completion", slog.String("model", model))
	}
	return body, nil
}

func classifyAttemptError(err error) attemptOutcome {
	var apiErr *openai.Error
	switch {
	case errors.As(err, &apiErr):
		return outcomeHTTPError
	case errors.Is(err, context.DeadlineExceeded):
		return outcomeTimeout
	default:
		return outcomeError
	}
}
