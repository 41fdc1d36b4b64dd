package e2etest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/zonroxx/FitQuest-AI/internal/logging"
)

// LogAddrKey is the log attribute under which the server reports the address it listens on.
const LogAddrKey = "addr"

// Server is a server started in the test process.
type Server struct {
	url        string
	client     *Client
	cancel     context.CancelCauseFunc
	serverDone chan struct{}
}

// RunFunc starts a server and blocks until ctx is cancelled. cmd/web's run has this signature.
type RunFunc func(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error

// StartServer calls run in a goroutine and waits until the server answers on /api/healthy. The server is shut down
// when the test finishes.
//
// Logs go to logSink, usually a testhelpers.NewWriter. Configure the server with lookupEnv to listen on localhost:0;
// the chosen address is picked up from the first record carrying [LogAddrKey].
func StartServer(t *testing.T, logSink io.Writer, lookupEnv func(string) (string, bool), run RunFunc) (*Server, error) {
	ctx, cancel := context.WithCancelCause(t.Context())
	serverDone := make(chan struct{})
	server := &Server{url: "", client: nil, cancel: cancel, serverDone: serverDone}
	t.Cleanup(server.Shutdown)

	addrCh := make(chan string, 1)
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == LogAddrKey {
				select {
				case addrCh <- a.Value.String():
				default:
				}
			}
			return a
		},
	})))

	go func() {
		defer close(serverDone)
		if err := run(ctx, logger, lookupEnv); err != nil {
			cancel(err)
		}
	}()

	var addr string
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("server stopped before listening: %w", context.Cause(ctx))
	case addr = <-addrCh:
	}

	server.url = "http://" + addr
	server.client = NewClient(server.url)
	if err := server.client.WaitForReady(ctx, "/api/healthy"); err != nil {
		return nil, fmt.Errorf("wait for ready: %w", err)
	}
	return server, nil
}

func (s *Server) Client() *Client {
	return s.client
}

func (s *Server) URL() string {
	return s.url
}

// Shutdown cancels the server and waits for run to return. It is safe to call more than once.
func (s *Server) Shutdown() {
	s.cancel(nil)
	<-s.serverDone
}
