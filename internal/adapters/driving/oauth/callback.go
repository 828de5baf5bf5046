// Package oauth provides the loopback OAuth callback server and browser launcher.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/core/ports/driven"
)

// DefaultPort is the loopback port registered as the redirect URI.
const DefaultPort = 8000

// CallbackPath is the path the provider redirects to.
const CallbackPath = "/callback"

// Ensure CallbackServer implements the CallbackReceiver interface.
var _ driven.CallbackReceiver = (*CallbackServer)(nil)

// callbackResult is the single outcome a server hands off.
type callbackResult struct {
	code string
	err  error
}

// CallbackServer handles the OAuth redirect.
// The first callback, successful or not, is handed off through a one-shot
// channel; later requests only receive a page.
type CallbackServer struct {
	mu            sync.Mutex
	port          int
	expectedState string
	once          sync.Once
	result        chan callbackResult
	server        *http.Server
	listener      net.Listener
}

// NewCallbackServer creates a new OAuth callback server.
// The expectedState is used to validate the callback matches the request.
func NewCallbackServer(port int, expectedState string) *CallbackServer {
	return &CallbackServer{
		port:          port,
		expectedState: expectedState,
		result:        make(chan callbackResult, 1),
	}
}

// Start starts the callback server on the configured port.
// If port is 0, a random available port will be chosen.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc(CallbackPath, s.handleCallback)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	// Store the actual port (important when port was 0)
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}

	server := s.server
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.deliver(callbackResult{err: err})
		}
	}()

	return nil
}

// deliver hands off the first result and drops the rest.
func (s *CallbackServer) deliver(r callbackResult) bool {
	delivered := false
	s.once.Do(func() {
		s.result <- r
		delivered = true
	})
	return delivered
}

// handleCallback processes the OAuth callback request.
func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		errDesc := q.Get("error_description")
		s.deliver(callbackResult{err: fmt.Errorf("%w: provider returned %s: %s", domain.ErrAuth, errParam, errDesc)})
		_, _ = fmt.Fprint(w, resultHTML("Authorization failed", html.EscapeString(errDesc)))
		return
	}

	if q.Get("state") != s.expectedState {
		s.deliver(callbackResult{err: fmt.Errorf("%w: state mismatch", domain.ErrAuth)})
		_, _ = fmt.Fprint(w, resultHTML("Authorization failed", "Invalid state parameter."))
		return
	}

	code := q.Get("code")
	if code == "" {
		s.deliver(callbackResult{err: fmt.Errorf("%w: no authorization code received", domain.ErrAuth)})
		_, _ = fmt.Fprint(w, resultHTML("Authorization failed", "No code received."))
		return
	}

	if !s.deliver(callbackResult{code: code}) {
		_, _ = fmt.Fprint(w, resultHTML("Already handled", "This login was already completed."))
		return
	}
	_, _ = fmt.Fprint(w, resultHTML("Authorization successful!", "You can close this window and return to xbm."))
}

// WaitForCode blocks until the authorization code is received or ctx is done.
func (s *CallbackServer) WaitForCode(ctx context.Context) (string, error) {
	select {
	case r := <-s.result:
		return r.code, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for authorization callback: %w", ctx.Err())
	}
}

// Stop shuts down the callback server.
func (s *CallbackServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	s.server = nil
	return err
}

// Port returns the port the server is listening on.
func (s *CallbackServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// RedirectURI returns the redirect URI for this callback server.
func (s *CallbackServer) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d%s", s.Port(), CallbackPath)
}

//nolint:misspell // CSS properties use American spelling
func resultHTML(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>xbm - Authorization</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: #F5F8FA;
        }
        .container {
            text-align: center;
            background: white;
            padding: 48px 64px;
            border-radius: 16px;
            border: 1px solid #CFD9DE;
        }
        h1 {
            color: #0F1419;
            margin: 0 0 8px 0;
            font-size: 24px;
        }
        p {
            color: #536471;
            margin: 0;
            font-size: 16px;
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>`, title, message)
}

// OpenBrowser opens the default browser to the given URL.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
