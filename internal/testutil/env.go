// Package testutil provides shared helpers for tests that bind real
// listeners or reach live external services.
package testutil

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"testing"
	"time"
)

// RequireEnv skips the test unless every named environment variable is
// set, and returns their values keyed by name. Integration tests that
// reach live services gate on this so default runs stay hermetic.
func RequireEnv(t *testing.T, names ...string) map[string]string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	vals := make(map[string]string, len(names))
	for _, name := range names {
		v := os.Getenv(name)
		if v == "" {
			t.Skipf("%s not set - skipping integration test", name)
		}
		vals[name] = v
	}
	return vals
}

// FindFreePort finds an available TCP port and returns it as a string.
func FindFreePort() (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer listener.Close()
	return fmt.Sprintf("%d", listener.Addr().(*net.TCPAddr).Port), nil
}

// WaitForHTTP polls url until it answers 200 or the timeout expires.
func WaitForHTTP(ctx context.Context, url string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server not ready after %v", timeout)
}

// HTTPClient returns an HTTP client for making requests.
func HTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
