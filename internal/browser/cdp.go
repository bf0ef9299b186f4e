package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	// DefaultCDPTimeout bounds WaitForCDP when no timeout is given.
	DefaultCDPTimeout = 20 * time.Second

	// cdpPollInterval is the spacing between DevTools readiness probes.
	cdpPollInterval = 250 * time.Millisecond
)

// CDPURL returns the loopback DevTools HTTP endpoint for port.
func CDPURL(port int) string {
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}

// IsChromeReachable checks if Chrome CDP is responding.
func IsChromeReachable(cdpURL string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := getVersion(ctx, cdpURL)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// GetChromeWebSocketURL gets the CDP WebSocket URL from a running Chrome.
func GetChromeWebSocketURL(ctx context.Context, cdpURL string) (string, error) {
	resp, err := getVersion(ctx, cdpURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status from %s: %s", cdpURL, resp.Status)
	}

	var version struct {
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&version); err != nil {
		return "", err
	}

	if version.WebSocketDebuggerURL == "" {
		return "", fmt.Errorf("no webSocketDebuggerUrl in response")
	}

	return version.WebSocketDebuggerURL, nil
}

// WaitForCDP polls the DevTools endpoint until it yields a WebSocket URL or
// timeout elapses.
func WaitForCDP(ctx context.Context, cdpURL string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultCDPTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	wsURL, err := retry.DoWithData(
		func() (string, error) {
			probeCtx, probeCancel := context.WithTimeout(ctx, time.Second)
			defer probeCancel()
			return GetChromeWebSocketURL(probeCtx, cdpURL)
		},
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(cdpPollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("Chrome CDP did not start at %s within %s: %w", cdpURL, timeout, err)
		}
		return "", err
	}
	return wsURL, nil
}

func getVersion(ctx context.Context, cdpURL string) (*http.Response, error) {
	versionURL := strings.TrimSuffix(cdpURL, "/") + "/json/version"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, versionURL, nil)
	if err != nil {
		return nil, err
	}
	return http.DefaultClient.Do(req)
}
