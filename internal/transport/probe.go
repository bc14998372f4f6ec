// Package transport provides a lightweight WebSocket reachability probe
// for the LiveKit signalling endpoint. The harness uses it to fail fast
// with a clear error before a full room session is attempted.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Probe checks that a LiveKit server is reachable over WebSocket.
type Probe struct {
	url    string
	token  string
	logger *slog.Logger
}

func NewProbe(serverURL, token string, logger *slog.Logger) *Probe {
	if logger == nil {
		logger = slog.Default()
	}
	return &Probe{
		url:    serverURL,
		token:  token,
		logger: logger,
	}
}

// Check dials the signalling endpoint, waits for the handshake to
// complete, and closes the connection. A nil return means the server
// accepted the upgrade.
func (p *Probe) Check(ctx context.Context) error {
	u, err := url.Parse(p.url)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	if !strings.HasSuffix(u.Path, "/rtc") {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/rtc"
	}

	q := u.Query()
	if p.token != "" {
		q.Set("access_token", p.token)
	}
	u.RawQuery = q.Encode()

	p.logger.Debug("Probing WebSocket endpoint", slog.String("url", u.Host))

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to connect (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	p.logger.Info("WebSocket endpoint reachable", slog.String("url", u.Host))
	return nil
}
