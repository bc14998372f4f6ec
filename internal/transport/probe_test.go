package transport

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestProbeInvalidURL(t *testing.T) {
	p := NewProbe("://bad", "", slog.Default())
	if err := p.Check(context.Background()); err == nil {
		t.Error("expected an error for a malformed URL")
	}
}

func TestProbeUnsupportedScheme(t *testing.T) {
	p := NewProbe("ftp://example.com", "", slog.Default())
	err := p.Check(context.Background())
	if err == nil {
		t.Fatal("expected an error for an unsupported scheme")
	}
	if !strings.Contains(err.Error(), "unsupported scheme") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestProbeUnreachable(t *testing.T) {
	p := NewProbe("ws://127.0.0.1:1/rtc", "", slog.Default())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Check(ctx); err == nil {
		t.Error("expected an error for an unreachable server")
	}
}

func TestProbeReachable(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("access_token")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// Drain control frames until the probe hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	p := NewProbe(srv.URL, "tok", slog.Default())
	if err := p.Check(context.Background()); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if gotToken != "tok" {
		t.Errorf("access_token = %q, want tok", gotToken)
	}
}

func TestProbeAppendsRTCPath(t *testing.T) {
	var gotPath string
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	p := NewProbe(srv.URL, "", slog.Default())
	_ = p.Check(context.Background())
	if gotPath != "/rtc" {
		t.Errorf("path = %q, want /rtc", gotPath)
	}
}
