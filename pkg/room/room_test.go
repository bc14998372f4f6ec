package room

import (
	"context"
	"strings"
	"testing"
)

func TestNewSessionRequiresCredentials(t *testing.T) {
	if _, err := NewSession(Config{URL: "wss://example.livekit.cloud"}, nil); err == nil {
		t.Error("expected an error without API credentials")
	}
	if _, err := NewSession(Config{APIKey: "key", APISecret: "secret"}, nil); err == nil {
		t.Error("expected an error without a URL")
	}
}

func TestSessionDefaults(t *testing.T) {
	s, err := NewSession(Config{
		URL:       "wss://example.livekit.cloud",
		APIKey:    "key",
		APISecret: "secret",
	}, nil)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if s.config.RoomName != "test-private-room" {
		t.Errorf("RoomName = %q, want test-private-room", s.config.RoomName)
	}
	if s.config.Identity != "aged-care-robot-test" {
		t.Errorf("Identity = %q, want aged-care-robot-test", s.config.Identity)
	}
}

func TestTokenIsWellFormedJWT(t *testing.T) {
	s, err := NewSession(Config{
		URL:       "wss://example.livekit.cloud",
		APIKey:    "key",
		APISecret: "secret-must-be-long-enough-to-sign",
	}, nil)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	token, err := s.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Errorf("token has %d segments, want 3", len(parts))
	}
}

func TestPublishClipRequiresConnection(t *testing.T) {
	s, err := NewSession(Config{
		URL:       "wss://example.livekit.cloud",
		APIKey:    "key",
		APISecret: "secret",
	}, nil)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	if err := s.PublishClip(context.Background(), nil); err == nil {
		t.Error("expected an error when not connected")
	}

	// Disconnect before connect is a no-op.
	s.Disconnect()
}
