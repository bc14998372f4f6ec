// Package room wraps the LiveKit session a validation run happens in:
// minting the access token, connecting, publishing the resident's
// degraded speech as a local audio track, and tearing down.
package room

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/livekit/protocol/auth"
	lksdk "github.com/livekit/server-sdk-go"
	"github.com/pion/webrtc/v3"
	"github.com/pion/webrtc/v3/pkg/media"

	"github.com/rushabhdhoke/agedcare-voice-harness/pkg/rtc"
)

// Config describes the LiveKit deployment and the identity the harness
// joins with.
type Config struct {
	URL       string
	APIKey    string
	APISecret string

	// RoomName defaults to "test-private-room".
	RoomName string

	// Identity defaults to "aged-care-robot-test".
	Identity string

	// TokenTTL bounds how long a minted token stays valid.
	TokenTTL time.Duration
}

func (c *Config) validate() error {
	if c.URL == "" {
		return fmt.Errorf("LiveKit URL is required")
	}
	if c.APIKey == "" || c.APISecret == "" {
		return fmt.Errorf("LiveKit API key and secret are required")
	}
	return nil
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.RoomName == "" {
		out.RoomName = "test-private-room"
	}
	if out.Identity == "" {
		out.Identity = "aged-care-robot-test"
	}
	if out.TokenTTL == 0 {
		out.TokenTTL = time.Hour
	}
	return out
}

// Session is one connected LiveKit room.
type Session struct {
	config Config
	logger *slog.Logger

	mu        sync.Mutex
	room      *lksdk.Room
	connected bool
}

// NewSession creates a disconnected session.
func NewSession(config Config, logger *slog.Logger) (*Session, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{config: config.withDefaults(), logger: logger}, nil
}

// Token mints a join token for the configured room and identity.
func (s *Session) Token() (string, error) {
	at := auth.NewAccessToken(s.config.APIKey, s.config.APISecret)
	grant := &auth.VideoGrant{
		RoomJoin: true,
		Room:     s.config.RoomName,
	}
	at.AddGrant(grant).
		SetIdentity(s.config.Identity).
		SetName("Test Robot").
		SetValidFor(s.config.TokenTTL)

	token, err := at.ToJWT()
	if err != nil {
		return "", fmt.Errorf("failed to mint access token: %w", err)
	}
	return token, nil
}

// Connect joins the LiveKit room.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return fmt.Errorf("session is already connected")
	}

	token, err := s.Token()
	if err != nil {
		return err
	}

	room, err := lksdk.ConnectToRoomWithToken(s.config.URL, token, &lksdk.RoomCallback{})
	if err != nil {
		return fmt.Errorf("failed to connect to room %q: %w", s.config.RoomName, err)
	}

	s.room = room
	s.connected = true
	s.logger.Info("connected to LiveKit room",
		slog.String("room", s.config.RoomName),
		slog.String("identity", s.config.Identity))
	return nil
}

// PublishClip publishes the frames as a local audio track, pacing the
// writes at real time so downstream consumers hear a natural clip.
func (s *Session) PublishClip(ctx context.Context, frames []rtc.AudioFrame) error {
	s.mu.Lock()
	room := s.room
	connected := s.connected
	s.mu.Unlock()

	if !connected {
		return fmt.Errorf("session is not connected")
	}
	if len(frames) == 0 {
		return fmt.Errorf("no audio frames to publish")
	}

	track, err := lksdk.NewLocalSampleTrack(webrtc.RTPCodecCapability{
		MimeType:  webrtc.MimeTypeOpus,
		ClockRate: 48000,
		Channels:  uint16(frames[0].NumChannels),
	})
	if err != nil {
		return fmt.Errorf("failed to create local track: %w", err)
	}

	pub, err := room.LocalParticipant.PublishTrack(track, &lksdk.TrackPublicationOptions{
		Name: "resident-speech",
	})
	if err != nil {
		return fmt.Errorf("failed to publish track: %w", err)
	}
	defer room.LocalParticipant.UnpublishTrack(pub.SID())

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for _, frame := range frames {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := track.WriteSample(media.Sample{
			Data:     frame.Data,
			Duration: frame.Duration(),
		}, nil); err != nil {
			return fmt.Errorf("failed to write audio sample: %w", err)
		}
	}

	return nil
}

// Disconnect leaves the room. Safe to call when not connected.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return
	}
	s.room.Disconnect()
	s.room = nil
	s.connected = false
	s.logger.Info("disconnected from LiveKit room", slog.String("room", s.config.RoomName))
}
