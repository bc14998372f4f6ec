package room

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rushabhdhoke/agedcare-voice-harness/pkg/agent"
	"github.com/rushabhdhoke/agedcare-voice-harness/pkg/audio/wav"
)

// PublishingRobot wraps a Robot so every resident clip is also played
// into the connected LiveKit room before the pipeline exchange. Live
// runs hear the degraded audio through the same transport the deployed
// robot uses; hermetic runs use the inner robot directly.
type PublishingRobot struct {
	session *Session
	inner   agent.Robot
	logger  *slog.Logger
}

// NewPublishingRobot wraps inner with room publishing over session.
// The session must be connected before the first Converse call.
func NewPublishingRobot(session *Session, inner agent.Robot, logger *slog.Logger) *PublishingRobot {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublishingRobot{
		session: session,
		inner:   inner,
		logger:  logger,
	}
}

// Converse publishes the resident clip into the room, then runs the
// inner robot's exchange. A publish failure aborts the turn before the
// pipeline is called.
func (r *PublishingRobot) Converse(ctx context.Context, in agent.ConversationInput) (*agent.ConversationResult, error) {
	reader, err := wav.NewReader(in.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open clip for publishing: %w", err)
	}
	frames, err := reader.ReadFrames()
	reader.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read clip for publishing: %w", err)
	}

	r.logger.Debug("publishing resident clip to room",
		slog.String("clip", in.AudioPath),
		slog.Int("frames", len(frames)))

	if err := r.session.PublishClip(ctx, frames); err != nil {
		return nil, fmt.Errorf("failed to publish resident speech: %w", err)
	}

	return r.inner.Converse(ctx, in)
}

// Reset starts a new conversation on the inner robot. The room session
// stays connected across conversations.
func (r *PublishingRobot) Reset() {
	r.inner.Reset()
}

var _ agent.Robot = (*PublishingRobot)(nil)
