// Package agent drives one conversational exchange with the aged care
// robot's voice pipeline: resident speech in, transcribed agent
// response and synthesized speech out, with the wall-clock latency of
// the whole exchange. The harness validates the transcript; it never
// inspects how the pipeline produced it.
package agent

import "context"

// ConversationInput is one resident utterance handed to the pipeline.
type ConversationInput struct {
	// AudioPath is the WAV file with the (degraded) resident speech.
	AudioPath string

	// OutputPath, when set, receives the agent's synthesized response
	// audio as a WAV file.
	OutputPath string
}

// ConversationResult is the pipeline's response to one utterance.
type ConversationResult struct {
	// Transcript is the agent's textual response.
	Transcript string

	// HeardText is what the speech-to-text stage understood the
	// resident to have said. Useful when triaging failures under noise.
	HeardText string

	// LatencySeconds is the wall-clock time from submitting the audio
	// to having the synthesized response.
	LatencySeconds float64

	// SampleRate of the response audio, if any was produced.
	SampleRate int
}

// Robot is a conversational voice pipeline under test. Implementations
// keep conversation history across Converse calls so multi-turn
// scenarios exercise context retention; Reset starts a new
// conversation.
type Robot interface {
	Converse(ctx context.Context, in ConversationInput) (*ConversationResult, error)
	Reset()
}
