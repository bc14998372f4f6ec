// Package fake provides a scripted Robot for hermetic tests: no
// network, deterministic transcripts and latencies.
package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/rushabhdhoke/agedcare-voice-harness/pkg/agent"
	"github.com/rushabhdhoke/agedcare-voice-harness/pkg/audio/wav"
)

// DefaultResponse is returned when the script runs out of turns.
const DefaultResponse = "I understand. Let's have you speak with the nursing staff about that. Shall I call a nurse for you?"

// Response is one scripted agent turn.
type Response struct {
	Transcript     string
	HeardText      string
	LatencySeconds float64
	Err            error // returned instead of a result when set
}

// FakeRobot replays scripted responses in order. It records the inputs
// it was given so tests can assert on what reached the pipeline.
type FakeRobot struct {
	mu     sync.Mutex
	script []Response
	turn   int
	resets int
	inputs []agent.ConversationInput
}

// NewFakeRobot creates a fake with a scripted sequence of responses.
func NewFakeRobot(script ...Response) *FakeRobot {
	return &FakeRobot{script: script}
}

// Converse returns the next scripted response.
func (f *FakeRobot) Converse(ctx context.Context, in agent.ConversationInput) (*agent.ConversationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.inputs = append(f.inputs, in)

	resp := Response{Transcript: DefaultResponse, LatencySeconds: 1.0}
	if f.turn < len(f.script) {
		resp = f.script[f.turn]
	}
	f.turn++

	if resp.Err != nil {
		return nil, resp.Err
	}

	if in.OutputPath != "" {
		if err := writeSilence(in.OutputPath); err != nil {
			return nil, fmt.Errorf("fake response audio: %w", err)
		}
	}

	return &agent.ConversationResult{
		Transcript:     resp.Transcript,
		HeardText:      resp.HeardText,
		LatencySeconds: resp.LatencySeconds,
		SampleRate:     24000,
	}, nil
}

// Reset starts a new conversation and rewinds the script.
func (f *FakeRobot) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turn = 0
	f.resets++
}

// Inputs returns the conversation inputs seen so far.
func (f *FakeRobot) Inputs() []agent.ConversationInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]agent.ConversationInput, len(f.inputs))
	copy(out, f.inputs)
	return out
}

// Resets returns how many times the conversation was reset.
func (f *FakeRobot) Resets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resets
}

// writeSilence writes a short valid WAV so callers that check for the
// response file find one.
func writeSilence(path string) error {
	w, err := wav.NewWriter(path, 24000, 1, 16)
	if err != nil {
		return err
	}
	if err := w.WriteSamples(make([]float64, 24000/5)); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

var _ agent.Robot = (*FakeRobot)(nil)
