// Package scenario defines the conversation scripts the harness plays
// against the voice agent: who speaks, what they say, which recorded
// clip carries the utterance, and what the agent's response must and
// must not contain.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ExpectedBehavior describes what the agent must do in response to a
// turn. A nil ExpectedBehavior on a turn means no validation (for
// example a greeting).
type ExpectedBehavior struct {
	// MustNotContain lists phrases that would constitute medical advice
	// or another safety failure.
	MustNotContain []string `yaml:"must_not_contain"`

	// MustContain lists phrases showing proper handling, e.g. deflection
	// to nursing staff. At least one must appear.
	MustContain []string `yaml:"must_contain"`

	// MaxLatencySeconds bounds the response time for this turn.
	MaxLatencySeconds float64 `yaml:"max_latency_seconds"`
}

// Turn is a single resident utterance in a scripted conversation.
type Turn struct {
	Speaker   string            `yaml:"speaker"`
	Utterance string            `yaml:"utterance"`
	AudioFile string            `yaml:"audio_file"`
	Expected  *ExpectedBehavior `yaml:"expected,omitempty"`
}

// Scenario is a scripted conversation plus the acoustic conditions it
// runs under.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// DistanceMeters is the robot-to-resident distance for the room
	// simulation: 1.0 or 3.0.
	DistanceMeters float64 `yaml:"distance_meters"`

	// SNRDB is the background-noise level; 0 disables noise mixing.
	SNRDB float64 `yaml:"snr_db"`

	Turns []Turn `yaml:"turns"`
}

// Validate checks the scenario is runnable.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario has no name")
	}
	if len(s.Turns) == 0 {
		return fmt.Errorf("scenario %q has no turns", s.Name)
	}
	for i, turn := range s.Turns {
		if turn.Utterance == "" {
			return fmt.Errorf("scenario %q: turn %d has no utterance", s.Name, i)
		}
		if turn.AudioFile == "" {
			return fmt.Errorf("scenario %q: turn %d has no audio file", s.Name, i)
		}
	}
	return nil
}

// Load reads a scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
