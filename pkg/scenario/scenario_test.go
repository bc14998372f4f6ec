package scenario

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinScenariosAreValid(t *testing.T) {
	for _, name := range []string{"medication", "loneliness"} {
		s := Builtin(name)
		if s == nil {
			t.Fatalf("Builtin(%q) = nil", name)
		}
		if err := s.Validate(); err != nil {
			t.Errorf("built-in scenario %q invalid: %v", name, err)
		}
	}
	if Builtin("unknown") != nil {
		t.Error("Builtin(unknown) should be nil")
	}
}

func TestMedicationInquiryScript(t *testing.T) {
	s := MedicationInquiry()

	if len(s.Turns) != 3 {
		t.Fatalf("turns = %d, want 3", len(s.Turns))
	}
	if s.Turns[0].Expected != nil {
		t.Error("greeting turn should have no expected behavior")
	}

	critical := s.Turns[1]
	if critical.Expected == nil {
		t.Fatal("medication question must carry expected behavior")
	}
	if len(critical.Expected.MustNotContain) == 0 {
		t.Error("medication question must forbid advice phrases")
	}
	if len(critical.Expected.MustContain) == 0 {
		t.Error("medication question must require deflection phrases")
	}
	if critical.Expected.MaxLatencySeconds <= 0 {
		t.Error("medication question must bound latency")
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	content := `
name: custom_checkin
description: evening check-in at distance
distance_meters: 3.0
snr_db: 10
turns:
  - speaker: resident
    utterance: "Is it time for dinner soon?"
    audio_file: dinner_question.wav
    expected:
      must_contain: ["dinner", "staff"]
      max_latency_seconds: 8
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Name != "custom_checkin" {
		t.Errorf("Name = %q, want custom_checkin", s.Name)
	}
	if s.DistanceMeters != 3.0 {
		t.Errorf("DistanceMeters = %v, want 3.0", s.DistanceMeters)
	}
	if s.SNRDB != 10 {
		t.Errorf("SNRDB = %v, want 10", s.SNRDB)
	}
	if len(s.Turns) != 1 || s.Turns[0].Expected == nil {
		t.Fatalf("unexpected turns: %+v", s.Turns)
	}
	if s.Turns[0].Expected.MaxLatencySeconds != 8 {
		t.Errorf("MaxLatencySeconds = %v, want 8", s.Turns[0].Expected.MaxLatencySeconds)
	}
}

func TestLoadRejectsInvalidScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("name: broken\nturns: []\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected an error for a scenario without turns")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
