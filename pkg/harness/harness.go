// Package harness runs scripted conversations against a voice agent
// and checks the results against stored baselines. It ties together
// the acoustic simulation, the agent pipeline, the response validators
// and the regression comparator into a single Run call.
package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rushabhdhoke/agedcare-voice-harness/pkg/acoustic"
	"github.com/rushabhdhoke/agedcare-voice-harness/pkg/agent"
	"github.com/rushabhdhoke/agedcare-voice-harness/pkg/audio/wav"
	"github.com/rushabhdhoke/agedcare-voice-harness/pkg/baseline"
	"github.com/rushabhdhoke/agedcare-voice-harness/pkg/scenario"
	"github.com/rushabhdhoke/agedcare-voice-harness/pkg/validate"
)

// TurnReport captures the outcome of a single conversation turn.
type TurnReport struct {
	Index          int
	Utterance      string
	Transcript     string
	HeardText      string
	LatencySeconds float64
	Medical        validate.MedicalAdviceResult

	// SafetySensitive marks turns where staff deflection is required,
	// not just the absence of advice.
	SafetySensitive bool

	Failures []string
	Passed   bool
}

// RunReport is the structured result of one scenario run.
type RunReport struct {
	RunID     string
	Scenario  string
	StartedAt time.Time
	Duration  time.Duration
	Turns     []TurnReport
	Record    baseline.Record
	Verdict   *baseline.Verdict
	Passed    bool
}

// Harness executes scenarios against a robot and evaluates the
// collected metrics against the baseline store.
type Harness struct {
	robot      agent.Robot
	comparator *baseline.Comparator
	mixer      *acoustic.NoiseMixer
	room       *acoustic.RoomSimulator
	medical    *validate.MedicalAdvice
	audioDir   string
	outputDir  string
	logger     *slog.Logger
}

type Option func(*Harness)

// WithNoiseSeed makes the background-noise generation reproducible.
func WithNoiseSeed(seed int64) Option {
	return func(h *Harness) { h.mixer = acoustic.NewNoiseMixer(seed) }
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) { h.logger = logger }
}

// WithAudioDirs overrides where clean clips are read from and where
// processed clips and agent responses are written.
func WithAudioDirs(audioDir, outputDir string) Option {
	return func(h *Harness) {
		h.audioDir = audioDir
		h.outputDir = outputDir
	}
}

func New(robot agent.Robot, comparator *baseline.Comparator, opts ...Option) *Harness {
	h := &Harness{
		robot:      robot,
		comparator: comparator,
		mixer:      acoustic.NewNoiseMixer(time.Now().UnixNano()),
		room:       acoustic.NewPrivateRoom(),
		medical:    validate.NewMedicalAdvice(),
		audioDir:   "audio_samples",
		outputDir:  "test_outputs",
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run plays every turn of the scenario through the robot, validates
// each response, folds the results into a metric record and evaluates
// it against the stored baseline.
func (h *Harness) Run(ctx context.Context, sc *scenario.Scenario) (*RunReport, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	report := &RunReport{
		RunID:     uuid.NewString(),
		Scenario:  sc.Name,
		StartedAt: time.Now(),
	}

	h.logger.Info("Starting scenario run",
		slog.String("run_id", report.RunID),
		slog.String("scenario", sc.Name),
		slog.Float64("distance_m", sc.DistanceMeters),
		slog.Float64("snr_db", sc.SNRDB))

	if err := os.MkdirAll(h.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	h.robot.Reset()

	for i, turn := range sc.Turns {
		tr, err := h.runTurn(ctx, sc, report.RunID, i, turn)
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", i, err)
		}
		report.Turns = append(report.Turns, *tr)
	}

	report.Record = h.buildRecord(report.Turns)
	report.Duration = time.Since(report.StartedAt)

	verdict, err := h.comparator.Evaluate(sc.Name, report.Record)
	if err != nil {
		return nil, fmt.Errorf("baseline evaluation: %w", err)
	}
	report.Verdict = verdict

	report.Passed = !verdict.Regressed()
	for _, tr := range report.Turns {
		if !tr.Passed {
			report.Passed = false
		}
	}

	h.logger.Info("Scenario run finished",
		slog.String("run_id", report.RunID),
		slog.String("verdict", verdict.Status.String()),
		slog.Bool("passed", report.Passed),
		slog.Duration("duration", report.Duration))

	return report, nil
}

func (h *Harness) runTurn(ctx context.Context, sc *scenario.Scenario, runID string, index int, turn scenario.Turn) (*TurnReport, error) {
	audioPath, err := h.prepareAudio(sc, runID, index, turn)
	if err != nil {
		return nil, err
	}

	in := agent.ConversationInput{
		AudioPath:  audioPath,
		OutputPath: filepath.Join(h.outputDir, fmt.Sprintf("%s_turn%d_response.wav", runID, index)),
	}

	result, err := h.robot.Converse(ctx, in)
	if agent.IsRecoverable(err) {
		h.logger.Warn("Recoverable pipeline error, retrying turn",
			slog.Int("turn", index), slog.String("error", err.Error()))
		result, err = h.robot.Converse(ctx, in)
	}
	if err != nil {
		return nil, err
	}

	tr := &TurnReport{
		Index:          index,
		Utterance:      turn.Utterance,
		Transcript:     result.Transcript,
		HeardText:      result.HeardText,
		LatencySeconds: result.LatencySeconds,
		Medical:        h.medical.Validate(result.Transcript),
		Passed:         true,
	}

	h.applyExpectations(tr, turn.Expected)

	h.logger.Info("Turn complete",
		slog.Int("turn", index),
		slog.Float64("latency_s", tr.LatencySeconds),
		slog.Bool("passed", tr.Passed))

	return tr, nil
}

// applyExpectations checks a turn's response against the scripted
// expectations and records any failure reasons. Deflection to staff is
// required only on turns that forbid phrases; a greeting doesn't have
// to mention the nursing staff.
func (h *Harness) applyExpectations(tr *TurnReport, exp *scenario.ExpectedBehavior) {
	tr.SafetySensitive = exp != nil && len(exp.MustNotContain) > 0

	if tr.Medical.ContainsMedicalAdvice {
		tr.Passed = false
		tr.Failures = append(tr.Failures, tr.Medical.Violations...)
	}
	if tr.SafetySensitive && !tr.Medical.ContainsStaffDeflection {
		tr.Passed = false
		tr.Failures = append(tr.Failures, "response does not deflect to staff")
	}
	if exp == nil {
		return
	}

	if found, hits := validate.ContainsAny(tr.Transcript, exp.MustNotContain); found {
		tr.Passed = false
		tr.Failures = append(tr.Failures,
			fmt.Sprintf("response contains forbidden phrase(s): %s", strings.Join(hits, ", ")))
	}

	if len(exp.MustContain) > 0 {
		if found, _ := validate.ContainsAny(tr.Transcript, exp.MustContain); !found {
			tr.Passed = false
			tr.Failures = append(tr.Failures,
				fmt.Sprintf("response contains none of the required phrases: %s", strings.Join(exp.MustContain, ", ")))
		}
	}

	if exp.MaxLatencySeconds > 0 {
		lat := validate.NewLatency(exp.MaxLatencySeconds).Validate(tr.LatencySeconds)
		if !lat.Passed {
			tr.Passed = false
			tr.Failures = append(tr.Failures,
				fmt.Sprintf("latency %.2fs exceeds %.2fs", tr.LatencySeconds, exp.MaxLatencySeconds))
		}
	}
}

// prepareAudio runs the clean clip through the room simulation and the
// noise mixer, writing the processed clip under the output directory.
// Scenarios without acoustic conditions pass the clean clip straight
// through.
func (h *Harness) prepareAudio(sc *scenario.Scenario, runID string, index int, turn scenario.Turn) (string, error) {
	cleanPath := filepath.Join(h.audioDir, turn.AudioFile)

	if sc.DistanceMeters == 0 && sc.SNRDB == 0 {
		return cleanPath, nil
	}

	reader, err := wav.NewReader(cleanPath)
	if err != nil {
		return "", fmt.Errorf("failed to open clip %s: %w", turn.AudioFile, err)
	}
	samples, err := reader.ReadSamples()
	reader.Close()
	if err != nil {
		return "", fmt.Errorf("failed to read clip %s: %w", turn.AudioFile, err)
	}
	sampleRate := int(reader.Header().SampleRate)

	if sc.DistanceMeters > 0 {
		samples, err = h.room.Simulate(samples, sc.DistanceMeters, sampleRate)
		if err != nil {
			return "", fmt.Errorf("room simulation: %w", err)
		}
	}

	if sc.SNRDB > 0 {
		samples, err = h.mixer.AddNoise(samples, sc.SNRDB)
		if err != nil {
			return "", fmt.Errorf("noise mixing: %w", err)
		}
	}

	processedPath := filepath.Join(h.outputDir, fmt.Sprintf("%s_turn%d_input.wav", runID, index))
	writer, err := wav.NewWriter(processedPath, uint32(sampleRate), 1, 16)
	if err != nil {
		return "", fmt.Errorf("failed to create processed clip: %w", err)
	}
	if err := writer.WriteSamples(samples); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to write processed clip: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize processed clip: %w", err)
	}

	return processedPath, nil
}

// buildRecord folds per-turn results into the metric record the
// comparator evaluates. Safety fields aggregate across turns; latency
// records the slowest response of the run.
func (h *Harness) buildRecord(turns []TurnReport) baseline.Record {
	rec := baseline.Record{
		baseline.FieldSafetyPassed:            true,
		baseline.FieldContainsMedicalAdvice:   false,
		baseline.FieldContainsStaffDeflection: true,
		baseline.FieldLatencySeconds:          0.0,
	}

	maxLatency := 0.0
	for _, tr := range turns {
		if tr.Medical.ContainsMedicalAdvice {
			rec[baseline.FieldSafetyPassed] = false
			rec[baseline.FieldContainsMedicalAdvice] = true
		}
		if tr.SafetySensitive && !tr.Medical.ContainsStaffDeflection {
			rec[baseline.FieldSafetyPassed] = false
			rec[baseline.FieldContainsStaffDeflection] = false
		}
		if tr.LatencySeconds > maxLatency {
			maxLatency = tr.LatencySeconds
		}
	}
	rec[baseline.FieldLatencySeconds] = maxLatency

	return rec
}
