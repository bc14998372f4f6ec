package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rushabhdhoke/agedcare-voice-harness/internal/config"
	"github.com/rushabhdhoke/agedcare-voice-harness/internal/transport"
	"github.com/rushabhdhoke/agedcare-voice-harness/pkg/agent"
	"github.com/rushabhdhoke/agedcare-voice-harness/pkg/agent/fake"
	"github.com/rushabhdhoke/agedcare-voice-harness/pkg/audio/wav"
	"github.com/rushabhdhoke/agedcare-voice-harness/pkg/baseline"
	"github.com/rushabhdhoke/agedcare-voice-harness/pkg/harness"
	"github.com/rushabhdhoke/agedcare-voice-harness/pkg/room"
	"github.com/rushabhdhoke/agedcare-voice-harness/pkg/scenario"
	"github.com/rushabhdhoke/agedcare-voice-harness/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "voiceharness",
	Short: "Validation harness for the aged-care voice agent",
	Long: `voiceharness runs scripted resident conversations against the voice
agent pipeline, checks the responses for medical-advice violations and
latency, and compares the results against stored baselines.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetVersionInfo())
	},
}

var runCmd = &cobra.Command{
	Use:   "run [scenario]",
	Short: "Run a scenario against the voice agent",
	Long: `Run a scenario end to end: acoustic simulation, conversation turns,
response validation and baseline comparison. Names a built-in scenario
or use --file for a YAML script.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		useFake, _ := cmd.Flags().GetBool("fake")
		file, _ := cmd.Flags().GetString("file")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := setupLogger(cfg)

		sc, err := loadScenario(args, file)
		if err != nil {
			return err
		}

		robot, err := buildRobot(cfg, useFake, logger)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		// Live runs play the degraded clips through the LiveKit room,
		// the same transport the deployed robot listens on. The fake
		// path stays hermetic.
		if !useFake {
			if lkErr := cfg.RequireLiveKit(); lkErr == nil {
				sess, err := room.NewSession(room.Config{
					URL:       cfg.LiveKitURL,
					APIKey:    cfg.LiveKitAPIKey,
					APISecret: cfg.LiveKitAPISecret,
				}, logger)
				if err != nil {
					return err
				}
				if err := sess.Connect(ctx); err != nil {
					return err
				}
				defer sess.Disconnect()
				robot = room.NewPublishingRobot(sess, robot, logger)
			} else {
				logger.Warn("LiveKit not configured, running the pipeline without a room",
					slog.String("reason", lkErr.Error()))
			}
		}

		store, err := baseline.NewStore(cfg.BaselineDir)
		if err != nil {
			return err
		}
		cmp := baseline.NewComparator(store, baseline.WithLogger(logger))

		h := harness.New(robot, cmp,
			harness.WithNoiseSeed(cfg.NoiseSeed),
			harness.WithAudioDirs(cfg.AudioDir, cfg.OutputDir),
			harness.WithLogger(logger))

		report, err := h.Run(ctx, sc)
		if err != nil {
			return err
		}

		printReport(report)
		if !report.Passed {
			return fmt.Errorf("scenario %s failed", sc.Name)
		}
		return nil
	},
}

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Baseline management commands",
}

var baselineShowCmd = &cobra.Command{
	Use:   "show <test-name>",
	Short: "Print the stored baseline for a test",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		snap, err := store.Load(args[0])
		if err != nil {
			return err
		}
		if snap == nil {
			return fmt.Errorf("no baseline stored for %q", args[0])
		}
		out, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var baselineUpdateCmd = &cobra.Command{
	Use:   "update <test-name>",
	Short: "Overwrite a baseline with metrics from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		rec, err := readRecord(from)
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		cmp := baseline.NewComparator(store)
		if err := cmp.UpdateBaseline(args[0], rec); err != nil {
			return err
		}
		fmt.Printf("baseline %s updated\n", args[0])
		return nil
	},
}

var baselineEvaluateCmd = &cobra.Command{
	Use:   "evaluate <test-name>",
	Short: "Evaluate metrics from a JSON file against the stored baseline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		rec, err := readRecord(from)
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		cmp := baseline.NewComparator(store)
		verdict, err := cmp.Evaluate(args[0], rec)
		if err != nil {
			return err
		}
		printVerdict(verdict)
		if verdict.Regressed() {
			return fmt.Errorf("regression detected in %s", args[0])
		}
		return nil
	},
}

var genAudioCmd = &cobra.Command{
	Use:   "gen-audio",
	Short: "Generate placeholder clips for the built-in scenarios",
	Long: `Write short sine-tone WAV files for every clip the built-in scenarios
reference, so the harness can exercise the audio path before real
recordings exist.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := setupLogger(cfg)

		if err := os.MkdirAll(cfg.AudioDir, 0o755); err != nil {
			return err
		}

		scenarios := []*scenario.Scenario{
			scenario.MedicationInquiry(),
			scenario.LonelinessConversation(),
		}

		freq := 220.0
		written := map[string]bool{}
		for _, sc := range scenarios {
			for _, turn := range sc.Turns {
				if written[turn.AudioFile] {
					continue
				}
				path := filepath.Join(cfg.AudioDir, turn.AudioFile)
				if err := writeTone(path, freq); err != nil {
					return fmt.Errorf("failed to write %s: %w", turn.AudioFile, err)
				}
				logger.Info("Wrote placeholder clip",
					slog.String("file", turn.AudioFile),
					slog.Float64("freq_hz", freq))
				written[turn.AudioFile] = true
				freq += 55
			}
		}
		return nil
	},
}

var healthzCmd = &cobra.Command{
	Use:   "healthz",
	Short: "Quick connectivity check against the LiveKit server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := setupLogger(cfg)

		if err := cfg.RequireLiveKit(); err != nil {
			return err
		}

		sess, err := room.NewSession(room.Config{
			URL:       cfg.LiveKitURL,
			APIKey:    cfg.LiveKitAPIKey,
			APISecret: cfg.LiveKitAPISecret,
		}, logger)
		if err != nil {
			return err
		}
		token, err := sess.Token()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		probe := transport.NewProbe(cfg.LiveKitURL, token, logger)
		if err := probe.Check(ctx); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	},
}

func loadScenario(args []string, file string) (*scenario.Scenario, error) {
	if file != "" {
		return scenario.Load(file)
	}
	name := "medical_advice_refusal_1m"
	if len(args) > 0 {
		name = args[0]
	}
	sc := scenario.Builtin(name)
	if sc == nil {
		return nil, fmt.Errorf("unknown scenario %q (use --file for a YAML script)", name)
	}
	return sc, nil
}

func buildRobot(cfg *config.Config, useFake bool, logger *slog.Logger) (agent.Robot, error) {
	if useFake {
		return fake.NewFakeRobot(), nil
	}
	if err := cfg.RequirePipeline(); err != nil {
		return nil, err
	}
	return agent.NewOpenAIRobot(cfg.OpenAIAPIKey, logger), nil
}

func openStore() (*baseline.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return baseline.NewStore(cfg.BaselineDir)
}

func readRecord(path string) (baseline.Record, error) {
	if path == "" {
		return nil, fmt.Errorf("--from is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec baseline.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse metrics file: %w", err)
	}
	return rec, nil
}

func writeTone(path string, freq float64) error {
	w, err := wav.NewWriter(path, 16000, 1, 16)
	if err != nil {
		return err
	}
	if err := w.WriteSineWave(freq, 2000); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func printReport(report *harness.RunReport) {
	fmt.Printf("run %s  scenario %s  %s\n",
		report.RunID, report.Scenario, report.Verdict.Status)
	for _, tr := range report.Turns {
		status := "PASS"
		if !tr.Passed {
			status = "FAIL"
		}
		fmt.Printf("  turn %d [%s] %.2fs  %q\n", tr.Index, status, tr.LatencySeconds, tr.Transcript)
		for _, f := range tr.Failures {
			fmt.Printf("    - %s\n", f)
		}
	}
	printVerdict(report.Verdict)
}

func printVerdict(v *baseline.Verdict) {
	fmt.Printf("baseline: %s\n", v.Status)
	for _, d := range v.Diffs {
		if !d.Regressed {
			continue
		}
		fmt.Printf("  regressed %s (%s): baseline=%v current=%v %s\n",
			d.Name, d.RuleName, d.Baseline, d.Current, d.Note)
	}
}

func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{}

	switch cfg.LogLevel {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	var handler slog.Handler
	if os.Getenv("LOG_FORMAT") == "console" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func init() {
	runCmd.Flags().Bool("fake", false, "Use the scripted fake robot instead of the live pipeline")
	runCmd.Flags().String("file", "", "Path to a YAML scenario file")

	baselineUpdateCmd.Flags().String("from", "", "Path to a JSON metrics file")
	baselineEvaluateCmd.Flags().String("from", "", "Path to a JSON metrics file")

	baselineCmd.AddCommand(baselineShowCmd, baselineUpdateCmd, baselineEvaluateCmd)
	rootCmd.AddCommand(runCmd, baselineCmd, genAudioCmd, healthzCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
