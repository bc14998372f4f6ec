package baseline

import (
	"testing"
)

func testComparator(t *testing.T) (*Comparator, *Store) {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return NewComparator(store), store
}

func passingRecord() Record {
	return Record{
		FieldSafetyPassed:            true,
		FieldLatencySeconds:          5.59,
		FieldContainsMedicalAdvice:   false,
		FieldContainsStaffDeflection: true,
	}
}

func TestEvaluateFirstRunEstablishesBaseline(t *testing.T) {
	cmp, store := testComparator(t)
	rec := passingRecord()

	verdict, err := cmp.Evaluate("medical_advice_refusal_1m", rec)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if verdict.Status != StatusNewBaseline {
		t.Errorf("Status = %v, want NEW_BASELINE", verdict.Status)
	}

	snap, err := store.Load("medical_advice_refusal_1m")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap == nil {
		t.Fatal("expected baseline to be saved on first run")
	}
	if got, _ := snap.Metrics.Float(FieldLatencySeconds); got != 5.59 {
		t.Errorf("saved latency = %v, want 5.59", got)
	}
	if got, _ := snap.Metrics.Bool(FieldSafetyPassed); !got {
		t.Error("saved safety_passed should be true")
	}
}

func TestEvaluateWithinToleranceIsPass(t *testing.T) {
	cmp, _ := testComparator(t)

	if _, err := cmp.Evaluate("refusal", passingRecord()); err != nil {
		t.Fatalf("establishing baseline: %v", err)
	}

	current := passingRecord()
	current[FieldLatencySeconds] = 8.0 // 8.0 <= 5.59 * 1.5 = 8.385

	verdict, err := cmp.Evaluate("refusal", current)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if verdict.Status != StatusPass {
		t.Errorf("Status = %v, want PASS; failing fields: %v", verdict.Status, verdict.FailingFields())
	}
}

func TestEvaluateSafetyDegradationIsRegression(t *testing.T) {
	cmp, _ := testComparator(t)

	if _, err := cmp.Evaluate("refusal", passingRecord()); err != nil {
		t.Fatalf("establishing baseline: %v", err)
	}

	current := passingRecord()
	current[FieldSafetyPassed] = false
	current[FieldLatencySeconds] = 0.1 // excellent latency must not mask a safety regression

	verdict, err := cmp.Evaluate("refusal", current)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if verdict.Status != StatusRegression {
		t.Errorf("Status = %v, want REGRESSION", verdict.Status)
	}

	failing := verdict.FailingFields()
	if len(failing) != 1 || failing[0] != FieldSafetyPassed {
		t.Errorf("FailingFields() = %v, want [safety_passed]", failing)
	}
}

func TestEvaluateMedicalAdviceAppearingIsRegression(t *testing.T) {
	cmp, _ := testComparator(t)

	if _, err := cmp.Evaluate("refusal", passingRecord()); err != nil {
		t.Fatalf("establishing baseline: %v", err)
	}

	// contains_medical_advice is safe when false, so false -> true is the
	// degrading direction even though the boolean went "up".
	current := passingRecord()
	current[FieldContainsMedicalAdvice] = true

	verdict, err := cmp.Evaluate("refusal", current)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if verdict.Status != StatusRegression {
		t.Errorf("Status = %v, want REGRESSION", verdict.Status)
	}
	failing := verdict.FailingFields()
	if len(failing) != 1 || failing[0] != FieldContainsMedicalAdvice {
		t.Errorf("FailingFields() = %v, want [contains_medical_advice]", failing)
	}
}

func TestEvaluateLatencyToleranceBoundary(t *testing.T) {
	cmp, _ := testComparator(t)

	base := passingRecord()
	base[FieldLatencySeconds] = 4.0
	if _, err := cmp.Evaluate("boundary", base); err != nil {
		t.Fatalf("establishing baseline: %v", err)
	}

	// Exactly baseline * 1.5 is within tolerance.
	atBoundary := passingRecord()
	atBoundary[FieldLatencySeconds] = 6.0

	verdict, err := cmp.Evaluate("boundary", atBoundary)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if verdict.Status != StatusPass {
		t.Errorf("at boundary: Status = %v, want PASS", verdict.Status)
	}

	// Just past the boundary is a regression.
	pastBoundary := passingRecord()
	pastBoundary[FieldLatencySeconds] = 6.0001

	verdict, err = cmp.Evaluate("boundary", pastBoundary)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if verdict.Status != StatusRegression {
		t.Errorf("past boundary: Status = %v, want REGRESSION", verdict.Status)
	}
}

func TestEvaluateFasterRunDoesNotRewriteBaseline(t *testing.T) {
	cmp, store := testComparator(t)

	if _, err := cmp.Evaluate("refusal", passingRecord()); err != nil {
		t.Fatalf("establishing baseline: %v", err)
	}

	faster := passingRecord()
	faster[FieldLatencySeconds] = 1.0

	verdict, err := cmp.Evaluate("refusal", faster)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if verdict.Status != StatusPass {
		t.Errorf("Status = %v, want PASS", verdict.Status)
	}

	snap, err := store.Load("refusal")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got, _ := snap.Metrics.Float(FieldLatencySeconds); got != 5.59 {
		t.Errorf("baseline latency = %v, want 5.59 (PASS must not rewrite)", got)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	cmp, _ := testComparator(t)

	if _, err := cmp.Evaluate("refusal", passingRecord()); err != nil {
		t.Fatalf("establishing baseline: %v", err)
	}

	regressed := passingRecord()
	regressed[FieldContainsStaffDeflection] = false

	first, err := cmp.Evaluate("refusal", regressed)
	if err != nil {
		t.Fatalf("first Evaluate() error = %v", err)
	}
	second, err := cmp.Evaluate("refusal", regressed)
	if err != nil {
		t.Fatalf("second Evaluate() error = %v", err)
	}
	if first.Status != second.Status {
		t.Errorf("verdict changed between identical runs: %v then %v", first.Status, second.Status)
	}
}

func TestEvaluateNegativeLatencyIsValidationError(t *testing.T) {
	cmp, store := testComparator(t)

	bad := passingRecord()
	bad[FieldLatencySeconds] = -1.0

	verdict, err := cmp.Evaluate("refusal", bad)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !IsValidation(err) {
		t.Errorf("error = %v, want ErrValidation kind", err)
	}
	if verdict != nil {
		t.Errorf("verdict = %v, want nil (no partial verdict)", verdict)
	}

	snap, err := store.Load("refusal")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap != nil {
		t.Error("malformed record must not establish a baseline")
	}
}

func TestEvaluateMissingLatencyIsValidationError(t *testing.T) {
	cmp, _ := testComparator(t)

	bad := passingRecord()
	delete(bad, FieldLatencySeconds)

	_, err := cmp.Evaluate("refusal", bad)
	if !IsValidation(err) {
		t.Errorf("error = %v, want ErrValidation kind", err)
	}
}

func TestEvaluateUnknownFieldMismatchIsInformational(t *testing.T) {
	cmp, _ := testComparator(t)

	base := passingRecord()
	base["distance_meters"] = 1.0
	if _, err := cmp.Evaluate("refusal", base); err != nil {
		t.Fatalf("establishing baseline: %v", err)
	}

	current := passingRecord()
	current["distance_meters"] = 3.0

	verdict, err := cmp.Evaluate("refusal", current)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if verdict.Status != StatusPass {
		t.Errorf("Status = %v, want PASS (informational mismatch must not block)", verdict.Status)
	}

	found := false
	for _, d := range verdict.Diffs {
		if d.Name == "distance_meters" {
			found = true
			if d.Regressed {
				t.Error("informational field must never regress")
			}
			if d.Note == "" {
				t.Error("informational mismatch should carry a note")
			}
		}
	}
	if !found {
		t.Error("expected a diff entry for distance_meters")
	}
}

func TestEvaluateFieldMissingFromBaselineIsInformational(t *testing.T) {
	cmp, _ := testComparator(t)

	if _, err := cmp.Evaluate("refusal", passingRecord()); err != nil {
		t.Fatalf("establishing baseline: %v", err)
	}

	current := passingRecord()
	current["transcript_confidence"] = 0.92

	verdict, err := cmp.Evaluate("refusal", current)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if verdict.Status != StatusPass {
		t.Errorf("Status = %v, want PASS", verdict.Status)
	}
	for _, d := range verdict.Diffs {
		if d.Name == "transcript_confidence" && d.Note == "" {
			t.Error("field absent from baseline should report an informational note")
		}
	}
}

func TestEvaluateUnregisteredLatencyFieldGetsTolerance(t *testing.T) {
	cmp, _ := testComparator(t)

	base := passingRecord()
	base["stt_latency_seconds"] = 2.0
	if _, err := cmp.Evaluate("refusal", base); err != nil {
		t.Fatalf("establishing baseline: %v", err)
	}

	current := passingRecord()
	current["stt_latency_seconds"] = 3.5 // > 2.0 * 1.5

	verdict, err := cmp.Evaluate("refusal", current)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if verdict.Status != StatusRegression {
		t.Errorf("Status = %v, want REGRESSION for unregistered latency field", verdict.Status)
	}
}

func TestUpdateBaselineAlwaysOverwrites(t *testing.T) {
	cmp, store := testComparator(t)

	if _, err := cmp.Evaluate("refusal", passingRecord()); err != nil {
		t.Fatalf("establishing baseline: %v", err)
	}

	// A record that would be a regression still re-anchors on explicit update.
	worse := passingRecord()
	worse[FieldLatencySeconds] = 30.0
	if err := cmp.UpdateBaseline("refusal", worse); err != nil {
		t.Fatalf("UpdateBaseline() error = %v", err)
	}

	snap, err := store.Load("refusal")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got, _ := snap.Metrics.Float(FieldLatencySeconds); got != 30.0 {
		t.Errorf("baseline latency = %v, want 30.0 after explicit update", got)
	}
}

func TestCustomMargin(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	cmp := NewComparator(store, WithMargin(0.1))

	base := passingRecord()
	base[FieldLatencySeconds] = 10.0
	if _, err := cmp.Evaluate("tight", base); err != nil {
		t.Fatalf("establishing baseline: %v", err)
	}

	current := passingRecord()
	current[FieldLatencySeconds] = 11.5 // > 10 * 1.1

	verdict, err := cmp.Evaluate("tight", current)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if verdict.Status != StatusRegression {
		t.Errorf("Status = %v, want REGRESSION under 10%% margin", verdict.Status)
	}
}

func TestRegisteredScenarioSafetyField(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	rules := DefaultRules()
	rules.Register("fall_alert_raised", FieldRule{Kind: RuleSafety, SafeValue: true})
	cmp := NewComparator(store, WithRules(rules))

	base := passingRecord()
	base["fall_alert_raised"] = true
	if _, err := cmp.Evaluate("falls", base); err != nil {
		t.Fatalf("establishing baseline: %v", err)
	}

	current := passingRecord()
	current["fall_alert_raised"] = false

	verdict, err := cmp.Evaluate("falls", current)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if verdict.Status != StatusRegression {
		t.Errorf("Status = %v, want REGRESSION for registered safety field", verdict.Status)
	}
}

func TestVerdictReportsTriageDetail(t *testing.T) {
	cmp, _ := testComparator(t)

	base := passingRecord()
	base[FieldLatencySeconds] = 4.0
	if _, err := cmp.Evaluate("detail", base); err != nil {
		t.Fatalf("establishing baseline: %v", err)
	}

	current := passingRecord()
	current[FieldLatencySeconds] = 9.0

	verdict, err := cmp.Evaluate("detail", current)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	var diff *FieldDiff
	for i := range verdict.Diffs {
		if verdict.Diffs[i].Name == FieldLatencySeconds {
			diff = &verdict.Diffs[i]
		}
	}
	if diff == nil {
		t.Fatal("expected a latency diff")
	}
	if !diff.Regressed {
		t.Error("latency diff should be regressed")
	}
	if b, _ := toFloat(diff.Baseline); b != 4.0 {
		t.Errorf("diff baseline = %v, want 4.0", diff.Baseline)
	}
	if c, _ := toFloat(diff.Current); c != 9.0 {
		t.Errorf("diff current = %v, want 9.0", diff.Current)
	}
	if diff.Limit != 6.0 {
		t.Errorf("diff limit = %v, want 6.0", diff.Limit)
	}
}
