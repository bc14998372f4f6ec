package baseline

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
)

// DefaultMargin is the relative tolerance applied to performance
// fields: a run passes if it does not exceed the baseline by more than
// 50%. The wide band absorbs hosted-API latency variance.
const DefaultMargin = 0.5

// Status is the outcome of evaluating a record against its baseline.
type Status int

const (
	// StatusNewBaseline means no baseline existed; the current record
	// was saved as the new baseline. This is expected on first runs,
	// not a failure.
	StatusNewBaseline Status = iota
	// StatusPass means every safety field held and every performance
	// field stayed within tolerance.
	StatusPass
	// StatusRegression means at least one safety field degraded or one
	// performance field exceeded its tolerance.
	StatusRegression
)

func (s Status) String() string {
	switch s {
	case StatusNewBaseline:
		return "NEW_BASELINE"
	case StatusPass:
		return "PASS"
	default:
		return "REGRESSION"
	}
}

// FieldDiff describes the comparison of one field between the baseline
// and the current run, with enough detail to triage without re-running.
type FieldDiff struct {
	Name      string   `json:"name"`
	Rule      RuleKind `json:"-"`
	RuleName  string   `json:"rule"`
	Baseline  any      `json:"baseline,omitempty"`
	Current   any      `json:"current,omitempty"`
	Regressed bool     `json:"regressed"`

	// Limit is the largest value that would still pass, for performance
	// fields only: baseline * (1 + margin).
	Limit float64 `json:"limit,omitempty"`

	// Note carries informational differences (unknown field changed,
	// field missing from one side) that do not block the verdict.
	Note string `json:"note,omitempty"`
}

// Verdict is the structured result of one evaluation.
type Verdict struct {
	TestName string      `json:"test_name"`
	Status   Status      `json:"-"`
	Diffs    []FieldDiff `json:"diffs,omitempty"`
}

// Regressed reports whether the verdict is a regression.
func (v *Verdict) Regressed() bool {
	return v.Status == StatusRegression
}

// FailingFields returns the names of fields that regressed.
func (v *Verdict) FailingFields() []string {
	var out []string
	for _, d := range v.Diffs {
		if d.Regressed {
			out = append(out, d.Name)
		}
	}
	return out
}

// Comparator evaluates metric records against stored baselines.
// Evaluation is synchronous: one call fully completes its
// load-compare-save sequence before returning.
type Comparator struct {
	store  *Store
	rules  *Rules
	margin float64
	logger *slog.Logger
}

// Option configures a Comparator.
type Option func(*Comparator)

// WithMargin overrides the relative tolerance for performance fields.
func WithMargin(margin float64) Option {
	return func(c *Comparator) { c.margin = margin }
}

// WithRules overrides the field rule registry.
func WithRules(rules *Rules) Option {
	return func(c *Comparator) { c.rules = rules }
}

// WithLogger sets the logger used for evaluation reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Comparator) { c.logger = logger }
}

// NewComparator creates a comparator over the given store with the
// default rules and margin.
func NewComparator(store *Store, opts ...Option) *Comparator {
	c := &Comparator{
		store:  store,
		rules:  DefaultRules(),
		margin: DefaultMargin,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Evaluate compares the current record against the stored baseline for
// testName.
//
// With no stored baseline the verdict is NEW_BASELINE and the current
// record is saved as the baseline. Otherwise each field is compared
// under its rule and the verdict is REGRESSION if any safety field
// degraded or any performance field exceeded its tolerance, PASS if
// not. PASS and REGRESSION never mutate the stored baseline; use
// UpdateBaseline to deliberately re-anchor after an accepted change.
func (c *Comparator) Evaluate(testName string, current Record) (*Verdict, error) {
	if err := c.validate(current); err != nil {
		return nil, fmt.Errorf("current record for %q: %w", testName, err)
	}

	snap, err := c.store.Load(testName)
	if err != nil {
		return nil, err
	}

	if snap == nil {
		if err := c.store.Save(testName, current); err != nil {
			return nil, err
		}
		c.logger.Info("no baseline found, saved current run as baseline",
			slog.String("test", testName),
			slog.String("path", c.store.Path(testName)))
		return &Verdict{TestName: testName, Status: StatusNewBaseline}, nil
	}

	if err := c.validate(snap.Metrics); err != nil {
		return nil, fmt.Errorf("stored baseline for %q: %w", testName, err)
	}

	verdict := c.compare(testName, snap.Metrics, current)
	for _, d := range verdict.Diffs {
		if d.Regressed {
			c.logger.Warn("metric regressed",
				slog.String("test", testName),
				slog.String("field", d.Name),
				slog.String("rule", d.RuleName),
				slog.Any("baseline", d.Baseline),
				slog.Any("current", d.Current))
		}
	}
	return verdict, nil
}

// UpdateBaseline overwrites the stored baseline for testName with rec,
// regardless of how it compares to the previous baseline. This is the
// explicit re-anchor operation for accepted behavior changes.
func (c *Comparator) UpdateBaseline(testName string, rec Record) error {
	if err := c.validate(rec); err != nil {
		return fmt.Errorf("new baseline for %q: %w", testName, err)
	}
	return c.store.Save(testName, rec)
}

func (c *Comparator) compare(testName string, base, current Record) *Verdict {
	verdict := &Verdict{TestName: testName, Status: StatusPass}

	for _, name := range sortedKeys(current) {
		cur := current[name]
		rule := c.rules.Lookup(name, cur)

		bas, inBaseline := base[name]
		if !inBaseline {
			// Schema evolution: nothing to compare against.
			verdict.Diffs = append(verdict.Diffs, FieldDiff{
				Name:     name,
				Rule:     rule.Kind,
				RuleName: rule.Kind.String(),
				Current:  cur,
				Note:     "field not present in baseline",
			})
			continue
		}

		diff := FieldDiff{
			Name:     name,
			Rule:     rule.Kind,
			RuleName: rule.Kind.String(),
			Baseline: bas,
			Current:  cur,
		}

		switch rule.Kind {
		case RuleSafety:
			baseVal, baseOK := bas.(bool)
			curVal, curOK := cur.(bool)
			if !baseOK || !curOK {
				diff.Rule = RuleInformational
				diff.RuleName = RuleInformational.String()
				diff.Note = "safety field is not a boolean on both sides"
				break
			}
			// Degrading from the safe value is never tolerated.
			diff.Regressed = baseVal == rule.SafeValue && curVal != rule.SafeValue
			if !diff.Regressed && baseVal != curVal {
				diff.Note = "changed toward the safe value"
			}

		case RulePerformance:
			baseVal, baseOK := toFloat(bas)
			curVal, curOK := toFloat(cur)
			if !baseOK || !curOK {
				diff.Rule = RuleInformational
				diff.RuleName = RuleInformational.String()
				diff.Note = "performance field is not numeric on both sides"
				break
			}
			diff.Limit = baseVal * (1 + c.margin)
			// The boundary itself is within tolerance.
			diff.Regressed = curVal > diff.Limit

		default:
			if !reflect.DeepEqual(bas, cur) {
				diff.Note = "value differs from baseline"
			}
		}

		verdict.Diffs = append(verdict.Diffs, diff)
		if diff.Regressed {
			verdict.Status = StatusRegression
		}
	}

	for _, name := range sortedKeys(base) {
		if _, ok := current[name]; ok {
			continue
		}
		rule := c.rules.Lookup(name, base[name])
		verdict.Diffs = append(verdict.Diffs, FieldDiff{
			Name:     name,
			Rule:     rule.Kind,
			RuleName: rule.Kind.String(),
			Baseline: base[name],
			Note:     "field not present in current run",
		})
	}

	return verdict
}

// validate rejects malformed records before any comparison: required
// numeric fields must be present, and performance values must be
// non-negative numbers.
func (c *Comparator) validate(rec Record) error {
	for _, name := range c.rules.RequiredFields() {
		if _, ok := rec[name]; !ok {
			return fmt.Errorf("%w: missing required field %q", ErrValidation, name)
		}
	}
	for name, v := range rec {
		rule := c.rules.Lookup(name, v)
		if rule.Kind != RulePerformance {
			continue
		}
		f, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("%w: field %q must be numeric, got %T", ErrValidation, name, v)
		}
		if f < 0 {
			return fmt.Errorf("%w: field %q must be non-negative, got %v", ErrValidation, name, f)
		}
	}
	return nil
}

func sortedKeys(r Record) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
