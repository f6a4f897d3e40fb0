package harness

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/factoryplan/internal/engine"
	"github.com/roach88/factoryplan/internal/ir"
)

// tolerance for numeric expectations. The engine rounds to three decimals.
const tolerance = 5e-4

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Subject  string       // Record under test, e.g. `part "Smelting"/iron-ore`
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s %s\n", e.Type, e.Subject)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] pass=%d %s %s %s", i+1, ev.Pass, ev.Op, ev.Factory, ev.Detail)
			if ev.Error != "" {
				fmt.Fprintf(&buf, " error=%s", ev.Error)
			}
			fmt.Fprintln(&buf)
		}
	}

	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertPruned:
			err = assertPruned(result, a)
		case AssertBuildError:
			err = assertBuildError(result, a)
		case AssertCycles:
			err = assertCycles(result, a)
		case AssertRoundTrip:
			err = assertRoundTrip(result)
		case AssertFactory, AssertPart, AssertExport, AssertDependency,
			AssertPower, AssertBuilding, AssertRaw, AssertProduct:
			err = assertRecord(result, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			if ae, ok := err.(*AssertionError); ok {
				ae.Trace = result.Trace
			}
			errs = append(errs, err.Error())
		}
	}

	return errs
}

// assertRecord selects one record of the named factory and subset-matches
// its JSON form against a.Expect.
func assertRecord(result *Result, a Assertion) error {
	f := findFactory(result.Plan, a.Factory)
	if f == nil {
		return &AssertionError{
			Type:     a.Type,
			Subject:  fmt.Sprintf("%q", a.Factory),
			Expected: "factory to exist",
			Actual:   "factory not found in published plan",
		}
	}

	record, subject := selectRecord(f, a)
	if a.Absent {
		if record != nil {
			return &AssertionError{Type: a.Type, Subject: subject, Expected: "absent", Actual: "present"}
		}
		return nil
	}
	if record == nil {
		return &AssertionError{Type: a.Type, Subject: subject, Expected: "record to exist", Actual: "not found"}
	}

	actual, err := toMap(record)
	if err != nil {
		return fmt.Errorf("%s %s: %w", a.Type, subject, err)
	}

	for _, key := range sortedKeys(a.Expect) {
		if err := matchValue(key, actual[key], a.Expect[key]); err != nil {
			return &AssertionError{
				Type:     a.Type,
				Subject:  subject,
				Expected: fmt.Sprintf("%s = %v", key, a.Expect[key]),
				Actual:   err.Error(),
			}
		}
	}
	return nil
}

// selectRecord returns the record an assertion targets, or nil.
func selectRecord(f *ir.Factory, a Assertion) (any, string) {
	subject := fmt.Sprintf("%q/%s", f.Name, a.Material)

	switch a.Type {
	case AssertFactory:
		return f, fmt.Sprintf("%q", f.Name)
	case AssertPower:
		return f.Power, fmt.Sprintf("%q", f.Name)
	case AssertPart:
		if m, ok := f.Parts[a.Material]; ok {
			return m, subject
		}
	case AssertExport:
		for _, e := range f.Exports {
			if e.Material == a.Material {
				return e, subject
			}
		}
	case AssertDependency:
		if m, ok := f.Dependencies.Metrics[a.Material]; ok {
			return m, subject
		}
	case AssertRaw:
		if r, ok := f.RawResources[a.Material]; ok {
			return r, subject
		}
	case AssertProduct:
		if p, ok := f.Product(a.Material); ok {
			return p, subject
		}
	case AssertBuilding:
		subject = fmt.Sprintf("%q/%s", f.Name, a.Building)
		if b, ok := f.BuildingRequirements[a.Building]; ok {
			return b, subject
		}
	}
	return nil, subject
}

func assertPruned(result *Result, a Assertion) error {
	if len(result.Pruned) != *a.Count {
		return &AssertionError{
			Type:     AssertPruned,
			Expected: fmt.Sprintf("%d pruned import(s)", *a.Count),
			Actual:   fmt.Sprintf("%d: %v", len(result.Pruned), result.Pruned),
		}
	}
	if a.Contains == "" {
		return nil
	}
	for _, line := range result.Pruned {
		if strings.Contains(line, a.Contains) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertPruned,
		Expected: fmt.Sprintf("a pruned line containing %q", a.Contains),
		Actual:   fmt.Sprintf("%v", result.Pruned),
	}
}

func assertBuildError(result *Result, a Assertion) error {
	if result.BuildError != a.Contains {
		return &AssertionError{
			Type:     AssertBuildError,
			Expected: a.Contains,
			Actual:   fmt.Sprintf("%q", result.BuildError),
		}
	}
	return nil
}

func assertCycles(result *Result, a Assertion) error {
	warnings := engine.AnalyzeCycles(result.Plan)
	if len(warnings) != *a.Count {
		msgs := make([]string, len(warnings))
		for i, w := range warnings {
			msgs[i] = w.Message
		}
		return &AssertionError{
			Type:     AssertCycles,
			Expected: fmt.Sprintf("%d cycle(s)", *a.Count),
			Actual:   fmt.Sprintf("%d: %v", len(warnings), msgs),
		}
	}
	return nil
}

func assertRoundTrip(result *Result) error {
	if result.ReloadPruned || result.ReloadDigest != result.Digest {
		return &AssertionError{
			Type:     AssertRoundTrip,
			Expected: fmt.Sprintf("reloaded digest %s", result.Digest),
			Actual:   fmt.Sprintf("digest %s (pruned=%t)", result.ReloadDigest, result.ReloadPruned),
		}
	}
	return nil
}

// matchValue compares an expected YAML value with the JSON-decoded actual.
// Maps are matched as subsets, numbers within tolerance.
func matchValue(key string, actual, expected any) error {
	if expected == nil {
		if actual == nil {
			return nil
		}
		return fmt.Errorf("%s = %v", key, actual)
	}

	if exp, ok := toFloat(expected); ok {
		act, ok := toFloat(actual)
		if !ok || math.Abs(act-exp) > tolerance {
			return fmt.Errorf("%s = %v", key, actual)
		}
		return nil
	}

	if exp, ok := expected.(map[string]any); ok {
		act, ok := actual.(map[string]any)
		if !ok {
			return fmt.Errorf("%s = %v (not an object)", key, actual)
		}
		for _, k := range sortedKeys(exp) {
			if err := matchValue(key+"."+k, act[k], exp[k]); err != nil {
				return err
			}
		}
		return nil
	}

	if !reflect.DeepEqual(actual, expected) {
		return fmt.Errorf("%s = %v (type %T)", key, actual, actual)
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// toMap converts a record to its JSON object form.
func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func findFactory(plan *ir.Plan, name string) *ir.Factory {
	if plan == nil {
		return nil
	}
	for _, f := range plan.Factories {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
