package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/factoryplan/internal/engine"
)

// Snapshot renders the deterministic text compared against golden files:
// scenario name, pruned imports, rejected steps, then the engine report.
func Snapshot(name string, result *Result) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario %s\n", name)
	if len(result.Pruned) > 0 {
		fmt.Fprintln(&buf, "pruned:")
		for _, line := range result.Pruned {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}
	for _, ev := range result.Trace {
		if ev.Error != "" {
			fmt.Fprintf(&buf, "rejected: %s %s %s: %s\n", ev.Op, ev.Factory, ev.Detail, ev.Error)
		}
	}
	fmt.Fprintln(&buf)
	engine.WriteReport(&buf, result.Plan)
	return buf.Bytes()
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Snapshot(scenarioName, result))
}
