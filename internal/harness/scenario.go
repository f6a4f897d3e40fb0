package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/factoryplan/internal/ir"
)

// Scenario defines an end-to-end engine scenario.
// Factories are built through the engine's mutation operations, Steps edit
// the published plan, and Assertions check the final recomputed state.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is a directory of CUE catalog files, relative to the scenario
	// file. Empty uses catalog.Builtin.
	Catalog string `yaml:"catalog,omitempty"`

	// ColdStart builds the plan offline and publishes it through
	// Planner.Load, as if read back from a save.
	ColdStart bool `yaml:"cold_start,omitempty"`

	// Factories are created in order, so the first one gets id 1.
	Factories []FactorySpec `yaml:"factories"`

	// Steps are edits applied after the initial build, one planner update each.
	Steps []Step `yaml:"steps,omitempty"`

	// Assertions validate the final published plan.
	Assertions []Assertion `yaml:"assertions"`
}

// FactorySpec describes one factory of the initial plan.
type FactorySpec struct {
	Name           string      `yaml:"name"`
	Products       []Product   `yaml:"products,omitempty"`
	Imports        []Import    `yaml:"imports,omitempty"`
	PowerProducers []Generator `yaml:"power_producers,omitempty"`
}

// Product is a production line. An empty Recipe leaves selection pending.
type Product struct {
	Material string  `yaml:"material"`
	Amount   float64 `yaml:"amount"`
	Recipe   string  `yaml:"recipe,omitempty"`
}

// Import names its supplier by factory name. FromID references a raw
// factory id instead and is only honoured in cold-start scenarios, where it
// can point at a factory that does not exist.
type Import struct {
	From     string  `yaml:"from,omitempty"`
	FromID   int     `yaml:"from_id,omitempty"`
	Material string  `yaml:"material"`
	Amount   float64 `yaml:"amount"`
}

// Generator is a power producer driven by one field.
type Generator struct {
	Building string          `yaml:"building,omitempty"`
	Recipe   string          `yaml:"recipe"`
	Driving  ir.DrivingField `yaml:"driving"`
	Value    float64         `yaml:"value"`
}

// Step is one edit of the published plan.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	Factory  string          `yaml:"factory"`
	Material string          `yaml:"material,omitempty"`
	Amount   float64         `yaml:"amount,omitempty"`
	Recipe   string          `yaml:"recipe,omitempty"`
	From     string          `yaml:"from,omitempty"`
	Name     string          `yaml:"name,omitempty"`
	Index    int             `yaml:"index,omitempty"`
	Driving  ir.DrivingField `yaml:"driving,omitempty"`
	Value    float64         `yaml:"value,omitempty"`

	// ExpectError is the engine error code the step must be rejected with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Step operations.
const (
	OpAddProduct    = "add_product"
	OpRemoveProduct = "remove_product"
	OpSetAmount     = "set_amount"
	OpSelectRecipe  = "select_recipe"
	OpAddImport     = "add_import"
	OpRemoveImport  = "remove_import"
	OpSetImport     = "set_import_amount"
	OpAddPower      = "add_power"
	OpRemovePower   = "remove_power"
	OpSetPower      = "set_power"
	OpAddFactory    = "add_factory"
	OpRemoveFactory = "remove_factory"
	OpRenameFactory = "rename_factory"
)

var validOps = map[string]bool{
	OpAddProduct: true, OpRemoveProduct: true, OpSetAmount: true, OpSelectRecipe: true,
	OpAddImport: true, OpRemoveImport: true, OpSetImport: true,
	OpAddPower: true, OpRemovePower: true, OpSetPower: true,
	OpAddFactory: true, OpRemoveFactory: true, OpRenameFactory: true,
}

// Assertion validates the final plan. Expect is a subset match against the
// JSON form of the selected record, numbers compared to three decimals.
type Assertion struct {
	// Type specifies the assertion type, one of the Assert* constants.
	Type string `yaml:"type"`

	Factory  string `yaml:"factory,omitempty"`
	Material string `yaml:"material,omitempty"`
	Building string `yaml:"building,omitempty"`

	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of pruned imports (pruned) or detected
	// cycles (cycles).
	Count *int `yaml:"count,omitempty"`

	// Contains must appear in a pruned line (pruned) or is the expected
	// error code (build_error).
	Contains string `yaml:"contains,omitempty"`

	// Absent asserts that the record does not exist.
	Absent bool `yaml:"absent,omitempty"`
}

// Assertion type constants.
const (
	AssertFactory    = "factory"
	AssertPart       = "part"
	AssertExport     = "export"
	AssertDependency = "dependency"
	AssertPower      = "power"
	AssertBuilding   = "building"
	AssertRaw        = "raw_resource"
	AssertProduct    = "product"
	AssertPruned     = "pruned"
	AssertBuildError = "build_error"
	AssertCycles     = "cycles"
	AssertRoundTrip  = "round_trip"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
//
// A relative catalog directory is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) {
		scenario.Catalog = filepath.Join(filepath.Dir(path), scenario.Catalog)
	}
	if scenario.Catalog != "" {
		if _, err := os.Stat(scenario.Catalog); err != nil {
			return nil, fmt.Errorf("invalid scenario: catalog directory: %w", err)
		}
	}
	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Factories) == 0 {
		return fmt.Errorf("factories list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, f := range s.Factories {
		if f.Name == "" {
			return fmt.Errorf("factories[%d]: name is required", i)
		}
		for j, in := range f.Imports {
			if (in.From == "") == (in.FromID == 0) {
				return fmt.Errorf("factories[%d].imports[%d]: exactly one of from or from_id is required", i, j)
			}
			if in.FromID != 0 && !s.ColdStart {
				return fmt.Errorf("factories[%d].imports[%d]: from_id requires cold_start", i, j)
			}
		}
	}

	for i, step := range s.Steps {
		if !validOps[step.Op] {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if step.Factory == "" {
			return fmt.Errorf("steps[%d]: factory is required", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needsFactory := func() error {
		if a.Factory == "" {
			return fmt.Errorf("assertions[%d]: factory is required for %s", index, a.Type)
		}
		return nil
	}
	needsExpect := func() error {
		if len(a.Expect) == 0 && !a.Absent {
			return fmt.Errorf("assertions[%d]: expect is required for %s", index, a.Type)
		}
		return nil
	}

	switch a.Type {
	case AssertFactory, AssertPower:
		if err := needsFactory(); err != nil {
			return err
		}
		return needsExpect()
	case AssertPart, AssertExport, AssertDependency, AssertRaw, AssertProduct:
		if err := needsFactory(); err != nil {
			return err
		}
		if a.Material == "" {
			return fmt.Errorf("assertions[%d]: material is required for %s", index, a.Type)
		}
		return needsExpect()
	case AssertBuilding:
		if err := needsFactory(); err != nil {
			return err
		}
		if a.Building == "" {
			return fmt.Errorf("assertions[%d]: building is required for %s", index, a.Type)
		}
		return needsExpect()
	case AssertPruned, AssertCycles:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for %s", index, a.Type)
		}
	case AssertBuildError:
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains (error code) is required for build_error", index)
		}
	case AssertRoundTrip:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
