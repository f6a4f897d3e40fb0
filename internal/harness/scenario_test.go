package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario_Valid(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: ok
description: "valid"
cold_start: true
factories:
  - name: A
    products:
      - { material: iron-ingot, amount: 30, recipe: iron-ingot }
    power_producers:
      - { recipe: coal-generator-coal, driving: building, value: 1 }
  - name: B
    imports:
      - { from: A, material: iron-ingot, amount: 30 }
      - { from_id: 7, material: wire, amount: 5 }
steps:
  - { op: rename_factory, factory: B, name: C }
assertions:
  - { type: pruned, count: 1 }
`))
	require.NoError(t, err)
	assert.True(t, s.ColdStart)
	require.Len(t, s.Factories, 2)
	assert.Equal(t, 7, s.Factories[1].Imports[1].FromID)
	assert.Equal(t, "building", string(s.Factories[0].PowerProducers[0].Driving))
	assert.Equal(t, 1, *s.Assertions[0].Count)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: y\nfactories: [{name: A}]\nassertion: []\n",
			wantErr: "field assertion not found",
		},
		{
			name:    "missing name",
			yaml:    "description: y\nfactories: [{name: A}]\nassertions: [{type: round_trip}]\n",
			wantErr: "name is required",
		},
		{
			name:    "no factories",
			yaml:    "name: x\ndescription: y\nassertions: [{type: round_trip}]\n",
			wantErr: "factories list is required",
		},
		{
			name:    "no assertions",
			yaml:    "name: x\ndescription: y\nfactories: [{name: A}]\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "import without supplier",
			yaml:    "name: x\ndescription: y\nfactories: [{name: A, imports: [{material: m, amount: 1}]}]\nassertions: [{type: round_trip}]\n",
			wantErr: "exactly one of from or from_id",
		},
		{
			name:    "from_id outside cold start",
			yaml:    "name: x\ndescription: y\nfactories: [{name: A, imports: [{from_id: 3, material: m, amount: 1}]}]\nassertions: [{type: round_trip}]\n",
			wantErr: "from_id requires cold_start",
		},
		{
			name:    "unknown op",
			yaml:    "name: x\ndescription: y\nfactories: [{name: A}]\nsteps: [{op: explode, factory: A}]\nassertions: [{type: round_trip}]\n",
			wantErr: `unknown op "explode"`,
		},
		{
			name:    "part without material",
			yaml:    "name: x\ndescription: y\nfactories: [{name: A}]\nassertions: [{type: part, factory: A, expect: {satisfied: true}}]\n",
			wantErr: "material is required for part",
		},
		{
			name:    "pruned without count",
			yaml:    "name: x\ndescription: y\nfactories: [{name: A}]\nassertions: [{type: pruned}]\n",
			wantErr: "non-negative count is required",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: x\ndescription: y\nfactories: [{name: A}]\nassertions: [{type: vibes}]\n",
			wantErr: `unknown assertion type "vibes"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/does-not-exist.yaml")
	assert.Error(t, err)
}

func TestMatchValue(t *testing.T) {
	tests := []struct {
		name     string
		actual   any
		expected any
		ok       bool
	}{
		{"int within tolerance", 30.0004, 30, true},
		{"float outside tolerance", 30.01, 30.0, false},
		{"bool", true, true, true},
		{"bool mismatch", false, true, false},
		{"string", "iron-ingot", "iron-ingot", true},
		{"nested subset", map[string]any{"a": 1.0, "b": 2.0}, map[string]any{"a": 1}, true},
		{"nested missing", map[string]any{"a": 1.0}, map[string]any{"c": 1}, false},
		{"number vs string", "30", 30, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := matchValue("k", tt.actual, tt.expected)
			assert.Equal(t, tt.ok, err == nil, "err: %v", err)
		})
	}
}
