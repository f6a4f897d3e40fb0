package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/factoryplan/internal/engine"
	"github.com/roach88/factoryplan/internal/ir"
	"github.com/roach88/factoryplan/internal/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), WithIDGenerator(testutil.NewSequentialIDGenerator("tab")))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// computedPlan returns a recomputed two-factory plan so derived state is
// exercised by the round trip.
func computedPlan(t *testing.T) *ir.Plan {
	t.Helper()
	smelter := testutil.NewFactory(1, "Smelter")
	testutil.WithProduct(smelter, "iron-ingot", 30, "iron-ingot")
	plates := testutil.NewFactory(2, "Plates")
	testutil.WithProduct(plates, "iron-plate", 20, "iron-plate")
	testutil.WithImport(plates, 1, "iron-ingot", 30)
	testutil.WithPowerProducer(plates, "coal-generator", "coal-generator-coal", ir.DrivenByBuilding, 1)

	plan, err := engine.Recompute(testutil.NewPlan(smelter, plates), testutil.Catalog(t), engine.ModeNormal)
	require.NoError(t, err)
	return plan
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		s.Close()
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var name string
	err = s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='tabs'").Scan(&name)
	assert.NoError(t, err, "tabs table missing after idempotent opens")
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "test.db"))
	assert.Error(t, err)
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{}
	assert.NoError(t, s.Close())
}

func TestPragmas(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
		{"user_version", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, s.verifyPragma(tt.name, tt.expected))
		})
	}
}

func TestSchema_Indexes(t *testing.T) {
	s := openTestStore(t)

	for _, idx := range []string{"idx_tabs_seq", "idx_tabs_name"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx,
		).Scan(&name)
		assert.NoError(t, err, "index %q not found", idx)
	}
}

func TestSave_AssignsIDAndDigest(t *testing.T) {
	s := openTestStore(t)
	plan := computedPlan(t)

	saved, err := s.Save(context.Background(), ir.Tab{Name: "Main", Plan: plan})
	require.NoError(t, err)

	assert.Equal(t, "tab-0001", saved.ID)
	assert.Equal(t, ir.MustPlanDigest(plan), saved.Digest)
	assert.Equal(t, ir.SchemaVersion, saved.SchemaVersion)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	plan := computedPlan(t)

	saved, err := s.Save(ctx, ir.Tab{Name: "Main", Plan: plan})
	require.NoError(t, err)

	loaded, err := s.Load(ctx, saved.ID)
	require.NoError(t, err)

	assert.Equal(t, "Main", loaded.Name)
	assert.Equal(t, saved.Digest, loaded.Digest)
	assert.Equal(t, ir.MustPlanDigest(plan), ir.MustPlanDigest(loaded.Plan))
	require.Len(t, loaded.Plan.Factories, 2)
	require.Len(t, loaded.Plan.Factories[1].Inputs, 1)
	assert.Equal(t, 30.0, loaded.Plan.Factories[1].Inputs[0].Amount)
}

func TestSave_ReplacesExisting(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Save(ctx, ir.Tab{Name: "Main", Plan: computedPlan(t)})
	require.NoError(t, err)
	_, err = s.Save(ctx, ir.Tab{Name: "Other"})
	require.NoError(t, err)

	empty := &ir.Plan{}
	_, err = s.Save(ctx, ir.Tab{ID: first.ID, Name: "Renamed", Plan: empty})
	require.NoError(t, err)

	tabs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, tabs, 2)
	assert.Equal(t, "Other", tabs[0].Name)
	assert.Equal(t, "Renamed", tabs[1].Name, "re-saved tab moves to the end")
	assert.Equal(t, 0, tabs[1].FactoryCount)

	loaded, err := s.Load(ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Plan.Factories)
}

func TestList_Order(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		_, err := s.Save(ctx, ir.Tab{Name: name, Plan: &ir.Plan{}})
		require.NoError(t, err)
	}

	tabs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, tabs, 3)
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, want, tabs[i].Name)
		assert.Equal(t, int64(i+1), tabs[i].Seq)
		assert.Equal(t, ir.EngineVersion, tabs[i].EngineVersion)
	}
}

func TestList_Empty(t *testing.T) {
	s := openTestStore(t)
	tabs, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tabs)
}

func TestFindByName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, ir.Tab{Name: "Main", Plan: &ir.Plan{}})
	require.NoError(t, err)
	second, err := s.Save(ctx, ir.Tab{Name: "Main", Plan: computedPlan(t)})
	require.NoError(t, err)

	found, err := s.FindByName(ctx, "Main")
	require.NoError(t, err)
	assert.Equal(t, second.ID, found.ID)

	_, err = s.FindByName(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved, err := s.Save(ctx, ir.Tab{Name: "Main", Plan: &ir.Plan{}})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, saved.ID))
	_, err = s.Load(ctx, saved.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, saved.ID), ErrNotFound)
}

func TestLoad_DigestMismatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved, err := s.Save(ctx, ir.Tab{Name: "Main", Plan: computedPlan(t)})
	require.NoError(t, err)

	_, err = s.db.Exec("UPDATE tabs SET digest = 'deadbeef' WHERE id = ?", saved.ID)
	require.NoError(t, err)

	_, err = s.Load(ctx, saved.ID)
	assert.ErrorIs(t, err, ErrDigestMismatch)
}

func TestLoad_InvalidPayload(t *testing.T) {
	tests := []struct {
		name  string
		state []byte
	}{
		{"not zstd", []byte("plain text")},
		{"not json", encoder.EncodeAll([]byte("{"), nil)},
		{"missing factories", encoder.EncodeAll([]byte(`{}`), nil)},
		{"zero factory id", encoder.EncodeAll([]byte(`{"factories":[{"id":0,"name":"x"}]}`), nil)},
		{"bad driving field", encoder.EncodeAll([]byte(`{"factories":[{"id":1,"name":"x","power_producers":[{"recipe_id":"r","driving":"vibes"}]}]}`), nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openTestStore(t)
			insertRaw(t, s.db, "bad", tt.state)

			_, err := s.Load(context.Background(), "bad")
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestDecodePlanJSON(t *testing.T) {
	plan, err := DecodePlanJSON([]byte(`{"factories":[{"id":3,"name":"Oil","products":[{"material":"fuel","amount":40,"recipe_id":"fuel"}]}]}`))
	require.NoError(t, err)
	require.Len(t, plan.Factories, 1)
	assert.Equal(t, "fuel", plan.Factories[0].Products[0].RecipeID)
}

func insertRaw(t *testing.T, db *sql.DB, id string, state []byte) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO tabs (id, name, digest, schema_version, engine_version, factory_count, state, seq)
		VALUES (?, 'raw', '', '1', '0', 0, ?, 1)
	`, id, state)
	require.NoError(t, err)
}

func TestCodecHelpers(t *testing.T) {
	require.NotNil(t, encoder)
	require.NotNil(t, decoder)

	assert.NotPanics(t, func() { mustEncoder(encoder, nil) })
	assert.PanicsWithValue(t, "store: zstd encoder: boom", func() { mustEncoder(nil, errors.New("boom")) })
	assert.PanicsWithValue(t, "store: zstd decoder: boom", func() { mustDecoder(nil, errors.New("boom")) })

	plan := computedPlan(t)
	blob, err := encodePlan(plan)
	require.NoError(t, err)
	got, err := decodePlan(blob)
	require.NoError(t, err)
	assert.Equal(t, ir.MustPlanDigest(plan), ir.MustPlanDigest(got))
}
