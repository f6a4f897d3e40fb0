package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/factoryplan/internal/ir"
)

var (
	// ErrNotFound indicates no tab exists with the requested id.
	ErrNotFound = errors.New("tab not found")

	// ErrDigestMismatch indicates a stored tab whose state no longer hashes
	// to the digest recorded when it was saved.
	ErrDigestMismatch = errors.New("tab digest mismatch")
)

// TabSummary is the listing row for a saved tab. State is not decoded.
type TabSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Digest        string `json:"digest"`
	SchemaVersion string `json:"schema_version"`
	EngineVersion string `json:"engine_version"`
	FactoryCount  int    `json:"factory_count"`
	Seq           int64  `json:"seq"`
}

// Save inserts or replaces a tab. An empty ID is filled from the store's
// IDGenerator. The returned tab carries the assigned id and the digest of
// the stored plan.
//
// Each save moves the tab to the end of the listing order.
func (s *Store) Save(ctx context.Context, tab ir.Tab) (ir.Tab, error) {
	if tab.Plan == nil {
		tab.Plan = &ir.Plan{}
	}
	if tab.ID == "" {
		tab.ID = s.idGen.Generate()
	}
	if tab.SchemaVersion == "" {
		tab.SchemaVersion = ir.SchemaVersion
	}

	digest, err := ir.PlanDigest(tab.Plan)
	if err != nil {
		return ir.Tab{}, fmt.Errorf("save tab %s: %w", tab.ID, err)
	}
	tab.Digest = digest

	state, err := encodePlan(tab.Plan)
	if err != nil {
		return ir.Tab{}, fmt.Errorf("save tab %s: %w", tab.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tabs (id, name, digest, schema_version, engine_version, factory_count, state, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM tabs))
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			digest = excluded.digest,
			schema_version = excluded.schema_version,
			engine_version = excluded.engine_version,
			factory_count = excluded.factory_count,
			state = excluded.state,
			seq = excluded.seq
	`,
		tab.ID,
		tab.Name,
		tab.Digest,
		tab.SchemaVersion,
		ir.EngineVersion,
		len(tab.Plan.Factories),
		state,
	)
	if err != nil {
		return ir.Tab{}, fmt.Errorf("save tab %s: %w", tab.ID, err)
	}
	return tab, nil
}

// Load reads a tab by id, validates and decodes its state, and verifies the
// recorded digest.
func (s *Store) Load(ctx context.Context, id string) (ir.Tab, error) {
	var (
		tab   ir.Tab
		state []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, digest, schema_version, state
		FROM tabs
		WHERE id = ?
	`, id).Scan(&tab.ID, &tab.Name, &tab.Digest, &tab.SchemaVersion, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Tab{}, fmt.Errorf("load tab %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ir.Tab{}, fmt.Errorf("load tab %s: %w", id, err)
	}

	plan, err := decodePlan(state)
	if err != nil {
		return ir.Tab{}, fmt.Errorf("load tab %s: %w", id, err)
	}

	digest, err := ir.PlanDigest(plan)
	if err != nil {
		return ir.Tab{}, fmt.Errorf("load tab %s: %w", id, err)
	}
	if digest != tab.Digest {
		return ir.Tab{}, fmt.Errorf("load tab %s: %w: stored %s, computed %s", id, ErrDigestMismatch, tab.Digest, digest)
	}

	tab.Plan = plan
	return tab, nil
}

// FindByName returns the most recently saved tab with the given name.
func (s *Store) FindByName(ctx context.Context, name string) (ir.Tab, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM tabs WHERE name = ? ORDER BY seq DESC, id DESC LIMIT 1
	`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Tab{}, fmt.Errorf("find tab %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return ir.Tab{}, fmt.Errorf("find tab %q: %w", name, err)
	}
	return s.Load(ctx, id)
}

// List returns all saved tabs in save order.
func (s *Store) List(ctx context.Context) ([]TabSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, digest, schema_version, engine_version, factory_count, seq
		FROM tabs
		ORDER BY seq ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list tabs: %w", err)
	}
	defer rows.Close()

	var tabs []TabSummary
	for rows.Next() {
		var t TabSummary
		if err := rows.Scan(&t.ID, &t.Name, &t.Digest, &t.SchemaVersion, &t.EngineVersion, &t.FactoryCount, &t.Seq); err != nil {
			return nil, fmt.Errorf("scan tab: %w", err)
		}
		tabs = append(tabs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tabs: %w", err)
	}
	return tabs, nil
}

// Delete removes a tab by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tabs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tab %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete tab %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete tab %s: %w", id, ErrNotFound)
	}
	return nil
}
