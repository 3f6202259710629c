package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/multitype/pkg/flatten"
	"github.com/mesh-intelligence/multitype/pkg/multitype"
	"github.com/mesh-intelligence/multitype/pkg/plain"
	"github.com/mesh-intelligence/multitype/pkg/types"
)

// Run describes one sampler invocation.
type Run struct {
	RunID     string       `json:"run_id"`
	Config    types.Config `json:"config"`
	CreatedAt time.Time    `json:"created_at"`
	Samples   int          `json:"samples"`
}

// Sample is one logged tree state.
type Sample struct {
	RunID     string          `json:"run_id"`
	Sample    int             `json:"sample"`
	Newick    string          `json:"newick"`
	Tree      *multitype.Spec `json:"tree"`
	CreatedAt time.Time       `json:"created_at"`
}

// StartRun registers a new run for trees configured with cfg and returns its
// UUID v7 identifier.
func (b *Backend) StartRun(cfg types.Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return "", types.ErrTraceDetached
	}

	runID, err := insertRun(b.db, cfg)
	if err != nil {
		return "", err
	}
	b.logger.Debug("run started", "run_id", runID)
	return runID, nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// insertRun adds a run row with a fresh UUID v7 and returns its ID.
func insertRun(ex execer, cfg types.Config) (string, error) {
	runID := generateUUID()
	_, err := ex.Exec(
		`INSERT INTO runs (run_id, type_label, type_count, created_at) VALUES (?, ?, ?, ?)`,
		runID, cfg.TypeLabel, cfg.TypeCount, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	return runID, nil
}

// insertSample adds one sample row, mapping a primary key clash to
// ErrDuplicateSample.
func insertSample(ex execer, runID string, sample int, newick, treeJSON string, createdAt time.Time) error {
	_, err := ex.Exec(
		`INSERT INTO samples (run_id, sample, newick, tree_json, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, sample, newick, treeJSON, createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("run %s sample %d: %w", runID, sample, types.ErrDuplicateSample)
		}
		return fmt.Errorf("inserting sample %d: %w", sample, err)
	}
	return nil
}

// Record stores the current state of tree as sample number sample of run.
func (b *Backend) Record(runID string, sample int, tree *multitype.Tree) error {
	newick, err := flatten.Newick(tree, plain.NewickOptions{})
	if err != nil {
		return fmt.Errorf("flattening sample %d: %w", sample, err)
	}
	treeJSON, err := json.Marshal(tree.Spec())
	if err != nil {
		return fmt.Errorf("encoding sample %d: %w", sample, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrTraceDetached
	}
	if err := b.requireRunLocked(runID); err != nil {
		return err
	}

	return insertSample(b.db, runID, sample, newick, string(treeJSON), time.Now())
}

// Runs lists all runs, oldest first.
func (b *Backend) Runs() ([]Run, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrTraceDetached
	}

	rows, err := b.db.Query(`
SELECT r.run_id, r.type_label, r.type_count, r.created_at, COUNT(s.sample)
FROM runs r LEFT JOIN samples s ON s.run_id = r.run_id
GROUP BY r.run_id
ORDER BY r.created_at, r.run_id`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var createdAt string
		if err := rows.Scan(&r.RunID, &r.Config.TypeLabel, &r.Config.TypeCount, &createdAt, &r.Samples); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing run time: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Samples returns every sample of run in sample order.
func (b *Backend) Samples(runID string) ([]Sample, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrTraceDetached
	}
	if err := b.requireRunLocked(runID); err != nil {
		return nil, err
	}

	rows, err := b.db.Query(
		`SELECT run_id, sample, newick, tree_json, created_at FROM samples WHERE run_id = ? ORDER BY sample`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying samples: %w", err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LoadSample rebuilds the tree logged as sample number sample of run.
func (b *Backend) LoadSample(runID string, sample int, opts ...multitype.Option) (*multitype.Tree, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrTraceDetached
	}

	var cfg types.Config
	err := b.db.QueryRow(`SELECT type_label, type_count FROM runs WHERE run_id = ?`, runID).
		Scan(&cfg.TypeLabel, &cfg.TypeCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, types.ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}

	row := b.db.QueryRow(
		`SELECT run_id, sample, newick, tree_json, created_at FROM samples WHERE run_id = ? AND sample = ?`,
		runID, sample,
	)
	s, err := scanSample(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s sample %d: %w", runID, sample, types.ErrSampleNotFound)
	}
	if err != nil {
		return nil, err
	}
	return multitype.FromSpec(cfg, s.Tree, opts...)
}

// DeleteRun removes a run and its samples.
func (b *Backend) DeleteRun(runID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrTraceDetached
	}

	res, err := b.db.Exec(`DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", runID, types.ErrRunNotFound)
	}
	return nil
}

func (b *Backend) requireRunLocked(runID string) error {
	var one int
	err := b.db.QueryRow(`SELECT 1 FROM runs WHERE run_id = ?`, runID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("run %s: %w", runID, types.ErrRunNotFound)
	}
	if err != nil {
		return fmt.Errorf("querying run: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSample(r rowScanner) (Sample, error) {
	var s Sample
	var treeJSON, createdAt string
	if err := r.Scan(&s.RunID, &s.Sample, &s.Newick, &treeJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s, err
		}
		return s, fmt.Errorf("scanning sample: %w", err)
	}
	s.Tree = &multitype.Spec{}
	if err := json.Unmarshal([]byte(treeJSON), s.Tree); err != nil {
		return s, fmt.Errorf("decoding sample %d: %w", s.Sample, err)
	}
	var err error
	if s.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return s, fmt.Errorf("parsing sample time: %w", err)
	}
	return s, nil
}
