package sqlite

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mesh-intelligence/multitype/pkg/types"
)

// ExportRun writes every sample of run to path, one JSON object per line.
func (b *Backend) ExportRun(runID, path string) error {
	samples, err := b.Samples(runID)
	if err != nil {
		return err
	}
	records := make([]json.RawMessage, 0, len(samples))
	for _, s := range samples {
		rec, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encoding sample %d: %w", s.Sample, err)
		}
		records = append(records, rec)
	}
	return writeJSONL(path, records)
}

// ImportRun reads samples exported by ExportRun into a new run configured
// with cfg and returns the new run ID. Lines that are not valid JSON are
// skipped.
func (b *Backend) ImportRun(cfg types.Config, path string) (string, error) {
	records, err := readJSONL(path)
	if err != nil {
		return "", err
	}
	samples := make([]Sample, 0, len(records))
	for i, rec := range records {
		var s Sample
		if err := json.Unmarshal(rec, &s); err != nil {
			return "", fmt.Errorf("decoding record %d: %w", i, err)
		}
		if s.Tree == nil {
			return "", fmt.Errorf("record %d of %s has no tree", i, path)
		}
		samples = append(samples, s)
	}

	if err := cfg.Validate(); err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return "", types.ErrTraceDetached
	}
	// The run row and its samples commit together; a failed sample leaves
	// no run behind.
	tx, err := b.db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning import: %w", err)
	}
	runID, err := insertRun(tx, cfg)
	if err != nil {
		tx.Rollback()
		return "", err
	}
	for _, s := range samples {
		treeJSON, err := json.Marshal(s.Tree)
		if err != nil {
			tx.Rollback()
			return "", fmt.Errorf("encoding sample %d: %w", s.Sample, err)
		}
		createdAt := s.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		if err := insertSample(tx, runID, s.Sample, s.Newick, string(treeJSON), createdAt); err != nil {
			tx.Rollback()
			return "", err
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing import: %w", err)
	}
	b.logger.Debug("run imported", "run_id", runID, "samples", len(samples))
	return runID, nil
}

// readJSONL reads a JSONL file and returns each non-empty, parseable line as
// a json.RawMessage. Malformed lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail(fmt.Errorf("writing record: %w", err))
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail(fmt.Errorf("writing newline: %w", err))
		}
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flushing buffer: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
