package catalog

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/mesh-intelligence/moviedex/pkg/types"
)

// maxLineSize bounds one JSONL record on import.
const maxLineSize = 1 << 20

// LineError reports why one import line was rejected.
type LineError struct {
	Line int
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e LineError) Unwrap() error {
	return e.Err
}

// ImportResult summarizes an import.
type ImportResult struct {
	Imported int
	Rejected []LineError
}

// Export writes every item to w as one JSON object per line, in ID order.
// Returns the number of records written.
func (s *Service) Export(ctx context.Context, w io.Writer) (int, error) {
	items, err := s.Search(ctx, types.Filter{})
	if err != nil {
		return 0, err
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, it := range items {
		// Encode appends the newline.
		if err := enc.Encode(it); err != nil {
			return 0, fmt.Errorf("encoding item %d: %w", it.ID, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("flushing export: %w", err)
	}
	return len(items), nil
}

// ExportFile writes the export to path atomically using the temp-file,
// fsync, rename pattern.
func (s *Service) ExportFile(ctx context.Context, path string) (int, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".moviedex-export-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) (int, error) {
		tmp.Close()
		os.Remove(tmpName)
		return 0, err
	}

	n, err := s.Export(ctx, tmp)
	if err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}
	return n, nil
}

// Import adds every record read from r through Add, so each one is
// validated like a new submission. IDs in the input are ignored. Blank
// lines are skipped; malformed or invalid lines are collected in the
// result. A persistence failure stops the import.
func (s *Service) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	var res ImportResult

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var req AddRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			var verr *types.ValidationError
			if !errors.As(err, &verr) {
				err = types.NewValidationError("malformed record")
			}
			res.Rejected = append(res.Rejected, LineError{Line: line, Err: err})
			continue
		}

		if _, err := s.Add(ctx, req.Kind, req); err != nil {
			if errors.Is(err, types.ErrPersistence) {
				return res, fmt.Errorf("line %d: %w", line, err)
			}
			res.Rejected = append(res.Rejected, LineError{Line: line, Err: err})
			continue
		}
		res.Imported++
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("reading import: %w", err)
	}
	return res, nil
}

// ImportFile imports the JSONL file at path.
func (s *Service) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return s.Import(ctx, f)
}
