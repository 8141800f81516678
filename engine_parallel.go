package rubyscope

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"runtime"
	"sync"

	"rubyscope/internal/index"
	"rubyscope/internal/walker"
)

// workItem holds everything a parallel extraction worker needs.
type workItem struct {
	path    string
	content []byte
	hash    string
}

// indexFilesParallel indexes files using a three-phase pipeline:
//
//	Phase A (serial):  Read content, skip unchanged files by hash.
//	Phase B (parallel): Parse and build entries on a worker pool.
//	Phase C (serial):  Commit results to the index in one goroutine.
func (e *Engine) indexFilesParallel(ctx context.Context, paths []string) error {
	// ---- Phase A: Serial file preparation ----
	var items []workItem
	var errs []error
	for _, path := range paths {
		item, skip, err := e.prepareFile(path)
		if err != nil {
			e.logger.Warn("prepare file failed", "path", path, "error", err)
			errs = append(errs, fmt.Errorf("prepare %s: %w", path, err))
			continue
		}
		if skip {
			continue
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		if len(errs) > 0 {
			return fmt.Errorf("parallel indexing had %d error(s): %w", len(errs), errs[0])
		}
		return nil
	}

	// ---- Phase B: Parallel extraction ----
	numWorkers := e.parallelism
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(items) {
		numWorkers = len(items)
	}

	workCh := make(chan workItem, len(items))
	for _, item := range items {
		workCh <- item
	}
	close(workCh)

	type result struct {
		item workItem
		res  index.FileResult
		err  error
	}
	resultCh := make(chan result, len(items))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each worker parses with its own tree-sitter parser.
			for item := range workCh {
				events, err := walker.Events(ctx, item.content)
				if err != nil {
					resultCh <- result{item: item, err: err}
					continue
				}
				resultCh <- result{item: item, res: index.BuildEntries(item.path, events)}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// ---- Phase C: Serial commit ----
	for r := range resultCh {
		if r.err != nil {
			e.logger.Warn("extract failed", "path", r.item.path, "error", r.err)
			errs = append(errs, fmt.Errorf("extract %s: %w", r.item.path, r.err))
			continue
		}
		e.idx.Apply(r.res)
		if r.res.Skipped > 0 {
			e.logger.Debug("skipped malformed declarations", "path", r.item.path, "count", r.res.Skipped)
		}
		e.mu.Lock()
		e.hashes[r.item.path] = r.item.hash
		e.mu.Unlock()
	}

	e.idx.Reresolve()
	if len(errs) > 0 {
		return fmt.Errorf("parallel indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

// prepareFile does Phase A work for a single file: read and hash check.
// skip=true means the file is unchanged or unsupported.
func (e *Engine) prepareFile(path string) (workItem, bool, error) {
	if !walker.SupportedFile(path) {
		return workItem{}, true, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("read file: %w", err)
	}
	hash := fmt.Sprintf("%x", sha256.Sum256(content))

	e.mu.Lock()
	unchanged := e.hashes[path] == hash
	e.mu.Unlock()
	if unchanged {
		return workItem{}, true, nil
	}

	return workItem{path: path, content: content, hash: hash}, false, nil
}
