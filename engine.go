package rubyscope

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"rubyscope/internal/index"
	"rubyscope/internal/slogutil"
	"rubyscope/internal/snapshot"
	"rubyscope/internal/walker"
)

// Engine orchestrates the rubyscope pipeline: file discovery, change
// detection, parallel extraction, and query access over the in-memory
// index.
type Engine struct {
	idx    *index.Index
	logger *slog.Logger

	// exclude lists path prefixes skipped during discovery, relative to
	// the indexed root.
	exclude []string

	// parallelism is the extraction worker count; 0 means NumCPU.
	parallelism int

	// useParallel enables the parallel extraction pipeline.
	useParallel bool

	// mu guards hashes. The index has its own lock.
	mu     sync.Mutex
	hashes map[string]string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithExcludes sets path prefixes (relative to the indexed root) that
// discovery skips.
func WithExcludes(prefixes ...string) Option {
	return func(e *Engine) {
		e.exclude = append([]string(nil), prefixes...)
	}
}

// WithParallel controls parallel extraction. When true (default),
// IndexFiles parses files on a worker pool and commits results serially.
// Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithParallelism sets the extraction worker count. Zero (the default)
// means one worker per CPU.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		e.parallelism = n
	}
}

// New creates an empty Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		idx:         index.New(),
		logger:      slogutil.NewDiscardLogger(),
		useParallel: true,
		hashes:      map[string]string{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query returns a new QueryBuilder over the engine's index.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{idx: e.idx}
}

// Stats reports the committed index's size.
func (e *Engine) Stats() Stats {
	return e.idx.Stats()
}

// IndexFiles indexes the given paths. Unsupported files are skipped;
// unchanged files (same content hash as the last run) are skipped.
// Errors on individual files are logged and skipped; processing
// continues.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	if e.useParallel {
		return e.indexFilesParallel(ctx, paths)
	}
	return e.indexFilesSerial(ctx, paths)
}

func (e *Engine) indexFilesSerial(ctx context.Context, paths []string) error {
	var errs []error
	for _, path := range paths {
		if err := e.indexFile(ctx, path); err != nil {
			e.logger.Warn("index file failed", "path", path, "error", err)
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
		}
	}
	// Files may arrive before the modules they reference; a second
	// resolution pass picks up those edges.
	e.idx.Reresolve()
	if len(errs) > 0 {
		return fmt.Errorf("indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

func (e *Engine) indexFile(ctx context.Context, path string) error {
	if !walker.SupportedFile(path) {
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	hash := fmt.Sprintf("%x", sha256.Sum256(content))

	e.mu.Lock()
	unchanged := e.hashes[path] == hash
	e.mu.Unlock()
	if unchanged {
		return nil
	}

	events, err := walker.Events(ctx, content)
	if err != nil {
		return err
	}
	res := e.idx.IndexFile(path, events)
	if res.Skipped > 0 {
		e.logger.Debug("skipped malformed declarations", "path", path, "count", res.Skipped)
	}

	e.mu.Lock()
	e.hashes[path] = hash
	e.mu.Unlock()
	return nil
}

// RemoveFile drops a file's contributions from the index.
func (e *Engine) RemoveFile(path string) {
	e.idx.RemoveFile(path)
	e.mu.Lock()
	delete(e.hashes, path)
	e.mu.Unlock()
}

// IndexDirectory discovers and indexes Ruby files under root. If root is
// inside a git repository, git ls-files is used so .gitignore is
// respected; otherwise a filesystem walk skips hidden directories and
// the configured excludes.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	paths, err := e.gitListFiles(root)
	if err != nil {
		// Not a git repo or git not available.
		e.logger.Debug("git discovery unavailable, walking", "root", root, "error", err)
		paths, err = e.walkListFiles(root)
		if err != nil {
			return err
		}
	}
	e.logger.Info("discovered files", "root", root, "count", len(paths))
	return e.IndexFiles(ctx, paths)
}

// gitListFiles uses git ls-files to discover tracked and untracked (but
// not ignored) Ruby files under root.
func (e *Engine) gitListFiles(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || e.excluded(line) {
			continue
		}
		absPath := filepath.Join(root, line)
		if walker.SupportedFile(absPath) {
			paths = append(paths, absPath)
		}
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem, used as a
// fallback when git is not available.
func (e *Engine) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || e.excluded(rel)) {
				return filepath.SkipDir
			}
			return nil
		}
		if e.excluded(rel) {
			return nil
		}
		if walker.SupportedFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

func (e *Engine) excluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, prefix := range e.exclude {
		prefix = filepath.ToSlash(prefix)
		if rel == prefix || strings.HasPrefix(rel, prefix+"/") {
			return true
		}
	}
	return false
}

// ExportSnapshot writes the committed index to a SQLite database at
// dbPath, replacing any previous snapshot.
func (e *Engine) ExportSnapshot(dbPath string) error {
	s, err := snapshot.Open(dbPath)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	defer s.Close()

	if err := s.Export(e.idx.TakeSnapshot()); err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	e.logger.Info("snapshot exported", "path", dbPath)
	return nil
}
