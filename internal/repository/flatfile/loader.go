// Package flatfile loads the extracted movement files into normalized
// tables and memoizes them per file and movement type.
package flatfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/RoqueChristian/inventario/internal/dataset"
	"github.com/RoqueChristian/inventario/internal/domain/models"
)

// LoadError reports a file that exists but could not be parsed. The
// message names the file and the underlying cause so it can be shown to
// users as is.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Options tunes how files are decoded.
type Options struct {
	// Encoding is "utf-8" (default, BOM tolerated), "windows-1252" or "iso-8859-1".
	Encoding string
	// Comma is the field separator, ';' when zero.
	Comma rune
	// Registerer receives the loader metrics. Nil disables them.
	Registerer prometheus.Registerer
}

// Loader reads movement files and keeps the parsed tables in memory until
// the file changes on disk.
type Loader struct {
	cache    *cache.Cache
	encoding string
	comma    rune
	metrics  *loaderMetrics
	logger   *zap.Logger
}

type cacheEntry struct {
	table   *dataset.Table
	err     error
	modTime time.Time
	size    int64
}

// NewLoader builds a Loader.
func NewLoader(opts Options, logger *zap.Logger) (*Loader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := decodeReader(strings.NewReader(""), opts.Encoding); err != nil {
		return nil, err
	}
	comma := opts.Comma
	if comma == 0 {
		comma = defaultComma
	}

	metrics, err := newLoaderMetrics(opts.Registerer)
	if err != nil {
		return nil, fmt.Errorf("register loader metrics: %w", err)
	}

	return &Loader{
		cache:    cache.New(cache.NoExpiration, 0),
		encoding: opts.Encoding,
		comma:    comma,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// Load returns the normalized table for path. The table is never nil and is
// shared between callers, so it must be treated as read-only.
//
// A missing file yields an empty table and no error. A file that cannot be
// parsed yields an empty table and a *LoadError. Repeated calls reuse the
// parsed table for as long as the file's size and modification time are
// unchanged.
func (l *Loader) Load(path string, mt models.MovementType) (*dataset.Table, error) {
	key := cacheKey(path, mt)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.cache.Delete(key)
			l.metrics.observe(resultMissing, path, 0)
			return dataset.Empty(), nil
		}
		l.metrics.observe(resultError, path, 0)
		return dataset.Empty(), &LoadError{Path: path, Err: err}
	}
	if info.IsDir() {
		l.metrics.observe(resultError, path, 0)
		return dataset.Empty(), &LoadError{Path: path, Err: errors.New("path is a directory")}
	}

	if cached, ok := l.cache.Get(key); ok {
		entry := cached.(*cacheEntry)
		if entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
			l.metrics.observe(resultHit, path, entry.table.Len())
			return entry.table, entry.err
		}
		l.logger.Debug("file changed on disk, reloading", zap.String("path", path))
	}

	entry := &cacheEntry{modTime: info.ModTime(), size: info.Size()}
	table, err := l.read(path, mt)
	if err != nil {
		entry.table = dataset.Empty()
		entry.err = &LoadError{Path: path, Err: err}
		l.logger.Warn("failed to load movement file", zap.String("path", path), zap.String("type", mt.Label()), zap.Error(err))
		l.metrics.observe(resultError, path, 0)
	} else {
		entry.table = table
		l.metrics.observe(resultMiss, path, table.Len())
	}

	l.cache.Set(key, entry, cache.NoExpiration)
	return entry.table, entry.err
}

// Invalidate drops every cached table read from path and returns how many
// were dropped. Paths are compared after filepath.Clean.
func (l *Loader) Invalidate(path string) int {
	prefix := filepath.Clean(path) + "|"
	dropped := 0
	for key := range l.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			l.cache.Delete(key)
			dropped++
		}
	}
	return dropped
}

// Flush drops every cached table.
func (l *Loader) Flush() {
	l.cache.Flush()
}

func (l *Loader) read(path string, mt models.MovementType) (*dataset.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, stats, err := readTable(f, mt, l.encoding, l.comma)
	if err != nil {
		return nil, err
	}

	for column, cells := range stats.coerced {
		l.logger.Debug("unparseable cells replaced by default",
			zap.String("path", path),
			zap.String("column", column),
			zap.Int("cells", cells))
	}
	l.logger.Info("movement file loaded",
		zap.String("path", path),
		zap.String("type", mt.Label()),
		zap.Int("rows", stats.rows),
		zap.Int("columns", len(table.Columns())))

	return table, nil
}

func cacheKey(path string, mt models.MovementType) string {
	return filepath.Clean(path) + "|" + string(mt)
}
