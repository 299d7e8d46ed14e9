package functions

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/watzon/alyx-executor/internal/metrics"
	"github.com/watzon/alyx-executor/internal/sdk"
)

// DefaultIgnore lists the name patterns skipped when listing functions.
var DefaultIgnore = []string{"_*", ".*"}

// RegistryConfig holds configuration for a Registry.
type RegistryConfig struct {
	// Root is the functions directory.
	Root string
	// Handlers resolves `handler:` references in manifests.
	Handlers *HandlerSet
	// Ignore holds glob patterns for entries List skips. Nil means DefaultIgnore.
	Ignore []string
}

// Registry resolves function names to definitions and caches the result
// until Clear is called.
type Registry struct {
	root     string
	handlers *HandlerSet
	exprs    *ExpressionCompiler
	parser   *manifestParser
	ignore   []glob.Glob

	mu    sync.RWMutex
	cache map[string]*sdk.Definition
	// gen changes on every Clear so loads started before it are not cached.
	gen   uint64
	loads singleflight.Group
}

// NewRegistry creates a registry for the functions under cfg.Root.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	handlers := cfg.Handlers
	if handlers == nil {
		handlers = NewHandlerSet()
	}

	exprs, err := NewExpressionCompiler()
	if err != nil {
		return nil, err
	}

	parser, err := newManifestParser()
	if err != nil {
		return nil, err
	}

	patterns := cfg.Ignore
	if patterns == nil {
		patterns = DefaultIgnore
	}
	ignore := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		ignore = append(ignore, g)
	}

	return &Registry{
		root:     cfg.Root,
		handlers: handlers,
		exprs:    exprs,
		parser:   parser,
		ignore:   ignore,
		cache:    make(map[string]*sdk.Definition),
	}, nil
}

// Root returns the functions directory.
func (r *Registry) Root() string {
	return r.root
}

// Resolve returns the definition for name, loading it on first use.
// Errors are *NotFoundError, *LoadError or *ContractError.
func (r *Registry) Resolve(name string) (*sdk.Definition, error) {
	r.mu.RLock()
	def, ok := r.cache[name]
	r.mu.RUnlock()
	metrics.RecordCacheLookup(ok)
	if ok {
		return def, nil
	}

	v, err, _ := r.loads.Do(name, func() (any, error) {
		r.mu.RLock()
		gen := r.gen
		r.mu.RUnlock()

		def, err := r.load(name)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		if r.gen == gen {
			r.cache[name] = def
		}
		size := len(r.cache)
		r.mu.Unlock()
		metrics.SetCacheEntries(size)

		return def, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sdk.Definition), nil
}

// Clear drops every cached definition.
func (r *Registry) Clear() {
	r.mu.Lock()
	n := len(r.cache)
	r.cache = make(map[string]*sdk.Definition)
	r.gen++
	r.mu.Unlock()

	metrics.RecordCacheClear()
	metrics.SetCacheEntries(0)
	log.Debug().Int("evicted", n).Msg("Function cache cleared")
}

// Cached reports whether name is currently cached.
func (r *Registry) Cached(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.cache[name]
	return ok
}

// Len returns the number of cached definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

// List returns the names of loadable functions, sorted. It only checks that
// an entry file exists; it does not load anything.
func (r *Registry) List() ([]string, error) {
	entries, err := os.ReadDir(r.root)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading functions directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if r.Ignored(name) {
			continue
		}

		if entry.IsDir() {
			if fileExists(filepath.Join(r.root, name, EntryFile)) {
				names = append(names, name)
			}
			continue
		}

		if filepath.Ext(name) == ManifestExt {
			names = append(names, strings.TrimSuffix(name, ManifestExt))
		}
	}

	slices.Sort(names)
	return slices.Compact(names), nil
}

// Ignored reports whether a directory entry name matches an ignore pattern.
func (r *Registry) Ignored(name string) bool {
	for _, g := range r.ignore {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// locate finds the manifest for name, preferring <root>/<name>/function.yaml
// over <root>/<name>.yaml.
func (r *Registry) locate(name string) (string, error) {
	if name == "" || !filepath.IsLocal(name) {
		return "", &NotFoundError{Name: name}
	}

	dir := filepath.Join(r.root, name)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		entry := filepath.Join(dir, EntryFile)
		if fileExists(entry) {
			return entry, nil
		}
	}

	flat := filepath.Join(r.root, name+ManifestExt)
	if fileExists(flat) {
		return flat, nil
	}

	return "", &NotFoundError{Name: name}
}

func (r *Registry) load(name string) (*sdk.Definition, error) {
	path, err := r.locate(name)
	if err != nil {
		metrics.RecordFunctionLoad("not_found")
		return nil, err
	}

	def, err := r.loadFile(name, path)
	if err != nil {
		var ce *ContractError
		if errors.As(err, &ce) {
			metrics.RecordFunctionLoad("contract_error")
		} else {
			metrics.RecordFunctionLoad("load_error")
		}
		log.Warn().Err(err).Str("function", name).Str("path", path).Msg("Failed to load function")
		return nil, err
	}

	metrics.RecordFunctionLoad("loaded")
	log.Debug().Str("function", name).Str("path", path).Msg("Function loaded")
	return def, nil
}

func (r *Registry) loadFile(name, path string) (*sdk.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Name: name, Path: path, Err: err}
	}

	m, err := r.parser.parse(data)
	if err != nil {
		var cv contractViolation
		if errors.As(err, &cv) {
			return nil, &ContractError{Name: name, Path: path, Reason: cv.Error()}
		}
		return nil, &LoadError{Name: name, Path: path, Err: err}
	}

	def := &sdk.Definition{
		InputSchema:  m.InputSchema,
		OutputSchema: m.OutputSchema,
	}

	if m.Handler != "" {
		h, ok := r.handlers.Lookup(m.Handler)
		if !ok {
			return nil, &ContractError{
				Name:   name,
				Path:   path,
				Reason: fmt.Sprintf("handler %q is not registered", m.Handler),
			}
		}
		def.Handler = h
		return def, nil
	}

	h, err := r.exprs.Compile(m.Expression)
	if err != nil {
		return nil, &LoadError{Name: name, Path: path, Err: err}
	}
	def.Handler = h
	return def, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
