package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/gnana997/tokensync/pkg/util"
)

// ErrSyntax is returned by Check when the source does not parse cleanly.
var ErrSyntax = errors.New("syntax error")

// Manager owns one lazily created parser pool per grammar.
// It is safe for concurrent use and must be closed.
type Manager struct {
	mu       sync.RWMutex
	pools    map[Language]*parserPool
	poolSize int
	logger   *slog.Logger
	parses   int
}

// NewManager creates a Manager. poolSize 0 picks a size from the CPU count.
func NewManager(logger *slog.Logger, poolSize int) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		pools:    make(map[Language]*parserPool),
		poolSize: util.PoolSize(poolSize),
		logger:   logger,
	}
}

// Parse parses source with the grammar for lang. The caller must close the tree.
func (m *Manager) Parse(source []byte, lang Language) (*ts.Tree, error) {
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("cannot parse unknown language")
	}

	pool, err := m.pool(lang)
	if err != nil {
		return nil, err
	}
	parser, err := pool.acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire parser: %w", err)
	}
	tree := parser.Parse(source, nil)
	pool.release(parser)

	m.mu.Lock()
	m.parses++
	m.mu.Unlock()

	if tree == nil {
		return nil, fmt.Errorf("parser returned nil tree")
	}
	return tree, nil
}

// Close releases every pooled parser.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger.Debug("closing parser manager", "parses", m.parses)
	for _, pool := range m.pools {
		pool.close()
	}
	m.pools = make(map[Language]*parserPool)
	return nil
}

// Stats reports parser usage.
type Stats struct {
	ParsersCreated int
	Parses         int
}

func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Stats{Parses: m.parses}
	for _, pool := range m.pools {
		s.ParsersCreated += pool.createdCount()
	}
	return s
}

func (m *Manager) pool(lang Language) (*parserPool, error) {
	m.mu.RLock()
	pool, ok := m.pools[lang]
	m.mu.RUnlock()
	if ok {
		return pool, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if pool, ok = m.pools[lang]; ok {
		return pool, nil
	}
	ptr, err := languagePointer(lang)
	if err != nil {
		return nil, err
	}
	pool = newParserPool(lang, ptr, m.poolSize, m.logger)
	m.pools[lang] = pool
	return pool, nil
}

func languagePointer(lang Language) (unsafe.Pointer, error) {
	switch lang {
	case LanguageTypeScript:
		return ts_typescript.LanguageTypescript(), nil
	case LanguageJavaScript:
		return ts_javascript.Language(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}
