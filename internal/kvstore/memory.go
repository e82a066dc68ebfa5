package kvstore

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process fake of Store, used by stage and pipeline
// tests that don't need a real Redis — the same role the teacher's
// eval-engine/internal/store.MemoryStore plays for PGStore.
type MemoryStore struct {
	mu      sync.RWMutex
	kv      map[string]string
	hashes  map[string]map[string]string
	indexes map[string]IndexDefinition
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		kv:      map[string]string{},
		hashes:  map[string]map[string]string{},
		indexes: map[string]IndexDefinition{},
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.kv[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = value
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, key)
	delete(m.hashes, key)
	return nil
}

func (m *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.kv[key]; ok {
		return true, nil
	}
	_, ok := m.hashes[key]
	return ok, nil
}

func (m *MemoryStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		h = map[string]string{}
		m.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (m *MemoryStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[string]string{}
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]bool{}
	for k := range m.kv {
		seen[k] = true
	}
	for k := range m.hashes {
		seen[k] = true
	}
	var out []string
	for k := range seen {
		if match(pattern, k) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	keys, _ := m.ScanKeys(ctx, pattern)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.kv, k)
		delete(m.hashes, k)
	}
	return len(keys), nil
}

func (m *MemoryStore) IndexExists(ctx context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.indexes[id]
	return ok, nil
}

func (m *MemoryStore) CreateIndexIfNotExists(ctx context.Context, def IndexDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.indexes[def.ID]; ok {
		return nil
	}
	m.indexes[def.ID] = def
	return nil
}

func (m *MemoryStore) DropIndex(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.indexes, id)
	return nil
}

// Search is a best-effort in-memory stand-in for FT.SEARCH: it only supports
// the "@field:{value}" tag-equality form the serving query surface uses, and
// scans every document matching the index's prefixes rather than using a
// real inverted index.
func (m *MemoryStore) Search(ctx context.Context, id, query string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, ok := m.indexes[id]
	if !ok {
		return nil, nil
	}
	field, value, ok := parseTagQuery(query)
	var out []string
	for key, h := range m.hashes {
		if !hasAnyPrefix(key, def.Prefixes) {
			continue
		}
		if ok && h[field] != value {
			continue
		}
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}

func hasAnyPrefix(key string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// parseTagQuery extracts field/value from a "@field:{value}" RediSearch tag
// query; any other shape is reported as not-understood via ok=false.
func parseTagQuery(query string) (field, value string, ok bool) {
	query = strings.TrimSpace(query)
	if !strings.HasPrefix(query, "@") {
		return "", "", false
	}
	rest := query[1:]
	colon := strings.Index(rest, ":")
	if colon < 0 {
		return "", "", false
	}
	field = rest[:colon]
	valuePart := strings.TrimSpace(rest[colon+1:])
	if !strings.HasPrefix(valuePart, "{") || !strings.HasSuffix(valuePart, "}") {
		return "", "", false
	}
	return field, valuePart[1 : len(valuePart)-1], true
}

// match reports whether key matches a Redis glob-style SCAN/DEL pattern:
// "*" matches any run of characters (including "/" — file-cursor keys embed
// absolute CSV paths, e.g. "fire_event_source:file:/data/2019.csv") and "?"
// matches exactly one. path/filepath.Match is the wrong tool here because its
// "*" stops at the OS path separator; translate to regexp instead.
func match(pattern, key string) bool {
	re, err := globToRegexp(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(key)
}

func globToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
