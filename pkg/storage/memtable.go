package storage

import (
	"sync"

	"github.com/google/uuid"
)

// entry is a MemTable-resident edge plus its committed/temp status.
// Entries are addressed by a stable UUID key rather than by pointer so the
// table can be mutated while an index slice derived from an earlier lookup
// is still held by a caller (spec §9, "shared mutable cache").
type entry struct {
	Edge
	temp bool
}

// fibreKey is the composite key of a (source, code) or (code, target)
// fibre.
type fibreKey struct {
	a, b string
}

// MemTable is the in-memory multi-index edge cache behind a single
// buffered data manager session. Every method takes the table's own mutex,
// so individual calls are safe for concurrent use; pkg/datamanager.DM
// additionally serializes whole operations with its own mutex, per spec
// §5's "single async mutex per DM" model.
type MemTable struct {
	mu sync.Mutex

	edges       map[string]*entry
	sourceCode  map[fibreKey][]string // (source, code) -> ordered entry keys
	codeTarget  map[fibreKey][]string // (code, target) -> ordered entry keys
}

// NewMemTable returns an empty MemTable.
func NewMemTable() *MemTable {
	return &MemTable{
		edges:      make(map[string]*entry),
		sourceCode: make(map[fibreKey][]string),
		codeTarget: make(map[fibreKey][]string),
	}
}

func (m *MemTable) insert(source, code, target, paper, pen string, temp bool) string {
	key := uuid.NewString()
	m.edges[key] = &entry{
		Edge: Edge{Source: source, Code: code, Target: target, Paper: paper, Pen: pen},
		temp: temp,
	}

	sc := fibreKey{source, code}
	m.sourceCode[sc] = append(m.sourceCode[sc], key)

	ct := fibreKey{code, target}
	m.codeTarget[ct] = append(m.codeTarget[ct], key)
	return key
}

// InsertEdge appends a committed (non-temp), unlabelled edge, to be
// bulk-inserted at the next commit. Use InsertEdgeLabeled to stamp
// paper/pen at insertion time (pkg/datamanager does, per auth.WriteLabel).
func (m *MemTable) InsertEdge(source, code, target string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(source, code, target, "", "", false)
}

// InsertEdgeLabeled appends a committed edge stamped with the given
// paper/pen authorization label.
func (m *MemTable) InsertEdgeLabeled(source, code, target, paper, pen string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(source, code, target, paper, pen, false)
}

// InsertTempEdge appends a temp edge; it will never be persisted.
func (m *MemTable) InsertTempEdge(source, code, target string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(source, code, target, "", "", true)
}

// AppendExistsEdge caches an edge read back from the store as a temp
// entry, so repeated reads of the same fibre within a session are
// answered from the cache without re-issuing the backing query, while
// never being re-inserted at commit (it already exists in the store).
func (m *MemTable) AppendExistsEdge(source, code, target string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(source, code, target, "", "", true)
}

// GetTarget returns the target of the last committed-or-temp entry in the
// (source, code) fibre, or "" if the fibre is empty (spec §9 open
// question: empty string on absence).
func (m *MemTable) GetTarget(source, code string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := m.sourceCode[fibreKey{source, code}]
	if len(keys) == 0 {
		return ""
	}
	return m.edges[keys[len(keys)-1]].Target
}

// GetSource is the (code, target)-fibre symmetric counterpart of
// GetTarget.
func (m *MemTable) GetSource(code, target string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := m.codeTarget[fibreKey{code, target}]
	if len(keys) == 0 {
		return ""
	}
	return m.edges[keys[len(keys)-1]].Source
}

// GetTargetVUnchecked returns every target in the (source, code) fibre, in
// insertion order; an empty fibre returns an empty (non-nil) slice.
func (m *MemTable) GetTargetVUnchecked(source, code string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := m.sourceCode[fibreKey{source, code}]
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.edges[k].Target)
	}
	return out
}

// GetSourceVUnchecked is the (code, target)-fibre symmetric counterpart of
// GetTargetVUnchecked.
func (m *MemTable) GetSourceVUnchecked(code, target string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := m.codeTarget[fibreKey{code, target}]
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.edges[k].Source)
	}
	return out
}

// DeleteEdgeWithSourceCode drops every entry in the (source, code) fibre
// from both indices.
func (m *MemTable) DeleteEdgeWithSourceCode(source, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc := fibreKey{source, code}
	for _, key := range m.sourceCode[sc] {
		e := m.edges[key]
		delete(m.edges, key)
		m.removeFromCodeTarget(fibreKey{e.Code, e.Target}, key)
	}
	delete(m.sourceCode, sc)
}

// DeleteEdgeWithCodeTarget drops every entry in the (code, target) fibre
// from both indices.
func (m *MemTable) DeleteEdgeWithCodeTarget(code, target string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ct := fibreKey{code, target}
	for _, key := range m.codeTarget[ct] {
		e := m.edges[key]
		delete(m.edges, key)
		m.removeFromSourceCode(fibreKey{e.Source, e.Code}, key)
	}
	delete(m.codeTarget, ct)
}

func (m *MemTable) removeFromSourceCode(k fibreKey, key string) {
	removeKey(m.sourceCode, k, key)
}

func (m *MemTable) removeFromCodeTarget(k fibreKey, key string) {
	removeKey(m.codeTarget, k, key)
}

func removeKey(idx map[fibreKey][]string, k fibreKey, key string) {
	keys := idx[k]
	for i, existing := range keys {
		if existing == key {
			idx[k] = append(keys[:i], keys[i+1:]...)
			break
		}
	}
	if len(idx[k]) == 0 {
		delete(idx, k)
	}
}

// TakeCommitted atomically removes and returns every committed entry.
// edgescript's bulk insert does not depend on return order since the store
// assigns its own auto-increment id on insert. Temp entries are not
// discarded — they survive in the table as a fresh temp-only cache, exactly
// as spec §3's lifecycle invariant requires ("Temp entries, if any, survive
// as a fresh temp-only cache"). Matches original_source/src/mem_table.rs's
// take_some.
func (m *MemTable) TakeCommitted() []Edge {
	m.mu.Lock()
	defer m.mu.Unlock()

	var committed []Edge
	keep := make(map[string]*entry)
	sc := make(map[fibreKey][]string)
	ct := make(map[fibreKey][]string)

	for key, e := range m.edges {
		if e.temp {
			keep[key] = e
			continue
		}
		committed = append(committed, e.Edge)
	}
	for k, keys := range m.sourceCode {
		for _, key := range keys {
			if _, ok := keep[key]; ok {
				sc[k] = append(sc[k], key)
			}
		}
	}
	for k, keys := range m.codeTarget {
		for _, key := range keys {
			if _, ok := keep[key]; ok {
				ct[k] = append(ct[k], key)
			}
		}
	}

	m.edges = keep
	m.sourceCode = sc
	m.codeTarget = ct
	return committed
}
