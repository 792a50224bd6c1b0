// Package datamanager implements the buffered data manager (DM) of spec
// §4.3 and the path resolver of spec §4.4 on top of pkg/storage: a
// write-buffered view over the edge store that seeds its in-memory cache
// from the store at most once per fibre per session, buffers every write in
// the MemTable, and applies pending deletes followed by a bulk insert at
// commit.
package datamanager

import (
	"context"
	"fmt"
	"sync"

	"github.com/orneryd/edgescript/pkg/apperr"
	"github.com/orneryd/edgescript/pkg/auth"
	"github.com/orneryd/edgescript/pkg/storage"
)

// pendingDelete records a fibre-level delete queued by Set, applied at
// Commit before the bulk insert (spec §4.3).
type pendingDelete struct {
	forward bool
	a, b    string // (source, code) if forward; (code, target) if not
}

// DM is a single session's write-buffered view of the edge store. The zero
// value is not usable; construct with New or Divide.
//
// DM is safe for concurrent use: every exported method that reads or
// writes the session's buffered state acquires dm.mu for its duration
// (spec §5's "single async mutex per DM" model, translated to
// a plain sync.Mutex since Go has no cooperative-async equivalent to
// suspend on — every blocking call here is already a synchronous,
// goroutine-safe database/sql round-trip).
type DM struct {
	mu sync.Mutex

	store *storage.Store
	mem   *storage.MemTable
	auth  auth.Auth

	// seeded marks fibres already read from the store this session, keyed
	// by "{source}->{code}" or "{target}<-{code}" (spec §4.3's per-call
	// cache markers).
	seeded map[string]bool

	pendingDeletes map[string]pendingDelete

	metrics *metrics
}

// New returns a DM over store with the given auth and an empty MemTable.
func New(store *storage.Store, a auth.Auth) *DM {
	return newDM(store, a, defaultMetrics())
}

func newDM(store *storage.Store, a auth.Auth, m *metrics) *DM {
	return &DM{
		store:          store,
		mem:            storage.NewMemTable(),
		auth:           a,
		seeded:         make(map[string]bool),
		pendingDeletes: make(map[string]pendingDelete),
		metrics:        m,
	}
}

// Divide returns a sibling DM sharing the store pool and metrics registry
// but with a fresh, empty MemTable and the given auth (spec §3's session
// isolation invariant).
func (dm *DM) Divide(a auth.Auth) *DM {
	return newDM(dm.store, a, dm.metrics)
}

// Auth returns the DM's current authorization context.
func (dm *DM) Auth() auth.Auth { return dm.auth }

func wrapStorageErr(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %v", apperr.ErrStorage, fmt.Sprintf(format, args...), err)
}

// Clear removes every edge the current auth may write, both from the
// durable store and from this session's buffered state (spec §4.3, §4.8).
func (dm *DM) Clear(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if err := dm.store.ClearAuth(ctx, dm.auth); err != nil {
		dm.metrics.storageErrors.WithLabelValues(authLabel(dm.auth)).Inc()
		return wrapStorageErr(err, "clear")
	}
	dm.mem = storage.NewMemTable()
	dm.seeded = make(map[string]bool)
	dm.pendingDeletes = make(map[string]pendingDelete)
	return nil
}

// Commit applies every pending fibre delete, then bulk-inserts every
// committed MemTable edge, then drains the committed set (spec §3's commit
// ordering invariant). Temp entries survive as a fresh temp-only cache.
func (dm *DM) Commit(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	dm.metrics.commitTotal.WithLabelValues(authLabel(dm.auth)).Inc()

	for _, pd := range dm.pendingDeletes {
		var err error
		if pd.forward {
			err = dm.store.DeleteFibreSourceCode(ctx, pd.a, pd.b, dm.auth)
		} else {
			err = dm.store.DeleteFibreCodeTarget(ctx, pd.a, pd.b, dm.auth)
		}
		if err != nil {
			dm.metrics.storageErrors.WithLabelValues(authLabel(dm.auth)).Inc()
			return wrapStorageErr(err, "pending delete")
		}
	}
	dm.pendingDeletes = make(map[string]pendingDelete)

	edges := dm.mem.TakeCommitted()
	if len(edges) == 0 {
		return nil
	}
	if err := dm.store.BulkInsert(ctx, edges); err != nil {
		// Re-buffer the drained edges so a later Commit can retry them.
		for _, e := range edges {
			dm.mem.InsertEdgeLabeled(e.Source, e.Code, e.Target, e.Paper, e.Pen)
		}
		dm.metrics.storageErrors.WithLabelValues(authLabel(dm.auth)).Inc()
		return wrapStorageErr(err, "bulk insert")
	}
	return nil
}
