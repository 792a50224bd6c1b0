package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orneryd/edgescript/pkg/storage"
)

func TestMemTableGetTargetAbsentIsEmptyString(t *testing.T) {
	m := storage.NewMemTable()
	assert.Equal(t, "", m.GetTarget("a", "b"))
	assert.Equal(t, "", m.GetSource("b", "c"))
}

func TestMemTableGetTargetVAbsentIsEmptySlice(t *testing.T) {
	m := storage.NewMemTable()
	assert.Empty(t, m.GetTargetVUnchecked("a", "b"))
	assert.Empty(t, m.GetSourceVUnchecked("b", "c"))
}

func TestMemTableInsertAndLookup(t *testing.T) {
	m := storage.NewMemTable()
	m.InsertEdge("a", "knows", "b")
	m.InsertEdge("a", "knows", "c")

	assert.Equal(t, "c", m.GetTarget("a", "knows"))
	assert.Equal(t, []string{"b", "c"}, m.GetTargetVUnchecked("a", "knows"))
	assert.Equal(t, []string{"a"}, m.GetSourceVUnchecked("knows", "b"))
}

func TestMemTableDeleteWithSourceCode(t *testing.T) {
	m := storage.NewMemTable()
	m.InsertEdge("a", "knows", "b")
	m.InsertEdge("a", "knows", "c")
	m.DeleteEdgeWithSourceCode("a", "knows")

	assert.Empty(t, m.GetTargetVUnchecked("a", "knows"))
	assert.Empty(t, m.GetSourceVUnchecked("knows", "b"))
	assert.Empty(t, m.GetSourceVUnchecked("knows", "c"))
}

func TestMemTableDeleteWithCodeTarget(t *testing.T) {
	m := storage.NewMemTable()
	m.InsertEdge("a", "knows", "x")
	m.InsertEdge("b", "knows", "x")
	m.DeleteEdgeWithCodeTarget("knows", "x")

	assert.Empty(t, m.GetSourceVUnchecked("knows", "x"))
	assert.Empty(t, m.GetTargetVUnchecked("a", "knows"))
	assert.Empty(t, m.GetTargetVUnchecked("b", "knows"))
}

func TestMemTableTakeDrainsCommittedKeepsTemp(t *testing.T) {
	m := storage.NewMemTable()
	m.InsertEdge("a", "knows", "b")
	m.InsertTempEdge("$x", "$y", "$z")

	committed := m.TakeCommitted()
	assert.Len(t, committed, 1)
	assert.Equal(t, "a", committed[0].Source)

	// Committed set was drained...
	assert.Empty(t, m.GetTargetVUnchecked("a", "knows"))
	// ...but the temp entry survives as a fresh temp-only cache.
	assert.Equal(t, []string{"$z"}, m.GetTargetVUnchecked("$x", "$y"))

	// A second Take is a no-op on an already-drained table.
	assert.Empty(t, m.TakeCommitted())
}

func TestMemTableAppendExistsEdgeDoesNotReappearOnTake(t *testing.T) {
	m := storage.NewMemTable()
	m.AppendExistsEdge("a", "knows", "b")

	// Cached as temp so a subsequent read hits the cache...
	assert.Equal(t, "b", m.GetTarget("a", "knows"))
	// ...but commit must never re-insert it (it already exists in the
	// store).
	assert.Empty(t, m.TakeCommitted())
}
