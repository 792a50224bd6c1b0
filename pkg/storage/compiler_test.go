package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/edgescript/pkg/auth"
	"github.com/orneryd/edgescript/pkg/storage"
)

func TestCompileGetZeroStepsIsEmpty(t *testing.T) {
	q, args := storage.CompileGet(storage.ParsePath("root"), auth.NewRoot())
	assert.Equal(t, "", q)
	assert.Nil(t, args)
}

func TestCompileGetSingleForwardStep(t *testing.T) {
	q, args := storage.CompileGet(storage.ParsePath("root->name"), auth.NewRoot())
	require.NotEmpty(t, q)
	assert.Equal(t, []any{"root", "name"}, args)
	assert.Contains(t, q, "target AS root")
	assert.Contains(t, q, "source = ?")
	assert.Contains(t, q, "ORDER BY")
}

func TestCompileGetSingleBackwardStep(t *testing.T) {
	q, _ := storage.CompileGet(storage.ParsePath("target<-owner"), auth.NewRoot())
	assert.Contains(t, q, "source AS root")
	assert.Contains(t, q, "target = ?")
}

func TestCompileGetMultiStepJoinChain(t *testing.T) {
	q, args := storage.CompileGet(storage.ParsePath("huiwen->canvas->point"), auth.NewRoot())
	assert.Equal(t, []any{"huiwen", "canvas", "point"}, args)
	assert.Contains(t, q, "JOIN")
	assert.Contains(t, q, "v1.root")
	assert.Contains(t, q, "ORDER BY v1.id")
}

func TestCompileGetAppliesWriterPredicate(t *testing.T) {
	w, err := auth.NewWriter("P1", "alice")
	require.NoError(t, err)

	q, _ := storage.CompileGet(storage.ParsePath("root->name"), w)
	assert.Contains(t, q, "AND paper = 'P1'")
}

func TestCompileGetAppliesPrinterPredicate(t *testing.T) {
	p, err := auth.NewPrinter("bob")
	require.NoError(t, err)

	q, _ := storage.CompileGet(storage.ParsePath("a->b->c"), p)
	// Predicate must repeat at every join level.
	assert.Equal(t, 2, countSubstr(q, "AND pen = 'bob'"))
}

func countSubstr(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
			i += len(sub) - 1
		}
	}
	return count
}
