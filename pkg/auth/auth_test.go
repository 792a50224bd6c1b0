package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/edgescript/pkg/auth"
)

func TestValidateIdentifier(t *testing.T) {
	assert.NoError(t, auth.ValidateIdentifier("paper-1_A"))
	assert.Error(t, auth.ValidateIdentifier(""))
	assert.Error(t, auth.ValidateIdentifier("paper;DROP TABLE edge"))
	assert.Error(t, auth.ValidateIdentifier("paper'or 1=1"))
}

func TestRootBypassesPredicates(t *testing.T) {
	root := auth.NewRoot()
	assert.Equal(t, "", root.ReadPredicate())
	assert.Equal(t, "", root.DeletePredicate())
	assert.True(t, root.CanSee("anything", "anything"))
}

func TestWriterPredicateAndLabel(t *testing.T) {
	w, err := auth.NewWriter("P1", "alice")
	require.NoError(t, err)

	assert.Equal(t, "AND paper = 'P1'", w.ReadPredicate())
	assert.Equal(t, w.ReadPredicate(), w.DeletePredicate())

	paper, pen := w.WriteLabel()
	assert.Equal(t, "P1", paper)
	assert.Equal(t, "alice", pen)

	assert.True(t, w.CanSee("P1", "anyone"))
	assert.False(t, w.CanSee("P2", "alice"))
}

func TestPrinterPredicateAndLabel(t *testing.T) {
	p, err := auth.NewPrinter("bob")
	require.NoError(t, err)

	assert.Equal(t, "AND pen = 'bob'", p.ReadPredicate())

	paper, pen := p.WriteLabel()
	assert.Equal(t, "bob", paper)
	assert.Equal(t, "bob", pen)

	assert.True(t, p.CanSee("whatever", "bob"))
	assert.False(t, p.CanSee("whatever", "carol"))
}

func TestNewWriterRejectsBadIdentifiers(t *testing.T) {
	_, err := auth.NewWriter("P1", "bad pen")
	assert.Error(t, err)
	_, err = auth.NewWriter("bad paper", "pen")
	assert.Error(t, err)
}
