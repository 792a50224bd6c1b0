package script_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/edgescript/pkg/script"
	"github.com/orneryd/edgescript/pkg/wire"
)

// S6 — script tree.
func TestScenarioS6ScriptTreeMerge(t *testing.T) {
	ctx := context.Background()
	dm := newTestDM(t)

	require.NoError(t, dm.Set(ctx, "root->x", []string{"u", "v"}))

	tree := wire.ScriptTree{
		Script: "$->$output = = root->x _",
		Name:   "r",
		Next: []wire.ScriptTree{
			{Script: "$->$output = = $->$input _", Name: "echo"},
		},
	}

	out, err := script.Execute(ctx, dm, tree)
	require.NoError(t, err)

	r, ok := out["r"].(map[string]any)
	require.True(t, ok, "out[\"r\"] should be a map, got %T", out["r"])
	assert.Equal(t, [][]string{{"u"}, {"v"}}, r["echo"])
}

func TestExecuteLeafNodeReturnsRawList(t *testing.T) {
	ctx := context.Background()
	dm := newTestDM(t)
	require.NoError(t, dm.Set(ctx, "root->name", []string{"edge"}))

	tree := wire.ScriptTree{Script: "$->$output = = root->name _", Name: "leaf"}
	out, err := script.Execute(ctx, dm, tree)
	require.NoError(t, err)
	assert.Equal(t, []string{"edge"}, out["leaf"])
}
