package script_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/edgescript/pkg/auth"
	"github.com/orneryd/edgescript/pkg/datamanager"
	"github.com/orneryd/edgescript/pkg/script"
	"github.com/orneryd/edgescript/pkg/storage"
)

func newTestDM(t *testing.T) *datamanager.DM {
	t.Helper()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return datamanager.New(store, auth.NewRoot())
}

// S1 — arithmetic.
func TestScenarioS1Arithmetic(t *testing.T) {
	ctx := context.Background()
	dm := newTestDM(t)

	instrs, err := script.ParseScript(
		"$->$left = new 100 100\n" +
			"$->$right = new 100 100\n" +
			"$->$output = + $->$left $->$right",
	)
	require.NoError(t, err)
	require.NoError(t, script.RunInstrs(ctx, dm, "$root", instrs))

	out, err := dm.Get(ctx, "$root->$output")
	require.NoError(t, err)
	require.Len(t, out, 100)
	for _, v := range out {
		assert.Equal(t, "200", v)
	}
}

// S2 — identity.
func TestScenarioS2Identity(t *testing.T) {
	ctx := context.Background()
	dm := newTestDM(t)

	require.NoError(t, dm.Set(ctx, "root->name", []string{"edge"}))

	instrs, err := script.ParseScript("$->$output = = root->name _")
	require.NoError(t, err)
	require.NoError(t, script.RunInstrs(ctx, dm, "$root", instrs))

	out, err := dm.Get(ctx, "$root->$output")
	require.NoError(t, err)
	assert.Equal(t, []string{"edge"}, out)
}

// S3 — inner/left.
func TestScenarioS3InnerLeft(t *testing.T) {
	ctx := context.Background()
	dm := newTestDM(t)

	require.NoError(t, dm.Set(ctx, "root->a", []string{"1", "2", "3"}))
	require.NoError(t, dm.Set(ctx, "root->b", []string{"2", "3", "4"}))

	innerInstrs, err := script.ParseScript("$->$output = inner root->a root->b")
	require.NoError(t, err)
	require.NoError(t, script.RunInstrs(ctx, dm, "$s3a", innerInstrs))
	inner, err := dm.Get(ctx, "$s3a->$output")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, inner)

	leftInstrs, err := script.ParseScript("$->$output = left root->a root->b")
	require.NoError(t, err)
	require.NoError(t, script.RunInstrs(ctx, dm, "$s3b", leftInstrs))
	left, err := dm.Get(ctx, "$s3b->$output")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, left)
}

// S4 — user function.
func TestScenarioS4UserFunction(t *testing.T) {
	ctx := context.Background()
	dm := newTestDM(t)

	require.NoError(t, dm.Append(ctx, "F->inc", []string{"h1"}))
	require.NoError(t, dm.Set(ctx, "h1->output", []string{"$->$output"}))
	require.NoError(t, dm.Set(ctx, "h1->operator", []string{"="}))
	require.NoError(t, dm.Set(ctx, "h1->function", []string{"+"}))
	require.NoError(t, dm.Set(ctx, "h1->input", []string{"$->$input"}))
	require.NoError(t, dm.Set(ctx, "h1->input1", []string{"$->$input1"}))

	instrs, err := script.ParseScript(`$->$output = F "3" "4"`)
	require.NoError(t, err)
	require.NoError(t, script.RunInstrs(ctx, dm, "$s4", instrs))

	out, err := dm.Get(ctx, "$s4->$output")
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, out)
}

// Invariant 6: distinct(append(X, X)) == distinct(X).
func TestInvariantDistinctOfAppendedSelf(t *testing.T) {
	ctx := context.Background()
	dm := newTestDM(t)

	x := []string{"a", "b", "a", "c"}
	appended, err := script.Builtins["append"](ctx, dm, x, x)
	require.NoError(t, err)

	distinctAppended, err := script.Builtins["distinct"](ctx, dm, appended, nil)
	require.NoError(t, err)
	distinctX, err := script.Builtins["distinct"](ctx, dm, x, nil)
	require.NoError(t, err)

	assert.Equal(t, distinctX, distinctAppended)
}

func TestFnSetFiltersEmpty(t *testing.T) {
	ctx := context.Background()
	dm := newTestDM(t)
	out, err := script.Builtins["="](ctx, dm, []string{"a", "", "b", ""}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out)
}

func TestFnCountAndSum(t *testing.T) {
	ctx := context.Background()
	dm := newTestDM(t)

	count, err := script.Builtins["count"](ctx, dm, []string{"a", "b", "c"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, count)

	sum, err := script.Builtins["sum"](ctx, dm, []string{"1", "2", "not-a-number", "3"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"6"}, sum)
}

func TestFnNewRequiresSingleElementInputs(t *testing.T) {
	ctx := context.Background()
	dm := newTestDM(t)
	_, err := script.Builtins["new"](ctx, dm, []string{"1", "2"}, []string{"x"})
	assert.Error(t, err)
}

func TestFnRandProducesRequestedWidthAndCount(t *testing.T) {
	ctx := context.Background()
	dm := newTestDM(t)
	out, err := script.Builtins["rand"](ctx, dm, []string{"5"}, []string{"8"})
	require.NoError(t, err)
	require.Len(t, out, 5)
	for _, s := range out {
		assert.Len(t, s, 8)
	}
}
