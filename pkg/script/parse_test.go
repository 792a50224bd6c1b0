package script_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/edgescript/pkg/script"
)

// Invariant 7: unparse(parse(s)) == s for a well-formed, newline-joined
// script with no blank lines.
func TestParseUnparseRoundTrip(t *testing.T) {
	src := "$->$output = + $->$left $->$right\n" +
		"root->a = set root->a _\n" +
		"$->$output += F input input1"

	instrs, err := script.ParseScript(src)
	require.NoError(t, err)
	require.Len(t, instrs, 3)
	assert.Equal(t, src, script.UnparseScript(instrs))
}

func TestParseScriptSkipsBlankLines(t *testing.T) {
	instrs, err := script.ParseScript("\n$->$output = + a b\n\n")
	require.NoError(t, err)
	require.Len(t, instrs, 1)
	assert.Equal(t, "$->$output", instrs[0].Output)
}

func TestParseScriptRejectsWrongTokenCount(t *testing.T) {
	_, err := script.ParseScript("$->$output = + a")
	assert.Error(t, err)
}

func TestInstrStringJoinsFiveTokens(t *testing.T) {
	i := script.Instr{Output: "o", Operator: "=", Function: "f", Input: "i", Input1: "i1"}
	assert.Equal(t, "o = f i i1", i.String())
}
