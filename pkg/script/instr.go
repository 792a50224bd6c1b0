// Package script implements the interpreter, function library and
// script-tree driver of spec §4.5–§4.7: parsing five-token instruction
// lines, substituting and resolving their operands against a
// datamanager.DM, dispatching to built-ins or recursing into user-defined
// functions, and folding a tree of scripts into a single merged result.
package script

import (
	"fmt"
	"strings"

	"github.com/orneryd/edgescript/pkg/apperr"
)

// Instr is one parsed instruction line: output operator function input
// input1. Fields hold the raw (pre-substitution) tokens, matching
// original_source/src/engine/inc.rs's Inc.
type Instr struct {
	Output   string
	Operator string
	Function string
	Input    string
	Input1   string
}

// String renders the instruction back to its five-token line.
func (i Instr) String() string {
	return strings.Join([]string{i.Output, i.Operator, i.Function, i.Input, i.Input1}, " ")
}

// ParseScript splits script into lines, skips empty ones, and parses every
// remaining line into an Instr. Any line that does not split into exactly
// five space-separated tokens is a parse error (spec §4.6, §6).
func ParseScript(script string) ([]Instr, error) {
	var out []Instr
	for _, line := range strings.Split(script, "\n") {
		if line == "" {
			continue
		}
		words := strings.Split(line, " ")
		if len(words) != 5 {
			return nil, fmt.Errorf("%w: line %q: want 5 tokens, got %d", apperr.ErrParse, line, len(words))
		}
		out = append(out, Instr{
			Output:   strings.TrimSpace(words[0]),
			Operator: strings.TrimSpace(words[1]),
			Function: strings.TrimSpace(words[2]),
			Input:    strings.TrimSpace(words[3]),
			Input1:   strings.TrimSpace(words[4]),
		})
	}
	return out, nil
}

// UnparseScript is ParseScript's inverse (spec §8 invariant 7): one
// instruction per line, in order.
func UnparseScript(instrs []Instr) string {
	lines := make([]string, len(instrs))
	for i, ins := range instrs {
		lines[i] = ins.String()
	}
	return strings.Join(lines, "\n")
}
