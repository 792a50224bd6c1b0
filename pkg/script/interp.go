package script

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/orneryd/edgescript/pkg/apperr"
	"github.com/orneryd/edgescript/pkg/datamanager"
)

// UnwrapValue substitutes one operand token against the current recursion
// root, per spec §4.6:
//
//	"?"      -> a fresh UUID
//	"$"      -> root
//	"_"      -> the empty string
//	"$->..." -> root + "->..."
//	"$<-..." -> root + "<-..."
//	anything else (including a quoted literal) is passed through verbatim.
func UnwrapValue(root, value string) string {
	switch {
	case value == "?":
		return uuid.NewString()
	case value == "$":
		return root
	case value == "_":
		return ""
	case strings.HasPrefix(value, "$->"), strings.HasPrefix(value, "$<-"):
		return root + value[1:]
	default:
		return value
	}
}

// resolveSingle substitutes and resolves a path operand (operator or
// function) and requires it to name exactly one endpoint (spec §4.6 step
// 1).
func resolveSingle(ctx context.Context, dm *datamanager.DM, root, raw string) (string, error) {
	path := UnwrapValue(root, raw)
	vals, err := dm.Get(ctx, path)
	if err != nil {
		return "", err
	}
	if len(vals) != 1 {
		return "", fmt.Errorf("%w: %q resolved to %d endpoints, want exactly 1", apperr.ErrResolution, path, len(vals))
	}
	return vals[0], nil
}

// assign writes rs to outPath under operator's semantics: "=" replaces the
// fibre (DM.Set), "+=" appends (DM.Append). Writing to an empty output (no
// endpoint to write to) is a no-op, handled inside DM.Set/Append already.
func assign(ctx context.Context, dm *datamanager.DM, outPath, operator string, rs []string) error {
	if operator == "=" {
		return dm.Set(ctx, outPath, rs)
	}
	return dm.Append(ctx, outPath, rs)
}

// RunInstrs executes a parsed instruction list against root, in order
// (spec §4.6). Each instruction's output/operator/function/input/input1
// are substituted, operator and function are resolved to single
// endpoints, input and input1 are resolved to endpoint lists, and the
// resulting function (built-in or user-defined) is invoked and assigned.
func RunInstrs(ctx context.Context, dm *datamanager.DM, root string, instrs []Instr) error {
	for _, raw := range instrs {
		if err := runOne(ctx, dm, root, raw); err != nil {
			return err
		}
	}
	return nil
}

func runOne(ctx context.Context, dm *datamanager.DM, root string, raw Instr) error {
	outPath := UnwrapValue(root, raw.Output)

	operator, err := resolveSingle(ctx, dm, root, raw.Operator)
	if err != nil {
		return err
	}
	function, err := resolveSingle(ctx, dm, root, raw.Function)
	if err != nil {
		return err
	}

	input, err := dm.Get(ctx, UnwrapValue(root, raw.Input))
	if err != nil {
		return err
	}
	input1, err := dm.Get(ctx, UnwrapValue(root, raw.Input1))
	if err != nil {
		return err
	}

	var rs []string
	if fn, ok := Builtins[function]; ok {
		rs, err = fn(ctx, dm, input, input1)
	} else {
		rs, err = invokeUserFunction(ctx, dm, function, input, input1)
	}
	if err != nil {
		return err
	}
	return assign(ctx, dm, outPath, operator, rs)
}

// invokeUserFunction dispatches an unrecognized function name as a
// user-defined function (spec §4.6 step 3): its body is the instruction
// list stored as `function->inc` handles, each handle's fields read back
// with a direct (unresolved) single-value lookup — the instruction
// descriptors are data, not paths, at this point. A fresh recursion root
// is allocated, input/input1 are seeded under it, the body runs against
// that root, and `$root->$output` is read back as the return value. A
// function name with no inc handles is unresolved (spec §7:
// UnknownFunction is a ResolutionError).
func invokeUserFunction(ctx context.Context, dm *datamanager.DM, function string, input, input1 []string) ([]string, error) {
	handles, err := dm.Get(ctx, function+"->inc")
	if err != nil {
		return nil, err
	}
	if len(handles) == 0 {
		return nil, fmt.Errorf("%w: unknown function %q", apperr.ErrResolution, function)
	}

	body := make([]Instr, 0, len(handles))
	for _, h := range handles {
		ins, err := loadInstrDescriptor(ctx, dm, h)
		if err != nil {
			return nil, err
		}
		body = append(body, ins)
	}

	newRoot := "$" + uuid.NewString()
	if err := dm.Set(ctx, newRoot+"->$input", input); err != nil {
		return nil, err
	}
	if err := dm.Set(ctx, newRoot+"->$input1", input1); err != nil {
		return nil, err
	}
	if err := RunInstrs(ctx, dm, newRoot, body); err != nil {
		return nil, err
	}
	return dm.Get(ctx, newRoot+"->$output")
}

func loadInstrDescriptor(ctx context.Context, dm *datamanager.DM, handle string) (Instr, error) {
	fields := [5]string{}
	names := [5]string{"output", "operator", "function", "input", "input1"}
	for i, name := range names {
		v, err := dm.GetSingleTarget(ctx, handle, name)
		if err != nil {
			return Instr{}, err
		}
		fields[i] = v
	}
	return Instr{
		Output:   fields[0],
		Operator: fields[1],
		Function: fields[2],
		Input:    fields[3],
		Input1:   fields[4],
	}, nil
}
