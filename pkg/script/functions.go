package script

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"

	"github.com/orneryd/edgescript/pkg/apperr"
	"github.com/orneryd/edgescript/pkg/datamanager"
)

// Func is the signature every built-in and user-defined function shares:
// (DM, input, input1) -> output (spec §4.5).
type Func func(ctx context.Context, dm *datamanager.DM, input, input1 []string) ([]string, error)

// Builtins is the built-in function table dispatched by name. A function
// name absent from this table is a user function (see invokeUserFunction).
var Builtins = map[string]Func{
	"=":    fnSet,
	"set":  fnSet,
	"append": fnAppend,
	"distinct": fnDistinct,
	"left":  fnLeft,
	"inner": fnInner,

	"+": fnAdd,
	"-": fnSub,
	"*": fnMul,
	"/": fnDiv,
	"%": fnMod,

	"==": fnEqual,
	">":  fnGreater,
	"<":  fnSmaller,

	"count": fnCount,
	"sum":   fnSum,

	"new":  fnNew,
	"line": fnLine,
	"rand": fnRand,

	"sort": fnSort,
}

func fnSet(_ context.Context, _ *datamanager.DM, input, _ []string) ([]string, error) {
	out := make([]string, 0, len(input))
	for _, s := range input {
		if s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func fnAppend(_ context.Context, _ *datamanager.DM, input, input1 []string) ([]string, error) {
	out := make([]string, 0, len(input)+len(input1))
	out = append(out, input...)
	out = append(out, input1...)
	return out, nil
}

func fnDistinct(_ context.Context, _ *datamanager.DM, input, _ []string) ([]string, error) {
	seen := make(map[string]bool, len(input))
	out := make([]string, 0, len(input))
	for _, s := range input {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, nil
}

// fnLeft returns the order-preserving set difference input \ input1 (spec
// §8 S3 pins this: root->a=[1,2,3], root->b=[2,3,4], left(a,b) == [1]).
func fnLeft(_ context.Context, _ *datamanager.DM, input, input1 []string) ([]string, error) {
	exclude := make(map[string]bool, len(input1))
	for _, s := range input1 {
		exclude[s] = true
	}
	out := make([]string, 0, len(input))
	for _, s := range input {
		if !exclude[s] {
			out = append(out, s)
		}
	}
	return out, nil
}

// fnInner returns the order-preserving intersection of input and input1.
func fnInner(_ context.Context, _ *datamanager.DM, input, input1 []string) ([]string, error) {
	have := make(map[string]bool, len(input1))
	for _, s := range input1 {
		have[s] = true
	}
	out := make([]string, 0, len(input))
	for _, s := range input {
		if have[s] {
			out = append(out, s)
		}
	}
	return out, nil
}

func arithPairwise(input, input1 []string, op func(a, b float64) float64) []string {
	n := len(input)
	if len(input1) < n {
		n = len(input1)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		a, err := strconv.ParseFloat(input[i], 64)
		if err != nil {
			continue
		}
		b, err := strconv.ParseFloat(input1[i], 64)
		if err != nil {
			continue
		}
		out = append(out, strconv.FormatFloat(op(a, b), 'f', -1, 64))
	}
	return out
}

func fnAdd(_ context.Context, _ *datamanager.DM, input, input1 []string) ([]string, error) {
	return arithPairwise(input, input1, func(a, b float64) float64 { return a + b }), nil
}

func fnSub(_ context.Context, _ *datamanager.DM, input, input1 []string) ([]string, error) {
	return arithPairwise(input, input1, func(a, b float64) float64 { return a - b }), nil
}

func fnMul(_ context.Context, _ *datamanager.DM, input, input1 []string) ([]string, error) {
	return arithPairwise(input, input1, func(a, b float64) float64 { return a * b }), nil
}

func fnDiv(_ context.Context, _ *datamanager.DM, input, input1 []string) ([]string, error) {
	return arithPairwise(input, input1, func(a, b float64) float64 { return a / b }), nil
}

func fnMod(_ context.Context, _ *datamanager.DM, input, input1 []string) ([]string, error) {
	return arithPairwise(input, input1, func(a, b float64) float64 {
		if b == 0 {
			return 0
		}
		r := a - b*float64(int64(a/b))
		return r
	}), nil
}

func comparePairwise(input, input1 []string, op func(a, b float64) bool) []string {
	n := len(input)
	if len(input1) < n {
		n = len(input1)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		a, err := strconv.ParseFloat(input[i], 64)
		if err != nil {
			continue
		}
		b, err := strconv.ParseFloat(input1[i], 64)
		if err != nil {
			continue
		}
		if op(a, b) {
			out = append(out, "true")
		} else {
			out = append(out, "false")
		}
	}
	return out
}

func fnEqual(_ context.Context, _ *datamanager.DM, input, input1 []string) ([]string, error) {
	return comparePairwise(input, input1, func(a, b float64) bool { return a == b }), nil
}

func fnGreater(_ context.Context, _ *datamanager.DM, input, input1 []string) ([]string, error) {
	return comparePairwise(input, input1, func(a, b float64) bool { return a > b }), nil
}

func fnSmaller(_ context.Context, _ *datamanager.DM, input, input1 []string) ([]string, error) {
	return comparePairwise(input, input1, func(a, b float64) bool { return a < b }), nil
}

func fnCount(_ context.Context, _ *datamanager.DM, input, _ []string) ([]string, error) {
	return []string{strconv.Itoa(len(input))}, nil
}

func fnSum(_ context.Context, _ *datamanager.DM, input, _ []string) ([]string, error) {
	var total float64
	for _, s := range input {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			continue
		}
		total += v
	}
	return []string{strconv.FormatFloat(total, 'f', -1, 64)}, nil
}

// fnNew returns n copies of x. Both input and input1 must be single
// element (spec §4.5, §7: InvalidArgs is a ResolutionError variant).
func fnNew(_ context.Context, _ *datamanager.DM, input, input1 []string) ([]string, error) {
	if len(input) != 1 || len(input1) != 1 {
		return nil, fmt.Errorf("%w: new requires single-element input and input1", apperr.ErrResolution)
	}
	n, err := strconv.Atoi(input[0])
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: new: invalid count %q", apperr.ErrResolution, input[0])
	}
	out := make([]string, n)
	for i := range out {
		out[i] = input1[0]
	}
	return out, nil
}

// fnLine returns an arithmetic sequence of length n starting at start,
// step 1.0.
func fnLine(_ context.Context, _ *datamanager.DM, input, input1 []string) ([]string, error) {
	if len(input) != 1 || len(input1) != 1 {
		return nil, fmt.Errorf("%w: line requires single-element input and input1", apperr.ErrResolution)
	}
	n, err := strconv.Atoi(input[0])
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: line: invalid length %q", apperr.ErrResolution, input[0])
	}
	start, err := strconv.ParseFloat(input1[0], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: line: invalid start %q", apperr.ErrResolution, input1[0])
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = strconv.FormatFloat(start+float64(i), 'f', -1, 64)
	}
	return out, nil
}

// fnRand returns n random hex strings of length width, drawn from
// crypto/rand (spec §5: the RNG need not be deterministic, but must be
// cryptographically strong).
func fnRand(_ context.Context, _ *datamanager.DM, input, input1 []string) ([]string, error) {
	if len(input) != 1 || len(input1) != 1 {
		return nil, fmt.Errorf("%w: rand requires single-element input and input1", apperr.ErrResolution)
	}
	n, err := strconv.Atoi(input[0])
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: rand: invalid count %q", apperr.ErrResolution, input[0])
	}
	width, err := strconv.Atoi(input1[0])
	if err != nil || width < 0 {
		return nil, fmt.Errorf("%w: rand: invalid width %q", apperr.ErrResolution, input1[0])
	}
	out := make([]string, n)
	for i := range out {
		s, err := randomHex(width)
		if err != nil {
			return nil, fmt.Errorf("%w: rand: %v", apperr.ErrStorage, err)
		}
		out[i] = s
	}
	return out, nil
}

func randomHex(width int) (string, error) {
	buf := make([]byte, (width+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf)[:width], nil
}

// fnSort stable-sorts input by the `$no` target of each element, looked
// up via DM (spec §4.5).
func fnSort(ctx context.Context, dm *datamanager.DM, input, _ []string) ([]string, error) {
	type keyed struct {
		item string
		no   string
	}
	pairs := make([]keyed, len(input))
	for i, item := range input {
		no, err := dm.GetSingleTarget(ctx, item, "$no")
		if err != nil {
			return nil, err
		}
		pairs[i] = keyed{item: item, no: no}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].no < pairs[j].no })
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.item
	}
	return out, nil
}
