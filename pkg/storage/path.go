package storage

import "strings"

// Arrow is the direction of a single path step.
type Arrow int

const (
	Forward  Arrow = iota // "->": source -> target
	Backward              // "<-": target -> source
)

func (a Arrow) String() string {
	if a == Forward {
		return "->"
	}
	return "<-"
}

// Step is one (arrow, code) hop of a Path.
type Step struct {
	Arrow Arrow
	Code  string
}

// Path is a parsed path string: root (arrow code)*. Root is a bare
// identifier, a quoted literal with the quotes stripped, or empty.
type Path struct {
	Root  string
	Steps []Step
}

// findArrow returns the byte offset of the earliest "->" or "<-" in s, or
// len(s) if neither occurs. Mirrors original_source/src/engine/graph.rs
// find_arrrow exactly: ties (both present) take the smaller offset.
func findArrow(s string) int {
	p := strings.Index(s, "->")
	q := strings.Index(s, "<-")
	switch {
	case p < 0 && q < 0:
		return len(s)
	case p < 0:
		return q
	case q < 0:
		return p
	case p < q:
		return p
	default:
		return q
	}
}

// ParsePath scans a path string per spec §3/§4.1: repeatedly locate the
// next arrow; everything before the first arrow is the root, and each
// subsequent (arrow, identifier-until-next-arrow-or-end) pair is a step.
// A quoted root ("…") is taken verbatim with no steps. An empty string
// parses to the empty-root, zero-step Path.
func ParsePath(s string) Path {
	if s == "" {
		return Path{}
	}
	if strings.HasPrefix(s, `"`) {
		return Path{Root: s[1 : len(s)-1]}
	}

	cut := findArrow(s)
	root := s[:cut]
	if cut == len(s) {
		return Path{Root: root}
	}

	var steps []Step
	tail := s[cut:]
	for {
		arrow := tail[:2]
		rest := tail[2:]
		next := findArrow(rest) + 2

		var a Arrow
		if arrow == "->" {
			a = Forward
		} else {
			a = Backward
		}
		steps = append(steps, Step{Arrow: a, Code: tail[2:next]})

		if next == len(tail) {
			break
		}
		tail = tail[next:]
	}
	return Path{Root: root, Steps: steps}
}

// String reconstructs the path string this Path was parsed from (up to
// the quoting choice for the root, which is not round-tripped since a
// bare-identifier root and a quoted-literal root with identical contents
// parse to the same Path).
func (p Path) String() string {
	var b strings.Builder
	b.WriteString(p.Root)
	for _, s := range p.Steps {
		b.WriteString(s.Arrow.String())
		b.WriteString(s.Code)
	}
	return b.String()
}
