package storage

import (
	"fmt"
	"strings"

	"github.com/orneryd/edgescript/pkg/auth"
)

// side says which column a step reads its resolved endpoint from: the
// column opposite the arrow's direction.
func (s Step) side() (selectCol, joinCol string) {
	if s.Arrow == Forward {
		return "target", "source"
	}
	return "source", "target"
}

// CompileGet compiles a Path into a parameter-bound, auth-scoped SQL query
// of the shape described in spec §4.1: a chain of subqueries over edge,
// one per step, joined on the traversal direction, ordered by the id of
// the last join level (the terminal edge's insertion order).
//
// The root and each step's code are returned as bind parameters in args,
// in the order their '?' placeholders appear in the query text. auth's
// predicate is rendered inline (see auth.Auth.ReadPredicate) since it
// repeats identically across every subquery level.
//
// CompileGet returns ("", nil) for a zero-step path — callers resolve that
// case without touching the store (empty root -> empty list, bare root ->
// itself).
func CompileGet(p Path, a auth.Auth) (query string, args []any) {
	if len(p.Steps) == 0 {
		return "", nil
	}

	predicate := a.ReadPredicate()
	step0 := p.Steps[0]
	selectCol, joinCol := step0.side()

	if len(p.Steps) == 1 {
		q := fmt.Sprintf(
			"SELECT id, %s AS root FROM edge WHERE %s = ? AND code = ? %s ORDER BY id",
			selectCol, joinCol, predicate,
		)
		return q, []any{p.Root, step0.Code}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT vN.id, vN.root FROM (SELECT %s AS root, id FROM edge WHERE %s = ? AND code = ? %s) v0",
		selectCol, joinCol, predicate)
	args = append(args, p.Root, step0.Code)

	last := "v0"
	lastRootExpr := "v0.root"
	for i, step := range p.Steps[1:] {
		name := fmt.Sprintf("v%d", i+1)
		selCol, jCol := step.side()
		fmt.Fprintf(&b,
			"\nJOIN (SELECT %s AS root, %s, id FROM edge WHERE code = ? %s) %s ON %s.%s = %s",
			selCol, jCol, predicate, name, name, jCol, lastRootExpr,
		)
		args = append(args, step.Code)
		last = name
		lastRootExpr = last + ".root"
	}
	query = strings.Replace(b.String(), "vN", last, 2) + "\nORDER BY " + last + ".id"
	return query, args
}
