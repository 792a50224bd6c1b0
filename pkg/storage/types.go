// Package storage implements the durable edge store and its supporting
// in-memory structures: the join-chain SQL compiler, the path string
// parser, and the dual-indexed MemTable. It is the lowest layer of
// edgescript — pkg/datamanager builds the write-buffering contract on top
// of it.
package storage

import "errors"

// Edge is the relational row shape of spec §3 and §6, bit-exact over
// column names: source/code/target are free-form identifiers, paper/pen
// are the authorization label, and ID is the auto-increment insertion
// order used for fibre iteration order.
type Edge struct {
	Source string
	Code   string
	Target string
	Paper  string
	Pen    string
	ID     int64
}

// Sentinel errors declared in the sentinel-error idiom the teacher repo
// uses throughout its storage package. No Store method returns them; Store
// methods wrap database/sql errors with fmt.Errorf instead.
var (
	ErrClosed      = errors.New("storage: closed")
	ErrInvalidEdge = errors.New("storage: invalid edge")
)

// IsTemp reports whether an identifier is session-scoped: any of source,
// code or target beginning with '$' makes the whole edge temporary (spec
// §3, §4.3).
func IsTemp(source, code, target string) bool {
	return hasDollar(source) || hasDollar(code) || hasDollar(target)
}

// IsTempIdent reports whether a single identifier begins with '$'. A fibre
// (source, code) or (code, target) is temp if either half is temp.
func IsTempIdent(s string) bool {
	return hasDollar(s)
}

func hasDollar(s string) bool {
	return len(s) > 0 && s[0] == '$'
}
