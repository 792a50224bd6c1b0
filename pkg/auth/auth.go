// Package auth implements the paper/pen authorization model that the
// resolver's SQL compiler and the buffered data manager consult on every
// edge read and write.
//
// There are three kinds of caller:
//
//   - Root bypasses every predicate; it sees and can write any edge.
//   - Writer(paper, pen) may read or write only edges whose paper column
//     equals paper. Its writes are stamped paper=paper, pen=pen.
//   - Printer(pen) may read or write only edges whose pen column equals
//     pen. Its writes are stamped paper=pen, pen=pen.
//
// The engine never mints or verifies credentials itself — a host decodes
// an opaque token into a (paper, pen) pair (or a root flag) and constructs
// an Auth value from it via NewWriter/NewPrinter/NewRoot. That decoding step is out of
// scope here by design (see spec §1, §6).
package auth

import (
	"regexp"

	"github.com/orneryd/edgescript/pkg/apperr"
)

// Kind distinguishes the three Auth variants.
type Kind int

const (
	Root Kind = iota
	Writer
	Printer
)

// identPattern is the whitelist every paper/pen value must match before it
// is rendered inline into SQL text. Path roots and step codes are always
// parameter-bound (see storage.CompileGet); paper/pen are rendered inline
// because the same value repeats across every join level of a multi-step
// path, so binding it would mean re-binding it N times for no benefit.
// Inline rendering is only safe because of this whitelist — see spec §9.
var identPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateIdentifier rejects any paper/pen value that is not composed
// solely of letters, digits, '-' and '_'. It must be called before an
// identifier is interpolated into SQL text.
func ValidateIdentifier(s string) error {
	if s == "" || !identPattern.MatchString(s) {
		return apperr.ErrAuth
	}
	return nil
}

// Auth is an immutable authorization context. The zero value is not a
// valid Auth; use NewWriter, NewPrinter or NewRoot.
type Auth struct {
	kind  Kind
	paper string
	pen   string
}

// NewRoot returns the unrestricted Auth variant.
func NewRoot() Auth {
	return Auth{kind: Root}
}

// NewWriter returns Writer(paper, pen), validating both identifiers.
func NewWriter(paper, pen string) (Auth, error) {
	if err := ValidateIdentifier(paper); err != nil {
		return Auth{}, err
	}
	if err := ValidateIdentifier(pen); err != nil {
		return Auth{}, err
	}
	return Auth{kind: Writer, paper: paper, pen: pen}, nil
}

// NewPrinter returns Printer(pen), validating the identifier.
func NewPrinter(pen string) (Auth, error) {
	if err := ValidateIdentifier(pen); err != nil {
		return Auth{}, err
	}
	return Auth{kind: Printer, pen: pen}, nil
}

func (a Auth) Kind() Kind   { return a.kind }
func (a Auth) Paper() string { return a.paper }
func (a Auth) Pen() string   { return a.pen }

// ReadPredicate returns the inline SQL fragment (possibly empty) to AND
// onto a subquery's WHERE clause so reads only see edges this Auth may
// see. The returned string is safe to splice into SQL text because paper
// and pen were validated against identPattern at construction.
func (a Auth) ReadPredicate() string {
	switch a.kind {
	case Writer:
		return "AND paper = '" + a.paper + "'"
	case Printer:
		return "AND pen = '" + a.pen + "'"
	default:
		return ""
	}
}

// WriteLabel returns the (paper, pen) pair that should be stamped on a new
// edge written under this Auth.
//
// Root has no natural label of its own; callers writing as Root must
// supply an explicit paper/pen (e.g. from the edge's existing value, or a
// default), so WriteLabel is only meaningful for Writer and Printer. It
// returns ("", "") for Root — callers must not rely on that value.
func (a Auth) WriteLabel() (paper, pen string) {
	switch a.kind {
	case Writer:
		return a.paper, a.pen
	case Printer:
		return a.pen, a.pen
	default:
		return "", ""
	}
}

// DeletePredicate returns the inline SQL fragment that scopes deletes to
// the edges this Auth may write: by paper for a writer, by pen for a
// printer, unrestricted for Root. It is a separate method so delete call
// sites are distinct from read call sites, but its body delegates to
// ReadPredicate, so the two always render identical SQL.
func (a Auth) DeletePredicate() string {
	return a.ReadPredicate()
}

// CanSee reports whether this Auth is permitted to observe an edge already
// labelled (paper, pen). Root always can; Writer checks paper; Printer
// checks pen. It is the in-memory form of ReadPredicate's rule; the
// MemTable and the commit path do not call it.
func (a Auth) CanSee(paper, pen string) bool {
	switch a.kind {
	case Writer:
		return paper == a.paper
	case Printer:
		return pen == a.pen
	default:
		return true
	}
}
