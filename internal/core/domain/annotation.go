package domain

import "strings"

// Annotation anchors a Risk to its exact byte offset in the source text.
type Annotation struct {
	ID       string
	Clause   string
	Risk     Risk
	Position int
}

// Valid reports whether sourceText[Position:Position+len(Clause)] == Clause.
func (a Annotation) Valid(sourceText string) bool {
	end := a.Position + len(a.Clause)
	if a.Position < 0 || end > len(sourceText) {
		return false
	}
	return sourceText[a.Position:end] == a.Clause
}

// LocateClause finds the first byte offset of clause within sourceText,
// starting the search at or after from. Returns -1 if not found.
func LocateClause(sourceText, clause string, from int) int {
	if from < 0 {
		from = 0
	}
	if from > len(sourceText) {
		return -1
	}
	idx := strings.Index(sourceText[from:], clause)
	if idx < 0 {
		return -1
	}
	return from + idx
}

// NewAnnotation builds an Annotation for risk by locating its clause in
// sourceText starting the search at searchFrom. Returns ok=false when the
// clause cannot be located, in which case the caller should drop it rather
// than emit a position that violates the invariant.
func NewAnnotation(id string, risk Risk, sourceText string, searchFrom int) (Annotation, bool) {
	pos := LocateClause(sourceText, risk.Clause, searchFrom)
	if pos < 0 {
		return Annotation{}, false
	}
	return Annotation{ID: id, Clause: risk.Clause, Risk: risk, Position: pos}, true
}
