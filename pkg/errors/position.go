package errors

// Position represents a location in a source document, such as a scenario file.
// Line and Column are 1-based; a zero Line means the position is unknown.
type Position struct {
	Line   int    // 1-based line number
	Column int    // 1-based column number
	File   string // Source file name, if any
}

// IsKnown reports whether the position points at a real location.
func (p Position) IsKnown() bool { return p.Line > 0 }
