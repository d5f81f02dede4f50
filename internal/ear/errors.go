package ear

import (
	"fmt"
	"strings"
)

// A Location identifies a single point in a source file, for use in
// diagnostics.
type Location struct {
	File   string
	Line   int
	Column int
	Source string // the full text of the offending line
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column+1)
}

// Show renders the location as a file:line:column header followed by the
// offending source line and a "~~~^" arrow pointing at the column.
func (l Location) Show() string {
	return fmt.Sprintf("%s\n%s\n%s^", l.String(), l.Source, strings.Repeat("~", l.Column))
}

func locAt(file string, s span) Location {
	return Location{File: file, Line: s.row, Column: s.col, Source: s.line}
}

// LexicalError reports an unrecognized character or malformed numeric
// literal.
type LexicalError struct {
	Loc Location
	Msg string
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("lexical error: %s\n%s", e.Msg, e.Loc.Show())
}

// SyntaxError reports a grammar violation or malformed operand shape.
type SyntaxError struct {
	Loc Location
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error: %s\n%s", e.Msg, e.Loc.Show())
}

// NameError reports an undefined, duplicate, or mis-scoped symbol, or an
// attempt to redefine a reserved/auto symbol or export a local/special name.
type NameError struct {
	Loc  Location
	Name string
	Msg  string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("name error: %s: %s\n%s", e.Name, e.Msg, e.Loc.Show())
}

// ValueError reports a port/immediate/register encoding out of its
// representable range.
type ValueError struct {
	Loc Location
	Msg string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("value error: %s\n%s", e.Msg, e.Loc.Show())
}

// AssertionFailure reports a `.assert` comparison that evaluated false.
type AssertionFailure struct {
	Loc  Location
	Expr string
}

func (e *AssertionFailure) Error() string {
	return fmt.Sprintf("assertion failed: %s\n%s", e.Expr, e.Loc.Show())
}

// ImportError reports an `.import` target that could not be resolved
// against the importer's directory or any configured search path.
type ImportError struct {
	Loc  Location
	Path string
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import error: %q not found\n%s", e.Path, e.Loc.Show())
}
