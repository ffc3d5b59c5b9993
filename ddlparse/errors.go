package ddlparse

import (
	"fmt"

	"github.com/ggm-tools/ddlmodel/sqllex"
)

// ParseError describes a statement which could not be turned into a table
// definition. Parsing carries on past it.
type ParseError struct {
	File     string
	Table    string
	Line     int
	Column   int
	Fragment string
	Msg      string
}

func (e *ParseError) Error() string {
	where := e.File
	if e.Line > 0 {
		where = fmt.Sprintf("%s:%d:%d", e.File, e.Line, e.Column)
	}
	if e.Table != "" {
		return fmt.Sprintf("%s: table %s: %s (near %q)", where, e.Table, e.Msg, e.Fragment)
	}
	return fmt.Sprintf("%s: %s (near %q)", where, e.Msg, e.Fragment)
}

const maxFragmentTokens = 12

func newParseError(toks []sqllex.Token, table string, format string, args ...interface{}) *ParseError {
	e := &ParseError{
		Table: table,
		Msg:   fmt.Sprintf(format, args...),
	}
	if len(toks) > 0 {
		e.File = toks[0].Pos.Filename
		e.Line = toks[0].Pos.Line
		e.Column = toks[0].Pos.Column
		frag := toks
		if len(frag) > maxFragmentTokens {
			frag = frag[:maxFragmentTokens]
		}
		e.Fragment = sqllex.Join(frag)
		if len(toks) > maxFragmentTokens {
			e.Fragment += " ..."
		}
	}
	return e
}
