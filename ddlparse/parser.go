// Package ddlparse turns CREATE TABLE DDL into a table catalog. The parser
// is permissive: anything it does not need is skipped, and statements it
// cannot make sense of are reported without stopping the rest.
package ddlparse

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ggm-tools/ddlmodel/catalog"
	"github.com/ggm-tools/ddlmodel/dbtable"
	"github.com/ggm-tools/ddlmodel/sqllex"
)

// Source is a named piece of DDL text.
type Source struct {
	Name string
	Text string
}

// Result is the outcome of parsing. Catalog holds every table that parsed;
// Errors holds the statements that did not.
type Result struct {
	Catalog *catalog.Catalog
	Errors  []*ParseError
}

// Err combines all parse errors into one, or returns nil.
func (r Result) Err() error {
	var err error
	for _, e := range r.Errors {
		err = errors.CombineErrors(err, e)
	}
	return err
}

type statement interface {
	apply(c *catalog.Catalog) *ParseError
}

// parsedSource is a source split into statements, ready to be applied.
type parsedSource struct {
	stmts  []statement
	errors []*ParseError
}

// Parse parses the given sources in order. A table defined more than once is
// taken from its last definition.
func Parse(sources ...Source) Result {
	parsed := make([]parsedSource, len(sources))
	for i, src := range sources {
		parsed[i] = parseSource(src)
	}
	return applyAll(parsed)
}

func applyAll(parsed []parsedSource) Result {
	res := Result{Catalog: catalog.New()}
	for _, p := range parsed {
		res.Errors = append(res.Errors, p.errors...)
		for _, stmt := range p.stmts {
			if err := stmt.apply(res.Catalog); err != nil {
				res.Errors = append(res.Errors, err)
			}
		}
	}
	return res
}

// rawStatement is a run of tokens between statement boundaries. Commented
// statements were recovered from line comments.
type rawStatement struct {
	toks      []sqllex.Token
	commented bool
}

func parseSource(src Source) parsedSource {
	var ret parsedSource
	toks, err := sqllex.Lex(src.Name, src.Text)
	if err != nil {
		ret.errors = append(ret.errors, &ParseError{File: src.Name, Msg: err.Error()})
		return ret
	}
	for _, raw := range splitStatements(toks) {
		stmts, perr := parseStatement(raw.toks)
		if raw.commented {
			// Commented out keys are best effort.
			for _, stmt := range stmts {
				if _, ok := stmt.(addForeignKey); ok {
					ret.stmts = append(ret.stmts, commentedStatement{stmt})
				}
			}
			continue
		}
		if perr != nil {
			ret.errors = append(ret.errors, perr)
			continue
		}
		ret.stmts = append(ret.stmts, stmts...)
	}
	return ret
}

func parseStatement(toks []sqllex.Token) ([]statement, *ParseError) {
	if len(toks) == 0 {
		return nil, nil
	}
	switch {
	case toks[0].Is("CREATE"):
		stmt, err := parseCreate(toks)
		if err != nil || stmt == nil {
			return nil, err
		}
		return []statement{stmt}, nil
	case toks[0].Is("ALTER"):
		return parseAlter(toks)
	case toks[0].Is("COMMENT"):
		stmt, err := parseComment(toks)
		if err != nil || stmt == nil {
			return nil, err
		}
		return []statement{stmt}, nil
	}
	return nil, nil
}

// splitStatements splits tokens at semicolons and before every CREATE, so an
// unterminated statement cannot swallow the next table. Line comments
// holding an ALTER TABLE are lexed and returned as commented statements.
func splitStatements(toks []sqllex.Token) []rawStatement {
	var ret []rawStatement
	var pending []rawStatement
	var cur []sqllex.Token
	flush := func() {
		if len(cur) > 0 {
			ret = append(ret, rawStatement{toks: cur})
			cur = nil
		}
		ret = append(ret, pending...)
		pending = nil
	}
	for _, t := range toks {
		switch {
		case t.Kind == sqllex.Comment:
			pending = append(pending, commentedStatements(t)...)
			if len(cur) == 0 {
				flush()
			}
		case t.IsPunct(";"):
			flush()
		case t.Is("CREATE"):
			flush()
			cur = append(cur, t)
		default:
			cur = append(cur, t)
		}
	}
	flush()
	return ret
}

func commentedStatements(t sqllex.Token) []rawStatement {
	if !strings.HasPrefix(t.Value, "--") {
		return nil
	}
	body := strings.TrimSpace(strings.TrimLeft(t.Value, "-"))
	if len(body) < len("ALTER TABLE") || !strings.EqualFold(body[:len("ALTER TABLE")], "ALTER TABLE") {
		return nil
	}
	toks, err := sqllex.Lex(t.Pos.Filename, body)
	if err != nil {
		return nil
	}
	var ret []rawStatement
	for _, stmt := range sqllex.SplitTopLevel(sqllex.WithoutComments(toks), ";") {
		for i := range stmt {
			stmt[i].Pos = t.Pos
		}
		if len(stmt) > 0 {
			ret = append(ret, rawStatement{toks: stmt, commented: true})
		}
	}
	return ret
}

func (s createTable) apply(c *catalog.Catalog) *ParseError {
	c.Put(s.table)
	return nil
}

func (s addPrimaryKey) apply(c *catalog.Catalog) *ParseError {
	tbl, ok := c.Get(s.table.Table)
	if !ok {
		return newParseError(s.toks, string(s.table.Table), "ALTER TABLE targets undefined table")
	}
	tbl = tbl.Clone()
	for _, col := range s.cols {
		idx := tbl.ColumnIndex(col.Ident())
		if idx < 0 {
			return newParseError(s.toks, string(tbl.Table), "PRIMARY KEY names unknown column %s", col.Ident())
		}
		tbl.Columns[idx].PrimaryKey = true
		tbl.Columns[idx].Null = dbtable.NotNull
	}
	c.Put(tbl)
	return nil
}

func (s addForeignKey) apply(c *catalog.Catalog) *ParseError {
	tbl, ok := c.Get(s.table.Table)
	if !ok {
		return newParseError(s.clause.toks, string(s.table.Table), "ALTER TABLE targets undefined table")
	}
	tbl = tbl.Clone()
	fks, err := s.clause.resolve(&tbl, string(tbl.Table))
	if err != nil {
		return err
	}
	for _, fk := range fks {
		if !hasForeignKey(tbl.ForeignKeys, fk) {
			tbl.ForeignKeys = append(tbl.ForeignKeys, fk)
		}
	}
	c.Put(tbl)
	return nil
}

func hasForeignKey(fks []dbtable.ForeignKey, fk dbtable.ForeignKey) bool {
	for _, o := range fks {
		if o.Column.Equal(fk.Column) && o.RefTable.Equal(fk.RefTable) && o.RefColumn.Equal(fk.RefColumn) {
			return true
		}
	}
	return false
}

func (s commentOn) apply(c *catalog.Catalog) *ParseError {
	tbl, ok := c.Get(s.table.Table)
	if !ok {
		return newParseError(s.toks, string(s.table.Table), "COMMENT targets undefined table")
	}
	tbl = tbl.Clone()
	if s.column == "" {
		tbl.Comment = s.text
		c.Put(tbl)
		return nil
	}
	idx := tbl.ColumnIndex(s.column)
	if idx < 0 {
		return newParseError(s.toks, string(tbl.Table), "COMMENT targets unknown column %s", s.column)
	}
	tbl.Columns[idx].Comment = s.text
	c.Put(tbl)
	return nil
}

// commentedStatement applies a statement recovered from a comment, ignoring
// any failure.
type commentedStatement struct {
	statement
}

func (s commentedStatement) apply(c *catalog.Catalog) *ParseError {
	_ = s.statement.apply(c)
	return nil
}
