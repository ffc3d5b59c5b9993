package ddlparse

import (
	"strings"

	"github.com/ggm-tools/ddlmodel/dbtable"
	"github.com/ggm-tools/ddlmodel/sqllex"
	"github.com/ggm-tools/ddlmodel/typemap"
)

var createModifiers = map[string]struct{}{
	"OR": {}, "REPLACE": {}, "GLOBAL": {}, "LOCAL": {}, "TEMP": {}, "TEMPORARY": {},
	"UNLOGGED": {}, "VOLATILE": {}, "MULTISET": {}, "SET": {}, "TRANSIENT": {},
}

// createTable is a parsed CREATE TABLE statement.
type createTable struct {
	table dbtable.Table
}

// parseCreate parses a statement starting with CREATE. It returns a nil
// statement for CREATE statements that do not define a table's columns.
func parseCreate(toks []sqllex.Token) (statement, *ParseError) {
	i := 1
	for i < len(toks) && toks[i].Kind == sqllex.Ident {
		if _, ok := createModifiers[strings.ToUpper(toks[i].Value)]; !ok {
			break
		}
		i++
	}
	if i >= len(toks) || !toks[i].Is("TABLE") {
		return nil, nil
	}
	i++
	if i+2 < len(toks) && toks[i].Is("IF") && toks[i+1].Is("NOT") && toks[i+2].Is("EXISTS") {
		i += 3
	}
	name, next, ok := qualifiedName(toks, i)
	if !ok {
		return nil, newParseError(toks, "", "expected table name")
	}
	i = next
	tableName := string(name.Table)
	if i >= len(toks) {
		return nil, newParseError(toks, tableName, "expected column list")
	}
	if !toks[i].IsPunct("(") {
		if toks[i].Is("AS") || toks[i].Is("LIKE") || toks[i].Is("PARTITION") || toks[i].Is("OF") {
			return nil, nil
		}
		return nil, newParseError(toks, tableName, "expected column list")
	}
	end := sqllex.MatchParen(toks, i)
	if end < 0 {
		return nil, newParseError(toks, tableName, "unbalanced parentheses in column list")
	}

	tbl := dbtable.Table{
		Name:       name,
		SourceFile: toks[0].Pos.Filename,
	}
	var pkCols []sqllex.Token
	var fks []foreignKeyClause
	for _, clause := range sqllex.SplitTopLevel(toks[i+1:end], ",") {
		if len(clause) == 0 {
			continue
		}
		if clause[0].Is("CONSTRAINT") && len(clause) > 2 {
			clause = clause[2:]
		}
		switch {
		case clause[0].Is("PRIMARY") && len(clause) > 1 && clause[1].Is("KEY"):
			cols, _, ok := parenNames(clause, 2)
			if !ok {
				return nil, newParseError(clause, tableName, "malformed PRIMARY KEY clause")
			}
			pkCols = append(pkCols, cols...)
		case clause[0].Is("FOREIGN") && len(clause) > 1 && clause[1].Is("KEY"):
			fk, err := parseForeignKeyClause(clause, 2, tableName)
			if err != nil {
				return nil, err
			}
			fks = append(fks, fk)
		case isSkippedTableClause(clause):
		default:
			col, fk, err := parseColumn(clause, tableName)
			if err != nil {
				return nil, err
			}
			if tbl.ColumnIndex(col.Name) >= 0 {
				return nil, newParseError(clause, tableName, "duplicate column %s", col.Name)
			}
			tbl.Columns = append(tbl.Columns, col)
			if fk != nil {
				tbl.ForeignKeys = append(tbl.ForeignKeys, *fk)
			}
		}
	}

	for _, pk := range pkCols {
		idx := tbl.ColumnIndex(pk.Ident())
		if idx < 0 {
			return nil, newParseError([]sqllex.Token{pk}, tableName, "PRIMARY KEY names unknown column %s", pk.Ident())
		}
		tbl.Columns[idx].PrimaryKey = true
		tbl.Columns[idx].Null = dbtable.NotNull
	}
	for _, fk := range fks {
		resolved, err := fk.resolve(&tbl, tableName)
		if err != nil {
			return nil, err
		}
		tbl.ForeignKeys = append(tbl.ForeignKeys, resolved...)
	}
	return createTable{table: tbl}, nil
}

// isSkippedTableClause reports whether a clause in the column list is a
// constraint or index that does not affect the table's shape.
func isSkippedTableClause(clause []sqllex.Token) bool {
	switch {
	case clause[0].Is("CHECK"), clause[0].Is("EXCLUDE"), clause[0].Is("LIKE"):
		return true
	case clause[0].Is("PERIOD") && len(clause) > 1 && clause[1].Is("FOR"):
		return true
	case clause[0].Is("UNIQUE"):
		// A column called "unique" would need quoting in every dialect.
		return true
	case clause[0].Is("KEY"), clause[0].Is("INDEX"), clause[0].Is("FULLTEXT"), clause[0].Is("SPATIAL"):
		if len(clause) < 2 {
			return false
		}
		if clause[1].IsPunct("(") || clause[1].Is("KEY") || clause[1].Is("INDEX") {
			return true
		}
		// KEY idx_name (col) is an index, "key VARCHAR(10)" is a column.
		dt, _ := DataTypeFromTokens(clause[1:])
		return typemap.Map(dt).Kind == typemap.Unknown
	}
	return false
}

// parseColumn parses a single column definition clause.
func parseColumn(clause []sqllex.Token, tableName string) (dbtable.Column, *dbtable.ForeignKey, *ParseError) {
	if !clause[0].IsName() {
		return dbtable.Column{}, nil, newParseError(clause, tableName, "expected column name")
	}
	col := dbtable.Column{
		Name: clause[0].Ident(),
		Null: dbtable.Nullable,
	}
	dt, n := DataTypeFromTokens(clause[1:])
	col.Type = dt
	var fk *dbtable.ForeignKey
	rest := clause[1+n:]
	for i := 0; i < len(rest); i++ {
		t := rest[i]
		switch {
		case t.Is("NOT") && i+1 < len(rest) && rest[i+1].Is("NULL"):
			col.Null = dbtable.NotNull
			i++
		case t.Is("NULL"):
			col.Null = dbtable.Nullable
		case t.Is("PRIMARY") && i+1 < len(rest) && rest[i+1].Is("KEY"):
			col.PrimaryKey = true
			col.Null = dbtable.NotNull
			i++
		case t.Is("REFERENCES"):
			ref, next, ok := qualifiedName(rest, i+1)
			if !ok {
				return col, nil, newParseError(clause, tableName, "malformed REFERENCES clause on column %s", col.Name)
			}
			fk = &dbtable.ForeignKey{Column: col.Name, RefTable: ref.Table}
			if next < len(rest) && rest[next].IsPunct("(") {
				if refCols, end, ok := parenNames(rest, next); ok && len(refCols) > 0 {
					fk.RefColumn = refCols[0].Ident()
					next = end + 1
				}
			}
			i = next - 1
		case t.Is("COMMENT") && i+1 < len(rest) && rest[i+1].Kind == sqllex.String:
			col.Comment = rest[i+1].Text()
			i++
		case t.Is("CONSTRAINT"):
			i++
		case t.Is("DEFAULT"):
			i = skipExpr(rest, i+1) - 1
		case t.IsPunct("("):
			if end := sqllex.MatchParen(rest, i); end > 0 {
				i = end
			}
		}
	}
	return col, fk, nil
}

// skipExpr skips a single default value term and returns the next index.
func skipExpr(toks []sqllex.Token, i int) int {
	if i >= len(toks) {
		return i
	}
	if toks[i].IsPunct("-") || toks[i].IsPunct("+") {
		i++
	}
	if i < len(toks) && toks[i].IsPunct("(") {
		if end := sqllex.MatchParen(toks, i); end > 0 {
			return end + 1
		}
		return len(toks)
	}
	i++
	if i < len(toks) && toks[i].IsPunct("(") {
		if end := sqllex.MatchParen(toks, i); end > 0 {
			return end + 1
		}
		return len(toks)
	}
	return i
}

// foreignKeyClause is a FOREIGN KEY clause whose columns are not yet checked
// against the table.
type foreignKeyClause struct {
	toks     []sqllex.Token
	cols     []sqllex.Token
	refTable dbtable.Name
	refCols  []sqllex.Token
}

// parseForeignKeyClause parses "(cols) REFERENCES t [(cols)]" starting at
// toks[i].
func parseForeignKeyClause(toks []sqllex.Token, i int, tableName string) (foreignKeyClause, *ParseError) {
	fk := foreignKeyClause{toks: toks}
	cols, end, ok := parenNames(toks, i)
	if !ok {
		return fk, newParseError(toks, tableName, "malformed FOREIGN KEY clause")
	}
	fk.cols = cols
	i = end + 1
	if i >= len(toks) || !toks[i].Is("REFERENCES") {
		return fk, newParseError(toks, tableName, "FOREIGN KEY without REFERENCES")
	}
	ref, next, ok := qualifiedName(toks, i+1)
	if !ok {
		return fk, newParseError(toks, tableName, "malformed REFERENCES clause")
	}
	fk.refTable = ref
	if next < len(toks) && toks[next].IsPunct("(") {
		refCols, _, ok := parenNames(toks, next)
		if !ok {
			return fk, newParseError(toks, tableName, "malformed REFERENCES column list")
		}
		fk.refCols = refCols
		if len(refCols) != len(cols) {
			return fk, newParseError(toks, tableName, "FOREIGN KEY references %d columns with %d", len(cols), len(refCols))
		}
	}
	return fk, nil
}

func (fk foreignKeyClause) resolve(tbl *dbtable.Table, tableName string) ([]dbtable.ForeignKey, *ParseError) {
	var ret []dbtable.ForeignKey
	for i, c := range fk.cols {
		idx := tbl.ColumnIndex(c.Ident())
		if idx < 0 {
			return nil, newParseError(fk.toks, tableName, "FOREIGN KEY names unknown column %s", c.Ident())
		}
		ref := dbtable.ForeignKey{
			Column:   tbl.Columns[idx].Name,
			RefTable: fk.refTable.Table,
		}
		if fk.refCols != nil {
			ref.RefColumn = fk.refCols[i].Ident()
		}
		ret = append(ret, ref)
	}
	return ret, nil
}

// qualifiedName reads a dotted name starting at toks[i]. The last part is
// the object name and the part before it the schema.
func qualifiedName(toks []sqllex.Token, i int) (dbtable.Name, int, bool) {
	var parts []dbtable.Ident
	for i < len(toks) && toks[i].IsName() {
		parts = append(parts, toks[i].Ident())
		i++
		if i+1 < len(toks) && toks[i].IsPunct(".") && toks[i+1].IsName() {
			i++
			continue
		}
		break
	}
	if len(parts) == 0 {
		return dbtable.Name{}, i, false
	}
	n := dbtable.Name{Table: parts[len(parts)-1]}
	if len(parts) > 1 {
		n.Schema = parts[len(parts)-2]
	}
	return n, i, true
}

// parenNames finds the first parenthesized group at or after toks[i], before
// any REFERENCES keyword, and returns the leading name of each comma
// separated element along with the index of the closing parenthesis.
func parenNames(toks []sqllex.Token, i int) ([]sqllex.Token, int, bool) {
	for i < len(toks) && !toks[i].IsPunct("(") {
		if toks[i].Is("REFERENCES") {
			return nil, 0, false
		}
		i++
	}
	if i >= len(toks) {
		return nil, 0, false
	}
	end := sqllex.MatchParen(toks, i)
	if end < 0 {
		return nil, 0, false
	}
	var ret []sqllex.Token
	for _, part := range sqllex.SplitTopLevel(toks[i+1:end], ",") {
		if len(part) == 0 || !part[0].IsName() {
			return nil, 0, false
		}
		ret = append(ret, part[0])
	}
	return ret, end, true
}
