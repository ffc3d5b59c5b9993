package ddlparse

import (
	"github.com/ggm-tools/ddlmodel/dbtable"
	"github.com/ggm-tools/ddlmodel/sqllex"
)

// addPrimaryKey is ALTER TABLE t ADD PRIMARY KEY (cols).
type addPrimaryKey struct {
	toks  []sqllex.Token
	table dbtable.Name
	cols  []sqllex.Token
}

// addForeignKey is ALTER TABLE t ADD FOREIGN KEY (cols) REFERENCES r (cols).
type addForeignKey struct {
	table  dbtable.Name
	clause foreignKeyClause
}

// commentOn is COMMENT ON TABLE t or COMMENT ON COLUMN t.c.
type commentOn struct {
	toks   []sqllex.Token
	table  dbtable.Name
	column dbtable.Ident
	text   string
}

// parseAlter parses ALTER TABLE statements adding keys. Any other
// alteration yields no statements.
func parseAlter(toks []sqllex.Token) ([]statement, *ParseError) {
	if len(toks) < 3 || !toks[1].Is("TABLE") {
		return nil, nil
	}
	i := 2
	if i < len(toks) && toks[i].Is("ONLY") {
		i++
	}
	if i+1 < len(toks) && toks[i].Is("IF") && toks[i+1].Is("EXISTS") {
		i += 2
	}
	name, next, ok := qualifiedName(toks, i)
	if !ok {
		return nil, newParseError(toks, "", "expected table name")
	}
	tableName := string(name.Table)

	var ret []statement
	for _, action := range sqllex.SplitTopLevel(toks[next:], ",") {
		if len(action) < 2 || !action[0].Is("ADD") {
			continue
		}
		actions := [][]sqllex.Token{action[1:]}
		// Oracle allows ADD (CONSTRAINT .., CONSTRAINT ..).
		if action[1].IsPunct("(") {
			end := sqllex.MatchParen(action, 1)
			if end < 0 {
				return nil, newParseError(toks, tableName, "unbalanced parentheses in ALTER TABLE")
			}
			actions = sqllex.SplitTopLevel(action[2:end], ",")
		}
		for _, a := range actions {
			if len(a) > 2 && a[0].Is("CONSTRAINT") {
				a = a[2:]
			}
			switch {
			case len(a) > 1 && a[0].Is("PRIMARY") && a[1].Is("KEY"):
				cols, _, ok := parenNames(a, 2)
				if !ok {
					return nil, newParseError(toks, tableName, "malformed PRIMARY KEY clause")
				}
				ret = append(ret, addPrimaryKey{toks: toks, table: name, cols: cols})
			case len(a) > 1 && a[0].Is("FOREIGN") && a[1].Is("KEY"):
				fk, err := parseForeignKeyClause(a, 2, tableName)
				if err != nil {
					return nil, err
				}
				fk.toks = toks
				ret = append(ret, addForeignKey{table: name, clause: fk})
			}
		}
	}
	return ret, nil
}

// parseComment parses COMMENT ON TABLE and COMMENT ON COLUMN.
func parseComment(toks []sqllex.Token) (statement, *ParseError) {
	if len(toks) < 4 || !toks[1].Is("ON") {
		return nil, nil
	}
	isColumn := toks[2].Is("COLUMN")
	if !isColumn && !toks[2].Is("TABLE") {
		return nil, nil
	}
	var parts []dbtable.Ident
	i := 3
	for i < len(toks) && toks[i].IsName() {
		parts = append(parts, toks[i].Ident())
		i++
		if i < len(toks) && toks[i].IsPunct(".") {
			i++
			continue
		}
		break
	}
	if i+1 >= len(toks) || !toks[i].Is("IS") {
		return nil, newParseError(toks, "", "malformed COMMENT statement")
	}
	c := commentOn{toks: toks}
	switch {
	case toks[i+1].Kind == sqllex.String:
		c.text = toks[i+1].Text()
	case toks[i+1].Is("NULL"):
	default:
		return nil, newParseError(toks, "", "COMMENT must be a string literal")
	}
	switch {
	case isColumn && len(parts) >= 2:
		c.column = parts[len(parts)-1]
		c.table.Table = parts[len(parts)-2]
		if len(parts) > 2 {
			c.table.Schema = parts[len(parts)-3]
		}
	case !isColumn && len(parts) >= 1:
		c.table.Table = parts[len(parts)-1]
		if len(parts) > 1 {
			c.table.Schema = parts[len(parts)-2]
		}
	default:
		return nil, newParseError(toks, "", "malformed COMMENT statement")
	}
	return c, nil
}
