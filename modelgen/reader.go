package modelgen

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ggm-tools/ddlmodel/catalog"
	"github.com/ggm-tools/ddlmodel/dbtable"
	"github.com/ggm-tools/ddlmodel/ddlparse"
	"github.com/ggm-tools/ddlmodel/sqllex"
)

// ReadCatalog reads every model into a catalog. Models that cannot be read
// are skipped and their errors combined.
func ReadCatalog(sources ...ddlparse.Source) (*catalog.Catalog, error) {
	cat := catalog.New()
	var err error
	for _, src := range sources {
		tbl, readErr := ParseModel(src)
		if readErr != nil {
			err = errors.CombineErrors(err, readErr)
			continue
		}
		cat.Put(tbl)
	}
	return cat, err
}

// ParseModel reads a model back into a table definition. Column types come
// from the columns property if present, else from the cast in each
// projection. Nullability cannot be told from a model and is left unknown.
func ParseModel(src ddlparse.Source) (dbtable.Table, error) {
	toks, err := sqllex.Lex(src.Name, src.Text)
	if err != nil {
		return dbtable.Table{}, err
	}
	toks = sqllex.WithoutComments(toks)

	tbl := dbtable.Table{SourceFile: src.Name}
	var props modelProps
	rest := toks
	if len(toks) > 1 && toks[0].Is("MODEL") && toks[1].IsPunct("(") {
		end := sqllex.MatchParen(toks, 1)
		if end < 0 {
			return tbl, errors.Newf("%s: unbalanced parentheses in MODEL block", src.Name)
		}
		if props, err = parseProps(toks[2:end]); err != nil {
			return tbl, errors.Wrapf(err, "%s", src.Name)
		}
		rest = toks[end+1:]
	}

	if props.name.Table != "" {
		tbl.Name = props.name
	} else {
		stem := strings.TrimSuffix(filepath.Base(src.Name), filepath.Ext(src.Name))
		tbl.Name = dbtable.Name{Table: dbtable.Ident(stem)}
	}
	tbl.Comment = props.description

	for _, p := range selectList(rest) {
		col, ok := projectionColumn(p)
		if !ok {
			continue
		}
		if tbl.ColumnIndex(col.Name) >= 0 {
			return tbl, errors.Newf("%s: duplicate column %s", src.Name, col.Name)
		}
		tbl.Columns = append(tbl.Columns, col)
	}
	for _, c := range props.columns {
		if idx := tbl.ColumnIndex(c.Name); idx >= 0 {
			tbl.Columns[idx].Type = c.Type
		} else {
			tbl.Columns = append(tbl.Columns, c)
		}
	}
	for _, g := range props.grain {
		idx := tbl.ColumnIndex(g)
		if idx < 0 {
			return tbl, errors.Newf("%s: grain names unknown column %s", src.Name, g)
		}
		tbl.Columns[idx].PrimaryKey = true
	}
	for _, r := range props.references {
		tbl.ForeignKeys = append(tbl.ForeignKeys, dbtable.ForeignKey{Column: r})
	}
	for col, desc := range props.columnDescriptions {
		if idx := tbl.ColumnIndex(dbtable.Ident(col)); idx >= 0 {
			tbl.Columns[idx].Comment = desc
		}
	}
	return tbl, nil
}

type modelProps struct {
	name               dbtable.Name
	description        string
	grain              []dbtable.Ident
	references         []dbtable.Ident
	columns            []dbtable.Column
	columnDescriptions map[string]string
}

func parseProps(toks []sqllex.Token) (modelProps, error) {
	props := modelProps{columnDescriptions: make(map[string]string)}
	for _, prop := range sqllex.SplitTopLevel(toks, ",") {
		if len(prop) < 2 || prop[0].Kind != sqllex.Ident {
			continue
		}
		val := prop[1:]
		switch strings.ToLower(prop[0].Value) {
		case "name":
			var parts []dbtable.Ident
			for _, t := range val {
				if t.IsName() {
					parts = append(parts, t.Ident())
				}
			}
			if len(parts) == 0 {
				return props, errors.New("MODEL name is empty")
			}
			props.name.Table = parts[len(parts)-1]
			if len(parts) > 1 {
				props.name.Schema = parts[len(parts)-2]
			}
		case "description":
			if val[0].Kind == sqllex.String {
				props.description = val[0].Text()
			}
		case "grain", "grains":
			props.grain = append(props.grain, nameList(val)...)
		case "reference", "references":
			props.references = append(props.references, nameList(val)...)
		case "columns":
			if !val[0].IsPunct("(") {
				continue
			}
			end := sqllex.MatchParen(val, 0)
			if end < 0 {
				return props, errors.New("unbalanced parentheses in MODEL columns")
			}
			for _, def := range sqllex.SplitTopLevel(val[1:end], ",") {
				if len(def) < 2 || !def[0].IsName() {
					continue
				}
				dt, _ := ddlparse.DataTypeFromTokens(def[1:])
				props.columns = append(props.columns, dbtable.Column{Name: def[0].Ident(), Type: dt})
			}
		case "column_descriptions":
			if !val[0].IsPunct("(") {
				continue
			}
			end := sqllex.MatchParen(val, 0)
			if end < 0 {
				return props, errors.New("unbalanced parentheses in MODEL column_descriptions")
			}
			for _, d := range sqllex.SplitTopLevel(val[1:end], ",") {
				if len(d) == 3 && d[0].IsName() && d[1].IsPunct("=") && d[2].Kind == sqllex.String {
					props.columnDescriptions[string(d[0].Ident())] = d[2].Text()
				}
			}
		}
	}
	return props, nil
}

// nameList reads either a single name or a parenthesized list of names.
func nameList(toks []sqllex.Token) []dbtable.Ident {
	if toks[0].IsPunct("(") {
		end := sqllex.MatchParen(toks, 0)
		if end < 0 {
			return nil
		}
		toks = toks[1:end]
	}
	var ret []dbtable.Ident
	for _, part := range sqllex.SplitTopLevel(toks, ",") {
		if len(part) > 0 && part[len(part)-1].IsName() {
			ret = append(ret, part[len(part)-1].Ident())
		}
	}
	return ret
}

// selectList returns the projections of the first top-level SELECT.
func selectList(toks []sqllex.Token) [][]sqllex.Token {
	start := -1
	depth := 0
	for i, t := range toks {
		switch {
		case t.IsPunct("("):
			depth++
		case t.IsPunct(")"):
			depth--
		case depth == 0 && t.Is("SELECT"):
			start = i + 1
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return nil
	}
	if start < len(toks) && (toks[start].Is("DISTINCT") || toks[start].Is("ALL")) {
		start++
	}
	end := len(toks)
	depth = 0
	for i := start; i < len(toks); i++ {
		t := toks[i]
		switch {
		case t.IsPunct("("):
			depth++
		case t.IsPunct(")"):
			depth--
		case depth == 0 && (t.Is("FROM") || t.IsPunct(";")):
			end = i
		}
		if end != len(toks) {
			break
		}
	}
	if start >= end {
		return nil
	}
	return sqllex.SplitTopLevel(toks[start:end], ",")
}

// projectionColumn reads the output column of a projection and the type it
// is cast to, if any.
func projectionColumn(p []sqllex.Token) (dbtable.Column, bool) {
	n := len(p)
	if n == 0 || !p[n-1].IsName() {
		return dbtable.Column{}, false
	}
	col := dbtable.Column{Name: p[n-1].Ident(), Null: dbtable.NullUnknown}
	var expr []sqllex.Token
	switch {
	case n >= 3 && p[n-2].Is("AS"):
		expr = p[:n-2]
	case n >= 2 && p[n-2].IsPunct("."):
		expr = p
	case n >= 2 && (p[n-2].IsName() || p[n-2].IsPunct(")") || p[n-2].Kind == sqllex.Number || p[n-2].Kind == sqllex.String):
		expr = p[:n-1]
	default:
		expr = p
	}
	col.Type = castType(expr)
	return col, true
}

// castType returns the target of CAST(x AS T) or x::T, or no type.
func castType(expr []sqllex.Token) dbtable.DataType {
	if len(expr) > 2 && expr[0].Is("CAST") && expr[1].IsPunct("(") && sqllex.MatchParen(expr, 1) == len(expr)-1 {
		inner := expr[2 : len(expr)-1]
		depth := 0
		as := -1
		for i, t := range inner {
			switch {
			case t.IsPunct("("):
				depth++
			case t.IsPunct(")"):
				depth--
			case depth == 0 && t.Is("AS"):
				as = i
			}
		}
		if as >= 0 {
			dt, _ := ddlparse.DataTypeFromTokens(inner[as+1:])
			return dt
		}
		return dbtable.DataType{}
	}
	depth := 0
	for i, t := range expr {
		switch {
		case t.IsPunct("("):
			depth++
		case t.IsPunct(")"):
			depth--
		case depth == 0 && t.IsPunct("::"):
			dt, _ := ddlparse.DataTypeFromTokens(expr[i+1:])
			return dt
		}
	}
	return dbtable.DataType{}
}
