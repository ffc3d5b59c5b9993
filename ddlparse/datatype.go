package ddlparse

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ggm-tools/ddlmodel/dbtable"
	"github.com/ggm-tools/ddlmodel/sqllex"
)

// typePhrases lists the words which may follow a type name to form a
// multi-word type.
var typePhrases = map[string][]string{
	"DOUBLE":             {"PRECISION"},
	"CHARACTER":          {"VARYING"},
	"CHAR":               {"VARYING"},
	"NATIONAL":           {"CHARACTER", "CHAR"},
	"NATIONAL CHARACTER": {"VARYING"},
	"NATIONAL CHAR":      {"VARYING"},
	"LONG":               {"RAW", "VARCHAR", "VARBINARY"},
	"BIT":                {"VARYING"},
}

var intervalWords = map[string]struct{}{
	"YEAR": {}, "MONTH": {}, "DAY": {}, "HOUR": {}, "MINUTE": {}, "SECOND": {}, "TO": {},
}

// columnConstraintWords start a column constraint, so they never begin a
// type.
var columnConstraintWords = map[string]struct{}{
	"NOT": {}, "NULL": {}, "PRIMARY": {}, "REFERENCES": {}, "DEFAULT": {},
	"CONSTRAINT": {}, "CHECK": {}, "UNIQUE": {}, "GENERATED": {}, "COLLATE": {},
	"IDENTITY": {}, "AUTO_INCREMENT": {}, "AUTOINCREMENT": {}, "COMMENT": {}, "AS": {},
}

// ParseDataType parses a standalone type spelling such as "VARCHAR2(80 CHAR)".
func ParseDataType(s string) (dbtable.DataType, error) {
	toks, err := sqllex.Lex("type", s)
	if err != nil {
		return dbtable.DataType{}, err
	}
	toks = sqllex.WithoutComments(toks)
	dt, n := DataTypeFromTokens(toks)
	if n < len(toks) {
		return dt, errors.Newf("unexpected %q after type %q", sqllex.Join(toks[n:]), dt.String())
	}
	return dt, nil
}

// DataTypeFromTokens reads a type from the start of toks and returns it with
// the number of tokens consumed. An empty type consumes nothing.
func DataTypeFromTokens(toks []sqllex.Token) (dbtable.DataType, int) {
	if len(toks) == 0 || toks[0].Kind != sqllex.Ident {
		return dbtable.DataType{}, 0
	}
	first := strings.ToUpper(toks[0].Value)
	if _, ok := columnConstraintWords[first]; ok {
		return dbtable.DataType{}, 0
	}
	name := first
	i := 1
	for i < len(toks) && toks[i].Kind == sqllex.Ident && continuesPhrase(name, toks[i].Value) {
		name += " " + strings.ToUpper(toks[i].Value)
		i++
	}
	dt := dbtable.DataType{Name: name}

	if name == "INTERVAL" {
		for i < len(toks) {
			if toks[i].IsPunct("(") {
				if end := sqllex.MatchParen(toks, i); end > 0 {
					i = end + 1
					continue
				}
			}
			if _, ok := intervalWords[strings.ToUpper(toks[i].Value)]; !ok || toks[i].Kind != sqllex.Ident {
				break
			}
			dt.Name += " " + strings.ToUpper(toks[i].Value)
			i++
		}
		return dt, i
	}

	if i < len(toks) && toks[i].IsPunct("(") {
		end := sqllex.MatchParen(toks, i)
		if end < 0 {
			return dt, i
		}
		dt.Args, dt.Unbounded, dt.RawArgs = typeArgs(toks[i+1 : end])
		i = end + 1
	}

	for i < len(toks) {
		switch {
		case toks[i].Is("WITH") || toks[i].Is("WITHOUT"):
			j := i + 1
			suffix := strings.ToUpper(toks[i].Value)
			if j < len(toks) && toks[j].Is("LOCAL") {
				suffix += " LOCAL"
				j++
			}
			if j+1 < len(toks) && toks[j].Is("TIME") && toks[j+1].Is("ZONE") {
				dt.Name += " " + suffix + " TIME ZONE"
				i = j + 2
				continue
			}
			return dt, i
		case toks[i].Is("UNSIGNED") || toks[i].Is("SIGNED") || toks[i].Is("ZEROFILL"):
			dt.Name += " " + strings.ToUpper(toks[i].Value)
			i++
		case toks[i].Is("ARRAY"):
			dt.Name += "[]"
			i++
		case toks[i].IsPunct("["):
			j := i + 1
			if j < len(toks) && toks[j].Kind == sqllex.Number {
				j++
			}
			if j < len(toks) && toks[j].IsPunct("]") {
				dt.Name += "[]"
				i = j + 1
				continue
			}
			return dt, i
		default:
			return dt, i
		}
	}
	return dt, i
}

func continuesPhrase(name, word string) bool {
	for _, w := range typePhrases[name] {
		if strings.EqualFold(w, word) {
			return true
		}
	}
	return false
}

// typeArgs reads numeric modifiers. Unit suffixes such as CHAR or BYTE are
// dropped; MAX or * lift the limit altogether. Modifiers that are not
// numeric are returned as written.
func typeArgs(toks []sqllex.Token) (args []int, unbounded bool, raw string) {
	for _, part := range sqllex.SplitTopLevel(toks, ",") {
		if len(part) == 0 {
			continue
		}
		switch {
		case part[0].Is("MAX") || part[0].IsPunct("*"):
			return nil, true, ""
		case part[0].Kind == sqllex.Number:
			n, err := strconv.Atoi(part[0].Value)
			if err != nil {
				return args, false, ""
			}
			args = append(args, n)
		case part[0].IsPunct("-") && len(part) > 1 && part[1].Kind == sqllex.Number:
			n, err := strconv.Atoi(part[1].Value)
			if err != nil {
				return args, false, ""
			}
			args = append(args, -n)
		default:
			// ENUM('a', 'b') and friends carry no size.
			return nil, false, sqllex.Join(toks)
		}
	}
	return args, false, ""
}
