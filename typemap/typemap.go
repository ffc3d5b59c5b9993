// Package typemap maps declared column types onto a small closed set of
// canonical types which can be compared across dialects.
package typemap

import (
	"fmt"
	"strings"

	"github.com/ggm-tools/ddlmodel/dbtable"
)

type Kind int

const (
	Unknown Kind = iota
	Integer
	Decimal
	VarText
	FixedText
	Date
	Timestamp
	Boolean
	Binary
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Decimal:
		return "decimal"
	case VarText:
		return "vartext"
	case FixedText:
		return "fixedtext"
	case Date:
		return "date"
	case Timestamp:
		return "timestamp"
	case Boolean:
		return "boolean"
	case Binary:
		return "binary"
	}
	return "unknown"
}

// Canonical is a declared type reduced to its family plus the modifiers
// that matter for that family. Length applies to text, Precision and Scale
// to decimals.
type Canonical struct {
	Kind        Kind
	Constrained bool
	Length      int
	Precision   int
	Scale       int
	// Name is the declared base name, used to tell Unknown types apart.
	Name string
}

func (c Canonical) String() string {
	switch {
	case c.Kind == Unknown:
		return fmt.Sprintf("unknown(%s)", c.Name)
	case !c.Constrained:
		return c.Kind.String()
	case c.Kind == Decimal:
		return fmt.Sprintf("decimal(%d,%d)", c.Precision, c.Scale)
	}
	return fmt.Sprintf("%s(%d)", c.Kind, c.Length)
}

type modifiers int

const (
	noModifiers modifiers = iota
	lengthModifier
	precisionModifiers
)

type typeInfo struct {
	kind Kind
	mods modifiers
	// cast is the spelling used when casting to this type in generated
	// models.
	cast string
}

func info(k Kind, m modifiers, cast string) typeInfo {
	return typeInfo{kind: k, mods: m, cast: cast}
}

var types = map[string]typeInfo{
	"INT":            info(Integer, noModifiers, "INT"),
	"INTEGER":        info(Integer, noModifiers, "INT"),
	"INT2":           info(Integer, noModifiers, "SMALLINT"),
	"INT4":           info(Integer, noModifiers, "INT"),
	"INT8":           info(Integer, noModifiers, "BIGINT"),
	"SMALLINT":       info(Integer, noModifiers, "SMALLINT"),
	"BIGINT":         info(Integer, noModifiers, "BIGINT"),
	"TINYINT":        info(Integer, noModifiers, "TINYINT"),
	"MEDIUMINT":      info(Integer, noModifiers, "INT"),
	"SERIAL":         info(Integer, noModifiers, "INT"),
	"SERIAL4":        info(Integer, noModifiers, "INT"),
	"SMALLSERIAL":    info(Integer, noModifiers, "SMALLINT"),
	"BIGSERIAL":      info(Integer, noModifiers, "BIGINT"),
	"SERIAL8":        info(Integer, noModifiers, "BIGINT"),
	"PLS_INTEGER":    info(Integer, noModifiers, "INT"),
	"BINARY_INTEGER": info(Integer, noModifiers, "INT"),

	"DECIMAL":          info(Decimal, precisionModifiers, "DECIMAL"),
	"DEC":              info(Decimal, precisionModifiers, "DECIMAL"),
	"NUMERIC":          info(Decimal, precisionModifiers, "DECIMAL"),
	"NUMBER":           info(Decimal, precisionModifiers, "DECIMAL"),
	"MONEY":            info(Decimal, noModifiers, "DECIMAL"),
	"SMALLMONEY":       info(Decimal, noModifiers, "DECIMAL"),
	"FLOAT":            info(Decimal, noModifiers, "FLOAT"),
	"FLOAT4":           info(Decimal, noModifiers, "FLOAT"),
	"FLOAT8":           info(Decimal, noModifiers, "DOUBLE"),
	"DOUBLE":           info(Decimal, noModifiers, "DOUBLE"),
	"DOUBLE PRECISION": info(Decimal, noModifiers, "DOUBLE"),
	"REAL":             info(Decimal, noModifiers, "REAL"),
	"BINARY_FLOAT":     info(Decimal, noModifiers, "FLOAT"),
	"BINARY_DOUBLE":    info(Decimal, noModifiers, "DOUBLE"),

	"VARCHAR":                    info(VarText, lengthModifier, "VARCHAR"),
	"VARCHAR2":                   info(VarText, lengthModifier, "VARCHAR"),
	"NVARCHAR":                   info(VarText, lengthModifier, "VARCHAR"),
	"NVARCHAR2":                  info(VarText, lengthModifier, "VARCHAR"),
	"CHARACTER VARYING":          info(VarText, lengthModifier, "VARCHAR"),
	"CHAR VARYING":               info(VarText, lengthModifier, "VARCHAR"),
	"NATIONAL CHARACTER VARYING": info(VarText, lengthModifier, "VARCHAR"),
	"NATIONAL CHAR VARYING":      info(VarText, lengthModifier, "VARCHAR"),
	"TEXT":                       info(VarText, noModifiers, "TEXT"),
	"NTEXT":                      info(VarText, noModifiers, "TEXT"),
	"CLOB":                       info(VarText, noModifiers, "TEXT"),
	"NCLOB":                      info(VarText, noModifiers, "TEXT"),
	"TINYTEXT":                   info(VarText, noModifiers, "TEXT"),
	"MEDIUMTEXT":                 info(VarText, noModifiers, "TEXT"),
	"LONGTEXT":                   info(VarText, noModifiers, "TEXT"),
	"LONG":                       info(VarText, noModifiers, "TEXT"),
	"STRING":                     info(VarText, noModifiers, "TEXT"),
	"CITEXT":                     info(VarText, noModifiers, "TEXT"),

	"CHAR":               info(FixedText, lengthModifier, "CHAR"),
	"CHARACTER":          info(FixedText, lengthModifier, "CHAR"),
	"NCHAR":              info(FixedText, lengthModifier, "CHAR"),
	"NATIONAL CHARACTER": info(FixedText, lengthModifier, "CHAR"),
	"NATIONAL CHAR":      info(FixedText, lengthModifier, "CHAR"),
	"BPCHAR":             info(FixedText, lengthModifier, "CHAR"),

	"DATE": info(Date, noModifiers, "DATE"),

	"TIMESTAMP":                      info(Timestamp, noModifiers, "TIMESTAMP"),
	"TIMESTAMP WITHOUT TIME ZONE":    info(Timestamp, noModifiers, "TIMESTAMP"),
	"TIMESTAMP WITH TIME ZONE":       info(Timestamp, noModifiers, "TIMESTAMPTZ"),
	"TIMESTAMP WITH LOCAL TIME ZONE": info(Timestamp, noModifiers, "TIMESTAMPTZ"),
	"TIMESTAMPTZ":                    info(Timestamp, noModifiers, "TIMESTAMPTZ"),
	"DATETIME":                       info(Timestamp, noModifiers, "TIMESTAMP"),
	"DATETIME2":                      info(Timestamp, noModifiers, "TIMESTAMP"),
	"SMALLDATETIME":                  info(Timestamp, noModifiers, "TIMESTAMP"),
	"DATETIMEOFFSET":                 info(Timestamp, noModifiers, "TIMESTAMPTZ"),

	"BOOLEAN": info(Boolean, noModifiers, "BOOLEAN"),
	"BOOL":    info(Boolean, noModifiers, "BOOLEAN"),
	"BIT":     info(Boolean, noModifiers, "BOOLEAN"),

	"BINARY":     info(Binary, noModifiers, "BLOB"),
	"VARBINARY":  info(Binary, noModifiers, "BLOB"),
	"BYTEA":      info(Binary, noModifiers, "BLOB"),
	"BLOB":       info(Binary, noModifiers, "BLOB"),
	"TINYBLOB":   info(Binary, noModifiers, "BLOB"),
	"MEDIUMBLOB": info(Binary, noModifiers, "BLOB"),
	"LONGBLOB":   info(Binary, noModifiers, "BLOB"),
	"RAW":        info(Binary, noModifiers, "BLOB"),
	"LONG RAW":   info(Binary, noModifiers, "BLOB"),
	"IMAGE":      info(Binary, noModifiers, "BLOB"),
}

func lookup(dt dbtable.DataType) (typeInfo, bool) {
	name := strings.ToUpper(dt.Name)
	if ti, ok := types[name]; ok {
		return ti, true
	}
	// Trailing qualifiers such as UNSIGNED do not change the family.
	ti, ok := types[strings.ToUpper(dt.BaseWord())]
	return ti, ok
}

// Map maps a declared type onto its canonical type. It never fails: names
// it does not know map to Unknown.
func Map(dt dbtable.DataType) Canonical {
	ti, ok := lookup(dt)
	if !ok {
		return Canonical{Kind: Unknown, Name: strings.ToUpper(dt.Name)}
	}
	ret := Canonical{Kind: ti.kind, Name: strings.ToUpper(dt.Name)}
	if dt.Unbounded {
		return ret
	}
	switch ti.mods {
	case lengthModifier:
		if len(dt.Args) > 0 {
			ret.Constrained = true
			ret.Length = dt.Args[0]
		}
	case precisionModifiers:
		if len(dt.Args) > 0 {
			ret.Constrained = true
			ret.Precision = dt.Args[0]
			if len(dt.Args) > 1 {
				ret.Scale = dt.Args[1]
			}
		}
	}
	return ret
}

// Equivalent reports whether an actual type satisfies an authoritative one.
// Both must be in the same family. Modifiers must be equal unless the
// authoritative side declared none, in which case any are accepted.
func Equivalent(authoritative, actual Canonical) bool {
	if authoritative.Kind != actual.Kind {
		return false
	}
	if authoritative.Kind == Unknown {
		return authoritative.Name == actual.Name
	}
	if !authoritative.Constrained {
		return true
	}
	if !actual.Constrained {
		return false
	}
	switch authoritative.Kind {
	case Decimal:
		return authoritative.Precision == actual.Precision && authoritative.Scale == actual.Scale
	default:
		return authoritative.Length == actual.Length
	}
}

// CastTarget returns the type spelling used in a generated CAST. Known
// types are spelled in their family's portable form, unknown ones as
// declared, including any non-numeric modifiers. An undeclared type casts
// to VARCHAR.
func CastTarget(dt dbtable.DataType) string {
	if !dt.Declared() {
		return "VARCHAR"
	}
	ti, ok := lookup(dt)
	if !ok {
		if dt.RawArgs != "" {
			return strings.ToUpper(dt.Name) + "(" + dt.RawArgs + ")"
		}
		return strings.ToUpper(dt.String())
	}
	c := Map(dt)
	if !c.Constrained {
		return ti.cast
	}
	switch c.Kind {
	case Decimal:
		return fmt.Sprintf("%s(%d,%d)", ti.cast, c.Precision, c.Scale)
	default:
		return fmt.Sprintf("%s(%d)", ti.cast, c.Length)
	}
}
