package dbtable

import (
	"fmt"
	"strings"
)

// Ident is an identifier as it was written in the source, with quotes
// removed and case preserved.
type Ident string

// Key is the case-normalized form of an Ident. It can only be obtained
// through Ident.Key, so raw and normalized names are never mixed up.
type Key struct {
	s string
}

func (i Ident) Key() Key {
	return Key{s: strings.ToLower(string(i))}
}

func (i Ident) Equal(o Ident) bool {
	return i.Key() == o.Key()
}

func (i Ident) Compare(o Ident) int {
	return i.Key().Compare(o.Key())
}

func (i Ident) String() string {
	return string(i)
}

func (k Key) Compare(o Key) int {
	return strings.Compare(k.s, o.s)
}

func (k Key) String() string {
	return k.s
}

// Name is a possibly schema-qualified table name. Only the table part takes
// part in identity.
type Name struct {
	Schema Ident
	Table  Ident
}

func (n Name) Key() Key {
	return n.Table.Key()
}

func (n Name) Compare(o Name) int {
	return n.Table.Compare(o.Table)
}

func (n Name) Less(o Name) bool {
	return n.Compare(o) < 0
}

func (n Name) SafeString() string {
	if n.Schema == "" {
		return string(n.Table)
	}
	return fmt.Sprintf("%s.%s", n.Schema, n.Table)
}

func (n Name) String() string {
	return n.SafeString()
}

// Nullability is tri-state as not every source can tell.
type Nullability int

const (
	NullUnknown Nullability = iota
	Nullable
	NotNull
)

func (n Nullability) String() string {
	switch n {
	case Nullable:
		return "NULL"
	case NotNull:
		return "NOT NULL"
	}
	return "unknown"
}

// Column is a single column declaration.
type Column struct {
	Name       Ident
	Type       DataType
	Null       Nullability
	PrimaryKey bool
	Comment    string
}

// ForeignKey links one local column to a column of another table. An empty
// RefColumn means the referenced table's key.
type ForeignKey struct {
	Column    Ident
	RefTable  Ident
	RefColumn Ident
}

// Table is a table definition as declared in a DDL source.
type Table struct {
	Name
	Columns     []Column
	ForeignKeys []ForeignKey
	Comment     string
	SourceFile  string
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name Ident) int {
	k := name.Key()
	for i := range t.Columns {
		if t.Columns[i].Name.Key() == k {
			return i
		}
	}
	return -1
}

// PrimaryKey returns the key columns in column order.
func (t *Table) PrimaryKey() []Ident {
	var ret []Ident
	for _, c := range t.Columns {
		if c.PrimaryKey {
			ret = append(ret, c.Name)
		}
	}
	return ret
}

// Clone returns a deep copy so callers can amend a definition without
// touching the original.
func (t Table) Clone() Table {
	t.Columns = append([]Column(nil), t.Columns...)
	t.ForeignKeys = append([]ForeignKey(nil), t.ForeignKeys...)
	return t
}

func (t Table) Compare(o Table) int {
	return t.Name.Compare(o.Name)
}
