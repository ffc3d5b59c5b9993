package dbtable

import (
	"strconv"
	"strings"
)

// DataType is a declared column type. Name is upper-cased with multi-word
// names joined by single spaces. Args holds the numeric modifiers in order.
// Unbounded is set for modifiers such as MAX or * that lift any limit.
// RawArgs keeps modifiers that are not numeric, as in ENUM('a','b'),
// verbatim and without the parentheses.
type DataType struct {
	Name      string
	Args      []int
	Unbounded bool
	RawArgs   string
}

// Declared reports whether a type was written at all.
func (d DataType) Declared() bool {
	return d.Name != ""
}

func (d DataType) String() string {
	if d.RawArgs != "" {
		return d.Name + "(" + d.RawArgs + ")"
	}
	if len(d.Args) == 0 {
		if d.Unbounded {
			return d.Name + "(MAX)"
		}
		return d.Name
	}
	var sb strings.Builder
	sb.WriteString(d.Name)
	sb.WriteByte('(')
	for i, a := range d.Args {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(a))
	}
	sb.WriteByte(')')
	return sb.String()
}

// BaseWord returns the first word of the type name.
func (d DataType) BaseWord() string {
	if idx := strings.IndexByte(d.Name, ' '); idx >= 0 {
		return d.Name[:idx]
	}
	return d.Name
}
