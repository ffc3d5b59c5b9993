// Package inconsistency holds the discrepancies found when comparing an
// actual catalog with the authoritative one, and the reporters that render
// them.
package inconsistency

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ggm-tools/ddlmodel/dbtable"
)

type Kind int

// Kinds are listed in report order.
const (
	MissingTable Kind = iota
	ExtraTable
	MissingColumn
	ExtraColumn
	TypeMismatch
	NullabilityMismatch
	KeyMismatch
	ReferenceMismatch
	numKinds
)

var kindNames = [numKinds]string{
	MissingTable:        "MissingTable",
	ExtraTable:          "ExtraTable",
	MissingColumn:       "MissingColumn",
	ExtraColumn:         "ExtraColumn",
	TypeMismatch:        "TypeMismatch",
	NullabilityMismatch: "NullabilityMismatch",
	KeyMismatch:         "KeyMismatch",
	ReferenceMismatch:   "ReferenceMismatch",
}

var kindFlags = [numKinds]string{
	MissingTable:        "missing-table",
	ExtraTable:          "extra-table",
	MissingColumn:       "missing-column",
	ExtraColumn:         "extra-column",
	TypeMismatch:        "type-mismatch",
	NullabilityMismatch: "nullability-mismatch",
	KeyMismatch:         "key-mismatch",
	ReferenceMismatch:   "reference-mismatch",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "Unknown"
	}
	return kindNames[k]
}

// Flag is the spelling used on the command line.
func (k Kind) Flag() string {
	if k < 0 || k >= numKinds {
		return "unknown"
	}
	return kindFlags[k]
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// AllKinds returns every kind in report order.
func AllKinds() []Kind {
	ret := make([]Kind, numKinds)
	for i := range ret {
		ret[i] = Kind(i)
	}
	return ret
}

// ParseKind accepts either the flag spelling or the kind name, in any case.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	for _, k := range AllKinds() {
		if strings.EqualFold(s, k.Flag()) || strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return 0, errors.Newf("unknown discrepancy kind %q", s)
}

// Discrepancy is a single difference between the authoritative and the
// actual catalog. Column is empty for table level discrepancies.
type Discrepancy struct {
	Kind   Kind
	Table  dbtable.Name
	Column dbtable.Ident
	Detail string
}

// Compare orders discrepancies by table, kind, column and detail.
func (d Discrepancy) Compare(o Discrepancy) int {
	if c := d.Table.Compare(o.Table); c != 0 {
		return c
	}
	if d.Kind != o.Kind {
		if d.Kind < o.Kind {
			return -1
		}
		return 1
	}
	if c := d.Column.Key().Compare(o.Column.Key()); c != 0 {
		return c
	}
	return strings.Compare(d.Detail, o.Detail)
}

// Report is an ordered set of discrepancies. An empty report means the
// catalogs are consistent.
type Report struct {
	Discrepancies []Discrepancy
	// TablesCompared counts the tables present on both sides that were
	// compared column by column.
	TablesCompared int
}

// NewReport sorts the discrepancies into report order.
func NewReport(ds []Discrepancy) Report {
	sorted := append([]Discrepancy(nil), ds...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Compare(sorted[j]) < 0
	})
	return Report{Discrepancies: sorted}
}

func (r Report) Empty() bool {
	return len(r.Discrepancies) == 0
}

// Counts returns the number of discrepancies per kind.
func (r Report) Counts() map[Kind]int {
	ret := make(map[Kind]int)
	for _, d := range r.Discrepancies {
		ret[d.Kind]++
	}
	return ret
}

// Blocking returns the discrepancies the policy treats as fatal.
func (r Report) Blocking(p Policy) []Discrepancy {
	var ret []Discrepancy
	for _, d := range r.Discrepancies {
		if p.Blocks(d.Kind) {
			ret = append(ret, d)
		}
	}
	return ret
}

// TableGroup holds the discrepancies of one table, grouped by kind.
type TableGroup struct {
	Table dbtable.Name
	Kinds []KindGroup
}

type KindGroup struct {
	Kind          Kind
	Discrepancies []Discrepancy
}

// ByTable groups the report by table and then by kind, keeping report
// order.
func (r Report) ByTable() []TableGroup {
	var ret []TableGroup
	for _, d := range r.Discrepancies {
		if len(ret) == 0 || ret[len(ret)-1].Table.Compare(d.Table) != 0 {
			ret = append(ret, TableGroup{Table: d.Table})
		}
		tg := &ret[len(ret)-1]
		if len(tg.Kinds) == 0 || tg.Kinds[len(tg.Kinds)-1].Kind != d.Kind {
			tg.Kinds = append(tg.Kinds, KindGroup{Kind: d.Kind})
		}
		kg := &tg.Kinds[len(tg.Kinds)-1]
		kg.Discrepancies = append(kg.Discrepancies, d)
	}
	return ret
}

// Policy decides which kinds of discrepancy fail a validation run.
type Policy struct {
	blocking [numKinds]bool
}

// DefaultPolicy blocks on everything except extra tables, which actual
// schemas may legitimately carry.
func DefaultPolicy() Policy {
	var p Policy
	for _, k := range AllKinds() {
		p.blocking[k] = k != ExtraTable
	}
	return p
}

// NewPolicy blocks on exactly the given kinds.
func NewPolicy(kinds ...Kind) Policy {
	var p Policy
	for _, k := range kinds {
		if k >= 0 && k < numKinds {
			p.blocking[k] = true
		}
	}
	return p
}

// ParsePolicy parses a comma separated list of kinds. "all" and "none" are
// accepted, as is "default".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return DefaultPolicy(), nil
	case "all":
		return NewPolicy(AllKinds()...), nil
	case "none":
		return Policy{}, nil
	}
	var kinds []Kind
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, err := ParseKind(part)
		if err != nil {
			return Policy{}, err
		}
		kinds = append(kinds, k)
	}
	return NewPolicy(kinds...), nil
}

func (p Policy) Blocks(k Kind) bool {
	return k >= 0 && k < numKinds && p.blocking[k]
}

// Kinds returns the blocking kinds in report order.
func (p Policy) Kinds() []Kind {
	var ret []Kind
	for _, k := range AllKinds() {
		if p.blocking[k] {
			ret = append(ret, k)
		}
	}
	return ret
}
