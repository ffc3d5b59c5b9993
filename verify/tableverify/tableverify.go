// Package tableverify compares the definitions of a table present in both
// the authoritative and the actual catalog.
package tableverify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ggm-tools/ddlmodel/dbtable"
	"github.com/ggm-tools/ddlmodel/typemap"
	"github.com/ggm-tools/ddlmodel/verify/inconsistency"
)

type Options struct {
	// CheckReferences enables ReferenceMismatch discrepancies.
	CheckReferences bool
	// RequireKey reports an authoritative table without a key even when the
	// actual side has none either.
	RequireKey bool
}

// VerifyTable returns the discrepancies between the authoritative and the
// actual definition of one table. Columns are matched by key. Discrepancies
// are named after the authoritative table.
func VerifyTable(truth, actual dbtable.Table, opts Options) []inconsistency.Discrepancy {
	var ret []inconsistency.Discrepancy
	report := func(kind inconsistency.Kind, col dbtable.Ident, detail string) {
		ret = append(ret, inconsistency.Discrepancy{
			Kind:   kind,
			Table:  truth.Name,
			Column: col,
			Detail: detail,
		})
	}

	actualCols := mapColumns(actual.Columns)
	for _, truthCol := range truth.Columns {
		actualCol, ok := actualCols[truthCol.Name.Key()]
		if !ok {
			report(inconsistency.MissingColumn, truthCol.Name, "column missing from actual")
			continue
		}
		delete(actualCols, truthCol.Name.Key())

		// A side without a declared type cannot be compared.
		if truthCol.Type.Declared() && actualCol.Type.Declared() &&
			!typemap.Equivalent(typemap.Map(truthCol.Type), typemap.Map(actualCol.Type)) {
			report(
				inconsistency.TypeMismatch,
				truthCol.Name,
				fmt.Sprintf("expected %s, got %s", truthCol.Type, actualCol.Type),
			)
		}
		if truthCol.Null != dbtable.NullUnknown && actualCol.Null != dbtable.NullUnknown &&
			truthCol.Null != actualCol.Null {
			report(
				inconsistency.NullabilityMismatch,
				truthCol.Name,
				fmt.Sprintf("expected %s, got %s", truthCol.Null, actualCol.Null),
			)
		}
	}
	// Whatever is left over only exists on the actual side. Walk the actual
	// columns to keep their spelling.
	for _, actualCol := range actual.Columns {
		if _, ok := actualCols[actualCol.Name.Key()]; ok {
			report(inconsistency.ExtraColumn, actualCol.Name, "column not in authoritative DDL")
		}
	}

	truthPK := truth.PrimaryKey()
	actualPK := actual.PrimaryKey()
	switch {
	case len(truthPK) == 0 && opts.RequireKey:
		report(inconsistency.KeyMismatch, "", "authoritative table declares no key")
	case !sameKeys(truthPK, actualPK):
		report(
			inconsistency.KeyMismatch,
			"",
			fmt.Sprintf("expected key %s, got %s", formatIdents(truthPK), formatIdents(actualPK)),
		)
	}

	if opts.CheckReferences {
		truthRefs := referenceColumns(truth)
		actualRefs := referenceColumns(actual)
		if !sameKeys(truthRefs, actualRefs) {
			report(
				inconsistency.ReferenceMismatch,
				"",
				fmt.Sprintf("expected references %s, got %s", formatIdents(truthRefs), formatIdents(actualRefs)),
			)
		}
	}
	return ret
}

func mapColumns(cols []dbtable.Column) map[dbtable.Key]dbtable.Column {
	ret := make(map[dbtable.Key]dbtable.Column, len(cols))
	for _, col := range cols {
		ret[col.Name.Key()] = col
	}
	return ret
}

// referenceColumns returns the local columns carrying a foreign key, each
// once, in declaration order.
func referenceColumns(t dbtable.Table) []dbtable.Ident {
	var ret []dbtable.Ident
	seen := make(map[dbtable.Key]struct{})
	for _, fk := range t.ForeignKeys {
		if _, ok := seen[fk.Column.Key()]; ok {
			continue
		}
		seen[fk.Column.Key()] = struct{}{}
		ret = append(ret, fk.Column)
	}
	return ret
}

// sameKeys compares two identifier lists as sets of keys.
func sameKeys(a, b []dbtable.Ident) bool {
	ka, kb := sortedKeys(a), sortedKeys(b)
	if len(ka) != len(kb) {
		return false
	}
	for i := range ka {
		if ka[i] != kb[i] {
			return false
		}
	}
	return true
}

func sortedKeys(idents []dbtable.Ident) []dbtable.Key {
	seen := make(map[dbtable.Key]struct{}, len(idents))
	ret := make([]dbtable.Key, 0, len(idents))
	for _, id := range idents {
		if _, ok := seen[id.Key()]; ok {
			continue
		}
		seen[id.Key()] = struct{}{}
		ret = append(ret, id.Key())
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Compare(ret[j]) < 0
	})
	return ret
}

func formatIdents(idents []dbtable.Ident) string {
	parts := make([]string, len(idents))
	for i, id := range idents {
		parts[i] = string(id)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
