package modelgen

import (
	"fmt"
	"strings"

	"github.com/ggm-tools/ddlmodel/catalog"
	"github.com/ggm-tools/ddlmodel/dbtable"
)

// UnknownTableError lists requested tables absent from the catalog.
type UnknownTableError struct {
	Names []string
}

func (e *UnknownTableError) Error() string {
	return fmt.Sprintf("unknown table(s) requested: %s", strings.Join(e.Names, ", "))
}

// SelectTables returns the named tables in the order requested, or every
// table in key order when no names are given. A requested name may appear
// more than once but is returned once.
func SelectTables(cat *catalog.Catalog, names []string) ([]dbtable.Table, error) {
	if len(names) == 0 {
		return cat.Tables(), nil
	}
	var ret []dbtable.Table
	var unknown []string
	seen := make(map[dbtable.Key]struct{})
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := dbtable.Ident(n).Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		tbl, ok := cat.Get(dbtable.Ident(n))
		if !ok {
			unknown = append(unknown, n)
			continue
		}
		ret = append(ret, tbl)
	}
	if len(unknown) > 0 {
		return nil, &UnknownTableError{Names: unknown}
	}
	return ret, nil
}
