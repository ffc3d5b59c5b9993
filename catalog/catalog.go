// Package catalog holds a set of table definitions keyed by normalized name.
package catalog

import (
	"sort"

	"github.com/ggm-tools/ddlmodel/dbtable"
)

// Catalog maps normalized table names to definitions. Putting a table whose
// name already exists replaces the previous definition entirely.
type Catalog struct {
	tables map[dbtable.Key]dbtable.Table
}

func New() *Catalog {
	return &Catalog{tables: make(map[dbtable.Key]dbtable.Table)}
}

// Put stores t, replacing any definition with the same name. It reports
// whether a definition was replaced.
func (c *Catalog) Put(t dbtable.Table) bool {
	_, replaced := c.tables[t.Key()]
	c.tables[t.Key()] = t
	return replaced
}

func (c *Catalog) Get(name dbtable.Ident) (dbtable.Table, bool) {
	t, ok := c.tables[name.Key()]
	return t, ok
}

func (c *Catalog) Len() int {
	return len(c.tables)
}

// Tables returns all definitions sorted by normalized name.
func (c *Catalog) Tables() []dbtable.Table {
	ret := make([]dbtable.Table, 0, len(c.tables))
	for _, t := range c.tables {
		ret = append(ret, t)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Less(ret[j].Name)
	})
	return ret
}

// Filter returns a new catalog holding the tables for which keep returns
// true.
func (c *Catalog) Filter(keep func(dbtable.Table) bool) *Catalog {
	ret := New()
	for _, t := range c.tables {
		if keep(t) {
			ret.Put(t)
		}
	}
	return ret
}
