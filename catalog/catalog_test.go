package catalog

import (
	"testing"

	"github.com/ggm-tools/ddlmodel/dbtable"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	c := New()
	require.False(t, c.Put(dbtable.Table{
		Name:    dbtable.Name{Table: "Zaak"},
		Columns: []dbtable.Column{{Name: "a"}, {Name: "b"}},
	}))
	require.False(t, c.Put(dbtable.Table{Name: dbtable.Name{Table: "adres"}}))
	require.True(t, c.Put(dbtable.Table{
		Name:    dbtable.Name{Table: "ZAAK"},
		Columns: []dbtable.Column{{Name: "c"}},
	}))
	require.Equal(t, 2, c.Len())

	got, ok := c.Get("zaak")
	require.True(t, ok)
	require.Equal(t, dbtable.Ident("ZAAK"), got.Table)
	require.Equal(t, []dbtable.Column{{Name: "c"}}, got.Columns)

	var names []dbtable.Ident
	for _, tbl := range c.Tables() {
		names = append(names, tbl.Table)
	}
	require.Equal(t, []dbtable.Ident{"adres", "ZAAK"}, names)

	filtered := c.Filter(func(t dbtable.Table) bool { return len(t.Columns) > 0 })
	require.Equal(t, 1, filtered.Len())
	require.Equal(t, 2, c.Len())
}
