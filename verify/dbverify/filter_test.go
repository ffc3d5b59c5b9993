package dbverify

import (
	"testing"

	"github.com/ggm-tools/ddlmodel/dbtable"
	"github.com/stretchr/testify/require"
)

func TestFilterResult(t *testing.T) {
	tbl := func(schema, table dbtable.Ident) dbtable.Table {
		return dbtable.Table{Name: dbtable.Name{Schema: schema, Table: table}}
	}
	input := Result{
		Verified: [][2]dbtable.Table{
			{tbl("aaa", "aaa"), tbl("aaa", "aaa")},
			{tbl("aaa", "bbb"), tbl("aaa", "bbb")},
			{tbl("ccc", "bbb"), tbl("ccc", "bbb")},
		},
		MissingTables: []dbtable.Table{tbl("aaa", "aaa"), tbl("aaa", "bbb"), tbl("ccc", "aaa")},
		ExtraTables:   []dbtable.Table{tbl("aaa", "aaa"), tbl("aaa", "bbb"), tbl("ccc", "Aaa")},
	}

	for _, tc := range []struct {
		desc     string
		config   FilterConfig
		expected Result
	}{
		{
			desc:     "default filter",
			config:   DefaultFilterConfig(),
			expected: input,
		},
		{
			desc: "table filter",
			config: FilterConfig{
				SchemaFilter: DefaultFilterString,
				TableFilter:  "b",
			},
			expected: Result{
				Verified: [][2]dbtable.Table{
					{tbl("aaa", "bbb"), tbl("aaa", "bbb")},
					{tbl("ccc", "bbb"), tbl("ccc", "bbb")},
				},
				MissingTables: []dbtable.Table{tbl("aaa", "bbb")},
				ExtraTables:   []dbtable.Table{tbl("aaa", "bbb")},
			},
		},
		{
			desc: "schema filter",
			config: FilterConfig{
				SchemaFilter: "c",
				TableFilter:  DefaultFilterString,
			},
			expected: Result{
				Verified: [][2]dbtable.Table{
					{tbl("ccc", "bbb"), tbl("ccc", "bbb")},
				},
				MissingTables: []dbtable.Table{tbl("ccc", "aaa")},
				ExtraTables:   []dbtable.Table{tbl("ccc", "Aaa")},
			},
		},
		{
			desc: "lower-cased names match",
			config: FilterConfig{
				SchemaFilter: DefaultFilterString,
				TableFilter:  "^aaa$",
			},
			expected: Result{
				Verified: [][2]dbtable.Table{
					{tbl("aaa", "aaa"), tbl("aaa", "aaa")},
				},
				MissingTables: []dbtable.Table{tbl("aaa", "aaa"), tbl("ccc", "aaa")},
				ExtraTables:   []dbtable.Table{tbl("aaa", "aaa"), tbl("ccc", "Aaa")},
			},
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			r, err := FilterResult(tc.config, input)
			require.NoError(t, err)
			require.Equal(t, tc.expected, r)
		})
	}
}

func TestFilterResultInvalid(t *testing.T) {
	_, err := FilterResult(FilterConfig{SchemaFilter: "(", TableFilter: DefaultFilterString}, Result{})
	require.Error(t, err)
	require.Contains(t, err.Error(), `invalid schema filter "("`)

	_, err = FilterResult(FilterConfig{SchemaFilter: DefaultFilterString, TableFilter: "["}, Result{})
	require.Error(t, err)
	require.Contains(t, err.Error(), `invalid table filter "["`)
}
