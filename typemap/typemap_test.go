package typemap_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/ggm-tools/ddlmodel/dbtable"
	"github.com/ggm-tools/ddlmodel/ddlparse"
	"github.com/ggm-tools/ddlmodel/typemap"
	"github.com/stretchr/testify/require"
)

func TestDataDriven(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			var sb strings.Builder
			switch d.Cmd {
			case "map":
				for _, line := range strings.Split(d.Input, "\n") {
					dt, err := ddlparse.ParseDataType(line)
					require.NoError(t, err)
					sb.WriteString(fmt.Sprintf("%s %s\n", typemap.Map(dt), typemap.CastTarget(dt)))
				}
			case "equivalent":
				for _, line := range strings.Split(d.Input, "\n") {
					sides := strings.SplitN(line, " vs ", 2)
					require.Len(t, sides, 2, "expected <type> vs <type>: %s", line)
					auth, err := ddlparse.ParseDataType(sides[0])
					require.NoError(t, err)
					actual, err := ddlparse.ParseDataType(sides[1])
					require.NoError(t, err)
					a, b := typemap.Map(auth), typemap.Map(actual)
					sb.WriteString(fmt.Sprintf("%s vs %s: %t\n", a, b, typemap.Equivalent(a, b)))
				}
			default:
				t.Fatalf("unknown command %s", d.Cmd)
			}
			return sb.String()
		})
	})
}

func TestUndeclared(t *testing.T) {
	c := typemap.Map(dbtable.DataType{})
	require.Equal(t, typemap.Unknown, c.Kind)
	require.Equal(t, "VARCHAR", typemap.CastTarget(dbtable.DataType{}))
}

func TestMapIsTotal(t *testing.T) {
	for _, tc := range []struct {
		desc     string
		dt       dbtable.DataType
		expected typemap.Canonical
	}{
		{
			desc:     "unknown name",
			dt:       dbtable.DataType{Name: "GEOMETRY"},
			expected: typemap.Canonical{Kind: typemap.Unknown, Name: "GEOMETRY"},
		},
		{
			desc:     "length ignored on unsized family",
			dt:       dbtable.DataType{Name: "TEXT", Args: []int{100}},
			expected: typemap.Canonical{Kind: typemap.VarText, Name: "TEXT"},
		},
		{
			desc:     "qualifier falls back to base word",
			dt:       dbtable.DataType{Name: "BIGINT UNSIGNED ZEROFILL"},
			expected: typemap.Canonical{Kind: typemap.Integer, Name: "BIGINT UNSIGNED ZEROFILL"},
		},
		{
			desc:     "lower case name",
			dt:       dbtable.DataType{Name: "varchar", Args: []int{5}},
			expected: typemap.Canonical{Kind: typemap.VarText, Constrained: true, Length: 5, Name: "VARCHAR"},
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			require.Equal(t, tc.expected, typemap.Map(tc.dt))
		})
	}
}
