package snapshot

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/ggm-tools/ddlmodel/dbtable"
	"github.com/ggm-tools/ddlmodel/ddlparse"
	"github.com/ggm-tools/ddlmodel/testutils"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

const ddl = `
CREATE TABLE client (rechtspersoon_id INT PRIMARY KEY, code VARCHAR(80) NOT NULL);
CREATE TABLE GGM.Zaak (id NUMBER(*,0), client_id INT REFERENCES client, omschrijving TEXT);
COMMENT ON TABLE client IS 'Een client';
`

func TestDump(t *testing.T) {
	res := ddlparse.Parse(ddlparse.Source{Name: "ggm.sql", Text: ddl})
	require.NoError(t, res.Err())

	var sb strings.Builder
	require.NoError(t, Dump(&sb, res.Catalog))
	require.Equal(t, `tables:
  - name: client
    comment: Een client
    columns:
      - name: rechtspersoon_id
        type: INT
        nullable: false
        primary_key: true
      - name: code
        type: VARCHAR(80)
        nullable: false
  - name: Zaak
    schema: GGM
    columns:
      - name: id
        type: NUMBER(MAX)
        nullable: true
      - name: client_id
        type: INT
        nullable: true
      - name: omschrijving
        type: TEXT
        nullable: true
    foreign_keys:
      - column: client_id
        referenced_table: client
`, sb.String())

	loaded, err := Load(strings.NewReader(sb.String()), "snap.yaml")
	require.NoError(t, err)
	ignoreSource := cmpopts.IgnoreFields(dbtable.Table{}, "SourceFile")
	if diff := cmp.Diff(res.Catalog.Tables(), loaded.Tables(), ignoreSource); diff != "" {
		t.Errorf("round trip mismatch (-dumped +loaded):\n%s", diff)
	}
	for _, tbl := range loaded.Tables() {
		require.Equal(t, "snap.yaml", tbl.SourceFile)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	paths := testutils.WriteFiles(t, dir, map[string]string{
		"live.json": `{"tables": [{"name": "client", "columns": [
  {"name": "rechtspersoon_id", "type": "integer", "primary_key": true},
  {"name": "code", "type": "character varying(80)", "nullable": true}
]}]}`,
	})
	cat, err := LoadFile(paths[0])
	require.NoError(t, err)
	tbl, ok := cat.Get("CLIENT")
	require.True(t, ok)
	require.Equal(t, filepath.Join(dir, "live.json"), tbl.SourceFile)
	require.Equal(t, []dbtable.Column{
		{Name: "rechtspersoon_id", Type: dbtable.DataType{Name: "INTEGER"}, PrimaryKey: true},
		{Name: "code", Type: dbtable.DataType{Name: "CHARACTER VARYING", Args: []int{80}}, Null: dbtable.Nullable},
	}, tbl.Columns)
}

func TestLoadErrors(t *testing.T) {
	for _, tc := range []struct {
		desc          string
		doc           string
		expectedError string
	}{
		{
			desc:          "bad type",
			doc:           "tables: [{name: t, columns: [{name: a, type: 'INT NOT NULL'}]}]",
			expectedError: `x.yaml: table t column a: unexpected "NOT NULL" after type "INT"`,
		},
		{
			desc:          "unknown key column",
			doc:           "tables: [{name: t, columns: [{name: a}], foreign_keys: [{column: b, referenced_table: u}]}]",
			expectedError: "x.yaml: table t foreign key names unknown column b",
		},
		{
			desc:          "duplicate column",
			doc:           "tables: [{name: t, columns: [{name: a}, {name: A}]}]",
			expectedError: "x.yaml: table t has duplicate column A",
		},
		{
			desc:          "unnamed table",
			doc:           "tables: [{columns: []}]",
			expectedError: "x.yaml: table 1 has no name",
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.doc), "x.yaml")
			require.EqualError(t, err, tc.expectedError)
		})
	}

	_, err := Load(strings.NewReader("tables: [{name: t, kolommen: []}]"), "x.yaml")
	require.Error(t, err)
	require.Contains(t, err.Error(), "error decoding snapshot x.yaml")
}
