package ddlparse

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/ggm-tools/ddlmodel/dbtable"
	"github.com/ggm-tools/ddlmodel/testutils"
	"github.com/stretchr/testify/require"
)

func TestDataDriven(t *testing.T) {
	datadriven.Walk(t, "testdata/parse", func(t *testing.T, path string) {
		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			switch d.Cmd {
			case "parse":
				return formatResult(Parse(Source{Name: "test.sql", Text: d.Input}))
			case "type":
				var sb strings.Builder
				for _, line := range strings.Split(d.Input, "\n") {
					dt, err := ParseDataType(line)
					if err != nil {
						sb.WriteString(fmt.Sprintf("error: %s\n", err.Error()))
						continue
					}
					sb.WriteString(dt.String() + "\n")
				}
				return sb.String()
			default:
				t.Fatalf("unknown command %s", d.Cmd)
			}
			return ""
		})
	})
}

func formatResult(res Result) string {
	var sb strings.Builder
	for _, tbl := range res.Catalog.Tables() {
		sb.WriteString(fmt.Sprintf("table %s", tbl.SafeString()))
		if tbl.Comment != "" {
			sb.WriteString(fmt.Sprintf(" comment=%q", tbl.Comment))
		}
		sb.WriteString("\n")
		for _, c := range tbl.Columns {
			typ := "<none>"
			if c.Type.Declared() {
				typ = c.Type.String()
			}
			sb.WriteString(fmt.Sprintf("  %s %s %s", c.Name, typ, c.Null))
			if c.PrimaryKey {
				sb.WriteString(" pk")
			}
			if c.Comment != "" {
				sb.WriteString(fmt.Sprintf(" comment=%q", c.Comment))
			}
			sb.WriteString("\n")
		}
		for _, fk := range tbl.ForeignKeys {
			sb.WriteString(fmt.Sprintf("  fk %s -> %s(%s)\n", fk.Column, fk.RefTable, fk.RefColumn))
		}
	}
	for _, e := range res.Errors {
		sb.WriteString(fmt.Sprintf("error: %s\n", e.Error()))
	}
	if sb.Len() == 0 {
		return "empty\n"
	}
	return sb.String()
}

func TestParseLastDefinitionWins(t *testing.T) {
	res := Parse(
		Source{Name: "a.sql", Text: "CREATE TABLE zaak (id INT PRIMARY KEY, oud VARCHAR(10));"},
		Source{Name: "b.sql", Text: "CREATE TABLE ZAAK (id BIGINT, nieuw TEXT);"},
	)
	require.Empty(t, res.Errors)
	require.NoError(t, res.Err())
	tbl, ok := res.Catalog.Get("zaak")
	require.True(t, ok)
	require.Equal(t, "b.sql", tbl.SourceFile)
	require.Equal(t, []dbtable.Column{
		{Name: "id", Type: dbtable.DataType{Name: "BIGINT"}, Null: dbtable.Nullable},
		{Name: "nieuw", Type: dbtable.DataType{Name: "TEXT"}, Null: dbtable.Nullable},
	}, tbl.Columns)
	require.Empty(t, tbl.PrimaryKey())
}

func TestParseErrorsDoNotStopOtherTables(t *testing.T) {
	res := Parse(Source{
		Name: "x.sql",
		Text: "CREATE TABLE a (id INT;\nCREATE TABLE b (id INT);\nCREATE TABLE c (",
	})
	require.Equal(t, 1, res.Catalog.Len())
	require.Len(t, res.Errors, 2)
	require.Equal(t, "a", res.Errors[0].Table)
	require.Equal(t, "c", res.Errors[1].Table)

	var perr *ParseError
	require.True(t, errors.As(res.Err(), &perr))
}

func TestParseFiles(t *testing.T) {
	dir := t.TempDir()
	paths := testutils.WriteFiles(t, dir, map[string]string{
		"01_base.sql":            "CREATE TABLE zaak (id INT PRIMARY KEY, oud INT);",
		"02_override/zaak.sql":   "CREATE TABLE zaak (id INT PRIMARY KEY, nieuw INT);",
		"03_keys/keys.sql":       "ALTER TABLE zaak ADD CONSTRAINT fk FOREIGN KEY (nieuw) REFERENCES ander (id);",
		"notes.txt":              "CREATE TABLE genegeerd (id INT);",
		"04_broken/broken.sql":   "CREATE TABLE kapot (id INT",
		"05_comments/zaak.SQL":   "COMMENT ON TABLE zaak IS 'Een zaak';",
		"06_other/betrokken.sql": "CREATE TABLE betrokkene (id INT);",
	})
	require.Len(t, paths, 7)

	found, err := FindDDLFiles(dir)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "01_base.sql"),
		filepath.Join(dir, "02_override", "zaak.sql"),
		filepath.Join(dir, "03_keys", "keys.sql"),
		filepath.Join(dir, "04_broken", "broken.sql"),
		filepath.Join(dir, "05_comments", "zaak.SQL"),
		filepath.Join(dir, "06_other", "betrokken.sql"),
	}, found)

	res, err := ParseDir(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 2, res.Catalog.Len())
	require.Len(t, res.Errors, 1)
	require.Equal(t, filepath.Join(dir, "04_broken", "broken.sql"), res.Errors[0].File)

	zaak, ok := res.Catalog.Get("zaak")
	require.True(t, ok)
	require.Equal(t, "Een zaak", zaak.Comment)
	require.Equal(t, []dbtable.Ident{"id"}, zaak.PrimaryKey())
	require.Equal(t, []dbtable.ForeignKey{{Column: "nieuw", RefTable: "ander", RefColumn: "id"}}, zaak.ForeignKeys)
	require.Equal(t, -1, zaak.ColumnIndex("oud"))

	_, err = ParseFiles(context.Background(), []string{filepath.Join(dir, "missing.sql")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "error reading DDL file")
}

func TestDiscoverDir(t *testing.T) {
	root := t.TempDir()
	_, err := DiscoverDir(root)
	require.Error(t, err)

	testutils.WriteFiles(t, root, map[string]string{
		"ggm/selectie/leeg.txt": "",
		"ggm/ddl/tabellen.sql":  "CREATE TABLE a (id INT);",
	})
	dir, err := DiscoverDir(root)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "ggm", "ddl"), dir)
}
