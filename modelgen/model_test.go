package modelgen

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/ggm-tools/ddlmodel/catalog"
	"github.com/ggm-tools/ddlmodel/dbtable"
	"github.com/ggm-tools/ddlmodel/ddlparse"
	"github.com/stretchr/testify/require"
)

func parseTable(t *testing.T, file, ddl string, name dbtable.Ident) dbtable.Table {
	res := ddlparse.Parse(ddlparse.Source{Name: file, Text: ddl})
	require.NoError(t, res.Err())
	tbl, ok := res.Catalog.Get(name)
	require.True(t, ok)
	return tbl
}

func TestGenerate(t *testing.T) {
	for _, tc := range []struct {
		desc     string
		file     string
		ddl      string
		table    dbtable.Ident
		opts     []GenerateOpt
		expected string
	}{
		{
			desc:  "single key",
			file:  "ggm/Sociaal_Domein__Objects_postgres.sql",
			ddl:   "CREATE TABLE client (rechtspersoon_id INT PRIMARY KEY, code VARCHAR(80));",
			table: "client",
			expected: `MODEL (
    name silver.client,
    kind FULL,
    description 'GGM-tabel van Sociaal Domein - Objects',
    grains rechtspersoon_id
);

-- Transformatie stg.client -> silver.client
-- Bron DDL: Sociaal_Domein__Objects_postgres.sql

SELECT
    CAST(rechtspersoon_id AS INT) AS rechtspersoon_id,  -- PRIMARY KEY
    CAST(code AS VARCHAR(80)) AS code
FROM stg.client
`,
		},
		{
			desc: "composite key with references and placeholders",
			ddl: `CREATE TABLE "Beschikking Regel" (
  id INT,
  volgnr INT,
  client_id INT REFERENCES client (rechtspersoon_id),
  "Omschrijving" TEXT,
  PRIMARY KEY (id, volgnr),
  FOREIGN KEY (client_id) REFERENCES client (rechtspersoon_id)
);
COMMENT ON TABLE "Beschikking Regel" IS 'Regel van een beschikking';
COMMENT ON COLUMN "Beschikking Regel"."Omschrijving" IS 'Vrije tekst, o''a';`,
			table: "beschikking regel",
			opts: []GenerateOpt{
				WithSchema("gold"),
				WithNullPlaceholders(true),
				WithColumnMappings(map[string]string{"VOLGNR": "ROW_NUMBER() OVER ()"}),
			},
			expected: `MODEL (
    name gold."beschikking regel",
    kind FULL,
    description 'Regel van een beschikking',
    grains (id, volgnr),
    references client_id,
    column_descriptions (
        Omschrijving = 'Vrije tekst, o''a'
    )
);

-- Transformatie stg."Beschikking Regel" -> gold."beschikking regel"

SELECT
    CAST(NULL AS INT) AS id,  -- PRIMARY KEY
    CAST(ROW_NUMBER() OVER () AS INT) AS volgnr,  -- PRIMARY KEY
    CAST(NULL AS INT) AS client_id,
    CAST(NULL AS TEXT) AS Omschrijving
FROM stg."Beschikking Regel"
`,
		},
		{
			desc:  "oracle types and source table",
			file:  "x.sql",
			ddl:   "CREATE TABLE ZAAK (ID NUMBER(*,0) NOT NULL, BEDRAG NUMBER(10,2), NAAM VARCHAR2(80 CHAR), OPGESLAGEN DATE, DATA CLOB, GEO SDO_GEOMETRY, CONSTRAINT ZAAK_PK PRIMARY KEY (ID));",
			table: "zaak",
			opts:  []GenerateOpt{WithSourceTable("raw.zaken"), WithSourceSchema("ignored")},
			expected: `MODEL (
    name silver.zaak,
    kind FULL,
    description 'GGM-tabel van x',
    grains ID
);

-- Transformatie raw.zaken -> silver.zaak
-- Bron DDL: x.sql

SELECT
    CAST(ID AS DECIMAL) AS ID,  -- PRIMARY KEY
    CAST(BEDRAG AS DECIMAL(10,2)) AS BEDRAG,
    CAST(NAAM AS VARCHAR(80)) AS NAAM,
    CAST(OPGESLAGEN AS DATE) AS OPGESLAGEN,
    CAST(DATA AS TEXT) AS DATA,
    CAST(GEO AS SDO_GEOMETRY) AS GEO
FROM raw.zaken
`,
		},
		{
			desc:  "reserved words and literal type modifiers",
			file:  "x.sql",
			ddl:   `CREATE TABLE "order" ("select" INT PRIMARY KEY, "group" VARCHAR(10), Soort ENUM('a','b'), "User" TEXT);`,
			table: "order",
			expected: `MODEL (
    name silver."order",
    kind FULL,
    description 'GGM-tabel van x',
    grains "select"
);

-- Transformatie stg."order" -> silver."order"
-- Bron DDL: x.sql

SELECT
    CAST("select" AS INT) AS "select",  -- PRIMARY KEY
    CAST("group" AS VARCHAR(10)) AS "group",
    CAST(Soort AS ENUM('a', 'b')) AS Soort,
    CAST("User" AS TEXT) AS "User"
FROM stg."order"
`,
		},
		{
			desc:  "no columns",
			file:  "x.sql",
			ddl:   "CREATE TABLE leeg ();",
			table: "leeg",
			expected: `MODEL (
    name silver.leeg,
    kind FULL,
    description 'GGM-tabel van x'
);

-- Transformatie stg.leeg -> silver.leeg
-- Bron DDL: x.sql

SELECT
FROM stg.leeg
`,
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			m := Generate(parseTable(t, tc.file, tc.ddl, tc.table), tc.opts...)
			require.Equal(t, tc.expected, m.SQL())

			var sb strings.Builder
			require.NoError(t, Render(&sb, m))
			require.Equal(t, tc.expected, sb.String())
		})
	}
}

func TestGenerateModel(t *testing.T) {
	tbl := parseTable(
		t,
		"a.sql",
		"CREATE TABLE Adres (Id INT, Straat VARCHAR(80), land_code CHAR(2) REFERENCES land, PRIMARY KEY (Id));",
		"adres",
	)
	m := Generate(tbl)
	require.Equal(t, "silver.adres", m.Name)
	require.Equal(t, "adres.sql", m.FileName())
	require.Equal(t, []dbtable.Ident{"Id"}, m.Grain)
	require.Equal(t, []dbtable.Ident{"land_code"}, m.References)
	require.Equal(t, []Projection{
		{Column: "Id", Source: "Id", CastType: "INT", PrimaryKey: true},
		{Column: "Straat", Source: "Straat", CastType: "VARCHAR(80)"},
		{Column: "land_code", Source: "land_code", CastType: "CHAR(2)"},
	}, m.Projections)
}

func TestGenerateReservedWordsReadBack(t *testing.T) {
	tbl := parseTable(t, "x.sql", `CREATE TABLE "group" ("order" INT, "select" DATE, PRIMARY KEY ("order"));`, "group")
	m := Generate(tbl)
	read, err := ParseModel(ddlparse.Source{Name: m.FileName(), Text: m.SQL()})
	require.NoError(t, err)
	require.Equal(t, dbtable.Name{Schema: "silver", Table: "group"}, read.Name)
	require.Equal(t, []dbtable.Ident{"order"}, read.PrimaryKey())
	var names []dbtable.Ident
	for _, c := range read.Columns {
		names = append(names, c.Name)
	}
	require.Equal(t, []dbtable.Ident{"order", "select"}, names)
}

func TestFileName(t *testing.T) {
	for _, tc := range []struct {
		desc     string
		table    dbtable.Ident
		expected string
	}{
		{desc: "plain", table: "Adres", expected: "adres.sql"},
		{desc: "parent directory", table: "../Uit", expected: ".._uit.sql"},
		{desc: "nested", table: `a/b\c`, expected: "a_b_c.sql"},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			m := Generate(dbtable.Table{Name: dbtable.Name{Table: tc.table}})
			require.Equal(t, tc.expected, m.FileName())
		})
	}
}

func TestSelectTables(t *testing.T) {
	cat := catalog.New()
	for _, n := range []dbtable.Ident{"client", "Zaak", "adres"} {
		cat.Put(dbtable.Table{Name: dbtable.Name{Table: n}})
	}

	for _, tc := range []struct {
		desc          string
		names         []string
		expected      []dbtable.Ident
		expectedError []string
	}{
		{desc: "all", expected: []dbtable.Ident{"adres", "client", "Zaak"}},
		{desc: "request order", names: []string{"ZAAK", " client", "zaak"}, expected: []dbtable.Ident{"Zaak", "client"}},
		{desc: "unknown", names: []string{"client", "klant", "Zaaak"}, expectedError: []string{"klant", "Zaaak"}},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			tbls, err := SelectTables(cat, tc.names)
			if tc.expectedError != nil {
				var unknownErr *UnknownTableError
				require.True(t, errors.As(err, &unknownErr))
				require.Equal(t, tc.expectedError, unknownErr.Names)
				require.Nil(t, tbls)
				return
			}
			require.NoError(t, err)
			var names []dbtable.Ident
			for _, tbl := range tbls {
				names = append(names, tbl.Table)
			}
			require.Equal(t, tc.expected, names)
		})
	}
}
