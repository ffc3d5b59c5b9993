package cmdutil

import (
	"testing"

	"github.com/ggm-tools/ddlmodel/ddlparse"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestCheckParse(t *testing.T) {
	res := ddlparse.Parse(ddlparse.Source{Name: "ggm.sql", Text: `
CREATE TABLE client (id INT PRIMARY KEY);
CREATE TABLE kapot (id INT, PRIMARY KEY (bestaat_niet));
`})
	require.Len(t, res.Errors, 1)

	_, err := checkParse(zerolog.Nop(), res, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "1 DDL statements failed to parse")

	cat, err := checkParse(zerolog.Nop(), res, true)
	require.NoError(t, err)
	require.Equal(t, 1, cat.Len())
}
