package modelgen

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ggm-tools/ddlmodel/dbtable"
)

const indent = "    "

// Render writes the model text. The output depends only on the model.
func Render(w io.Writer, m Model) error {
	if _, err := io.WriteString(w, m.SQL()); err != nil {
		return errors.Wrapf(err, "error writing model %s", m.Name)
	}
	return nil
}

// SQL returns the model text.
func (m Model) SQL() string {
	var props []string
	props = append(props, "name "+m.Name)
	props = append(props, "kind "+m.Kind)
	if m.Description != "" {
		props = append(props, "description "+quoteString(m.Description))
	}
	if len(m.Grain) > 0 {
		props = append(props, "grains "+identList(m.Grain))
	}
	if len(m.References) > 0 {
		props = append(props, "references "+identList(m.References))
	}
	if len(m.ColumnDescriptions) > 0 {
		var sb strings.Builder
		sb.WriteString("column_descriptions (\n")
		for i, cd := range m.ColumnDescriptions {
			sb.WriteString(fmt.Sprintf("%s%s%s = %s", indent, indent, quoteIdent(string(cd.Column)), quoteString(cd.Description)))
			if i < len(m.ColumnDescriptions)-1 {
				sb.WriteByte(',')
			}
			sb.WriteByte('\n')
		}
		sb.WriteString(indent + ")")
		props = append(props, sb.String())
	}

	var sb strings.Builder
	sb.WriteString("MODEL (\n")
	for i, p := range props {
		sb.WriteString(indent + p)
		if i < len(props)-1 {
			sb.WriteByte(',')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(");\n\n")

	sb.WriteString(fmt.Sprintf("-- Transformatie %s -> %s\n", m.SourceTable, m.Name))
	if m.SourceFile != "" {
		sb.WriteString(fmt.Sprintf("-- Bron DDL: %s\n", filepath.Base(m.SourceFile)))
	}
	sb.WriteString("\nSELECT\n")
	for i, p := range m.Projections {
		sb.WriteString(fmt.Sprintf("%sCAST(%s AS %s) AS %s", indent, p.Source, p.CastType, quoteIdent(string(p.Column))))
		if i < len(m.Projections)-1 {
			sb.WriteByte(',')
		}
		if p.PrimaryKey {
			sb.WriteString("  -- PRIMARY KEY")
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("FROM " + m.SourceTable + "\n")
	return sb.String()
}

func identList(ids []dbtable.Ident) string {
	if len(ids) == 1 {
		return quoteIdent(string(ids[0]))
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = quoteIdent(string(id))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
