// Package modelgen turns table definitions into SQLMesh model definitions
// and reads such models back into table definitions.
package modelgen

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/lexbase"
	"github.com/ggm-tools/ddlmodel/dbtable"
	"github.com/ggm-tools/ddlmodel/typemap"
)

const (
	DefaultSchema       = "silver"
	DefaultSourceSchema = "stg"
	DefaultKind         = "FULL"
	descriptionPrefix   = "GGM-tabel van "
)

// Projection is a single output column of a model.
type Projection struct {
	Column dbtable.Ident
	// Source is the expression cast to CastType.
	Source     string
	CastType   string
	PrimaryKey bool
}

type ColumnDescription struct {
	Column      dbtable.Ident
	Description string
}

// Model is a model definition ready to be rendered.
type Model struct {
	Name               string
	Table              dbtable.Name
	Kind               string
	Description        string
	Grain              []dbtable.Ident
	References         []dbtable.Ident
	ColumnDescriptions []ColumnDescription
	Projections        []Projection
	SourceTable        string
	SourceFile         string
}

// FileName is the file the model is stored under. Path separators in the
// table name are replaced so the model always lands in the store's root.
func (m Model) FileName() string {
	return fileNameReplacer.Replace(strings.ToLower(string(m.Table.Table))) + ".sql"
}

var fileNameReplacer = strings.NewReplacer("/", "_", `\`, "_", "\x00", "_")

type GenerateOpt func(*generateOpts)

type generateOpts struct {
	schema           string
	sourceSchema     string
	sourceTable      string
	nullPlaceholders bool
	columnMappings   map[dbtable.Key]string
}

func WithSchema(s string) GenerateOpt {
	return func(o *generateOpts) {
		if s != "" {
			o.schema = s
		}
	}
}

func WithSourceSchema(s string) GenerateOpt {
	return func(o *generateOpts) {
		if s != "" {
			o.sourceSchema = s
		}
	}
}

// WithSourceTable selects from the given table instead of the table of the
// same name in the source schema.
func WithSourceTable(s string) GenerateOpt {
	return func(o *generateOpts) {
		o.sourceTable = s
	}
}

// WithNullPlaceholders casts NULL instead of the source column, for models
// whose source mapping is still to be written.
func WithNullPlaceholders(b bool) GenerateOpt {
	return func(o *generateOpts) {
		o.nullPlaceholders = b
	}
}

// WithColumnMappings sets the source expression per output column. Columns
// without a mapping read the source column of the same name.
func WithColumnMappings(m map[string]string) GenerateOpt {
	return func(o *generateOpts) {
		for k, v := range m {
			o.columnMappings[dbtable.Ident(k).Key()] = v
		}
	}
}

// Generate builds the model for a table. It never fails: a table without
// columns yields a model without projections.
func Generate(tbl dbtable.Table, inOpts ...GenerateOpt) Model {
	opts := generateOpts{
		schema:         DefaultSchema,
		sourceSchema:   DefaultSourceSchema,
		columnMappings: make(map[dbtable.Key]string),
	}
	for _, applyOpt := range inOpts {
		applyOpt(&opts)
	}

	m := Model{
		Name:        quoteIdent(opts.schema) + "." + quoteIdent(strings.ToLower(string(tbl.Table))),
		Table:       tbl.Name,
		Kind:        DefaultKind,
		Description: describe(tbl),
		Grain:       tbl.PrimaryKey(),
		SourceTable: opts.sourceTable,
		SourceFile:  tbl.SourceFile,
	}
	if m.SourceTable == "" {
		m.SourceTable = quoteIdent(opts.sourceSchema) + "." + quoteIdent(string(tbl.Table))
	}

	seen := make(map[dbtable.Key]struct{})
	for _, fk := range tbl.ForeignKeys {
		if _, ok := seen[fk.Column.Key()]; ok {
			continue
		}
		seen[fk.Column.Key()] = struct{}{}
		m.References = append(m.References, fk.Column)
	}

	for _, col := range tbl.Columns {
		p := Projection{
			Column:     col.Name,
			CastType:   typemap.CastTarget(col.Type),
			PrimaryKey: col.PrimaryKey,
		}
		switch expr, ok := opts.columnMappings[col.Name.Key()]; {
		case ok:
			p.Source = expr
		case opts.nullPlaceholders:
			p.Source = "NULL"
		default:
			p.Source = quoteIdent(string(col.Name))
		}
		m.Projections = append(m.Projections, p)
		if col.Comment != "" {
			m.ColumnDescriptions = append(m.ColumnDescriptions, ColumnDescription{
				Column:      col.Name,
				Description: col.Comment,
			})
		}
	}
	return m
}

// describe returns the table comment, falling back to a description derived
// from the DDL file name.
func describe(tbl dbtable.Table) string {
	if tbl.Comment != "" {
		return tbl.Comment
	}
	if tbl.SourceFile == "" {
		return ""
	}
	stem := strings.TrimSuffix(filepath.Base(tbl.SourceFile), filepath.Ext(tbl.SourceFile))
	for _, suffix := range []string{"_postgres", "_mysql", "_mssql", "_oracle"} {
		stem = strings.ReplaceAll(stem, suffix, "")
	}
	stem = strings.ReplaceAll(stem, "__", " - ")
	stem = strings.ReplaceAll(stem, "_", " ")
	return descriptionPrefix + stem
}

var bareIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// quoteIdent leaves plain identifiers as written and quotes reserved words
// and anything else.
func quoteIdent(s string) string {
	if bareIdent.MatchString(s) && !reservedWord(s) {
		return s
	}
	return lexbase.EscapeSQLIdent(s)
}

// reservedWord reports whether s cannot be used as a bare column name.
func reservedWord(s string) bool {
	switch lexbase.KeywordsCategories[strings.ToLower(s)] {
	case "R", "T":
		return true
	}
	return false
}
