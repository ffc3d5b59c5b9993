// Package snapshot reads and writes catalogs as YAML documents, the format in
// which an introspected schema is handed to the validator.
package snapshot

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/ggm-tools/ddlmodel/catalog"
	"github.com/ggm-tools/ddlmodel/dbtable"
	"github.com/ggm-tools/ddlmodel/ddlparse"
	"gopkg.in/yaml.v3"
)

type Document struct {
	Tables []Table `yaml:"tables"`
}

type Table struct {
	Name        string       `yaml:"name"`
	Schema      string       `yaml:"schema,omitempty"`
	Comment     string       `yaml:"comment,omitempty"`
	Columns     []Column     `yaml:"columns"`
	ForeignKeys []ForeignKey `yaml:"foreign_keys,omitempty"`
}

type Column struct {
	Name string `yaml:"name"`
	Type string `yaml:"type,omitempty"`
	// Nullable is left out when the source could not tell.
	Nullable   *bool  `yaml:"nullable,omitempty"`
	PrimaryKey bool   `yaml:"primary_key,omitempty"`
	Comment    string `yaml:"comment,omitempty"`
}

type ForeignKey struct {
	Column           string `yaml:"column"`
	ReferencedTable  string `yaml:"referenced_table"`
	ReferencedColumn string `yaml:"referenced_column,omitempty"`
}

// FromCatalog builds a document holding every table in key order.
func FromCatalog(cat *catalog.Catalog) Document {
	var doc Document
	for _, tbl := range cat.Tables() {
		t := Table{
			Name:    string(tbl.Table),
			Schema:  string(tbl.Schema),
			Comment: tbl.Comment,
			Columns: []Column{},
		}
		for _, c := range tbl.Columns {
			col := Column{
				Name:       string(c.Name),
				PrimaryKey: c.PrimaryKey,
				Comment:    c.Comment,
			}
			if c.Type.Declared() {
				col.Type = c.Type.String()
			}
			switch c.Null {
			case dbtable.Nullable:
				col.Nullable = boolPtr(true)
			case dbtable.NotNull:
				col.Nullable = boolPtr(false)
			}
			t.Columns = append(t.Columns, col)
		}
		for _, fk := range tbl.ForeignKeys {
			t.ForeignKeys = append(t.ForeignKeys, ForeignKey{
				Column:           string(fk.Column),
				ReferencedTable:  string(fk.RefTable),
				ReferencedColumn: string(fk.RefColumn),
			})
		}
		doc.Tables = append(doc.Tables, t)
	}
	return doc
}

func boolPtr(b bool) *bool {
	return &b
}

// Dump writes the catalog as YAML.
func Dump(w io.Writer, cat *catalog.Catalog) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(FromCatalog(cat)); err != nil {
		return errors.Wrap(err, "error encoding snapshot")
	}
	return errors.Wrap(enc.Close(), "error encoding snapshot")
}

// Load reads a snapshot. JSON documents are accepted as well. A later table
// of the same name replaces an earlier one.
func Load(r io.Reader, name string) (*catalog.Catalog, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "error decoding snapshot %s", name)
	}
	return doc.Catalog(name)
}

// LoadFile reads the snapshot at path.
func LoadFile(path string) (*catalog.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening snapshot %s", path)
	}
	defer func() { _ = f.Close() }()
	return Load(f, path)
}

// Catalog converts the document into a catalog, checking that every type
// parses and every key names a column of its table.
func (d Document) Catalog(name string) (*catalog.Catalog, error) {
	cat := catalog.New()
	for i, t := range d.Tables {
		if t.Name == "" {
			return nil, errors.Newf("%s: table %d has no name", name, i+1)
		}
		tbl := dbtable.Table{
			Name:       dbtable.Name{Schema: dbtable.Ident(t.Schema), Table: dbtable.Ident(t.Name)},
			Comment:    t.Comment,
			SourceFile: name,
		}
		for _, c := range t.Columns {
			if c.Name == "" {
				return nil, errors.Newf("%s: table %s has a column without a name", name, t.Name)
			}
			col := dbtable.Column{
				Name:       dbtable.Ident(c.Name),
				PrimaryKey: c.PrimaryKey,
				Comment:    c.Comment,
			}
			if c.Type != "" {
				dt, err := ddlparse.ParseDataType(c.Type)
				if err != nil {
					return nil, errors.Wrapf(err, "%s: table %s column %s", name, t.Name, c.Name)
				}
				col.Type = dt
			}
			if c.Nullable != nil {
				col.Null = dbtable.NotNull
				if *c.Nullable {
					col.Null = dbtable.Nullable
				}
			}
			if tbl.ColumnIndex(col.Name) >= 0 {
				return nil, errors.Newf("%s: table %s has duplicate column %s", name, t.Name, c.Name)
			}
			tbl.Columns = append(tbl.Columns, col)
		}
		for _, fk := range t.ForeignKeys {
			if tbl.ColumnIndex(dbtable.Ident(fk.Column)) < 0 {
				return nil, errors.Newf("%s: table %s foreign key names unknown column %s", name, t.Name, fk.Column)
			}
			tbl.ForeignKeys = append(tbl.ForeignKeys, dbtable.ForeignKey{
				Column:    dbtable.Ident(fk.Column),
				RefTable:  dbtable.Ident(fk.ReferencedTable),
				RefColumn: dbtable.Ident(fk.ReferencedColumn),
			})
		}
		cat.Put(tbl)
	}
	return cat, nil
}
