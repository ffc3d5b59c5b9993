package modelgen

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/ggm-tools/ddlmodel/dbtable"
	"gopkg.in/yaml.v3"
)

// Mapping describes where a table's model reads from. Columns maps output
// columns to source expressions.
type Mapping struct {
	Source  string            `yaml:"source"`
	Columns map[string]string `yaml:"columns"`
}

// Mappings holds a Mapping per table, keyed by table key.
type Mappings struct {
	byTable map[dbtable.Key]Mapping
}

// LoadMappings reads a YAML document mapping table names to a Mapping.
func LoadMappings(r io.Reader, name string) (Mappings, error) {
	var raw map[string]Mapping
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && err != io.EOF {
		return Mappings{}, errors.Wrapf(err, "error decoding mappings %s", name)
	}
	ret := Mappings{byTable: make(map[dbtable.Key]Mapping, len(raw))}
	for table, m := range raw {
		k := dbtable.Ident(table).Key()
		if _, ok := ret.byTable[k]; ok {
			return Mappings{}, errors.Newf("%s: table %s is mapped more than once", name, table)
		}
		ret.byTable[k] = m
	}
	return ret, nil
}

func LoadMappingsFile(path string) (Mappings, error) {
	f, err := os.Open(path)
	if err != nil {
		return Mappings{}, errors.Wrapf(err, "error opening mappings %s", path)
	}
	defer func() { _ = f.Close() }()
	return LoadMappings(f, path)
}

// Options returns the generator options for a table, if it is mapped.
func (m Mappings) Options(table dbtable.Ident) []GenerateOpt {
	mapping, ok := m.byTable[table.Key()]
	if !ok {
		return nil
	}
	var ret []GenerateOpt
	if mapping.Source != "" {
		ret = append(ret, WithSourceTable(mapping.Source))
	}
	if len(mapping.Columns) > 0 {
		ret = append(ret, WithColumnMappings(mapping.Columns))
	}
	return ret
}
