package inconsistency

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type ReportableObject interface{}

// Reporter receives discrepancies and status updates. Close flushes anything
// buffered.
type Reporter interface {
	Report(obj ReportableObject)
	Close() error
}

// Send reports every discrepancy in report order.
func (r Report) Send(rep Reporter) {
	for _, d := range r.Discrepancies {
		rep.Report(d)
	}
}

type CombinedReporter struct {
	Reporters []Reporter
}

func (c CombinedReporter) Report(obj ReportableObject) {
	for _, r := range c.Reporters {
		r.Report(obj)
	}
}

func (c CombinedReporter) Close() error {
	var err error
	for _, r := range c.Reporters {
		err = errors.CombineErrors(err, r.Close())
	}
	return err
}

type StatusReport struct {
	Info string
}

// LogReporter reports to `zerolog`.
type LogReporter struct {
	zerolog.Logger
}

func (l LogReporter) Report(obj ReportableObject) {
	switch obj := obj.(type) {
	case Discrepancy:
		ev := l.Warn().
			Str("table_schema", string(obj.Table.Schema)).
			Str("table_name", string(obj.Table.Table)).
			Str("kind", obj.Kind.String())
		if obj.Column != "" {
			ev = ev.Str("column", string(obj.Column))
		}
		ev.Msg(obj.Detail)
	case StatusReport:
		l.Info().Msg(obj.Info)
	default:
		l.Error().
			Str("type", fmt.Sprintf("%T", obj)).
			Msgf("unknown object type")
	}
}

func (l LogReporter) Close() error {
	return nil
}

// collector buffers discrepancies for reporters that render the whole
// report at once.
type collector struct {
	ds []Discrepancy
}

func (c *collector) Report(obj ReportableObject) {
	if d, ok := obj.(Discrepancy); ok {
		c.ds = append(c.ds, d)
	}
}

// TextReporter writes a human readable listing, grouped by table and then
// by kind, when closed.
type TextReporter struct {
	collector
	w io.Writer
}

func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{w: w}
}

func (t *TextReporter) Close() error {
	_, err := io.WriteString(t.w, FormatText(NewReport(t.ds)))
	return errors.Wrap(err, "error writing report")
}

// FormatText renders a report as text.
func FormatText(r Report) string {
	if r.Empty() {
		return "no discrepancies\n"
	}
	var sb strings.Builder
	for _, tg := range r.ByTable() {
		sb.WriteString(tg.Table.SafeString() + "\n")
		for _, kg := range tg.Kinds {
			sb.WriteString(fmt.Sprintf("  %s\n", kg.Kind))
			for _, d := range kg.Discrepancies {
				if d.Column != "" {
					sb.WriteString(fmt.Sprintf("    %s: %s\n", d.Column, d.Detail))
				} else {
					sb.WriteString(fmt.Sprintf("    %s\n", d.Detail))
				}
			}
		}
	}
	sb.WriteString(fmt.Sprintf("%d discrepancies\n", len(r.Discrepancies)))
	return sb.String()
}

// Document is the machine readable form of a report.
type Document struct {
	Total  int             `json:"total" yaml:"total"`
	Counts []KindCount     `json:"counts" yaml:"counts"`
	Tables []TableDocument `json:"tables" yaml:"tables"`
}

type KindCount struct {
	Kind  Kind `json:"kind" yaml:"kind"`
	Count int  `json:"count" yaml:"count"`
}

type TableDocument struct {
	Schema string         `json:"schema,omitempty" yaml:"schema,omitempty"`
	Table  string         `json:"table" yaml:"table"`
	Kinds  []KindDocument `json:"kinds" yaml:"kinds"`
}

type KindDocument struct {
	Kind          Kind             `json:"kind" yaml:"kind"`
	Discrepancies []DetailDocument `json:"discrepancies" yaml:"discrepancies"`
}

type DetailDocument struct {
	Column string `json:"column,omitempty" yaml:"column,omitempty"`
	Detail string `json:"detail" yaml:"detail"`
}

// NewDocument builds the machine readable form of a report.
func NewDocument(r Report) Document {
	doc := Document{
		Total:  len(r.Discrepancies),
		Counts: []KindCount{},
		Tables: []TableDocument{},
	}
	counts := r.Counts()
	for _, k := range AllKinds() {
		if n := counts[k]; n > 0 {
			doc.Counts = append(doc.Counts, KindCount{Kind: k, Count: n})
		}
	}
	for _, tg := range r.ByTable() {
		td := TableDocument{Schema: string(tg.Table.Schema), Table: string(tg.Table.Table)}
		for _, kg := range tg.Kinds {
			kd := KindDocument{Kind: kg.Kind}
			for _, d := range kg.Discrepancies {
				kd.Discrepancies = append(kd.Discrepancies, DetailDocument{Column: string(d.Column), Detail: d.Detail})
			}
			td.Kinds = append(td.Kinds, kd)
		}
		doc.Tables = append(doc.Tables, td)
	}
	return doc
}

// JSONReporter writes the report as an indented JSON document when closed.
type JSONReporter struct {
	collector
	w io.Writer
}

func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{w: w}
}

func (j *JSONReporter) Close() error {
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(NewDocument(NewReport(j.ds))), "error writing report")
}

// YAMLReporter writes the report as a YAML document when closed.
type YAMLReporter struct {
	collector
	w io.Writer
}

func NewYAMLReporter(w io.Writer) *YAMLReporter {
	return &YAMLReporter{w: w}
}

func (y *YAMLReporter) Close() error {
	enc := yaml.NewEncoder(y.w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(NewReport(y.ds))); err != nil {
		return errors.Wrap(err, "error writing report")
	}
	return errors.Wrap(enc.Close(), "error writing report")
}

// NewFormatReporter returns the reporter for an output format: text, json
// or yaml.
func NewFormatReporter(format string, w io.Writer) (Reporter, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return NewTextReporter(w), nil
	case "json":
		return NewJSONReporter(w), nil
	case "yaml", "yml":
		return NewYAMLReporter(w), nil
	}
	return nil, errors.Newf("unknown report format %q (expected text, json or yaml)", format)
}
