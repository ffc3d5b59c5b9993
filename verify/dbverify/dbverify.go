// Package dbverify matches the tables of an actual catalog against the
// authoritative one.
package dbverify

import (
	"github.com/ggm-tools/ddlmodel/catalog"
	"github.com/ggm-tools/ddlmodel/dbtable"
)

type Result struct {
	// Verified pairs each table present on both sides, authoritative first.
	Verified [][2]dbtable.Table

	MissingTables []dbtable.Table
	ExtraTables   []dbtable.Table
}

type tableIterator struct {
	tables  []dbtable.Table
	currIdx int
}

func (c *tableIterator) done() bool {
	return c.currIdx >= len(c.tables)
}

func (c *tableIterator) next() {
	c.currIdx++
}

func (c *tableIterator) curr() dbtable.Table {
	return c.tables[c.currIdx]
}

// Verify pairs up the tables of both catalogs by key.
func Verify(authoritative, actual *catalog.Catalog) Result {
	return compare([2]tableIterator{
		{tables: authoritative.Tables()},
		{tables: actual.Tables()},
	})
}

// compare compares two lists of tables.
// It assumes tables are in sorted order in each iterator.
func compare(iterators [2]tableIterator) Result {
	ret := Result{}
	truthIterator := &iterators[0]
	actualIterator := &iterators[1]
	for !truthIterator.done() {
		// Once the actual side is exhausted every remaining authoritative
		// table is missing.
		compareVal := 1
		if !actualIterator.done() {
			compareVal = actualIterator.curr().Compare(truthIterator.curr())
		}
		switch {
		case compareVal < 0:
			ret.ExtraTables = append(ret.ExtraTables, actualIterator.curr())
			actualIterator.next()
		case compareVal == 0:
			ret.Verified = append(ret.Verified, [2]dbtable.Table{truthIterator.curr(), actualIterator.curr()})
			actualIterator.next()
			truthIterator.next()
		default:
			ret.MissingTables = append(ret.MissingTables, truthIterator.curr())
			truthIterator.next()
		}
	}

	for !actualIterator.done() {
		ret.ExtraTables = append(ret.ExtraTables, actualIterator.curr())
		actualIterator.next()
	}
	return ret
}
