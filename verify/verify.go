// Package verify validates an actual catalog against the authoritative
// catalog parsed from DDL.
package verify

import (
	"context"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/ggm-tools/ddlmodel/catalog"
	"github.com/ggm-tools/ddlmodel/dbtable"
	"github.com/ggm-tools/ddlmodel/modelgen"
	"github.com/ggm-tools/ddlmodel/verify/dbverify"
	"github.com/ggm-tools/ddlmodel/verify/inconsistency"
	"github.com/ggm-tools/ddlmodel/verify/tableverify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

type VerifyOpt func(*verifyOpts)

type verifyOpts struct {
	concurrency     int
	checkReferences bool
	requireKeys     bool
	tables          []string
	dbFilter        dbverify.FilterConfig
}

// WithConcurrency bounds the number of tables compared at once. Zero means
// the number of CPUs.
func WithConcurrency(c int) VerifyOpt {
	return func(o *verifyOpts) {
		o.concurrency = c
	}
}

func WithReferences(b bool) VerifyOpt {
	return func(o *verifyOpts) {
		o.checkReferences = b
	}
}

// WithRequireKeys reports every authoritative table that declares no key as
// a KeyMismatch. It is off by default.
func WithRequireKeys(b bool) VerifyOpt {
	return func(o *verifyOpts) {
		o.requireKeys = b
	}
}

// WithTables restricts validation to the named tables on both sides. Names
// unknown to the authoritative catalog fail the validation.
func WithTables(names []string) VerifyOpt {
	return func(o *verifyOpts) {
		o.tables = names
	}
}

func WithDBFilter(filter dbverify.FilterConfig) VerifyOpt {
	return func(o *verifyOpts) {
		o.dbFilter = filter
	}
}

var (
	tablesRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ddlmodel",
		Subsystem: "validate",
		Name:      "tables_running",
		Help:      "Number of table comparisons that are running.",
	})
)

// Validate compares the actual catalog with the authoritative one. Neither
// catalog is modified. The report is sorted and does not depend on the
// concurrency used.
//
// Authoritative tables that declare no key are only reported when
// WithRequireKeys is set; by default they are silent, so a catalog always
// validates cleanly against itself. The validate command sets it.
func Validate(
	ctx context.Context, authoritative, actual *catalog.Catalog, inOpts ...VerifyOpt,
) (inconsistency.Report, error) {
	opts := verifyOpts{
		dbFilter: dbverify.DefaultFilterConfig(),
	}
	for _, applyOpt := range inOpts {
		applyOpt(&opts)
	}

	if len(opts.tables) > 0 {
		selected, err := modelgen.SelectTables(authoritative, opts.tables)
		if err != nil {
			return inconsistency.Report{}, err
		}
		authoritative = catalogOf(selected)
		actual = actual.Filter(func(t dbtable.Table) bool {
			_, ok := authoritative.Get(t.Table)
			return ok
		})
	}

	dbTables, err := dbverify.FilterResult(opts.dbFilter, dbverify.Verify(authoritative, actual))
	if err != nil {
		return inconsistency.Report{}, err
	}

	var ds []inconsistency.Discrepancy
	for _, missingTable := range dbTables.MissingTables {
		ds = append(ds, inconsistency.Discrepancy{
			Kind:   inconsistency.MissingTable,
			Table:  missingTable.Name,
			Detail: "table missing from actual",
		})
	}
	for _, extraTable := range dbTables.ExtraTables {
		ds = append(ds, inconsistency.Discrepancy{
			Kind:   inconsistency.ExtraTable,
			Table:  extraTable.Name,
			Detail: "table not in authoritative DDL",
		})
	}

	concurrency := opts.concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	// Each comparison owns its slot so no locking is needed.
	results := make([][]inconsistency.Discrepancy, len(dbTables.Verified))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, pair := range dbTables.Verified {
		i, pair := i, pair
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tablesRunning.Inc()
			defer tablesRunning.Dec()
			results[i] = tableverify.VerifyTable(pair[0], pair[1], tableverify.Options{
				CheckReferences: opts.checkReferences,
				RequireKey:      opts.requireKeys,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return inconsistency.Report{}, errors.Wrap(err, "error comparing tables")
	}
	for _, r := range results {
		ds = append(ds, r...)
	}
	report := inconsistency.NewReport(ds)
	report.TablesCompared = len(dbTables.Verified)
	return report, nil
}

func catalogOf(tables []dbtable.Table) *catalog.Catalog {
	ret := catalog.New()
	for _, t := range tables {
		ret.Put(t)
	}
	return ret
}
