package dbverify

import (
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ggm-tools/ddlmodel/dbtable"
)

const DefaultFilterString = ".*"

type FilterString = string

func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		SchemaFilter: DefaultFilterString,
		TableFilter:  DefaultFilterString,
	}
}

// FilterConfig restricts validation to tables whose schema and name match.
// Names are matched both as written and lower-cased.
type FilterConfig struct {
	SchemaFilter FilterString
	TableFilter  FilterString
}

func FilterResult(cfg FilterConfig, r Result) (Result, error) {
	if cfg.SchemaFilter == DefaultFilterString && cfg.TableFilter == DefaultFilterString {
		return r, nil
	}
	schemaRe, err := regexp.CompilePOSIX(cfg.SchemaFilter)
	if err != nil {
		return r, errors.Wrapf(err, "invalid schema filter %q", cfg.SchemaFilter)
	}
	tableRe, err := regexp.CompilePOSIX(cfg.TableFilter)
	if err != nil {
		return r, errors.Wrapf(err, "invalid table filter %q", cfg.TableFilter)
	}
	newResult := Result{}
	for _, v := range r.Verified {
		if matchesFilter(v[0].Name, schemaRe, tableRe) {
			newResult.Verified = append(newResult.Verified, v)
		}
	}
	for _, t := range r.MissingTables {
		if matchesFilter(t.Name, schemaRe, tableRe) {
			newResult.MissingTables = append(newResult.MissingTables, t)
		}
	}
	for _, t := range r.ExtraTables {
		if matchesFilter(t.Name, schemaRe, tableRe) {
			newResult.ExtraTables = append(newResult.ExtraTables, t)
		}
	}
	return newResult, nil
}

func matchesFilter(n dbtable.Name, schemaRe, tableRe *regexp.Regexp) bool {
	return matches(schemaRe, string(n.Schema)) && matches(tableRe, string(n.Table))
}

func matches(re *regexp.Regexp, s string) bool {
	return re.MatchString(s) || re.MatchString(strings.ToLower(s))
}
