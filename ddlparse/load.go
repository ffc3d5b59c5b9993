package ddlparse

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/boyter/gocodewalker"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// DefaultDirCandidates are the directories searched for DDL when none is
// given, in order of preference.
var DefaultDirCandidates = []string{
	filepath.Join("ggm", "selectie", "cssd"),
	filepath.Join("ggm", "selectie"),
	filepath.Join("ggm", "ddl"),
	"ddl",
}

// ParseFiles reads and parses the given files. Files are read concurrently
// but applied in the given order, so later files win. A file that cannot be
// read fails the whole call.
func ParseFiles(ctx context.Context, paths []string) (Result, error) {
	parsed := make([]parsedSource, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := os.ReadFile(p)
			if err != nil {
				return errors.Wrapf(err, "error reading DDL file %s", p)
			}
			parsed[i] = parseSource(Source{Name: p, Text: string(b)})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return applyAll(parsed), nil
}

// ParseDir parses every *.sql file below dir in lexical path order.
func ParseDir(ctx context.Context, dir string) (Result, error) {
	paths, err := FindDDLFiles(dir)
	if err != nil {
		return Result{}, err
	}
	return ParseFiles(ctx, paths)
}

// FindDDLFiles returns the *.sql files below dir, sorted. Hidden
// directories and paths excluded by .gitignore or .ignore files are skipped.
func FindDDLFiles(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, errors.Wrapf(err, "error listing DDL files in %s", dir)
	}
	fileListQueue := make(chan *gocodewalker.File, 100)
	fileWalker := gocodewalker.NewFileWalker(dir, fileListQueue)
	fileWalker.AllowListExtensions = []string{"sql"}

	var walkErr error
	fileWalker.SetErrorHandler(func(e error) bool {
		walkErr = e
		return false
	})

	var paths []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		for f := range fileListQueue {
			paths = append(paths, f.Location)
		}
	}()

	err := fileWalker.Start()
	<-done
	if err == nil {
		err = walkErr
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error listing DDL files in %s", dir)
	}
	sort.Strings(paths)
	return paths, nil
}

// DiscoverDir returns the first of DefaultDirCandidates below root which
// holds any *.sql file.
func DiscoverDir(root string) (string, error) {
	for _, c := range DefaultDirCandidates {
		dir := filepath.Join(root, c)
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			continue
		}
		paths, err := FindDDLFiles(dir)
		if err != nil {
			return "", err
		}
		if len(paths) > 0 {
			return dir, nil
		}
	}
	return "", errors.Newf("no DDL directory found below %s (tried %s)", root, strings.Join(DefaultDirCandidates, ", "))
}
