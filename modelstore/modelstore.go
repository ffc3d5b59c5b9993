// Package modelstore writes generated models to, and reads them back from,
// a local directory or a bucket.
package modelstore

import (
	"context"
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ggm-tools/ddlmodel/ddlparse"
	"github.com/ggm-tools/ddlmodel/retry"
	"github.com/rs/zerolog"
)

// ErrModelExists is returned when writing a model that is already present
// without asking for an overwrite.
var ErrModelExists = errors.New("model already exists")

// Store holds model files by name. Names are slash separated paths relative
// to the root of the store.
type Store interface {
	// WriteModel stores content under name and returns where it went.
	WriteModel(ctx context.Context, name string, content []byte, overwrite bool) (string, error)
	// ListModels returns the names of all *.sql files, sorted.
	ListModels(ctx context.Context) ([]string, error)
	ReadModel(ctx context.Context, name string) ([]byte, error)
}

// ReadAll reads every model in the store, in name order, ready to be
// handed to the model reader.
func ReadAll(ctx context.Context, s Store) ([]ddlparse.Source, error) {
	names, err := s.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]ddlparse.Source, 0, len(names))
	for _, name := range names {
		b, err := s.ReadModel(ctx, name)
		if err != nil {
			return nil, err
		}
		ret = append(ret, ddlparse.Source{Name: name, Text: string(b)})
	}
	return ret, nil
}

func isModelFile(name string) bool {
	return strings.EqualFold(path.Ext(name), ".sql")
}

// objectKey joins a bucket prefix and a model name.
func objectKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// withRetry runs a remote call with backoff, logging each retried failure.
func withRetry(
	ctx context.Context, logger zerolog.Logger, settings retry.Settings, op string, fn func(ctx context.Context) error,
) error {
	return retry.Do(ctx, settings, fn, func(attempt int, err error) {
		logger.Warn().Err(err).Int("attempt", attempt).Msgf("%s failed, retrying", op)
	})
}
