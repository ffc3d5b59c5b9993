package modelstore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/ggm-tools/ddlmodel/ddlparse"
	"github.com/rs/zerolog"
)

type localStore struct {
	logger   zerolog.Logger
	basePath string
}

func NewLocalStore(logger zerolog.Logger, basePath string) *localStore {
	return &localStore{
		logger:   logger,
		basePath: basePath,
	}
}

func (l *localStore) WriteModel(
	ctx context.Context, name string, content []byte, overwrite bool,
) (string, error) {
	p, err := l.path(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), os.ModePerm); err != nil {
		return "", errors.Wrapf(err, "error creating directory for %s", p)
	}
	logger := l.logger.With().Str("path", p).Logger()
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(p, flags, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return p, errors.Wrapf(ErrModelExists, "%s", p)
		}
		return p, errors.Wrapf(err, "error creating %s", p)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return p, errors.Wrapf(err, "error writing %s", p)
	}
	if err := f.Close(); err != nil {
		return p, errors.Wrapf(err, "error closing %s", p)
	}
	logger.Debug().Msgf("wrote model")
	return p, nil
}

func (l *localStore) ListModels(ctx context.Context) ([]string, error) {
	paths, err := ddlparse.FindDDLFiles(l.basePath)
	if err != nil {
		return nil, err
	}
	ret := make([]string, len(paths))
	for i, p := range paths {
		rel, err := filepath.Rel(l.basePath, p)
		if err != nil {
			return nil, errors.Wrapf(err, "error resolving %s", p)
		}
		ret[i] = filepath.ToSlash(rel)
	}
	return ret, nil
}

func (l *localStore) ReadModel(ctx context.Context, name string) ([]byte, error) {
	p, err := l.path(name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading model %s", p)
	}
	return b, nil
}

// path resolves a model name below the base path.
func (l *localStore) path(name string) (string, error) {
	rel := filepath.FromSlash(name)
	if !filepath.IsLocal(rel) {
		return "", errors.Newf("model name %q is outside %s", name, l.basePath)
	}
	return filepath.Join(l.basePath, rel), nil
}
