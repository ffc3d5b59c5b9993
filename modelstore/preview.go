package modelstore

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
)

// previewStore echoes models to a writer instead of storing them, for dry
// runs. Written models are kept in memory so they can be read back.
type previewStore struct {
	mu     sync.Mutex
	w      io.Writer
	models map[string][]byte
}

func NewPreviewStore(w io.Writer) *previewStore {
	return &previewStore{
		w:      w,
		models: make(map[string][]byte),
	}
}

func (p *previewStore) WriteModel(
	ctx context.Context, name string, content []byte, overwrite bool,
) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.models[name]; ok && !overwrite {
		return name, errors.Wrapf(ErrModelExists, "%s", name)
	}
	p.models[name] = append([]byte(nil), content...)
	if _, err := fmt.Fprintf(p.w, "-- %s\n%s\n", name, content); err != nil {
		return name, errors.Wrap(err, "error writing preview")
	}
	return name, nil
}

func (p *previewStore) ListModels(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ret := make([]string, 0, len(p.models))
	for name := range p.models {
		if isModelFile(name) {
			ret = append(ret, name)
		}
	}
	sort.Strings(ret)
	return ret, nil
}

func (p *previewStore) ReadModel(ctx context.Context, name string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.models[name]
	if !ok {
		return nil, errors.Newf("model %s not found", name)
	}
	return b, nil
}
