package modelstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/cockroachdb/errors"
	"github.com/ggm-tools/ddlmodel/retry"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

type gcpStore struct {
	logger   zerolog.Logger
	bucket   string
	prefix   string
	client   *storage.Client
	settings retry.Settings
}

func NewGCPStore(
	logger zerolog.Logger, client *storage.Client, bucket string, prefix string, settings retry.Settings,
) *gcpStore {
	return &gcpStore{
		logger:   logger,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		client:   client,
		settings: settings,
	}
}

func (s *gcpStore) WriteModel(
	ctx context.Context, name string, content []byte, overwrite bool,
) (string, error) {
	key := objectKey(s.prefix, name)
	loc := fmt.Sprintf("gs://%s/%s", s.bucket, key)
	logger := s.logger.With().Str("file", loc).Logger()
	obj := s.client.Bucket(s.bucket).Object(key)
	if !overwrite {
		// Fails with 412 on close when the object exists.
		obj = obj.If(storage.Conditions{DoesNotExist: true})
	}
	err := withRetry(ctx, logger, s.settings, "upload", func(ctx context.Context) error {
		wc := obj.NewWriter(ctx)
		if _, err := io.Copy(wc, bytes.NewReader(content)); err != nil {
			_ = wc.Close()
			return err
		}
		if err := wc.Close(); err != nil {
			if isPreconditionFailed(err) {
				return retry.Permanent(errors.Wrapf(ErrModelExists, "%s", loc))
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrModelExists) {
			return loc, err
		}
		return loc, errors.Wrapf(err, "error uploading %s", loc)
	}
	logger.Debug().Msgf("gcp model upload complete")
	return loc, nil
}

func (s *gcpStore) ListModels(ctx context.Context) ([]string, error) {
	var ret []string
	listPrefix := s.prefix
	if listPrefix != "" {
		listPrefix += "/"
	}
	err := withRetry(ctx, s.logger, s.settings, "list", func(ctx context.Context) error {
		ret = ret[:0]
		it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: listPrefix})
		for {
			attrs, err := it.Next()
			if err == iterator.Done {
				return nil
			}
			if err != nil {
				return err
			}
			name := strings.TrimPrefix(attrs.Name, listPrefix)
			if isModelFile(name) {
				ret = append(ret, name)
			}
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error listing gs://%s/%s", s.bucket, listPrefix)
	}
	sort.Strings(ret)
	return ret, nil
}

func (s *gcpStore) ReadModel(ctx context.Context, name string) ([]byte, error) {
	key := objectKey(s.prefix, name)
	var ret []byte
	if err := withRetry(ctx, s.logger, s.settings, "download", func(ctx context.Context) error {
		r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotExist) {
				return retry.Permanent(err)
			}
			return err
		}
		defer func() { _ = r.Close() }()
		ret, err = io.ReadAll(r)
		return err
	}); err != nil {
		return nil, errors.Wrapf(err, "error reading model gs://%s/%s", s.bucket, key)
	}
	return ret, nil
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
