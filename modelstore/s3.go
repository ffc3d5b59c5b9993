package modelstore

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/cockroachdb/errors"
	"github.com/ggm-tools/ddlmodel/retry"
	"github.com/rs/zerolog"
)

type s3Store struct {
	logger   zerolog.Logger
	bucket   string
	prefix   string
	session  *session.Session
	settings retry.Settings
}

func NewS3Store(
	logger zerolog.Logger, session *session.Session, bucket string, prefix string, settings retry.Settings,
) *s3Store {
	return &s3Store{
		logger:   logger,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		session:  session,
		settings: settings,
	}
}

func (s *s3Store) WriteModel(
	ctx context.Context, name string, content []byte, overwrite bool,
) (string, error) {
	key := objectKey(s.prefix, name)
	loc := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	logger := s.logger.With().Str("file", loc).Logger()
	if !overwrite {
		exists, err := s.exists(ctx, logger, key)
		if err != nil {
			return loc, err
		}
		if exists {
			return loc, errors.Wrapf(ErrModelExists, "%s", loc)
		}
	}
	uploader := s3manager.NewUploader(s.session)
	if err := withRetry(ctx, logger, s.settings, "upload", func(ctx context.Context) error {
		_, err := uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(content),
		})
		return err
	}); err != nil {
		return loc, errors.Wrapf(err, "error uploading %s", loc)
	}
	logger.Debug().Msgf("s3 model upload complete")
	return loc, nil
}

func (s *s3Store) exists(ctx context.Context, logger zerolog.Logger, key string) (bool, error) {
	var found bool
	err := withRetry(ctx, logger, s.settings, "head", func(ctx context.Context) error {
		_, err := s3.New(s.session).HeadObjectWithContext(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			var aerr awserr.Error
			if errors.As(err, &aerr) && (aerr.Code() == "NotFound" || aerr.Code() == s3.ErrCodeNoSuchKey) {
				found = false
				return nil
			}
			return err
		}
		found = true
		return nil
	})
	return found, errors.Wrapf(err, "error checking s3://%s/%s", s.bucket, key)
}

func (s *s3Store) ListModels(ctx context.Context) ([]string, error) {
	var ret []string
	listPrefix := s.prefix
	if listPrefix != "" {
		listPrefix += "/"
	}
	err := withRetry(ctx, s.logger, s.settings, "list", func(ctx context.Context) error {
		ret = ret[:0]
		return s3.New(s.session).ListObjectsV2PagesWithContext(
			ctx,
			&s3.ListObjectsV2Input{
				Bucket: aws.String(s.bucket),
				Prefix: aws.String(listPrefix),
			},
			func(page *s3.ListObjectsV2Output, lastPage bool) bool {
				for _, obj := range page.Contents {
					name := strings.TrimPrefix(aws.StringValue(obj.Key), listPrefix)
					if isModelFile(name) {
						ret = append(ret, name)
					}
				}
				return true
			},
		)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error listing s3://%s/%s", s.bucket, listPrefix)
	}
	sort.Strings(ret)
	return ret, nil
}

func (s *s3Store) ReadModel(ctx context.Context, name string) ([]byte, error) {
	key := objectKey(s.prefix, name)
	buf := aws.NewWriteAtBuffer(nil)
	downloader := s3manager.NewDownloader(s.session)
	if err := withRetry(ctx, s.logger, s.settings, "download", func(ctx context.Context) error {
		buf = aws.NewWriteAtBuffer(nil)
		_, err := downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		return err
	}); err != nil {
		return nil, errors.Wrapf(err, "error reading model s3://%s/%s", s.bucket, key)
	}
	return buf.Bytes(), nil
}
