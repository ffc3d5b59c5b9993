package cmdutil

import (
	"context"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cockroachdb/errors"
	"github.com/ggm-tools/ddlmodel/modelstore"
	"github.com/ggm-tools/ddlmodel/retry"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// StoreConfig selects where models live. Exactly one of LocalPath, S3Bucket
// and GCPBucket is expected.
type StoreConfig struct {
	LocalPath  string
	S3Bucket   string
	GCPBucket  string
	Prefix     string
	MaxRetries int
}

// RegisterStoreFlags adds the store flags. localFlag names the flag for a
// local directory, as it reads differently for writing and for reading.
func RegisterStoreFlags(cmd *cobra.Command, cfg *StoreConfig, localFlag string, localUsage string) {
	cmd.PersistentFlags().StringVar(
		&cfg.LocalPath,
		localFlag,
		"",
		localUsage,
	)
	cmd.PersistentFlags().StringVar(
		&cfg.S3Bucket,
		"s3-bucket",
		"",
		"s3 bucket holding the models",
	)
	cmd.PersistentFlags().StringVar(
		&cfg.GCPBucket,
		"gcp-bucket",
		"",
		"gcp bucket holding the models",
	)
	cmd.PersistentFlags().StringVar(
		&cfg.Prefix,
		"prefix",
		"",
		"object prefix for models within the bucket",
	)
	cmd.PersistentFlags().IntVar(
		&cfg.MaxRetries,
		"store-max-retries",
		retry.DefaultSettings().MaxRetries,
		"attempts per bucket operation before giving up (0 retries forever)",
	)
}

func (cfg StoreConfig) Configured() bool {
	return cfg.LocalPath != "" || cfg.S3Bucket != "" || cfg.GCPBucket != ""
}

// Store opens the configured store.
func (cfg StoreConfig) Store(ctx context.Context, logger zerolog.Logger) (modelstore.Store, error) {
	set := 0
	for _, s := range []string{cfg.LocalPath, cfg.S3Bucket, cfg.GCPBucket} {
		if s != "" {
			set++
		}
	}
	if set > 1 {
		return nil, errors.Newf("only one model location may be given")
	}
	settings := retry.DefaultSettings()
	settings.MaxRetries = cfg.MaxRetries

	switch {
	case cfg.GCPBucket != "":
		creds, err := google.FindDefaultCredentials(ctx, storage.ScopeReadWrite)
		if err != nil {
			return nil, errors.Wrap(err, "error finding gcp credentials")
		}
		gcpClient, err := storage.NewClient(ctx, option.WithCredentials(creds))
		if err != nil {
			return nil, errors.Wrap(err, "error creating gcp client")
		}
		return modelstore.NewGCPStore(logger, gcpClient, cfg.GCPBucket, cfg.Prefix, settings), nil
	case cfg.S3Bucket != "":
		sess, err := session.NewSession()
		if err != nil {
			return nil, errors.Wrap(err, "error creating aws session")
		}
		return modelstore.NewS3Store(logger, sess, cfg.S3Bucket, cfg.Prefix, settings), nil
	case cfg.LocalPath != "":
		return modelstore.NewLocalStore(logger, cfg.LocalPath), nil
	}
	return nil, errors.AssertionFailedf("model location must be configured")
}
