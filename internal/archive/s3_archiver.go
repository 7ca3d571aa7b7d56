package archive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// putObjectAPI is the subset of *s3.Client the archiver uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3Archiver uploads gzipped evidence objects to S3.
type s3Archiver struct {
	client putObjectAPI
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewS3Archiver creates an S3-backed archiver using the default AWS credential chain.
func NewS3Archiver(ctx context.Context, bucket, region, prefix string, logger zerolog.Logger) (Archiver, error) {
	logger = logger.With().Str("component", "s3-archiver").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("s3 archiver initialised")

	return newS3Archiver(s3.NewFromConfig(cfg), bucket, prefix, logger), nil
}

func newS3Archiver(client putObjectAPI, bucket, prefix string, logger zerolog.Logger) *s3Archiver {
	return &s3Archiver{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

func (a *s3Archiver) Archive(ctx context.Context, ev Evidence) error {
	data, err := encode(ev)
	if err != nil {
		return err
	}

	key := a.prefix + objectName(ev)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(a.bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(data),
		ContentType:     aws.String("application/json"),
		ContentEncoding: aws.String("gzip"),
	})
	if err != nil {
		a.logger.Error().
			Err(err).
			Str("bucket", a.bucket).
			Str("key", key).
			Msg("failed to put evidence object")
		return fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", a.bucket, key, err)
	}

	a.logger.Info().Str("key", key).Str("kind", ev.Kind).Msg("evidence archived to S3")
	return nil
}

// fallbackArchiver tries S3 first and falls back to the local directory.
type fallbackArchiver struct {
	primary  Archiver
	fallback Archiver
	logger   zerolog.Logger
}

// NewFallbackArchiver creates an archiver that uses primary and, when it is
// nil or fails, fallback.
func NewFallbackArchiver(primary, fallback Archiver, logger zerolog.Logger) Archiver {
	return &fallbackArchiver{
		primary:  primary,
		fallback: fallback,
		logger:   logger.With().Str("component", "fallback-archiver").Logger(),
	}
}

func (a *fallbackArchiver) Archive(ctx context.Context, ev Evidence) error {
	if a.primary != nil {
		err := a.primary.Archive(ctx, ev)
		if err == nil {
			return nil
		}
		a.logger.Warn().Err(err).Msg("primary archive failed, falling back to local file system")
	}
	return a.fallback.Archive(ctx, ev)
}
