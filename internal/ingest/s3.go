package ingest

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// ObjectGetter is the part of *s3.Client that S3Source needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options configures NewS3Source. Empty keys fall back to anonymous access.
type S3Options struct {
	Region          string
	Endpoint        string // for S3-compatible stores such as R2 or MinIO
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// S3Source reads a reference file from an S3 bucket.
type S3Source struct {
	Bucket   string
	Key      string
	Parse    ParseOptions
	MaxBytes int64
	client   ObjectGetter
}

// NewS3Source builds an S3 client from opts.
func NewS3Source(bucket, key string, parse ParseOptions, opts S3Options) *S3Source {
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	cfg := aws.Config{Region: region}
	if opts.AccessKeyID != "" {
		cfg.Credentials = credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")
	} else {
		cfg.Credentials = aws.AnonymousCredentials{}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return NewS3SourceWithClient(client, bucket, key, parse)
}

// NewS3SourceWithClient uses an existing client.
func NewS3SourceWithClient(client ObjectGetter, bucket, key string, parse ParseOptions) *S3Source {
	return &S3Source{Bucket: bucket, Key: key, Parse: parse, client: client}
}

func (s *S3Source) String() string {
	return "s3://" + s.Bucket + "/" + s.Key
}

// Fetch downloads and parses the object.
func (s *S3Source) Fetch(ctx context.Context) (*Dataset, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, wrapS3Error(err)
	}
	defer out.Body.Close()

	data, err := readLimited(out.Body, s.MaxBytes)
	if err != nil {
		return nil, err
	}

	parse := s.Parse
	if parse.Format == FormatUnknown && FormatFromName(s.Key) == FormatUnknown {
		parse.Format = formatFromContentType(aws.ToString(out.ContentType))
	}
	return Parse(path.Base(s.Key), data, parse)
}

// wrapS3Error maps SDK errors onto ErrSourceUnavailable, keeping the S3
// error code in the message.
func wrapS3Error(err error) error {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: NoSuchKey: %v", ErrSourceUnavailable, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s: %s", ErrSourceUnavailable, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
}
