package cloudwriter

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader is the part of *s3.Client the writer needs.
type Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Writer struct {
	ctx         context.Context
	client      Uploader
	bucket      string
	objectPath  string
	contentType string
	buffer      bytes.Buffer
	closed      bool
}

type S3WriterFactory struct {
	ctx    context.Context
	client Uploader
}

// NewS3WriterFactory loads the default AWS configuration. An empty region
// defers to the environment and shared config.
func NewS3WriterFactory(ctx context.Context, region string) (*S3WriterFactory, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &S3WriterFactory{ctx: ctx, client: s3.NewFromConfig(cfg)}, nil
}

// NewS3WriterFactoryWithClient wires an existing client, e.g. a stub in tests.
func NewS3WriterFactoryWithClient(ctx context.Context, client Uploader) *S3WriterFactory {
	return &S3WriterFactory{ctx: ctx, client: client}
}

func (f *S3WriterFactory) NewWriter(bucket, objectPath, contentType string) (CloudWriter, error) {
	if bucket == "" || objectPath == "" {
		return nil, fmt.Errorf("bucket and object path are required")
	}
	return &S3Writer{
		ctx:         f.ctx,
		client:      f.client,
		bucket:      bucket,
		objectPath:  objectPath,
		contentType: contentType,
	}, nil
}

func (w *S3Writer) Write(data []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write to closed object s3://%s/%s", w.bucket, w.objectPath)
	}
	return w.buffer.Write(data)
}

// Abort drops the buffered object without uploading it.
func (w *S3Writer) Abort() {
	w.closed = true
	w.buffer.Reset()
}

// Close uploads the buffered object. Only the first call uploads.
func (w *S3Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	input := &s3.PutObjectInput{
		Bucket: aws.String(w.bucket),
		Key:    aws.String(w.objectPath),
		Body:   bytes.NewReader(w.buffer.Bytes()),
	}
	if w.contentType != "" {
		input.ContentType = aws.String(w.contentType)
	}
	if _, err := w.client.PutObject(w.ctx, input); err != nil {
		return fmt.Errorf("unable to upload file to S3: %w", err)
	}
	return nil
}
