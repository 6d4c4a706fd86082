package catalog

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Source yields the raw bytes of the catalog spreadsheet.
type Source interface {
	Open(ctx context.Context) ([]byte, error)
	String() string
}

// NewSource picks a Source for location: "s3://bucket/key" or a local path.
func NewSource(ctx context.Context, location string) (Source, error) {
	if !strings.HasPrefix(location, "s3://") {
		return FileSource{Path: location}, nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog location %q: %w", location, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return nil, fmt.Errorf("invalid catalog location %q: expected s3://bucket/key", location)
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Source{API: s3.NewFromConfig(cfg), Bucket: u.Host, Key: key}, nil
}

// ── Local file ────────────────────────────────────────────────────────────────

// FileSource reads the catalog from the local filesystem.
type FileSource struct{ Path string }

func (s FileSource) Open(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", s.Path, err)
	}
	return data, nil
}

func (s FileSource) String() string { return s.Path }

// ── S3 object ─────────────────────────────────────────────────────────────────

// S3GetObjectAPI is the subset of the S3 client used by S3Source.
type S3GetObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads the catalog from an S3 object.
type S3Source struct {
	API    S3GetObjectAPI
	Bucket string
	Key    string
}

func (s *S3Source) Open(ctx context.Context) ([]byte, error) {
	out, err := s.API.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("get catalog %s: %w", s, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", s, err)
	}
	return data, nil
}

func (s *S3Source) String() string { return "s3://" + s.Bucket + "/" + s.Key }
