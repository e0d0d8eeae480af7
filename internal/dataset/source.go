package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrNotFound is returned by a Source when the named artifact does not exist
var ErrNotFound = errors.New("artifact not found")

// RemoteInfo is what a Source reports about an artifact without fetching it
type RemoteInfo struct {
	ETag string
	Size int64
}

// Source serves artifacts by name relative to its base location
type Source interface {
	Stat(ctx context.Context, name string) (*RemoteInfo, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Location(name string) string
}

// NewSource picks the source for baseURL: s3://bucket/prefix uses S3 in
// region, http(s) URLs use plain HTTP
func NewSource(ctx context.Context, baseURL, region string) (Source, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid artifact base URL: %w", err)
	}

	switch u.Scheme {
	case "s3":
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
		if err != nil {
			return nil, fmt.Errorf("unable to load AWS config: %w", err)
		}
		return NewS3Source(s3.NewFromConfig(cfg), u.Host, strings.TrimPrefix(u.Path, "/")), nil
	case "http", "https":
		return NewHTTPSource(baseURL), nil
	default:
		return nil, fmt.Errorf("unsupported artifact base URL %q: use http(s):// or s3://", baseURL)
	}
}

// HTTPSource fetches artifacts below a base URL
type HTTPSource struct {
	baseURL    string
	headClient *http.Client
	getClient  *http.Client
}

// NewHTTPSource creates a source for baseURL
func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		headClient: &http.Client{Timeout: 30 * time.Second},
		getClient:  &http.Client{Timeout: 30 * time.Minute},
	}
}

// Location returns the URL of name
func (s *HTTPSource) Location(name string) string {
	return s.baseURL + "/" + name
}

// Stat issues a HEAD request for name
func (s *HTTPSource) Stat(ctx context.Context, name string) (*RemoteInfo, error) {
	resp, err := s.do(ctx, s.headClient, http.MethodHead, name)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()

	return &RemoteInfo{
		ETag: resp.Header.Get("ETag"),
		Size: resp.ContentLength,
	}, nil
}

// Open issues a GET request for name. The caller closes the body.
func (s *HTTPSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := s.do(ctx, s.getClient, http.MethodGet, name)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (s *HTTPSource) do(ctx context.Context, client *http.Client, method, name string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.Location(name), nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%s: %w", s.Location(name), ErrNotFound)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("%s request for %s failed with status: %d", method, s.Location(name), resp.StatusCode)
	}
}

// S3API is the part of the S3 client the source needs
type S3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source fetches artifacts from a bucket prefix
type S3Source struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Source creates a source for s3://bucket/prefix
func NewS3Source(client S3API, bucket, prefix string) *S3Source {
	return &S3Source{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Source) key(name string) string {
	return path.Join(s.prefix, name)
}

// Location returns the s3:// URL of name
func (s *S3Source) Location(name string) string {
	return "s3://" + s.bucket + "/" + s.key(name)
}

// Stat reads the object's ETag and size
func (s *S3Source) Stat(ctx context.Context, name string) (*RemoteInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return nil, s.wrap(name, err)
	}
	return &RemoteInfo{
		ETag: aws.ToString(out.ETag),
		Size: aws.ToInt64(out.ContentLength),
	}, nil
}

// Open streams the object body. The caller closes it.
func (s *S3Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return nil, s.wrap(name, err)
	}
	return out.Body, nil
}

func (s *S3Source) wrap(name string, err error) error {
	var notFound *s3types.NotFound
	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return fmt.Errorf("%s: %w", s.Location(name), ErrNotFound)
	}
	return fmt.Errorf("%s: %w", s.Location(name), err)
}
