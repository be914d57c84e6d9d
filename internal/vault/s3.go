package vault

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/cockroachdb/errors"

	"lostfound/internal/lf"
)

// s3API is the subset of the S3 client used by S3Vault.
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	s3.ListObjectsV2APIClient
}

type uploader interface {
	Upload(ctx context.Context, in *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Options configures an S3Vault.
type S3Options struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string // S3-compatible endpoint; path-style addressing is used when set

	AccessKeyID     string
	SecretAccessKey string
}

// S3Vault stores snapshots as objects under a key prefix in one bucket.
// Puts are conditional on the key being absent, which gives the same
// exclusive-create guarantee as the filesystem vault.
type S3Vault struct {
	name     string
	bucket   string
	prefix   string
	client   s3API
	uploader uploader
}

// NewS3Vault builds a client from the default AWS credential chain, or from
// static keys when opts carries them.
func NewS3Vault(ctx context.Context, name string, opts S3Options) (*S3Vault, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 vault requires s3_bucket to be set")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Vault(name, opts.Bucket, opts.Prefix, client, manager.NewUploader(client)), nil
}

func newS3Vault(name, bucket, prefix string, client s3API, up uploader) *S3Vault {
	return &S3Vault{
		name:     name,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		client:   client,
		uploader: up,
	}
}

// Name returns the configured vault name.
func (v *S3Vault) Name() string {
	return v.name
}

func (v *S3Vault) key(name string) string {
	if v.prefix == "" {
		return name
	}
	return v.prefix + "/" + name
}

func (v *S3Vault) listPrefix() string {
	if v.prefix == "" {
		return ""
	}
	return v.prefix + "/"
}

// PutSnapshot uploads the snapshot with If-None-Match: *, so an existing
// object is never replaced.
func (v *S3Vault) PutSnapshot(ctx context.Context, name string, r io.Reader, size int64) error {
	_, err := v.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(v.bucket),
		Key:           aws.String(v.key(name)),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("application/json"),
		IfNoneMatch:   aws.String("*"),
	})
	if err != nil {
		if isPreconditionFailed(err) {
			return errors.Mark(errors.Newf("snapshot %s already exists", name), lf.ErrConflict)
		}
		return errors.Wrapf(err, "uploading %s", name)
	}
	return nil
}

// GetSnapshot streams the object body to w.
func (v *S3Vault) GetSnapshot(ctx context.Context, name string, w io.Writer) error {
	out, err := v.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return errors.Mark(errors.Newf("snapshot not found: %s", name), lf.ErrNotFound)
		}
		return errors.Wrapf(err, "downloading %s", name)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return errors.Wrapf(err, "reading %s", name)
	}
	return nil
}

// StatSnapshot returns object size and last-modified time.
func (v *S3Vault) StatSnapshot(ctx context.Context, name string) (*lf.SnapshotInfo, error) {
	out, err := v.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, errors.Mark(errors.Newf("snapshot not found: %s", name), lf.ErrNotFound)
		}
		return nil, errors.Wrapf(err, "stat %s", name)
	}
	return &lf.SnapshotInfo{
		Name:       name,
		Size:       aws.ToInt64(out.ContentLength),
		ModifiedAt: aws.ToTime(out.LastModified),
	}, nil
}

// ListSnapshots lists .json objects directly under the prefix.
func (v *S3Vault) ListSnapshots(ctx context.Context) ([]*lf.SnapshotInfo, error) {
	prefix := v.listPrefix()
	p := s3.NewListObjectsV2Paginator(v.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(v.bucket),
		Prefix: aws.String(prefix),
	})

	var result []*lf.SnapshotInfo
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "listing snapshots")
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" || strings.Contains(name, "/") || path.Ext(name) != snapshotExt {
				continue
			}
			result = append(result, &lf.SnapshotInfo{
				Name:       name,
				Size:       aws.ToInt64(obj.Size),
				ModifiedAt: aws.ToTime(obj.LastModified),
			})
		}
	}
	return result, nil
}

// DeleteSnapshot removes the object. S3 deletes are idempotent, so existence
// is checked first to report missing snapshots.
func (v *S3Vault) DeleteSnapshot(ctx context.Context, name string) error {
	if _, err := v.StatSnapshot(ctx, name); err != nil {
		return err
	}
	_, err := v.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key(name)),
	})
	if err != nil {
		return errors.Wrapf(err, "deleting %s", name)
	}
	return nil
}

// ValidateSetup verifies the bucket exists and is reachable with the configured credentials.
func (v *S3Vault) ValidateSetup(ctx context.Context) error {
	if _, err := v.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(v.bucket)}); err != nil {
		return errors.Wrapf(err, "bucket %s not accessible", v.bucket)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound")
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}

var _ lf.SnapshotVault = (*S3Vault)(nil)
