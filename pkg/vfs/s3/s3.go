// Package s3 provides a FileSystemView over an Amazon S3 (or S3-compatible)
// bucket.
//
// Object keys mirror virtual paths under a per-user prefix derived from the
// home directory: user home "/pub" and virtual path "/docs/a.txt" resolve to
// key "pub/docs/a.txt". Directories are implied by key prefixes, the way S3
// consoles present them; an empty prefix with no objects underneath does not
// exist.
//
// Only the metadata and navigation surface of the view is implemented here
// (HeadObject and ListObjectsV2); content streaming belongs to the transfer
// subsystem and is not part of the control-connection engine.
package s3

import (
	"context"
	"errors"
	"fmt"
	gopath "path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/harborfs/harborftp/pkg/user"
	"github.com/harborfs/harborftp/pkg/vfs"
)

// DefaultRequestTimeout bounds each S3 call made on behalf of a command.
const DefaultRequestTimeout = 10 * time.Second

// Client is the slice of the S3 API the view consumes. *s3.Client satisfies
// it; tests may substitute a fake.
type Client interface {
	HeadObject(ctx context.Context, params *awss3.HeadObjectInput, optFns ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
}

// Factory creates S3-backed views.
type Factory struct {
	client  Client
	bucket  string
	timeout time.Duration
}

var _ vfs.Factory = (*Factory)(nil)

// NewFactory creates a factory serving views of the given bucket. A zero
// timeout falls back to DefaultRequestTimeout.
func NewFactory(client Client, bucket string, timeout time.Duration) (*Factory, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 view factory: client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("s3 view factory: bucket is required")
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Factory{client: client, bucket: bucket, timeout: timeout}, nil
}

// CreateView implements vfs.Factory. The user's home directory becomes the
// key prefix of the view.
func (f *Factory) CreateView(u *user.User) (vfs.FileSystemView, error) {
	prefix := strings.Trim(u.HomeDir, "/")
	writable := u.Authorize(user.NewWriteRequest()) != nil

	return &View{
		client:   f.client,
		bucket:   f.bucket,
		prefix:   prefix,
		cwd:      "/",
		username: u.Name,
		writable: writable,
		timeout:  f.timeout,
	}, nil
}

// View is an S3-backed filesystem view. It is owned by a single connection
// goroutine.
type View struct {
	client   Client
	bucket   string
	prefix   string
	cwd      string
	username string
	writable bool
	timeout  time.Duration
}

var _ vfs.FileSystemView = (*View)(nil)

// key maps a cleaned virtual path to an object key. The root maps to the
// bare prefix.
func (v *View) key(virtual string) string {
	rel := strings.TrimPrefix(virtual, "/")
	if v.prefix == "" {
		return rel
	}
	if rel == "" {
		return v.prefix
	}
	return v.prefix + "/" + rel
}

func (v *View) callCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), v.timeout)
}

// isNotFound reports whether an S3 error means "no such object" rather than
// a real fault. HeadObject surfaces missing keys as a generic API error with
// code NotFound.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey"
	}
	return false
}

// stat resolves a virtual path to a file object.
func (v *View) stat(virtual string) (*fileObject, error) {
	obj := &fileObject{
		virtualPath: virtual,
		username:    v.username,
		writable:    v.writable,
	}

	if virtual == "/" {
		obj.exists = true
		obj.dir = true
		return obj, nil
	}

	ctx, cancel := v.callCtx()
	defer cancel()

	key := v.key(virtual)
	head, err := v.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		obj.exists = true
		if head.ContentLength != nil {
			obj.size = *head.ContentLength
		}
		if head.LastModified != nil {
			obj.modified = *head.LastModified
		}
		return obj, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("failed to stat %s: %w", virtual, err)
	}

	// No object at the key; the path is a directory if any key lives
	// under it.
	list, err := v.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
		Bucket:  aws.String(v.bucket),
		Prefix:  aws.String(key + "/"),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", virtual, err)
	}
	if list.KeyCount != nil && *list.KeyCount > 0 {
		obj.exists = true
		obj.dir = true
	}
	return obj, nil
}

// HomeDirectory implements vfs.FileSystemView.
func (v *View) HomeDirectory() (vfs.FileObject, error) {
	return v.stat("/")
}

// CurrentDirectory implements vfs.FileSystemView.
func (v *View) CurrentDirectory() (vfs.FileObject, error) {
	return v.stat(v.cwd)
}

// ChangeWorkingDirectory implements vfs.FileSystemView.
func (v *View) ChangeWorkingDirectory(path string) error {
	target := vfs.ResolveVirtual(v.cwd, path)

	obj, err := v.stat(target)
	if err != nil {
		return err
	}
	if !obj.exists || !obj.dir {
		return fmt.Errorf("%s: %w", path, vfs.ErrNotExist)
	}

	v.cwd = target
	return nil
}

// GetFileObject implements vfs.FileSystemView.
func (v *View) GetFileObject(path string) (vfs.FileObject, error) {
	return v.stat(vfs.ResolveVirtual(v.cwd, path))
}

// ListFiles implements vfs.FileSystemView. Common prefixes become
// directories, objects become files.
func (v *View) ListFiles(path string) ([]vfs.FileObject, error) {
	target := vfs.ResolveVirtual(v.cwd, path)

	dir, err := v.stat(target)
	if err != nil {
		return nil, err
	}
	if !dir.exists || !dir.dir {
		return nil, fmt.Errorf("%s: %w", path, vfs.ErrNotExist)
	}

	prefix := v.key(target)
	if prefix != "" {
		prefix += "/"
	}

	ctx, cancel := v.callCtx()
	defer cancel()

	var objects []vfs.FileObject
	var continuation *string
	for {
		page, err := v.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
			Bucket:            aws.String(v.bucket),
			Prefix:            aws.String(prefix),
			Delimiter:         aws.String("/"),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", path, err)
		}

		for _, common := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(common.Prefix), prefix), "/")
			objects = append(objects, &fileObject{
				virtualPath: gopath.Join(target, name),
				exists:      true,
				dir:         true,
				username:    v.username,
				writable:    v.writable,
			})
		}
		for _, item := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(item.Key), prefix)
			if name == "" {
				continue
			}
			obj := &fileObject{
				virtualPath: gopath.Join(target, name),
				exists:      true,
				username:    v.username,
				writable:    v.writable,
			}
			if item.Size != nil {
				obj.size = *item.Size
			}
			if item.LastModified != nil {
				obj.modified = *item.LastModified
			}
			objects = append(objects, obj)
		}

		if page.IsTruncated == nil || !*page.IsTruncated {
			return objects, nil
		}
		continuation = page.NextContinuationToken
	}
}

// Dispose implements vfs.FileSystemView.
func (v *View) Dispose() {}

type fileObject struct {
	virtualPath string
	exists      bool
	dir         bool
	size        int64
	modified    time.Time
	username    string
	writable    bool
}

var _ vfs.FileObject = (*fileObject)(nil)

func (f *fileObject) FullName() string { return f.virtualPath }

func (f *fileObject) ShortName() string {
	name := gopath.Base(f.virtualPath)
	if name == "/" {
		return "/"
	}
	return name
}

func (f *fileObject) DoesExist() bool   { return f.exists }
func (f *fileObject) IsDirectory() bool { return f.dir }

func (f *fileObject) Size() int64 {
	if f.dir {
		return 0
	}
	return f.size
}

func (f *fileObject) LastModified() time.Time { return f.modified }

func (f *fileObject) LinkCount() int {
	if f.dir {
		return 3
	}
	return 1
}

func (f *fileObject) OwnerName() string { return f.username }
func (f *fileObject) GroupName() string { return "group" }

func (f *fileObject) HasReadPermission() bool { return f.exists }

func (f *fileObject) HasWritePermission() bool { return f.writable }

func (f *fileObject) HasDeletePermission() bool {
	return f.writable && f.virtualPath != "/"
}
