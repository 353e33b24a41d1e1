package config

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/harborfs/harborftp/internal/logger"
	"github.com/harborfs/harborftp/pkg/ftplet"
	"github.com/harborfs/harborftp/pkg/user"
	"github.com/harborfs/harborftp/pkg/user/store"
	badgerstore "github.com/harborfs/harborftp/pkg/user/store/badger"
	memorystore "github.com/harborfs/harborftp/pkg/user/store/memory"
	"github.com/harborfs/harborftp/pkg/vfs"
	memoryvfs "github.com/harborfs/harborftp/pkg/vfs/memory"
	nativevfs "github.com/harborfs/harborftp/pkg/vfs/native"
	s3vfs "github.com/harborfs/harborftp/pkg/vfs/s3"
)

// CreateUserStore creates a user store based on configuration.
//
// The Type field selects the implementation; only the map section matching
// the selected type is decoded. Declared accounts are seeded into the store
// after it opens, overwriting any stored record of the same name so the
// configuration file stays authoritative.
func CreateUserStore(ctx context.Context, cfg *UsersConfig) (store.UserStore, error) {
	var (
		st  store.UserStore
		err error
	)

	switch cfg.Type {
	case "memory":
		st, err = createMemoryUserStore(ctx, cfg)
	case "badger":
		st, err = createBadgerUserStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown user store type: %q (supported: memory, badger)", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := seedAccounts(st, cfg.Accounts); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func createMemoryUserStore(ctx context.Context, cfg *UsersConfig) (store.UserStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return memorystore.NewMemoryUserStore(cfg.Admin), nil
}

func createBadgerUserStore(ctx context.Context, cfg *UsersConfig) (store.UserStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type BadgerUserStoreOptions struct {
		Path       string `mapstructure:"path"`
		SyncWrites bool   `mapstructure:"sync_writes"`
	}

	var storeOpts BadgerUserStoreOptions
	if err := mapstructure.Decode(cfg.Badger, &storeOpts); err != nil {
		return nil, fmt.Errorf("failed to decode badger user store options: %w", err)
	}
	if storeOpts.Path == "" {
		return nil, fmt.Errorf("badger user store: path is required")
	}

	return badgerstore.Open(badgerstore.Options{
		Path:       storeOpts.Path,
		AdminName:  cfg.Admin,
		SyncWrites: storeOpts.SyncWrites,
	})
}

// seedAccounts writes the declared accounts into the store.
func seedAccounts(st store.UserStore, accounts []AccountConfig) error {
	for i, account := range accounts {
		u := buildAccountUser(&account)
		if err := st.Put(u, account.Password); err != nil {
			return fmt.Errorf("failed to seed account[%d] %q: %w", i, account.Name, err)
		}
		logger.Debug("Seeded account %q (enabled=%v)", account.Name, account.Enabled)
	}
	return nil
}

// buildAccountUser converts a declared account into a user record. Write
// access goes first in the authority list; ordering is part of the
// authorization contract (first match wins).
func buildAccountUser(account *AccountConfig) *user.User {
	authorities := []user.Authority{
		&user.ConcurrentLoginPermission{
			MaxConcurrentLogins:      account.MaxConcurrentLogins,
			MaxConcurrentLoginsPerIP: account.MaxLoginsPerIP,
		},
		&user.TransferRatePermission{
			MaxUploadRate:   account.MaxUploadRate,
			MaxDownloadRate: account.MaxDownloadRate,
		},
	}
	if account.Write {
		authorities = append([]user.Authority{user.NewWritePermission()}, authorities...)
	}

	return &user.User{
		Name:        account.Name,
		HomeDir:     account.HomeDir,
		Enabled:     account.Enabled,
		MaxIdleTime: account.MaxIdleTime,
		Authorities: authorities,
	}
}

// CreateViewFactory creates a filesystem view factory based on configuration.
//
// Supported types:
//   - "native": serves the local filesystem under each user's home directory
//   - "memory": an in-memory tree, optionally pre-populated from options
//   - "s3": serves an S3 (or compatible) bucket
func CreateViewFactory(ctx context.Context, cfg *VFSConfig) (vfs.Factory, error) {
	switch cfg.Type {
	case "native":
		return nativevfs.NewFactory(), nil
	case "memory":
		return createMemoryViewFactory(ctx, cfg.Memory)
	case "s3":
		return createS3ViewFactory(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown vfs type: %q (supported: native, memory, s3)", cfg.Type)
	}
}

func createMemoryViewFactory(ctx context.Context, options map[string]any) (vfs.Factory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type MemoryFileOption struct {
		Path string `mapstructure:"path"`
		Size int64  `mapstructure:"size"`
	}
	type MemoryVFSOptions struct {
		Dirs  []string           `mapstructure:"dirs"`
		Files []MemoryFileOption `mapstructure:"files"`
	}

	var vfsOpts MemoryVFSOptions
	if err := mapstructure.Decode(options, &vfsOpts); err != nil {
		return nil, fmt.Errorf("failed to decode memory vfs options: %w", err)
	}

	tree := memoryvfs.NewTree()
	for _, dir := range vfsOpts.Dirs {
		tree.AddDir(dir)
	}
	for _, file := range vfsOpts.Files {
		tree.AddFile(file.Path, file.Size, time.Now())
	}

	return memoryvfs.NewFactory(tree), nil
}

func createS3ViewFactory(ctx context.Context, options map[string]any) (vfs.Factory, error) {
	type S3VFSOptions struct {
		Region          string        `mapstructure:"region"`
		Bucket          string        `mapstructure:"bucket"`
		Endpoint        string        `mapstructure:"endpoint"`
		AccessKeyID     string        `mapstructure:"access_key_id"`
		SecretAccessKey string        `mapstructure:"secret_access_key"`
		MaxRetries      int           `mapstructure:"max_retries"`
		RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	}

	var vfsOpts S3VFSOptions
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     &vfsOpts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(options); err != nil {
		return nil, fmt.Errorf("failed to decode s3 vfs options: %w", err)
	}

	if vfsOpts.Bucket == "" {
		return nil, fmt.Errorf("s3 vfs: bucket is required")
	}
	if vfsOpts.Region == "" {
		return nil, fmt.Errorf("s3 vfs: region is required")
	}

	var configOptions []func(*awsConfig.LoadOptions) error
	configOptions = append(configOptions, awsConfig.WithRegion(vfsOpts.Region))

	// Custom endpoint covers MinIO, Localstack, and friends.
	if vfsOpts.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               vfsOpts.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	if vfsOpts.AccessKeyID != "" && vfsOpts.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			vfsOpts.AccessKeyID,
			vfsOpts.SecretAccessKey,
			"",
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := vfsOpts.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if vfsOpts.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	factory, err := s3vfs.NewFactory(client, vfsOpts.Bucket, vfsOpts.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 view factory: %w", err)
	}

	logger.Info("S3 vfs initialized: bucket=%s, region=%s", vfsOpts.Bucket, vfsOpts.Region)
	return factory, nil
}

// CreateFtplets builds the extension hook chain from the configured hook
// names, in order.
func CreateFtplets(names []string) (*ftplet.Chain, error) {
	hooks := make([]ftplet.Ftplet, 0, len(names))
	for _, name := range names {
		switch name {
		case "audit":
			hooks = append(hooks, ftplet.NewAuditFtplet())
		default:
			return nil, fmt.Errorf("unknown ftplet: %q (supported: audit)", name)
		}
	}
	return ftplet.NewChain(hooks...), nil
}
