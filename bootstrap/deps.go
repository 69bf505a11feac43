package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/screensync/backend/conf"
	"github.com/screensync/backend/listcache"
	"github.com/screensync/backend/s3bucket"
	"github.com/screensync/backend/subm"
	"github.com/screensync/backend/subm/submddb"
	"github.com/screensync/backend/subm/submevents"
	"github.com/screensync/backend/subm/submhttp"
	"github.com/screensync/backend/subm/submmongo"
	"github.com/screensync/backend/tracing"
)

// Deps holds the store clients and components shared by the processor
// and the lister. Build it once per process.
type Deps struct {
	Processor submhttp.BatchProcessor
	Lister    submhttp.SubmLister
	Cache     listcache.Cache

	Subms subm.SubmStore
	Blobs subm.BlobStore
	// MemBlobs is non-nil when screenshots are kept in memory and must be
	// served over http.
	MemBlobs *subm.InMemBlobStore

	Tracing bool

	closers []func(ctx context.Context) error
}

func NewDeps(ctx context.Context, cfg conf.Config, log *slog.Logger) (_ *Deps, err error) {
	deps := &Deps{}
	defer func() {
		if err != nil {
			deps.Close(ctx)
		}
	}()

	awsCfg, err := loadAwsConfig(ctx, cfg.Aws)
	if err != nil {
		return nil, err
	}

	if cfg.Tracing.OtlpEndpoint != "" {
		tp, err := tracing.InitTracing(cfg.Tracing.ServiceName, cfg.Env, cfg.Tracing.OtlpEndpoint)
		if err != nil {
			return nil, err
		}
		deps.Tracing = true
		deps.closers = append(deps.closers, func(ctx context.Context) error {
			tracing.ShutdownTracing(ctx, tp)
			return nil
		})
	}

	if err := deps.initSubmStore(ctx, cfg, awsCfg, log); err != nil {
		return nil, err
	}
	deps.initBlobStore(cfg, awsCfg, log)
	if err := deps.initCache(ctx, cfg.Cache, log); err != nil {
		return nil, err
	}

	processor := &subm.Processor{
		Blobs: deps.Blobs,
		Subms: deps.Subms,
		Cache: deps.Cache,
	}
	if cfg.Events.SqsQueueUrl != "" {
		pub, err := submevents.NewSqsPublisher(sqs.NewFromConfig(awsCfg), cfg.Events.SqsQueueUrl)
		if err != nil {
			return nil, err
		}
		processor.BcastSubmCreated = pub.PublishSubmCreated
		deps.closers = append(deps.closers, func(context.Context) error { return pub.Close() })
		log.Info("publishing submission events", "queue_url", cfg.Events.SqsQueueUrl)
	}
	lister := &subm.Lister{Subms: deps.Subms}

	deps.Processor, deps.Lister = processor, lister
	if deps.Tracing {
		deps.Processor = tracing.NewTracedProcessor(processor)
		deps.Lister = tracing.NewTracedLister(lister)
	}
	return deps, nil
}

// loadAwsConfig disables SDK retries: a failed call is reported to the
// submitter as is.
func loadAwsConfig(ctx context.Context, c conf.AwsConfig) (aws.Config, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(c.Region),
		config.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}
	if c.Endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(c.Endpoint)
	}
	return awsCfg, nil
}

func (deps *Deps) initSubmStore(ctx context.Context, cfg conf.Config, awsCfg aws.Config, log *slog.Logger) error {
	switch cfg.Store.Backend {
	case conf.DocStoreDynamoDb:
		table := submddb.NewDynamoDbSubmTable(dynamodb.NewFromConfig(awsCfg), cfg.Store.DynamoTable)
		if cfg.Store.EnsureSchema {
			err := table.CreateTable(ctx)
			var inUse *ddbtypes.ResourceInUseException
			if err != nil && !errors.As(err, &inUse) {
				return err
			}
		}
		deps.Subms = table
	case conf.DocStoreMongo:
		uri, err := conf.ResolveMongoUri(ctx, cfg.Store, awsCfg)
		if err != nil {
			return err
		}
		client, err := submmongo.Connect(ctx, uri)
		if err != nil {
			return err
		}
		deps.closers = append(deps.closers, client.Disconnect)
		repo := submmongo.NewMongoSubmRepo(client.Database(cfg.Store.MongoDatabase), cfg.Store.MongoCollection)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
		deps.Subms = repo
	default:
		deps.Subms = subm.NewInMemSubmStore()
	}
	log.Info("document store ready", "backend", cfg.Store.Backend)
	return nil
}

func (deps *Deps) initBlobStore(cfg conf.Config, awsCfg aws.Config, log *slog.Logger) {
	switch cfg.Blobs.Backend {
	case conf.BlobStoreS3:
		bucket := s3bucket.NewS3Bucket(awsCfg, cfg.Blobs.S3Bucket, s3bucket.Options{
			Endpoint:      cfg.Blobs.S3Endpoint,
			PublicBaseUrl: cfg.Blobs.PublicBaseUrl,
		})
		deps.Blobs = bucket
		log.Info("blob store ready", "backend", cfg.Blobs.Backend, "bucket", bucket.Bucket())
	default:
		deps.MemBlobs = subm.NewInMemBlobStore(cfg.MemBlobBaseUrl())
		deps.Blobs = deps.MemBlobs
		log.Info("blob store ready", "backend", cfg.Blobs.Backend, "base_url", cfg.MemBlobBaseUrl())
	}
}

func (deps *Deps) initCache(ctx context.Context, c conf.CacheConfig, log *slog.Logger) error {
	switch c.Backend {
	case conf.ListCacheRedis:
		client, err := listcache.Connect(ctx, c.RedisUrl)
		if err != nil {
			return err
		}
		deps.closers = append(deps.closers, func(context.Context) error { return client.Close() })
		deps.Cache = listcache.NewRedisCache(client, "screensync", c.Ttl.Std())
	default:
		deps.Cache = listcache.NewMemCache(c.Ttl.Std())
	}
	log.Info("list cache ready", "backend", c.Backend, "ttl", c.Ttl.Std())
	return nil
}

// Close releases clients in reverse order of creation.
func (deps *Deps) Close(ctx context.Context) error {
	var errs []error
	for i := len(deps.closers) - 1; i >= 0; i-- {
		if err := deps.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	deps.closers = nil
	return errors.Join(errs...)
}
