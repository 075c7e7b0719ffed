package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/geocoder89/fleetreg/internal/awsclient"
	"github.com/geocoder89/fleetreg/internal/config"
	"github.com/geocoder89/fleetreg/internal/db"
	"github.com/geocoder89/fleetreg/internal/http/handlers"
	"github.com/geocoder89/fleetreg/internal/http/middlewares"
	"github.com/geocoder89/fleetreg/internal/notifications"
	"github.com/geocoder89/fleetreg/internal/observability"
	"github.com/geocoder89/fleetreg/internal/redisclient"
	"github.com/geocoder89/fleetreg/internal/repo/memory"
	"github.com/geocoder89/fleetreg/internal/repo/postgres"
	"github.com/geocoder89/fleetreg/internal/service"
	"github.com/geocoder89/fleetreg/internal/storage"
)

// Both stores carry the versioned status update used by the approval workflow.
var (
	_ service.StatusUpdater = (*memory.RegistrationsRepo)(nil)
	_ service.StatusUpdater = (*postgres.RegistrationsRepo)(nil)
)

func openStore(ctx context.Context, cfg config.Config, prom *observability.Prom, checks map[string]handlers.Check) (service.RegistrationStore, func(), error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return memory.NewRegistrationsRepo(), func() {}, nil

	case config.StoragePostgres:
		pool, err := db.NewPool(ctx, cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		if err := db.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		checks["postgres"] = func(ctx context.Context) error { return pool.Ping(ctx) }
		return postgres.NewRegistrationsRepo(pool, prom), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORAGE %q", cfg.Storage)
	}
}

// openRateStore shares limiter state through Redis when configured, otherwise counts per process.
func openRateStore(cfg config.Config, log *slog.Logger, checks map[string]handlers.Check) (middlewares.RateStore, func()) {
	if cfg.RedisAddr == "" {
		return middlewares.NewMemoryRateStore(), func() {}
	}

	rc := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	checks["redis"] = rc.Ping
	log.Info("rate limiter using redis", "addr", cfg.RedisAddr)

	return middlewares.NewRedisRateStore(rc.Cmdable(), "fleetreg:ratelimit:"), func() { _ = rc.Close() }
}

func loadAWS(ctx context.Context, cfg config.Config) (aws.Config, error) {
	awsCfg, err := awsclient.Load(ctx, awsclient.Config{
		Region:          cfg.AWSRegion,
		Endpoint:        cfg.AWSEndpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

func buildPresigner(cfg config.Config, awsCfg aws.Config, log *slog.Logger) *storage.Presigner {
	if !cfg.S3Enabled {
		log.Info("s3 disabled, upload urls are simulated", "bucket", cfg.S3Bucket)
		return storage.NewSimulatedPresigner(cfg.S3Bucket, log)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// LocalStack and MinIO only route path-style requests
		o.UsePathStyle = cfg.AWSEndpoint != ""
	})
	return storage.NewS3Presigner(client, cfg.S3Bucket, log)
}

// buildNotifier picks the delivery transport. Misconfigured remote transports fall back to logging.
func buildNotifier(cfg config.Config, awsCfg aws.Config, log *slog.Logger) (notifications.Notifier, string, func(), error) {
	noop := func() {}

	switch cfg.NotifyTransport {
	case notifications.TransportSQS:
		if cfg.SQSQueueURL == "" {
			log.Warn("SQS_QUEUE_URL not set, falling back to log notifier")
			break
		}
		return notifications.NewSQSNotifier(sqs.NewFromConfig(awsCfg), cfg.SQSQueueURL), notifications.TransportSQS, noop, nil

	case notifications.TransportAMQP:
		n, err := notifications.DialAMQP(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			return nil, "", nil, fmt.Errorf("amqp notifier: %w", err)
		}
		return n, notifications.TransportAMQP, func() { _ = n.Close() }, nil

	case notifications.TransportSES:
		if cfg.SESFromAddress == "" {
			log.Warn("SES_FROM_ADDRESS not set, falling back to log notifier")
			break
		}
		return notifications.NewSESNotifier(sesv2.NewFromConfig(awsCfg), cfg.SESFromAddress), notifications.TransportSES, noop, nil

	case notifications.TransportLog, "":
	default:
		log.Warn("unknown NOTIFY_TRANSPORT, falling back to log notifier", "transport", cfg.NotifyTransport)
	}

	return notifications.NewLogNotifier(log), notifications.TransportLog, noop, nil
}
