package di

import (
	"context"

	"agentmesh/application/ports"
	"agentmesh/application/services"
	"agentmesh/infrastructure/config"
	"agentmesh/infrastructure/messaging/eventbridge"
	"agentmesh/infrastructure/persistence/cached"
	"agentmesh/infrastructure/persistence/dynamodb"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideGraphStore creates the DynamoDB graph store wrapped with the
// read-through cache
func ProvideGraphStore(
	client *awsdynamodb.Client,
	cache ports.Cache,
	cfg *config.Config,
	logger *zap.Logger,
) ports.GraphStore {
	store := dynamodb.NewGraphStore(client, cfg.DynamoDBTable, logger)
	return cached.NewGraphStore(store, cache, cfg.EdgeCacheTTLSeconds, logger)
}

// ProvideSessionRepository creates a session repository
func ProvideSessionRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.SessionRepository {
	return dynamodb.NewSessionRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideContextEntryRepository creates a context entry repository
func ProvideContextEntryRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ContextEntryRepository {
	return dynamodb.NewContextEntryRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideEventPublisher creates an event publisher. A blank bus name opts
// out of publishing entirely.
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return eventbridge.NewNoopPublisher(logger)
	}
	return eventbridge.NewEventBridgePublisher(client, cfg.EventBusName, logger)
}

// ProvidePathSynthesizer creates the path synthesizer
func ProvidePathSynthesizer(graphStore ports.GraphStore, logger *zap.Logger) *services.PathSynthesizer {
	return services.NewPathSynthesizer(graphStore, logger)
}

// ProvideContextLog creates the context log service
func ProvideContextLog(
	sessions ports.SessionRepository,
	entries ports.ContextEntryRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *services.ContextLog {
	return services.NewContextLog(sessions, entries, publisher, logger)
}

// ProvideSessionCoordinator creates the session coordinator facade
func ProvideSessionCoordinator(
	sessions ports.SessionRepository,
	contextLog *services.ContextLog,
	synthesizer *services.PathSynthesizer,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *services.SessionCoordinator {
	return services.NewSessionCoordinator(sessions, contextLog, synthesizer, publisher, logger)
}

// ProvideInMemoryCache creates a simple in-memory cache
// In production, this would be Redis or similar
func ProvideInMemoryCache() ports.Cache {
	return NewInMemoryCache()
}
