package di

import (
	"context"

	"agentmesh/application/ports"
	"agentmesh/application/services"
	"agentmesh/infrastructure/config"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config             *config.Config
	Logger             *zap.Logger
	GraphStore         ports.GraphStore
	SessionRepo        ports.SessionRepository
	ContextEntryRepo   ports.ContextEntryRepository
	EventPublisher     ports.EventPublisher
	Cache              ports.Cache
	PathSynthesizer    *services.PathSynthesizer
	ContextLog         *services.ContextLog
	SessionCoordinator *services.SessionCoordinator
}

// Shutdown releases container-held resources. Safe to call once at
// process exit.
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Cache != nil {
		if err := c.Cache.Clear(ctx); err != nil {
			c.Logger.Warn("Failed to clear cache on shutdown", zap.Error(err))
		}
	}
	// Stdout sync errors are expected on some platforms; callers only log them
	return c.Logger.Sync()
}
