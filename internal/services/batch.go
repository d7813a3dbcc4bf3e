package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/siddata"
)

// BatchService exposes the two entry points the external scheduler drives.
// Both run every active plugin with the same isolation rule: a failing or
// panicking plugin is logged and the rest still run.
type BatchService interface {
	RunInitializeTemplates(ctx context.Context)
	RunCronFunctions(ctx context.Context)
}

type batchService struct {
	registry siddata.Registry
	// parallelism bounds concurrent plugin hooks; plugins are independent
	// of each other in the batch path.
	parallelism int
	log         *logger.Logger
}

func NewBatchService(registry siddata.Registry, parallelism int, baseLog *logger.Logger) BatchService {
	if parallelism < 1 {
		parallelism = 1
	}
	return &batchService{
		registry:    registry,
		parallelism: parallelism,
		log:         baseLog.With("service", "BatchService"),
	}
}

func (s *batchService) RunInitializeTemplates(ctx context.Context) {
	s.runAll(ctx, "InitializeTemplates", func(ctx context.Context, p siddata.Plugin) error {
		return p.InitializeTemplates(ctx)
	})
}

func (s *batchService) RunCronFunctions(ctx context.Context) {
	s.runAll(ctx, "ExecuteCronFunctions", func(ctx context.Context, p siddata.Plugin) error {
		return p.ExecuteCronFunctions(ctx)
	})
}

func (s *batchService) runAll(ctx context.Context, hook string, call func(context.Context, siddata.Plugin) error) {
	g := &errgroup.Group{}
	g.SetLimit(s.parallelism)
	for _, plugin := range s.registry.ActivePlugins() {
		plugin := plugin
		g.Go(func() error {
			defer func() {
				if rec := recover(); rec != nil {
					s.log.Error("plugin panicked in batch hook", "plugin", plugin.ClassName(), "hook", hook, "panic", rec)
				}
			}()
			if err := call(ctx, plugin); err != nil {
				s.log.Error("plugin batch hook failed", "plugin", plugin.ClassName(), "hook", hook, "error", err)
			}
			// Errors are isolated, never propagated to the group.
			return nil
		})
	}
	_ = g.Wait()
}
