package recommenders

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/services"
	"github.com/virtuos/siddata-backend/internal/siddata"
	"github.com/virtuos/siddata-backend/internal/types"
)

// Builder constructs one plugin instance from the shared dependencies.
// Plugins register their builder from init(), so linking a new plugin file
// into the binary is the entire integration surface: registry and dispatch
// code never change.
type Builder func(Deps) siddata.Plugin

var (
	buildersMu sync.Mutex
	builders   = map[string]Builder{}
)

func register(className string, build Builder) {
	buildersMu.Lock()
	defer buildersMu.Unlock()
	if _, exists := builders[className]; exists {
		panic(fmt.Sprintf("recommender %s registered twice", className))
	}
	builders[className] = build
}

// Registry holds the one instance of every registered plugin for the
// lifetime of the process.
type Registry struct {
	plugins map[string]siddata.Plugin
	ordered []siddata.Plugin
	deps    Deps
	log     *logger.Logger
}

type registryAware interface {
	SetRegistry(siddata.Registry)
}

type enroller interface {
	EnsureEnrollment(ctx context.Context, user *types.User) (*types.Enrollment, error)
}

// homeCapable is what the registry needs from the home plugin beyond the
// plain contract.
type homeCapable interface {
	siddata.Plugin
	RootGoal(ctx context.Context, user *types.User) (*types.Goal, error)
	TeaserTemplateID(targetClassName string) string
}

func NewRegistry(deps Deps) (*Registry, error) {
	buildersMu.Lock()
	defer buildersMu.Unlock()

	r := &Registry{
		plugins: make(map[string]siddata.Plugin, len(builders)),
		deps:    deps,
		log:     deps.Log.With("component", "RecommenderRegistry"),
	}
	seenOrders := map[int]string{}
	for className, build := range builders {
		p := build(deps)
		if p.ClassName() != className {
			return nil, fmt.Errorf("plugin registered as %s reports class name %s", className, p.ClassName())
		}
		if prev, dup := seenOrders[p.Order()]; dup {
			return nil, fmt.Errorf("plugins %s and %s share display order %d", prev, className, p.Order())
		}
		seenOrders[p.Order()] = className
		r.plugins[className] = p
		r.ordered = append(r.ordered, p)
	}
	sort.Slice(r.ordered, func(i, j int) bool { return r.ordered[i].Order() < r.ordered[j].Order() })

	if _, ok := r.plugins[HomeClassName]; !ok {
		return nil, fmt.Errorf("home plugin %s is not registered", HomeClassName)
	}
	for _, p := range r.ordered {
		if aware, ok := p.(registryAware); ok {
			aware.SetRegistry(r)
		}
	}
	r.log.Info("recommender registry built", "plugins", len(r.ordered))
	return r, nil
}

func (r *Registry) Get(className string) (siddata.Plugin, bool) {
	p, ok := r.plugins[className]
	return p, ok
}

func (r *Registry) ActivePlugins() []siddata.Plugin {
	var active []siddata.Plugin
	for _, p := range r.ordered {
		if p.Active() {
			active = append(active, p)
		}
	}
	return active
}

// InitializeUser is the first-touch protocol: the home plugin builds its
// root goal, then every other active plugin gets a disabled enrollment and
// a teaser question under that root goal. Everything underneath is
// find-or-create, so re-running for an existing user is harmless.
func (r *Registry) InitializeUser(ctx context.Context, user *types.User) error {
	home := r.plugins[HomeClassName].(homeCapable)
	if err := home.Initialize(ctx, user); err != nil {
		return fmt.Errorf("initialize home plugin: %w", err)
	}
	rootGoal, err := home.RootGoal(ctx, user)
	if err != nil {
		return err
	}
	for _, p := range r.ActivePlugins() {
		if p.ClassName() == HomeClassName {
			continue
		}
		enr, ok := p.(enroller)
		if !ok {
			continue
		}
		if _, err := enr.EnsureEnrollment(ctx, user); err != nil {
			return fmt.Errorf("enroll user into %s: %w", p.ClassName(), err)
		}
		if err := r.ensureTeaser(ctx, home, rootGoal, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) ensureTeaser(ctx context.Context, home homeCapable, rootGoal *types.Goal, target siddata.Plugin) error {
	_, err := r.deps.Templates.Instantiate(ctx, home.TeaserTemplateID(target.ClassName()), rootGoal, services.Overrides{})
	if err != nil {
		return fmt.Errorf("create teaser for %s: %w", target.ClassName(), err)
	}
	return nil
}
