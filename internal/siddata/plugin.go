package siddata

import (
	"context"

	"github.com/virtuos/siddata-backend/internal/types"
)

// Plugin is the fixed capability contract every recommender implements.
// The registry instantiates each implementation exactly once per process;
// adding a recommender must not require touching registry or dispatch code.
type Plugin interface {
	// Name is the display name shown to users, e.g. "Auslandsaufenthalt".
	Name() string
	// ClassName is the stable identifier used in template IDs and in the
	// Recommender identity record.
	ClassName() string
	Active() bool
	// Order is the globally unique display priority.
	Order() int
	Description() string
	DataInfo() string

	// InitializeTemplates upserts every template the plugin owns, keyed by
	// template ID. Idempotent, safe to re-run with changed content.
	InitializeTemplates(ctx context.Context) error
	// Initialize enables the plugin for one user: find-or-create its
	// enrollment and root goal and seed initial activities. Must be
	// idempotent; calling it twice creates nothing twice.
	Initialize(ctx context.Context, user *types.User) error
	// ProcessActivity reacts to a state change on an activity the plugin
	// owns. Called exactly once, synchronously, by the dispatch router.
	ProcessActivity(ctx context.Context, activity *types.Activity) error
	// ExecuteCronFunctions runs the plugin's periodic housekeeping.
	ExecuteCronFunctions(ctx context.Context) error
	// Refresh is the cross-plugin observer hook: invoked on every active
	// plugin after another plugin processed an activity.
	Refresh(ctx context.Context) error
}

// Registry is the set of plugin instances known to the process. The
// dispatch router and the batch runner depend on this interface only.
type Registry interface {
	// Get resolves a plugin by its stable class name.
	Get(className string) (Plugin, bool)
	// ActivePlugins returns the active plugins ordered by display priority.
	ActivePlugins() []Plugin
	// InitializeUser performs first-touch setup for a new user: the home
	// plugin's root goal plus a disabled enrollment and teaser activity
	// for every other active plugin.
	InitializeUser(ctx context.Context, user *types.User) error
}
