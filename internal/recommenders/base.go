package recommenders

import (
	"context"
	"fmt"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/platform/classifier"
	"github.com/virtuos/siddata-backend/internal/platform/mailer"
	"github.com/virtuos/siddata-backend/internal/repos"
	"github.com/virtuos/siddata-backend/internal/services"
	"github.com/virtuos/siddata-backend/internal/siddata"
	"github.com/virtuos/siddata-backend/internal/types"
)

// Deps is everything a plugin may touch. Plugins receive it at construction
// time; there is no ambient global state.
type Deps struct {
	Origins      repos.OriginRepo
	Users        repos.UserRepo
	Recommenders repos.RecommenderRepo
	Enrollments  repos.EnrollmentRepo
	Goals        repos.GoalRepo
	Activities   repos.ActivityRepo
	Content      repos.ContentRepo
	Templates    services.TemplateService
	Classifier   classifier.Client
	Mailer       mailer.Client
	Log          *logger.Logger
}

// Info is the static identity a plugin declares about itself.
type Info struct {
	Name        string
	ClassName   string
	Description string
	Image       string
	DataInfo    string
	Order       int
	Active      bool
}

// Base carries the identity, the shared dependencies and the find-or-create
// helpers every plugin builds on. Hooks a plugin does not care about fall
// through to the no-op defaults.
type Base struct {
	info Info
	deps Deps
	// registry is injected after construction so plugins can resolve each
	// other (the home plugin routes teaser answers this way).
	registry siddata.Registry
	log      *logger.Logger
}

func NewBase(info Info, deps Deps) Base {
	return Base{
		info: info,
		deps: deps,
		log:  deps.Log.With("plugin", info.ClassName),
	}
}

func (b *Base) Name() string        { return b.info.Name }
func (b *Base) ClassName() string   { return b.info.ClassName }
func (b *Base) Active() bool        { return b.info.Active }
func (b *Base) Order() int          { return b.info.Order }
func (b *Base) Description() string { return b.info.Description }
func (b *Base) DataInfo() string    { return b.info.DataInfo }

func (b *Base) SetRegistry(reg siddata.Registry) { b.registry = reg }

func (b *Base) ExecuteCronFunctions(ctx context.Context) error { return nil }

func (b *Base) Refresh(ctx context.Context) error { return nil }

// TemplateID builds this plugin's template identifier for a template name.
func (b *Base) TemplateID(name string) string {
	return siddata.TemplateID(b.info.ClassName, name)
}

// EnsureRecommender lazily materializes the plugin's identity record.
func (b *Base) EnsureRecommender(ctx context.Context) (*types.Recommender, error) {
	return b.deps.Recommenders.FindOrCreate(ctx, nil, &types.Recommender{
		Name:        b.info.Name,
		ClassName:   b.info.ClassName,
		Description: b.info.Description,
		Image:       b.info.Image,
		Order:       b.info.Order,
		DataInfo:    b.info.DataInfo,
		Active:      b.info.Active,
	})
}

// EnsureEnrollment finds or creates the (user, recommender) pairing without
// touching its enabled flag.
func (b *Base) EnsureEnrollment(ctx context.Context, user *types.User) (*types.Enrollment, error) {
	rec, err := b.EnsureRecommender(ctx)
	if err != nil {
		return nil, err
	}
	return b.deps.Enrollments.FindOrCreate(ctx, nil, user.ID, rec.ID)
}

// EnsureGoal finds or creates a goal under the plugin's enrollment for the
// user, keyed by title.
func (b *Base) EnsureGoal(ctx context.Context, user *types.User, title, goalType string) (*types.Goal, error) {
	enrollment, err := b.EnsureEnrollment(ctx, user)
	if err != nil {
		return nil, err
	}
	goal, _, err := b.deps.Goals.FindOrCreate(ctx, nil, &types.Goal{
		EnrollmentID: enrollment.ID,
		Title:        title,
		Type:         goalType,
		Visible:      true,
	})
	return goal, err
}

// UserOfActivity walks activity -> goal -> enrollment to the owning user.
func (b *Base) UserOfActivity(ctx context.Context, activity *types.Activity) (*types.User, error) {
	if activity.GoalID == nil {
		return nil, fmt.Errorf("activity %s has no goal: %w", activity.ID, siddata.ErrNotFound)
	}
	goal, err := b.deps.Goals.GetByID(ctx, nil, *activity.GoalID)
	if err != nil {
		return nil, err
	}
	enrollment, err := b.deps.Enrollments.GetByID(ctx, nil, goal.EnrollmentID)
	if err != nil {
		return nil, err
	}
	return b.deps.Users.GetByID(ctx, nil, enrollment.UserID)
}

// MarkDone transitions the activity into done and persists it.
func (b *Base) MarkDone(ctx context.Context, activity *types.Activity) error {
	if siddata.Transition(activity, types.StatusDone) {
		return b.deps.Activities.Update(ctx, nil, activity)
	}
	return nil
}
