package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/repos"
	"github.com/virtuos/siddata-backend/internal/siddata"
	"github.com/virtuos/siddata-backend/internal/types"
)

// ActivityChange is one externally-triggered state change on an activity:
// an answer submission, a status transition request, a feedback update, or
// any combination.
type ActivityChange struct {
	ActivityID    uuid.UUID
	Answers       datatypes.JSON
	Status        *string
	FeedbackValue *int
	FeedbackText  *string
	Notes         *string
	// Actor, when set, restricts the change to activities owned by that
	// user. Foreign activities come back as not found.
	Actor *uuid.UUID
}

type DispatchService interface {
	// HandleActivityChange persists the change, hands the activity to the
	// owning plugin's ProcessActivity when the change warrants it, and
	// fans a refresh signal out to every active plugin. A plugin failure
	// in ProcessActivity fails the whole request; refresh failures are
	// logged and swallowed.
	HandleActivityChange(ctx context.Context, change ActivityChange) (*types.Activity, error)
}

type dispatchService struct {
	registry     siddata.Registry
	activities   repos.ActivityRepo
	goals        repos.GoalRepo
	enrollments  repos.EnrollmentRepo
	recommenders repos.RecommenderRepo
	users        repos.UserRepo
	log          *logger.Logger
}

func NewDispatchService(
	registry siddata.Registry,
	activities repos.ActivityRepo,
	goals repos.GoalRepo,
	enrollments repos.EnrollmentRepo,
	recommenders repos.RecommenderRepo,
	users repos.UserRepo,
	baseLog *logger.Logger,
) DispatchService {
	return &dispatchService{
		registry:     registry,
		activities:   activities,
		goals:        goals,
		enrollments:  enrollments,
		recommenders: recommenders,
		users:        users,
		log:          baseLog.With("service", "DispatchService"),
	}
}

func (s *dispatchService) HandleActivityChange(ctx context.Context, change ActivityChange) (*types.Activity, error) {
	activity, err := s.activities.GetByID(ctx, nil, change.ActivityID)
	if err != nil {
		return nil, err
	}
	if activity.IsTemplate() {
		return nil, fmt.Errorf("activity %s is a template: %w", activity.ID, siddata.ErrNotFound)
	}

	enrollment, recommender, err := s.resolveOwner(ctx, activity)
	if err != nil {
		return nil, err
	}
	if change.Actor != nil && *change.Actor != enrollment.UserID {
		return nil, fmt.Errorf("activity %s does not belong to user %s: %w", activity.ID, *change.Actor, siddata.ErrNotFound)
	}
	if err := s.checkConsent(ctx, enrollment.UserID); err != nil {
		return nil, err
	}

	// Raw field writes come first; the state machine then decides whether
	// the requested transition sticks.
	if change.Answers != nil {
		activity.Answers = change.Answers
	}
	if change.FeedbackValue != nil {
		activity.FeedbackValue = change.FeedbackValue
	}
	if change.FeedbackText != nil {
		activity.FeedbackText = *change.FeedbackText
	}
	if change.Notes != nil {
		activity.Notes = *change.Notes
	}
	transitioned := false
	if change.Status != nil {
		transitioned = siddata.Transition(activity, *change.Status)
	}
	if err := s.activities.Update(ctx, nil, activity); err != nil {
		return nil, err
	}

	escalate := change.Answers != nil || (transitioned && siddata.Terminal(activity.Status))
	if !escalate {
		return activity, nil
	}

	plugin, ok := s.registry.Get(recommender.ClassName)
	if !ok {
		return nil, fmt.Errorf("no plugin registered for recommender %s: %w", recommender.ClassName, siddata.ErrNotFound)
	}
	if err := plugin.ProcessActivity(ctx, activity); err != nil {
		// Deliberately not isolated: the caller must see the failure.
		return nil, &siddata.PluginError{Plugin: plugin.ClassName(), Hook: "ProcessActivity", Err: err}
	}

	s.fanOutRefresh(ctx)
	return activity, nil
}

func (s *dispatchService) resolveOwner(ctx context.Context, activity *types.Activity) (*types.Enrollment, *types.Recommender, error) {
	if activity.GoalID == nil {
		return nil, nil, fmt.Errorf("activity %s has no goal: %w", activity.ID, siddata.ErrNotFound)
	}
	goal, err := s.goals.GetByID(ctx, nil, *activity.GoalID)
	if err != nil {
		return nil, nil, err
	}
	enrollment, err := s.enrollments.GetByID(ctx, nil, goal.EnrollmentID)
	if err != nil {
		return nil, nil, err
	}
	recommender, err := s.recommenders.GetByID(ctx, nil, enrollment.RecommenderID)
	if err != nil {
		return nil, nil, err
	}
	return enrollment, recommender, nil
}

func (s *dispatchService) checkConsent(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		return err
	}
	if !user.DataRegulations {
		return fmt.Errorf("user %s has not accepted the data regulations", userID)
	}
	return nil
}

// fanOutRefresh invokes Refresh on every active plugin. One plugin's
// failure or panic never reaches the others, nor the caller.
func (s *dispatchService) fanOutRefresh(ctx context.Context) {
	for _, plugin := range s.registry.ActivePlugins() {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					s.log.Error("plugin panicked in Refresh", "plugin", plugin.ClassName(), "panic", rec)
				}
			}()
			if err := plugin.Refresh(ctx); err != nil {
				s.log.Error("plugin Refresh failed", "plugin", plugin.ClassName(), "error", err)
			}
		}()
	}
}
