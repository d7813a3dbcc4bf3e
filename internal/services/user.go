package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/repos"
	"github.com/virtuos/siddata-backend/internal/siddata"
	"github.com/virtuos/siddata-backend/internal/types"
)

// GoalView and ActivityView are the read models the API returns: activities
// carry their template-resolved attributes and presented status, not the raw
// rows.
type ActivityView struct {
	types.Activity
	PresentedStatus string `json:"presented_status"`
}

type GoalView struct {
	Goal       *types.Goal    `json:"goal"`
	Activities []ActivityView `json:"activities"`
}

type RecommenderView struct {
	Recommender *types.Recommender `json:"recommender"`
	Enabled     bool               `json:"enabled"`
	Goals       []GoalView         `json:"goals"`
}

type UserService interface {
	// EnsureUser resolves or creates the user behind (origin, local id) and
	// runs first-touch initialization. Safe to call on every request.
	EnsureUser(ctx context.Context, origin *types.Origin, originUID string) (*types.User, error)
	UpdateConsent(ctx context.Context, userID uuid.UUID, dataDonation, dataRegulations bool) (*types.User, error)
	Delete(ctx context.Context, userID uuid.UUID) error
	// Overview assembles everything the student sees: enabled enrollments,
	// their visible goals and the resolved activities inside.
	Overview(ctx context.Context, userID uuid.UUID) ([]RecommenderView, error)
}

type userService struct {
	registry     siddata.Registry
	users        repos.UserRepo
	enrollments  repos.EnrollmentRepo
	recommenders repos.RecommenderRepo
	goals        repos.GoalRepo
	activities   repos.ActivityRepo
	templates    TemplateService
	log          *logger.Logger
}

func NewUserService(
	registry siddata.Registry,
	users repos.UserRepo,
	enrollments repos.EnrollmentRepo,
	recommenders repos.RecommenderRepo,
	goals repos.GoalRepo,
	activities repos.ActivityRepo,
	templates TemplateService,
	baseLog *logger.Logger,
) UserService {
	return &userService{
		registry:     registry,
		users:        users,
		enrollments:  enrollments,
		recommenders: recommenders,
		goals:        goals,
		activities:   activities,
		templates:    templates,
		log:          baseLog.With("service", "UserService"),
	}
}

func (s *userService) EnsureUser(ctx context.Context, origin *types.Origin, originUID string) (*types.User, error) {
	user, created, err := s.users.FindOrCreate(ctx, nil, origin.ID, originUID)
	if err != nil {
		return nil, err
	}
	if created {
		s.log.Info("new user, running first-touch initialization", "user_id", user.ID, "origin", origin.Endpoint)
	}
	// InitializeUser is find-or-create all the way down, so running it for
	// existing users is harmless and picks up newly activated plugins.
	if err := s.registry.InitializeUser(ctx, user); err != nil {
		return nil, fmt.Errorf("initialize user %s: %w", user.ID, err)
	}
	return user, nil
}

func (s *userService) UpdateConsent(ctx context.Context, userID uuid.UUID, dataDonation, dataRegulations bool) (*types.User, error) {
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	user.DataDonation = dataDonation
	user.DataRegulations = dataRegulations
	if err := s.users.Update(ctx, nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.users.Delete(ctx, nil, userID)
}

func (s *userService) Overview(ctx context.Context, userID uuid.UUID) ([]RecommenderView, error) {
	enrollments, err := s.enrollments.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	var views []RecommenderView
	for _, enr := range enrollments {
		rec, err := s.recommenders.GetByID(ctx, nil, enr.RecommenderID)
		if err != nil {
			return nil, err
		}
		if !rec.Active || !enr.Enabled {
			continue
		}
		goals, err := s.goals.ListByEnrollment(ctx, nil, enr.ID)
		if err != nil {
			return nil, err
		}
		view := RecommenderView{Recommender: rec, Enabled: enr.Enabled}
		for _, goal := range goals {
			if !goal.Visible {
				continue
			}
			goalView, err := s.goalView(ctx, goal)
			if err != nil {
				return nil, err
			}
			view.Goals = append(view.Goals, goalView)
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *userService) goalView(ctx context.Context, goal *types.Goal) (GoalView, error) {
	activities, err := s.activities.ListByGoal(ctx, nil, goal.ID)
	if err != nil {
		return GoalView{}, err
	}
	view := GoalView{Goal: goal}
	for _, a := range activities {
		resolved, err := s.templates.Resolve(ctx, a)
		if err != nil {
			return GoalView{}, err
		}
		view.Activities = append(view.Activities, ActivityView{
			Activity:        resolved,
			PresentedStatus: siddata.PresentedStatus(&resolved),
		})
	}
	return view, nil
}
