package recommenders

import (
	"context"
	"encoding/json"
	"strings"

	"gorm.io/datatypes"

	"github.com/virtuos/siddata-backend/internal/services"
	"github.com/virtuos/siddata-backend/internal/siddata"
	"github.com/virtuos/siddata-backend/internal/types"
)

// HomeClassName identifies the distinguished home plugin that owns the root
// goal and the teaser questions for every other recommender.
const HomeClassName = "RMStart"

const (
	rootGoalTitle       = "Siddata"
	welcomeTemplateName = "welcome"
	teaserPrefix        = "teaser_"
)

func init() {
	register(HomeClassName, func(deps Deps) siddata.Plugin {
		return NewStart(deps)
	})
}

// Start is the home recommender: it greets new users and routes teaser
// answers to the recommender they activate.
type Start struct {
	Base
}

func NewStart(deps Deps) *Start {
	return &Start{Base: NewBase(Info{
		Name:        "Siddata",
		ClassName:   HomeClassName,
		Description: "Einstieg und Verwaltung der Empfehlungsdienste",
		DataInfo:    "Es werden keine weiteren Daten erhoben.",
		Order:       1,
		Active:      true,
	}, deps)}
}

// TeaserTemplateID names the teaser template that activates the given
// recommender.
func (s *Start) TeaserTemplateID(targetClassName string) string {
	return s.TemplateID(teaserPrefix + targetClassName)
}

func (s *Start) InitializeTemplates(ctx context.Context) error {
	welcomeID := s.TemplateID(welcomeTemplateName)
	_, err := s.deps.Templates.Upsert(ctx, &types.Activity{
		TemplateID:  &welcomeID,
		Title:       "Was ist Siddata?",
		Description: "Siddata unterstützt dich mit individuellen Empfehlungen rund um dein Studium.",
		Type:        types.TypeTodo,
		Order:       1,
	})
	if err != nil {
		return err
	}

	for _, target := range s.registry.ActivePlugins() {
		if target.ClassName() == HomeClassName {
			continue
		}
		question, err := s.deps.Content.FindOrCreateQuestion(ctx, nil, &types.Question{
			Text:       "Möchtest du Empfehlungen von \"" + target.Name() + "\" erhalten?",
			AnswerType: "selection",
			Selection:  datatypes.JSON([]byte(`["Ja","Nein"]`)),
		})
		if err != nil {
			return err
		}
		teaserID := s.TeaserTemplateID(target.ClassName())
		_, err = s.deps.Templates.Upsert(ctx, &types.Activity{
			TemplateID:  &teaserID,
			Title:       target.Name(),
			Description: target.Description(),
			Type:        types.TypeQuestion,
			QuestionID:  &question.ID,
			ButtonText:  "Antworten",
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Start) Initialize(ctx context.Context, user *types.User) error {
	enrollment, err := s.EnsureEnrollment(ctx, user)
	if err != nil {
		return err
	}
	// The home recommender is always on.
	if !enrollment.Enabled {
		if err := s.deps.Enrollments.SetEnabled(ctx, nil, enrollment.ID, true); err != nil {
			return err
		}
	}
	goal, err := s.EnsureGoal(ctx, user, rootGoalTitle, "default")
	if err != nil {
		return err
	}
	_, err = s.deps.Templates.Instantiate(ctx, s.TemplateID(welcomeTemplateName), goal, services.Overrides{})
	return err
}

// RootGoal returns the goal teaser activities live under.
func (s *Start) RootGoal(ctx context.Context, user *types.User) (*types.Goal, error) {
	return s.EnsureGoal(ctx, user, rootGoalTitle, "default")
}

// ProcessActivity handles answers on the home goal. A positive teaser
// answer runs the target plugin's activation protocol; everything else is
// simply completed.
func (s *Start) ProcessActivity(ctx context.Context, activity *types.Activity) error {
	if activity.TemplateRef == nil {
		return nil
	}
	ref := *activity.TemplateRef
	if !strings.HasPrefix(ref, s.TemplateID(teaserPrefix)) {
		return s.MarkDone(ctx, activity)
	}

	targetClass := strings.TrimPrefix(ref, s.TemplateID(teaserPrefix))
	if !positiveAnswer(activity.Answers) {
		s.log.Debug("teaser declined", "target", targetClass, "activity_id", activity.ID)
		return s.MarkDone(ctx, activity)
	}

	target, ok := s.registry.Get(targetClass)
	if !ok {
		s.log.Warn("teaser answered for unknown recommender", "target", targetClass)
		return s.MarkDone(ctx, activity)
	}
	user, err := s.UserOfActivity(ctx, activity)
	if err != nil {
		return err
	}
	// Activation: initialize is find-or-create throughout, so a duplicate
	// submission cannot create a second root goal.
	if err := target.Initialize(ctx, user); err != nil {
		return err
	}
	if enr, ok := target.(enroller); ok {
		enrollment, err := enr.EnsureEnrollment(ctx, user)
		if err != nil {
			return err
		}
		if !enrollment.Enabled {
			if err := s.deps.Enrollments.SetEnabled(ctx, nil, enrollment.ID, true); err != nil {
				return err
			}
		}
	}
	s.log.Info("recommender activated via teaser", "target", targetClass, "user_id", user.ID)
	return s.MarkDone(ctx, activity)
}

// positiveAnswer interprets a submitted answer payload as consent. Payloads
// arrive as a bare string, a bool, or a selection list.
func positiveAnswer(raw datatypes.JSON) bool {
	if len(raw) == 0 {
		return false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return affirmative(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, v := range list {
			if affirmative(v) {
				return true
			}
		}
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	return false
}

func affirmative(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ja", "yes", "y", "true", "1":
		return true
	}
	return false
}
