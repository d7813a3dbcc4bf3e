package recommenders

import (
	"context"

	"gorm.io/datatypes"

	"github.com/virtuos/siddata-backend/internal/services"
	"github.com/virtuos/siddata-backend/internal/siddata"
	"github.com/virtuos/siddata-backend/internal/types"
)

const AbroadClassName = "RMAbroad"

const abroadGoalTitle = "Auslandsaufenthalt"

func init() {
	register(AbroadClassName, func(deps Deps) siddata.Plugin {
		return NewAbroad(deps)
	})
}

// Abroad recommends stays abroad: it asks for the student's preferences in
// one uniform question form and answers with matching information material.
type Abroad struct {
	Base
}

func NewAbroad(deps Deps) *Abroad {
	return &Abroad{Base: NewBase(Info{
		Name:        "Auslandsaufenthalt",
		ClassName:   AbroadClassName,
		Description: "Empfehlungen rund um Studium und Praktikum im Ausland",
		DataInfo:    "Deine Antworten werden zur Auswahl passender Angebote genutzt.",
		Order:       2,
		Active:      true,
	}, deps)}
}

const (
	abroadFormInterests   int64 = 1
	abroadInterestsTitle        = "Deine Wünsche für den Auslandsaufenthalt"
	abroadTemplRegion           = "interests_region"
	abroadTemplDuration         = "interests_duration"
	abroadTemplSuggestion       = "suggestion"
)

func (a *Abroad) InitializeTemplates(ctx context.Context) error {
	region, err := a.deps.Content.FindOrCreateQuestion(ctx, nil, &types.Question{
		Text:       "In welcher Region möchtest du deinen Aufenthalt verbringen?",
		AnswerType: "selection",
		Selection:  datatypes.JSON([]byte(`["Europa","Nordamerika","Asien","Weltweit"]`)),
	})
	if err != nil {
		return err
	}
	duration, err := a.deps.Content.FindOrCreateQuestion(ctx, nil, &types.Question{
		Text:       "Wie lange soll dein Aufenthalt dauern?",
		AnswerType: "selection",
		Selection:  datatypes.JSON([]byte(`["Ein Semester","Zwei Semester","Praktikum"]`)),
	})
	if err != nil {
		return err
	}

	// The two interest questions form one uniform batch: shared title,
	// button text and feedback size, distinct orders inside the form.
	for _, tmpl := range []struct {
		name     string
		question *types.Question
		order    int64
	}{
		{abroadTemplRegion, region, 1},
		{abroadTemplDuration, duration, 2},
	} {
		id := a.TemplateID(tmpl.name)
		_, err := a.deps.Templates.Upsert(ctx, &types.Activity{
			TemplateID: &id,
			Title:      abroadInterestsTitle,
			Type:       types.TypeQuestion,
			QuestionID: &tmpl.question.ID,
			Form:       abroadFormInterests,
			Order:      tmpl.order,
			ButtonText: "Weiter",
		})
		if err != nil {
			return err
		}
	}

	suggestionID := a.TemplateID(abroadTemplSuggestion)
	_, err = a.deps.Templates.Upsert(ctx, &types.Activity{
		TemplateID:  &suggestionID,
		Title:       "Passende Angebote",
		Description: "Informationsmaterial zu deinem Wunschaufenthalt",
		Type:        types.TypeResource,
		ButtonText:  "Ansehen",
	})
	return err
}

func (a *Abroad) Initialize(ctx context.Context, user *types.User) error {
	goal, err := a.EnsureGoal(ctx, user, abroadGoalTitle, "form")
	if err != nil {
		return err
	}
	for _, name := range []string{abroadTemplRegion, abroadTemplDuration} {
		if _, err := a.deps.Templates.Instantiate(ctx, a.TemplateID(name), goal, services.Overrides{}); err != nil {
			return err
		}
	}
	return nil
}

// ProcessActivity reacts to answered interest questions by completing them
// and, once both are answered, attaching information material.
func (a *Abroad) ProcessActivity(ctx context.Context, activity *types.Activity) error {
	if activity.Answers == nil {
		return nil
	}
	if err := a.MarkDone(ctx, activity); err != nil {
		return err
	}
	if activity.GoalID == nil {
		return nil
	}
	open, err := a.deps.Activities.ListByGoalAndForm(ctx, nil, *activity.GoalID, abroadFormInterests)
	if err != nil {
		return err
	}
	for _, member := range open {
		if member.Status != types.StatusDone {
			return nil
		}
	}
	return a.suggest(ctx, activity)
}

func (a *Abroad) suggest(ctx context.Context, activity *types.Activity) error {
	goal, err := a.deps.Goals.GetByID(ctx, nil, *activity.GoalID)
	if err != nil {
		return err
	}
	resource, err := a.deps.Content.FindOrCreateResource(ctx, nil, &types.Resource{
		Title:       "DAAD — Wege ins Ausland",
		Description: "Überblick über Austauschprogramme, Stipendien und Praktika",
		URL:         "https://www.daad.de/de/im-ausland-studieren-forschen-lehren/",
		Format:      "website",
		Source:      "DAAD",
	})
	if err != nil {
		return err
	}
	_, err = a.deps.Templates.Instantiate(ctx, a.TemplateID(abroadTemplSuggestion), goal, services.Overrides{
		ResourceID: &resource.ID,
	})
	return err
}

// ExecuteCronFunctions retries suggestion creation for goals whose interest
// form was completed while the resource catalogue was still empty.
func (a *Abroad) ExecuteCronFunctions(ctx context.Context) error {
	answered, err := a.deps.Activities.ListByTemplateRef(ctx, nil, a.TemplateID(abroadTemplDuration))
	if err != nil {
		return err
	}
	for _, activity := range answered {
		if activity.Status != types.StatusDone || activity.GoalID == nil {
			continue
		}
		suggestions, err := a.deps.Activities.ListByGoal(ctx, nil, *activity.GoalID)
		if err != nil {
			return err
		}
		hasSuggestion := false
		for _, s := range suggestions {
			if s.TemplateRef != nil && *s.TemplateRef == a.TemplateID(abroadTemplSuggestion) {
				hasSuggestion = true
				break
			}
		}
		if !hasSuggestion {
			if err := a.suggest(ctx, activity); err != nil {
				a.log.Warn("retrying abroad suggestion failed", "goal_id", activity.GoalID, "error", err)
			}
		}
	}
	return nil
}
