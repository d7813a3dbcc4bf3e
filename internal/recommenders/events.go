package recommenders

import (
	"context"
	"time"

	"github.com/virtuos/siddata-backend/internal/platform/mailer"
	"github.com/virtuos/siddata-backend/internal/services"
	"github.com/virtuos/siddata-backend/internal/siddata"
	"github.com/virtuos/siddata-backend/internal/types"
)

const EventsClassName = "RMEvents"

func init() {
	register(EventsClassName, func(deps Deps) siddata.Plugin {
		return NewEvents(deps)
	})
}

// Events surfaces campus events as dated activities and nudges students by
// mail when an event activity passes its due date unanswered.
type Events struct {
	Base
}

func NewEvents(deps Deps) *Events {
	return &Events{Base: NewBase(Info{
		Name:        "Veranstaltungen",
		ClassName:   EventsClassName,
		Description: "Hinweise auf Veranstaltungen rund um dein Studium",
		DataInfo:    "Für Erinnerungen wird deine hinterlegte E-Mail-Adresse verwendet.",
		Order:       4,
		Active:      true,
	}, deps)}
}

const (
	eventsGoalTitle = "Veranstaltungen"
	eventsTemplHint = "event_hint"
)

func (e *Events) InitializeTemplates(ctx context.Context) error {
	id := e.TemplateID(eventsTemplHint)
	_, err := e.deps.Templates.Upsert(ctx, &types.Activity{
		TemplateID:  &id,
		Title:       "Veranstaltungshinweis",
		Description: "Eine Veranstaltung, die zu deinem Studium passen könnte",
		Type:        types.TypeResource,
		ButtonText:  "Interessiert mich",
	})
	return err
}

func (e *Events) Initialize(ctx context.Context, user *types.User) error {
	semesterOpening, err := e.deps.Content.FindOrCreateResource(ctx, nil, &types.Resource{
		Title:       "Semestereröffnung",
		Description: "Auftaktveranstaltung mit allen Recommendern im Überblick",
		URL:         "https://www.siddata.de/veranstaltungen/semesterstart",
		Format:      "event",
		Source:      "Siddata",
	})
	if err != nil {
		return err
	}
	goal, err := e.EnsureGoal(ctx, user, eventsGoalTitle, "events")
	if err != nil {
		return err
	}
	// The due date moves with the clock, so the instantiation identity alone
	// cannot dedupe repeated setup calls. An existing hint keeps its date.
	existing, err := e.deps.Activities.ListByGoal(ctx, nil, goal.ID)
	if err != nil {
		return err
	}
	for _, activity := range existing {
		if activity.TemplateRef != nil && *activity.TemplateRef == e.TemplateID(eventsTemplHint) {
			return nil
		}
	}
	due := time.Now().Add(14 * 24 * time.Hour)
	_, err = e.deps.Templates.Instantiate(ctx, e.TemplateID(eventsTemplHint), goal, services.Overrides{
		ResourceID: &semesterOpening.ID,
		DueDate:    &due,
	})
	return err
}

func (e *Events) ProcessActivity(ctx context.Context, activity *types.Activity) error {
	return nil
}

// ExecuteCronFunctions mails a reminder for every event activity of this
// plugin that is past due and still open. The notes field records the nudge
// so a reminder goes out at most once per activity.
func (e *Events) ExecuteCronFunctions(ctx context.Context) error {
	due, err := e.deps.Activities.ListDue(ctx, nil, time.Now())
	if err != nil {
		return err
	}
	for _, activity := range due {
		if activity.TemplateRef == nil || *activity.TemplateRef != e.TemplateID(eventsTemplHint) {
			continue
		}
		if activity.Notes == nudgeMarker {
			continue
		}
		if err := e.nudge(ctx, activity); err != nil {
			e.log.Warn("event nudge failed", "activity_id", activity.ID, "error", err)
		}
	}
	return nil
}

const nudgeMarker = "nudged"

func (e *Events) nudge(ctx context.Context, activity *types.Activity) error {
	user, err := e.UserOfActivity(ctx, activity)
	if err != nil {
		return err
	}
	if !user.DataDonation || user.Email == "" {
		return nil
	}
	resolved, err := e.deps.Templates.Resolve(ctx, activity)
	if err != nil {
		return err
	}
	err = e.deps.Mailer.Send(ctx, mailer.SendEmailRequest{
		To:      []mailer.EmailAddress{{Email: user.Email}},
		Subject: "Erinnerung: " + resolved.Title,
		Text:    resolved.Description + "\n\nDiese Veranstaltung wartet noch in deinem Siddata-Studienassistenten auf dich.",
	})
	if err != nil {
		return err
	}
	activity.Notes = nudgeMarker
	return e.deps.Activities.Update(ctx, nil, activity)
}
