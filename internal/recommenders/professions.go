package recommenders

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"gorm.io/datatypes"

	"github.com/virtuos/siddata-backend/internal/services"
	"github.com/virtuos/siddata-backend/internal/siddata"
	"github.com/virtuos/siddata-backend/internal/types"
)

const ProfessionsClassName = "RMProfessions"

func init() {
	register(ProfessionsClassName, func(deps Deps) siddata.Plugin {
		return NewProfessions(deps)
	})
}

// Professions maps a free-text career interest onto a subject label via the
// classifier service and suggests reading material close to that label.
type Professions struct {
	Base
}

func NewProfessions(deps Deps) *Professions {
	return &Professions{Base: NewBase(Info{
		Name:        "Berufsorientierung",
		ClassName:   ProfessionsClassName,
		Description: "Unterstützung bei der beruflichen Orientierung",
		DataInfo:    "Deine Freitextantwort wird zur fachlichen Einordnung an einen Klassifikationsdienst übermittelt.",
		Order:       3,
		Active:      true,
	}, deps)}
}

const (
	professionsGoalTitle     = "Berufsorientierung"
	professionsTemplQuery    = "career_query"
	professionsTemplReading  = "reading"
	professionsLabelProperty = "ddc_label"
)

// catalogue is the static reading list scored against the classified label.
// Entries live in the resource table; the label keys the similarity lookup.
var catalogue = []struct {
	label    string
	resource types.Resource
}{
	{"004", types.Resource{
		Title:  "Berufsfeld Informatik",
		URL:    "https://www.gi.de/themen/berufe",
		Format: "website",
		Source: "GI",
	}},
	{"370", types.Resource{
		Title:  "Berufsfeld Bildung und Erziehung",
		URL:    "https://www.kmk.org/themen/lehrkraefte.html",
		Format: "website",
		Source: "KMK",
	}},
	{"610", types.Resource{
		Title:  "Berufsfeld Gesundheit und Medizin",
		URL:    "https://www.bundesaerztekammer.de/themen/aerzte",
		Format: "website",
		Source: "BÄK",
	}},
}

func (p *Professions) InitializeTemplates(ctx context.Context) error {
	query, err := p.deps.Content.FindOrCreateQuestion(ctx, nil, &types.Question{
		Text:       "Beschreibe in wenigen Sätzen, was dich beruflich interessiert.",
		AnswerType: "text",
	})
	if err != nil {
		return err
	}
	queryID := p.TemplateID(professionsTemplQuery)
	if _, err := p.deps.Templates.Upsert(ctx, &types.Activity{
		TemplateID: &queryID,
		Title:      "Deine beruflichen Interessen",
		Type:       types.TypeQuestion,
		QuestionID: &query.ID,
		ButtonText: "Absenden",
	}); err != nil {
		return err
	}

	readingID := p.TemplateID(professionsTemplReading)
	_, err = p.deps.Templates.Upsert(ctx, &types.Activity{
		TemplateID:  &readingID,
		Title:       "Lesetipp zu deinem Berufsfeld",
		Description: "Material passend zu deiner fachlichen Einordnung",
		Type:        types.TypeResource,
		ButtonText:  "Ansehen",
	})
	return err
}

func (p *Professions) Initialize(ctx context.Context, user *types.User) error {
	goal, err := p.EnsureGoal(ctx, user, professionsGoalTitle, "professions")
	if err != nil {
		return err
	}
	_, err = p.deps.Templates.Instantiate(ctx, p.TemplateID(professionsTemplQuery), goal, services.Overrides{})
	return err
}

func (p *Professions) ProcessActivity(ctx context.Context, activity *types.Activity) error {
	if activity.TemplateRef == nil || *activity.TemplateRef != p.TemplateID(professionsTemplQuery) {
		return nil
	}
	if activity.Answers == nil || activity.GoalID == nil {
		return nil
	}
	if err := p.MarkDone(ctx, activity); err != nil {
		return err
	}
	return p.classifyAndSuggest(ctx, activity)
}

func (p *Professions) classifyAndSuggest(ctx context.Context, activity *types.Activity) error {
	text := firstAnswer(activity.Answers)
	if text == "" {
		return nil
	}
	label, err := p.deps.Classifier.Classify(ctx, text)
	if err != nil {
		return err
	}
	if label == "" {
		// The classifier is disabled or undecided; the cron pass retries.
		return nil
	}
	goal, err := p.deps.Goals.GetByID(ctx, nil, *activity.GoalID)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(label)
	if err != nil {
		return err
	}
	if err := p.deps.Goals.SetProperty(ctx, nil, goal.ID, professionsLabelProperty, datatypes.JSON(raw)); err != nil {
		return err
	}
	return p.suggestReading(ctx, goal, label)
}

// suggestReading ranks the catalogue by label distance and attaches the
// closest entries as resource activities, nearest first.
func (p *Professions) suggestReading(ctx context.Context, goal *types.Goal, label string) error {
	type scored struct {
		distance float64
		resource types.Resource
	}
	ranked := make([]scored, 0, len(catalogue))
	for _, entry := range catalogue {
		distance, err := p.deps.Classifier.Similarity(ctx, label, entry.label)
		if err != nil {
			p.log.Warn("similarity lookup failed", "label", entry.label, "error", err)
			continue
		}
		ranked = append(ranked, scored{distance: distance, resource: entry.resource})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].distance < ranked[j].distance })

	limit := 2
	if len(ranked) < limit {
		limit = len(ranked)
	}
	for _, entry := range ranked[:limit] {
		res := entry.resource
		resource, err := p.deps.Content.FindOrCreateResource(ctx, nil, &res)
		if err != nil {
			return err
		}
		if _, err := p.deps.Templates.Instantiate(ctx, p.TemplateID(professionsTemplReading), goal, services.Overrides{
			ResourceID: &resource.ID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteCronFunctions re-runs classification for answered queries whose
// goal never received a label, typically because the classifier was down.
func (p *Professions) ExecuteCronFunctions(ctx context.Context) error {
	answered, err := p.deps.Activities.ListByTemplateRef(ctx, nil, p.TemplateID(professionsTemplQuery))
	if err != nil {
		return err
	}
	for _, activity := range answered {
		if activity.Status != types.StatusDone || activity.Answers == nil || activity.GoalID == nil {
			continue
		}
		if _, err := p.deps.Goals.GetProperty(ctx, nil, *activity.GoalID, professionsLabelProperty); err == nil {
			continue
		} else if !errors.Is(err, siddata.ErrNotFound) {
			return err
		}
		if err := p.classifyAndSuggest(ctx, activity); err != nil {
			p.log.Warn("classification retry failed", "activity_id", activity.ID, "error", err)
		}
	}
	return nil
}

// firstAnswer pulls the first string out of an answers payload, which the
// clients send either as a bare string or as an array of strings.
func firstAnswer(raw datatypes.JSON) string {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return many[0]
	}
	return ""
}
