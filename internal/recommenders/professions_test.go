package recommenders

import (
	"context"
	"errors"
	"testing"

	"gorm.io/datatypes"

	"github.com/virtuos/siddata-backend/internal/siddata"
	"github.com/virtuos/siddata-backend/internal/types"
)

func TestCareerAnswerWithoutClassifierDoesNotFail(t *testing.T) {
	t.Setenv("CLASSIFIER_URL", "")
	fx := newRegistryFixture(t)
	ctx := context.Background()

	professions, ok := fx.registry.Get(ProfessionsClassName)
	if !ok {
		t.Fatalf("professions plugin missing")
	}
	if err := professions.Initialize(ctx, fx.user); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	queryRef := professions.(*Professions).TemplateID(professionsTemplQuery)
	queries, err := fx.deps.Activities.ListByTemplateRef(ctx, nil, queryRef)
	if err != nil || len(queries) != 1 {
		t.Fatalf("career query instances = %d, err = %v, want 1", len(queries), err)
	}
	query := queries[0]
	query.Answers = datatypes.JSON(`["Ich möchte mit Computern arbeiten"]`)

	// Development setups run without the model service; answering must still
	// succeed and the done transition must stick. The cron pass picks the
	// classification up later.
	if err := professions.ProcessActivity(ctx, query); err != nil {
		t.Fatalf("process with unconfigured classifier: %v", err)
	}

	reloaded, err := fx.deps.Activities.GetByID(ctx, nil, query.ID)
	if err != nil {
		t.Fatalf("reload query: %v", err)
	}
	if reloaded.Status != types.StatusDone {
		t.Fatalf("query status = %s, want %s", reloaded.Status, types.StatusDone)
	}
	if _, err := fx.deps.Goals.GetProperty(ctx, nil, *query.GoalID, professionsLabelProperty); !errors.Is(err, siddata.ErrNotFound) {
		t.Fatalf("label property err = %v, want not found", err)
	}
}
