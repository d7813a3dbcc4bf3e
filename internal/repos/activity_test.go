package repos

import (
	"context"
	"errors"
	"testing"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/siddata"
	"github.com/virtuos/siddata-backend/internal/types"
)

func TestFindOrCreateInstanceAssignsSequentialOrders(t *testing.T) {
	fx := newFixture(t)
	activities := NewActivityRepo(fx.db, logger.NewNop())
	ctx := context.Background()

	for i, title := range []string{"first", "second", "third"} {
		a := &types.Activity{GoalID: &fx.goal.ID, Title: title, Status: types.StatusNew}
		created, isNew, err := activities.FindOrCreateInstance(ctx, nil, a, false)
		if err != nil {
			t.Fatalf("create %q: %v", title, err)
		}
		if !isNew {
			t.Fatalf("create %q: expected a new row", title)
		}
		if created.Order != int64(i+1) {
			t.Fatalf("order of %q = %d, want %d", title, created.Order, i+1)
		}
	}

	listed, err := activities.ListByGoal(ctx, nil, fx.goal.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("got %d activities, want 3", len(listed))
	}
	for i, a := range listed {
		if a.Order != int64(i+1) {
			t.Fatalf("listed[%d].Order = %d, want %d", i, a.Order, i+1)
		}
	}
}

func TestFindOrCreateInstanceIsIdempotent(t *testing.T) {
	fx := newFixture(t)
	activities := NewActivityRepo(fx.db, logger.NewNop())
	ctx := context.Background()

	ref := "RMStart_AC_welcome"
	first, isNew, err := activities.FindOrCreateInstance(ctx, nil,
		&types.Activity{GoalID: &fx.goal.ID, TemplateRef: &ref, Title: "Welcome", Status: types.StatusNew}, false)
	if err != nil || !isNew {
		t.Fatalf("first create: isNew=%v err=%v", isNew, err)
	}

	second, isNew, err := activities.FindOrCreateInstance(ctx, nil,
		&types.Activity{GoalID: &fx.goal.ID, TemplateRef: &ref, Title: "Welcome", Status: types.StatusNew}, false)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if isNew {
		t.Fatalf("identical instantiation created a second row")
	}
	if second.ID != first.ID {
		t.Fatalf("second call returned a different row")
	}
}

func TestFindOrCreateInstanceAnsweredRowStillMatches(t *testing.T) {
	fx := newFixture(t)
	activities := NewActivityRepo(fx.db, logger.NewNop())
	ctx := context.Background()

	ref := "RMStart_AC_welcome"
	first, _, err := activities.FindOrCreateInstance(ctx, nil,
		&types.Activity{GoalID: &fx.goal.ID, TemplateRef: &ref, Title: "Welcome", Status: types.StatusNew}, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Status and answers are runtime state, not identity.
	first.Status = types.StatusDone
	first.Answers = []byte(`["Ja"]`)
	if err := activities.Update(ctx, nil, first); err != nil {
		t.Fatalf("update: %v", err)
	}

	_, isNew, err := activities.FindOrCreateInstance(ctx, nil,
		&types.Activity{GoalID: &fx.goal.ID, TemplateRef: &ref, Title: "Welcome", Status: types.StatusNew}, false)
	if err != nil {
		t.Fatalf("re-instantiate: %v", err)
	}
	if isNew {
		t.Fatalf("answered instance no longer matched its identity")
	}
}

func TestFindOrCreateInstancePinnedOrderCollision(t *testing.T) {
	fx := newFixture(t)
	activities := NewActivityRepo(fx.db, logger.NewNop())
	ctx := context.Background()

	if _, _, err := activities.FindOrCreateInstance(ctx, nil,
		&types.Activity{GoalID: &fx.goal.ID, Title: "occupies slot two", Order: 2, Status: types.StatusNew}, true); err != nil {
		t.Fatalf("seed slot two: %v", err)
	}

	_, _, err := activities.FindOrCreateInstance(ctx, nil,
		&types.Activity{GoalID: &fx.goal.ID, Title: "wants slot two as well", Order: 2, Status: types.StatusNew}, true)
	if !errors.Is(err, siddata.ErrConstraintViolation) {
		t.Fatalf("pinned collision err = %v, want constraint violation", err)
	}
}

func TestFindOrCreateInstanceUnpinnedSkipsOccupiedOrders(t *testing.T) {
	fx := newFixture(t)
	activities := NewActivityRepo(fx.db, logger.NewNop())
	ctx := context.Background()

	if _, _, err := activities.FindOrCreateInstance(ctx, nil,
		&types.Activity{GoalID: &fx.goal.ID, Title: "pinned high", Order: 5, Status: types.StatusNew}, true); err != nil {
		t.Fatalf("seed order 5: %v", err)
	}

	created, _, err := activities.FindOrCreateInstance(ctx, nil,
		&types.Activity{GoalID: &fx.goal.ID, Title: "appended", Status: types.StatusNew}, false)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if created.Order != 6 {
		t.Fatalf("appended order = %d, want 6", created.Order)
	}
}

func TestUpsertTemplateKeepsPrimaryKey(t *testing.T) {
	fx := newFixture(t)
	activities := NewActivityRepo(fx.db, logger.NewNop())
	ctx := context.Background()

	id := "RMStart_AC_welcome"
	first, err := activities.UpsertTemplate(ctx, nil, &types.Activity{TemplateID: &id, Title: "v1"})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if first.Status != types.StatusTemplate {
		t.Fatalf("template status = %q", first.Status)
	}

	second, err := activities.UpsertTemplate(ctx, nil, &types.Activity{TemplateID: &id, Title: "v2"})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert changed the primary key")
	}
	if second.Title != "v2" {
		t.Fatalf("upsert did not take the new title")
	}

	fetched, err := activities.GetTemplate(ctx, nil, id)
	if err != nil {
		t.Fatalf("get template: %v", err)
	}
	if fetched.Title != "v2" {
		t.Fatalf("stored title = %q, want v2", fetched.Title)
	}
}

func TestGetTemplateIgnoresInstances(t *testing.T) {
	fx := newFixture(t)
	activities := NewActivityRepo(fx.db, logger.NewNop())
	ctx := context.Background()

	ref := "RMStart_AC_welcome"
	if _, _, err := activities.FindOrCreateInstance(ctx, nil,
		&types.Activity{GoalID: &fx.goal.ID, TemplateRef: &ref, Title: "instance", Status: types.StatusNew}, false); err != nil {
		t.Fatalf("create instance: %v", err)
	}

	if _, err := activities.GetTemplate(ctx, nil, ref); !errors.Is(err, siddata.ErrNotFound) {
		t.Fatalf("GetTemplate over instances err = %v, want not found", err)
	}
}
