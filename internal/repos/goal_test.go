package repos

import (
	"context"
	"testing"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/types"
)

func TestGoalFindOrCreateAppendsOrders(t *testing.T) {
	fx := newFixture(t)
	goals := NewGoalRepo(fx.db, logger.NewNop())
	ctx := context.Background()

	// The fixture goal holds order 1.
	second, created, err := goals.FindOrCreate(ctx, nil, &types.Goal{
		EnrollmentID: fx.enrollment.ID, Title: "Auslandsaufenthalt", Visible: true,
	})
	if err != nil || !created {
		t.Fatalf("create second goal: created=%v err=%v", created, err)
	}
	if second.Order != 2 {
		t.Fatalf("second goal order = %d, want 2", second.Order)
	}

	same, created, err := goals.FindOrCreate(ctx, nil, &types.Goal{
		EnrollmentID: fx.enrollment.ID, Title: "Auslandsaufenthalt", Visible: true,
	})
	if err != nil {
		t.Fatalf("repeat find or create: %v", err)
	}
	if created || same.ID != second.ID {
		t.Fatalf("find or create by title must be idempotent")
	}

	listed, err := goals.ListByEnrollment(ctx, nil, fx.enrollment.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("got %d goals, want 2", len(listed))
	}
	if listed[0].Order != 1 || listed[1].Order != 2 {
		t.Fatalf("orders = %d,%d, want 1,2", listed[0].Order, listed[1].Order)
	}
}

func TestGoalHiddenFlagSurvivesCreate(t *testing.T) {
	fx := newFixture(t)
	goals := NewGoalRepo(fx.db, logger.NewNop())
	ctx := context.Background()

	hidden, created, err := goals.FindOrCreate(ctx, nil, &types.Goal{
		EnrollmentID: fx.enrollment.ID, Title: "Intern", Visible: false,
	})
	if err != nil || !created {
		t.Fatalf("create hidden goal: created=%v err=%v", created, err)
	}
	reloaded, err := goals.GetByID(ctx, nil, hidden.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Visible {
		t.Fatalf("goal created with Visible=false was stored visible")
	}
}

func TestGoalProperties(t *testing.T) {
	fx := newFixture(t)
	goals := NewGoalRepo(fx.db, logger.NewNop())
	ctx := context.Background()

	if err := goals.SetProperty(ctx, nil, fx.goal.ID, "ddc_label", []byte(`"004"`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := goals.GetProperty(ctx, nil, fx.goal.ID, "ddc_label")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Value) != `"004"` {
		t.Fatalf("value = %s", got.Value)
	}
}
