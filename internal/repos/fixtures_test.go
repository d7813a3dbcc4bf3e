package repos

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/virtuos/siddata-backend/internal/db/dbtest"
	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/types"
)

type fixture struct {
	db         *gorm.DB
	origin     *types.Origin
	user       *types.User
	rec        *types.Recommender
	enrollment *types.Enrollment
	goal       *types.Goal
}

// newFixture builds the ownership chain one activity hangs off: origin,
// user, recommender, enrollment, goal.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	gormDB := dbtest.Open(t)
	log := logger.NewNop()
	ctx := context.Background()

	origins := NewOriginRepo(gormDB, log)
	origin := &types.Origin{Name: "Universität Osnabrück", Endpoint: "uos", APIKey: "hashed"}
	if err := origins.Create(ctx, nil, origin); err != nil {
		t.Fatalf("create origin: %v", err)
	}

	users := NewUserRepo(gormDB, log)
	user, _, err := users.FindOrCreate(ctx, nil, origin.ID, "student-1")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	user.DataRegulations = true
	if err := users.Update(ctx, nil, user); err != nil {
		t.Fatalf("update user: %v", err)
	}

	recs := NewRecommenderRepo(gormDB, log)
	rec, err := recs.FindOrCreate(ctx, nil, &types.Recommender{
		Name: "Siddata", ClassName: "RMStart", Order: 1, Active: true,
	})
	if err != nil {
		t.Fatalf("create recommender: %v", err)
	}

	enrollments := NewEnrollmentRepo(gormDB, log)
	enrollment, err := enrollments.FindOrCreate(ctx, nil, user.ID, rec.ID)
	if err != nil {
		t.Fatalf("create enrollment: %v", err)
	}
	if err := enrollments.SetEnabled(ctx, nil, enrollment.ID, true); err != nil {
		t.Fatalf("enable enrollment: %v", err)
	}

	goals := NewGoalRepo(gormDB, log)
	goal, _, err := goals.FindOrCreate(ctx, nil, &types.Goal{
		EnrollmentID: enrollment.ID, Title: "Siddata", Visible: true,
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	return &fixture{db: gormDB, origin: origin, user: user, rec: rec, enrollment: enrollment, goal: goal}
}
