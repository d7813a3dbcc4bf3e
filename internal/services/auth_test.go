package services

import (
	"context"
	"testing"
	"time"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/types"
)

func newAuth(t *testing.T, fx *fixture, ttl time.Duration) AuthService {
	t.Helper()
	svc := NewAuthService(fx.db, logger.NewNop(), fx.origins, "test-secret", ttl)

	// The fixture origin carries a placeholder key; store a real hash.
	hashed, err := svc.HashAPIKey("campus-key")
	if err != nil {
		t.Fatalf("hash api key: %v", err)
	}
	fx.origin.APIKey = hashed
	if err := fx.db.Save(fx.origin).Error; err != nil {
		t.Fatalf("store hashed key: %v", err)
	}
	return svc
}

func TestLoginAndVerify(t *testing.T) {
	fx := newFixture(t)
	svc := newAuth(t, fx, time.Hour)
	ctx := context.Background()

	token, err := svc.Login(ctx, "uos", "campus-key", "student-1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	identity, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if identity.OriginID != fx.origin.ID {
		t.Fatalf("identity origin = %s, want %s", identity.OriginID, fx.origin.ID)
	}
	if identity.OriginUID != "student-1" {
		t.Fatalf("identity origin uid = %q", identity.OriginUID)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	fx := newFixture(t)
	svc := newAuth(t, fx, time.Hour)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "uos", "wrong-key", "student-1"); err == nil {
		t.Fatalf("wrong api key must fail")
	}
	if _, err := svc.Login(ctx, "unknown", "campus-key", "student-1"); err == nil {
		t.Fatalf("unknown endpoint must fail")
	}
	if _, err := svc.Login(ctx, "uos", "campus-key", ""); err == nil {
		t.Fatalf("missing origin uid must fail")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	fx := newFixture(t)
	svc := newAuth(t, fx, -time.Minute)

	token, err := svc.Login(context.Background(), "uos", "campus-key", "student-1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.Verify(token); err == nil {
		t.Fatalf("expired token must be rejected")
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	fx := newFixture(t)
	svc := newAuth(t, fx, time.Hour)
	token, err := svc.Login(context.Background(), "uos", "campus-key", "student-1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	other := NewAuthService(fx.db, logger.NewNop(), fx.origins, "other-secret", time.Hour)
	if _, err := other.Verify(token); err == nil {
		t.Fatalf("token signed with another secret must be rejected")
	}
}

func TestUpdateConsent(t *testing.T) {
	fx := newFixture(t)
	users := NewUserService(&fakeRegistry{}, fx.users, fx.enrollments, fx.recommenders, fx.goals, fx.activities,
		newTemplateService(fx, false), logger.NewNop())

	updated, err := users.UpdateConsent(context.Background(), fx.user.ID, true, false)
	if err != nil {
		t.Fatalf("update consent: %v", err)
	}
	if !updated.DataDonation || updated.DataRegulations {
		t.Fatalf("consent flags = %v/%v, want true/false", updated.DataDonation, updated.DataRegulations)
	}
}

func TestOverviewSkipsDisabledAndInvisible(t *testing.T) {
	fx := newFixture(t)
	users := NewUserService(&fakeRegistry{}, fx.users, fx.enrollments, fx.recommenders, fx.goals, fx.activities,
		newTemplateService(fx, false), logger.NewNop())
	ctx := context.Background()

	fx.newActivity(t, types.StatusNew)

	// A hidden goal under the same enrollment must not surface.
	if _, _, err := fx.goals.FindOrCreate(ctx, nil, &types.Goal{
		EnrollmentID: fx.enrollment.ID, Title: "internes Ziel", Visible: false,
	}); err != nil {
		t.Fatalf("create hidden goal: %v", err)
	}

	views, err := users.Overview(ctx, fx.user.ID)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("views = %d, want 1", len(views))
	}
	if len(views[0].Goals) != 1 {
		t.Fatalf("visible goals = %d, want 1", len(views[0].Goals))
	}
	if len(views[0].Goals[0].Activities) != 1 {
		t.Fatalf("activities = %d, want 1", len(views[0].Goals[0].Activities))
	}

	// Disabling the enrollment empties the overview.
	if err := fx.enrollments.SetEnabled(ctx, nil, fx.enrollment.ID, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	views, err = users.Overview(ctx, fx.user.ID)
	if err != nil {
		t.Fatalf("overview after disable: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("views after disable = %d, want 0", len(views))
	}
}
