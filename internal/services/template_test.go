package services

import (
	"context"
	"errors"
	"testing"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/siddata"
	"github.com/virtuos/siddata-backend/internal/types"
)

func newTemplateService(fx *fixture, strict bool) TemplateService {
	return NewTemplateService(fx.db, fx.activities, strict, logger.NewNop())
}

func upsertTemplate(t *testing.T, svc TemplateService, id string, tmpl types.Activity) *types.Activity {
	t.Helper()
	tmpl.TemplateID = &id
	stored, err := svc.Upsert(context.Background(), &tmpl)
	if err != nil {
		t.Fatalf("upsert %s: %v", id, err)
	}
	return stored
}

func TestInstantiateIsIdempotent(t *testing.T) {
	fx := newFixture(t)
	svc := newTemplateService(fx, false)
	ctx := context.Background()

	upsertTemplate(t, svc, "RMFake_AC_welcome", types.Activity{Title: "Was ist Siddata?", Type: types.TypeTodo})

	first, err := svc.Instantiate(ctx, "RMFake_AC_welcome", fx.goal, Overrides{})
	if err != nil {
		t.Fatalf("first instantiate: %v", err)
	}
	second, err := svc.Instantiate(ctx, "RMFake_AC_welcome", fx.goal, Overrides{})
	if err != nil {
		t.Fatalf("second instantiate: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("repeated instantiation created a second activity")
	}

	listed, err := fx.activities.ListByGoal(ctx, nil, fx.goal.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("got %d activities, want 1", len(listed))
	}
	if listed[0].Title != "Was ist Siddata?" {
		t.Fatalf("instance title = %q", listed[0].Title)
	}
}

func TestInstantiateUnknownTemplateFails(t *testing.T) {
	fx := newFixture(t)
	svc := newTemplateService(fx, false)

	_, err := svc.Instantiate(context.Background(), "RMFake_AC_missing", fx.goal, Overrides{})
	if !errors.Is(err, siddata.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestInstantiateOverridesChangeIdentity(t *testing.T) {
	fx := newFixture(t)
	svc := newTemplateService(fx, false)
	ctx := context.Background()

	upsertTemplate(t, svc, "RMFake_AC_welcome", types.Activity{Title: "Was ist Siddata?"})

	plain, err := svc.Instantiate(ctx, "RMFake_AC_welcome", fx.goal, Overrides{})
	if err != nil {
		t.Fatalf("plain instantiate: %v", err)
	}
	custom := "Individueller Titel"
	overridden, err := svc.Instantiate(ctx, "RMFake_AC_welcome", fx.goal, Overrides{Title: &custom})
	if err != nil {
		t.Fatalf("overridden instantiate: %v", err)
	}
	if overridden.ID == plain.ID {
		t.Fatalf("override produced the same activity as the plain instance")
	}
	if overridden.Title != custom {
		t.Fatalf("title = %q, want override", overridden.Title)
	}

	// Same override again resolves to the existing row.
	again, err := svc.Instantiate(ctx, "RMFake_AC_welcome", fx.goal, Overrides{Title: &custom})
	if err != nil {
		t.Fatalf("repeat overridden instantiate: %v", err)
	}
	if again.ID != overridden.ID {
		t.Fatalf("identical override created another activity")
	}
}

func TestInstantiatePinnedOrderConflict(t *testing.T) {
	fx := newFixture(t)
	svc := newTemplateService(fx, false)
	ctx := context.Background()

	upsertTemplate(t, svc, "RMFake_AC_a", types.Activity{Title: "A"})
	upsertTemplate(t, svc, "RMFake_AC_b", types.Activity{Title: "B"})

	two := int64(2)
	if _, err := svc.Instantiate(ctx, "RMFake_AC_a", fx.goal, Overrides{Order: &two}); err != nil {
		t.Fatalf("pin order 2: %v", err)
	}
	_, err := svc.Instantiate(ctx, "RMFake_AC_b", fx.goal, Overrides{Order: &two})
	if !errors.Is(err, siddata.ErrConstraintViolation) {
		t.Fatalf("second pin on order 2: err = %v, want constraint violation", err)
	}
}

func TestTemplateEditIsRetroactive(t *testing.T) {
	fx := newFixture(t)
	svc := newTemplateService(fx, false)
	ctx := context.Background()

	upsertTemplate(t, svc, "RMFake_AC_welcome", types.Activity{Title: "Alte Fassung", Description: "v1"})
	instance, err := svc.Instantiate(ctx, "RMFake_AC_welcome", fx.goal, Overrides{})
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}

	upsertTemplate(t, svc, "RMFake_AC_welcome", types.Activity{Title: "Neue Fassung", Description: "v2"})

	resolved, err := svc.Resolve(ctx, instance)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Title != "Neue Fassung" || resolved.Description != "v2" {
		t.Fatalf("resolved = %q/%q, template edit must win on read", resolved.Title, resolved.Description)
	}

	// Clearing a template field cannot push the empty string through; the
	// instance keeps its stored copy.
	upsertTemplate(t, svc, "RMFake_AC_welcome", types.Activity{Title: "", Description: "v3"})
	resolved, err = svc.Resolve(ctx, instance)
	if err != nil {
		t.Fatalf("resolve after clearing: %v", err)
	}
	if resolved.Title != "Alte Fassung" {
		t.Fatalf("resolved title = %q, want the instance copy", resolved.Title)
	}
	if resolved.Description != "v3" {
		t.Fatalf("resolved description = %q", resolved.Description)
	}
}

func TestFormConsistency(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	upsertTemplate(t, newTemplateService(fx, false), "RMFake_AC_q1", types.Activity{
		Title: "Fragenblock", Form: 7, ButtonText: "Weiter", Order: 1,
	})
	upsertTemplate(t, newTemplateService(fx, false), "RMFake_AC_q2", types.Activity{
		Title: "Fragenblock", Form: 7, ButtonText: "Abschicken", Order: 2,
	})

	t.Run("lenient tolerates mismatch", func(t *testing.T) {
		svc := newTemplateService(fx, false)
		if _, err := svc.Instantiate(ctx, "RMFake_AC_q1", fx.goal, Overrides{}); err != nil {
			t.Fatalf("first member: %v", err)
		}
		if _, err := svc.Instantiate(ctx, "RMFake_AC_q2", fx.goal, Overrides{}); err != nil {
			t.Fatalf("mismatching member must only warn: %v", err)
		}
	})

	t.Run("strict rejects mismatch", func(t *testing.T) {
		fx := newFixture(t)
		svc := newTemplateService(fx, true)
		upsertTemplate(t, svc, "RMFake_AC_q1", types.Activity{Title: "Fragenblock", Form: 7, ButtonText: "Weiter", Order: 1})
		upsertTemplate(t, svc, "RMFake_AC_q2", types.Activity{Title: "Fragenblock", Form: 7, ButtonText: "Abschicken", Order: 2})
		if _, err := svc.Instantiate(ctx, "RMFake_AC_q1", fx.goal, Overrides{}); err != nil {
			t.Fatalf("first member: %v", err)
		}
		if _, err := svc.Instantiate(ctx, "RMFake_AC_q2", fx.goal, Overrides{}); err == nil {
			t.Fatalf("strict mode must reject a non-uniform form")
		}
	})
}
