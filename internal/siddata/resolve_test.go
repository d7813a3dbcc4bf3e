package siddata

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/virtuos/siddata-backend/internal/types"
)

func TestResolveTemplateWins(t *testing.T) {
	ref := "RMStart_AC_welcome"
	questionID := uuid.New()
	due := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	instance := &types.Activity{
		TemplateRef: &ref,
		Title:       "stale title",
		Description: "stale description",
		Order:       3,
		Status:      types.StatusActive,
	}
	template := &types.Activity{
		Title:        "fresh title",
		Description:  "fresh description",
		FeedbackSize: 3,
		QuestionID:   &questionID,
		DueDate:      &due,
	}

	resolved := Resolve(instance, template)

	if resolved.Title != "fresh title" {
		t.Fatalf("Title = %q, want template value", resolved.Title)
	}
	if resolved.Description != "fresh description" {
		t.Fatalf("Description = %q, want template value", resolved.Description)
	}
	if resolved.FeedbackSize != 3 {
		t.Fatalf("FeedbackSize = %d, want 3", resolved.FeedbackSize)
	}
	if resolved.QuestionID == nil || *resolved.QuestionID != questionID {
		t.Fatalf("QuestionID not taken from template")
	}
	if resolved.DueDate == nil || !resolved.DueDate.Equal(due) {
		t.Fatalf("DueDate not taken from template")
	}
	// Order 0 on the template is not truthy, the instance keeps its slot.
	if resolved.Order != 3 {
		t.Fatalf("Order = %d, want instance value 3", resolved.Order)
	}
	if resolved.Status != types.StatusActive {
		t.Fatalf("Status = %q, resolution must not touch state", resolved.Status)
	}
	// The stored instance is untouched; resolution is a read-time view.
	if instance.Title != "stale title" {
		t.Fatalf("instance mutated by Resolve")
	}
}

func TestResolveFalsyTemplateValueCannotOverride(t *testing.T) {
	ref := "RMStart_AC_welcome"
	instance := &types.Activity{
		TemplateRef:  &ref,
		Title:        "instance title",
		FeedbackSize: 2,
	}
	template := &types.Activity{
		Title:        "",
		FeedbackSize: 0,
	}

	resolved := Resolve(instance, template)

	if resolved.Title != "instance title" {
		t.Fatalf("Title = %q, empty template value must not win", resolved.Title)
	}
	if resolved.FeedbackSize != 2 {
		t.Fatalf("FeedbackSize = %d, zero template value must not win", resolved.FeedbackSize)
	}
}

func TestResolveWithoutTemplateRef(t *testing.T) {
	instance := &types.Activity{Title: "standalone"}
	template := &types.Activity{Title: "ignored"}

	resolved := Resolve(instance, template)
	if resolved.Title != "standalone" {
		t.Fatalf("Title = %q, activities without a template ref resolve to themselves", resolved.Title)
	}
}
