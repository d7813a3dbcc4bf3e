package siddata

import (
	"github.com/virtuos/siddata-backend/internal/types"
)

// Resolve applies the template override rule to one activity and returns a
// value copy with the dynamic attributes resolved. For each dynamic
// attribute the template's current value wins when it is truthy (non-empty
// string, non-zero number, non-nil reference); otherwise the instance keeps
// its own stored value. Resolution happens on every read, so editing a
// template is retroactively visible on all of its instances.
//
// Known quirk, kept on purpose: because zero and the empty string are not
// truthy, a template can never force an instance attribute to be exactly 0
// or "". The instance value always wins in that case.
func Resolve(instance *types.Activity, template *types.Activity) types.Activity {
	resolved := *instance
	if instance.TemplateRef == nil || template == nil {
		return resolved
	}

	resolved.Title = overrideString(template.Title, instance.Title)
	resolved.Description = overrideString(template.Description, instance.Description)
	resolved.Type = overrideString(template.Type, instance.Type)
	resolved.Notes = overrideString(template.Notes, instance.Notes)
	resolved.Image = overrideString(template.Image, instance.Image)
	resolved.ColorTheme = overrideString(template.ColorTheme, instance.ColorTheme)
	resolved.ButtonText = overrideString(template.ButtonText, instance.ButtonText)
	resolved.FeedbackSize = overrideInt(template.FeedbackSize, instance.FeedbackSize)
	resolved.Order = overrideInt64(template.Order, instance.Order)
	resolved.Form = overrideInt64(template.Form, instance.Form)
	if template.QuestionID != nil {
		resolved.QuestionID = template.QuestionID
	}
	if template.ResourceID != nil {
		resolved.ResourceID = template.ResourceID
	}
	if template.PersonID != nil {
		resolved.PersonID = template.PersonID
	}
	if template.DueDate != nil {
		resolved.DueDate = template.DueDate
	}
	return resolved
}

func overrideString(tmpl, own string) string {
	if tmpl != "" {
		return tmpl
	}
	return own
}

func overrideInt(tmpl, own int) int {
	if tmpl != 0 {
		return tmpl
	}
	return own
}

func overrideInt64(tmpl, own int64) int64 {
	if tmpl != 0 {
		return tmpl
	}
	return own
}
