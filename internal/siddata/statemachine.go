package siddata

import (
	"github.com/virtuos/siddata-backend/internal/types"
)

// Transition applies a status-change request to the activity in memory and
// reports whether anything changed. Requests that the state machine forbids
// are ignored, not errors: the caller persists whatever state remains.
//
//	new -> active -> done        (done is terminal unless Rebirth)
//	active <-> snoozed           (reversible pause)
//	any non-terminal -> discarded (terminal unless Rebirth)
//
// An immortal activity ignores every request and is always presented as
// active. Template rows are not part of the state machine at all.
func Transition(a *types.Activity, to string) bool {
	if a.Status == types.StatusImmortal || a.Status == types.StatusTemplate {
		return false
	}
	if to == a.Status {
		return false
	}
	if !allowed(a, to) {
		return false
	}
	a.Status = to
	return true
}

// Terminal reports whether the status ends an activity's life (short of
// rebirth).
func Terminal(status string) bool {
	return status == types.StatusDone || status == types.StatusDiscarded
}

func allowed(a *types.Activity, to string) bool {
	switch a.Status {
	case types.StatusNew:
		return to == types.StatusActive || to == types.StatusDone || to == types.StatusDiscarded
	case types.StatusActive:
		return to == types.StatusSnoozed || to == types.StatusDone || to == types.StatusDiscarded
	case types.StatusSnoozed:
		return to == types.StatusActive || to == types.StatusDiscarded
	case types.StatusDone, types.StatusDiscarded:
		return a.Rebirth && to == types.StatusNew
	default:
		return false
	}
}

// PresentedStatus maps the stored status to what the client sees: immortal
// activities are always shown as active.
func PresentedStatus(a *types.Activity) string {
	if a.Status == types.StatusImmortal {
		return types.StatusActive
	}
	return a.Status
}
