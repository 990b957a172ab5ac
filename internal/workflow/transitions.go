package workflow

import "errors"

// ErrTransitionNotAllowed rejects an action that the row's current status and
// verification state do not permit.
var ErrTransitionNotAllowed = errors.New("workflow: transition not allowed")

// Action names a button a row can expose. The set offered for a row is a pure
// function of its raw status and uniqueCodeVerified flag.
type Action string

const (
	ActionVerifyCode Action = "verify_code"
	ActionComplete   Action = "complete"
	ActionCancel     Action = "cancel"
	ActionAccept     Action = "accept"
	ActionReject     Action = "reject"
	ActionMarkReady  Action = "mark_ready"
)

// DonationActions returns the buttons for a donation row.
// on_progress is the only live state: completed and cancelled are terminal.
// Completion is gated on a verified unique code; cancellation never is.
func DonationActions(status string, verified bool) []Action {
	if status != DonationOnProgress {
		return nil
	}
	actions := []Action{}
	if verified {
		actions = append(actions, ActionComplete)
	} else {
		actions = append(actions, ActionVerifyCode)
	}
	return append(actions, ActionCancel)
}

// AllowDonationAction reports whether the action may fire for the row.
func AllowDonationAction(status string, verified bool, action Action) error {
	for _, a := range DonationActions(status, verified) {
		if a == action {
			return nil
		}
	}
	return ErrTransitionNotAllowed
}

// RequestActions returns the buttons for a blood-request row. The chain runs
// pending -> confirmed -> ready -> completed, with reject allowed from any
// non-terminal state. Code verification opens up once the request is
// confirmed, and completion is gated on it.
func RequestActions(status string, verified bool) []Action {
	switch CanonicalRequestStatus(status) {
	case RequestPending:
		return []Action{ActionAccept, ActionReject}
	case RequestConfirmed:
		actions := []Action{ActionMarkReady}
		if !verified {
			actions = append(actions, ActionVerifyCode)
		}
		return append(actions, ActionReject)
	case RequestReady:
		actions := []Action{}
		if verified {
			actions = append(actions, ActionComplete)
		} else {
			actions = append(actions, ActionVerifyCode)
		}
		return append(actions, ActionReject)
	default:
		return nil
	}
}

// AllowRequestAction reports whether the action may fire for the row.
func AllowRequestAction(status string, verified bool, action Action) error {
	for _, a := range RequestActions(status, verified) {
		if a == action {
			return nil
		}
	}
	return ErrTransitionNotAllowed
}
