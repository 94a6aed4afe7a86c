package booking

// Action is a status change a user may request.
type Action string

const (
	ActionApprove  Action = "aprovar"
	ActionReject   Action = "rejeitar"
	ActionCancel   Action = "cancelar"
	ActionUncancel Action = "reativar"
	ActionEdit     Action = "editar"
)

// Actor describes who is asking for an action on a booking.
type Actor struct {
	UserID             string
	IsAdmin            bool
	IsSpaceResponsible bool
}

func (a Actor) owns(b *Booking) bool {
	return a.UserID != "" && a.UserID == b.UserID
}

var transitions = map[Status]map[Action]Status{
	StatusPending: {
		ActionApprove: StatusApproved,
		ActionReject:  StatusRejected,
		ActionCancel:  StatusCancelled,
	},
	StatusApproved: {
		ActionCancel: StatusCancelled,
	},
	StatusCancelled: {
		ActionUncancel: StatusPending,
	},
}

// Transition returns the status reached by applying action to from.
func Transition(from Status, action Action) (Status, error) {
	switch action {
	case ActionApprove, ActionReject, ActionCancel, ActionUncancel:
	default:
		return "", ErrInvalidAction
	}
	to, ok := transitions[from][action]
	if !ok {
		return "", ErrInvalidTransition
	}
	return to, nil
}

// CanEdit reports whether the actor may edit the booking's fields.
// Owners may edit while pending; admins may edit at any status.
func CanEdit(b *Booking, a Actor) bool {
	if a.IsAdmin {
		return true
	}
	return a.owns(b) && b.Status == StatusPending
}

// CanCancel reports whether the actor may cancel the booking.
func CanCancel(b *Booking, a Actor) bool {
	if b.Status != StatusPending && b.Status != StatusApproved {
		return false
	}
	return a.IsAdmin || a.IsSpaceResponsible || a.owns(b)
}

// CanUncancel reports whether the actor may move a cancelled booking back to pending.
func CanUncancel(b *Booking, a Actor) bool {
	return b.Status == StatusCancelled && a.IsAdmin
}

// CanReview reports whether the actor may approve or reject the booking.
func CanReview(b *Booking, a Actor) bool {
	return b.Status == StatusPending && (a.IsAdmin || a.IsSpaceResponsible)
}

// Allowed reports whether the actor may perform action on the booking.
func Allowed(b *Booking, a Actor, action Action) bool {
	switch action {
	case ActionEdit:
		return CanEdit(b, a)
	case ActionApprove, ActionReject:
		return CanReview(b, a)
	case ActionCancel:
		return CanCancel(b, a)
	case ActionUncancel:
		return CanUncancel(b, a)
	}
	return false
}

// AvailableActions lists the actions the UI should offer to the actor.
func AvailableActions(b *Booking, a Actor) []Action {
	var out []Action
	for _, action := range []Action{ActionEdit, ActionApprove, ActionReject, ActionCancel, ActionUncancel} {
		if Allowed(b, a, action) {
			out = append(out, action)
		}
	}
	return out
}
