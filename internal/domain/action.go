package domain

// Action is a lifecycle operation requested by a guild member.
type Action string

const (
	ActionCreate  Action = "create"
	ActionClaim   Action = "claim"
	ActionUnclaim Action = "unclaim"
	ActionClose   Action = "close"
	ActionReopen  Action = "reopen"
	ActionDelete  Action = "delete"
)

// Control ids attached to interactive message components.
const (
	ControlCreate  = "create_ticket"
	ControlClaim   = "ticket_claim"
	ControlUnclaim = "ticket_unclaim"
	ControlClose   = "ticket_close"
	ControlReopen  = "ticket_reopen"
	ControlDelete  = "ticket_delete"
)

var controlActions = map[string]Action{
	ControlCreate:  ActionCreate,
	ControlClaim:   ActionClaim,
	ControlUnclaim: ActionUnclaim,
	ControlClose:   ActionClose,
	ControlReopen:  ActionReopen,
	ControlDelete:  ActionDelete,
}

// ActionForControl maps a component id to its action.
func ActionForControl(controlID string) (Action, bool) {
	action, ok := controlActions[controlID]
	return action, ok
}

// ControlID returns the component id that triggers a.
func (a Action) ControlID() string {
	for id, action := range controlActions {
		if action == a {
			return id
		}
	}
	return ""
}

// ParseAction accepts the plain action name, as used by the dashboard.
func ParseAction(raw string) (Action, bool) {
	a := Action(raw)
	if a.ControlID() == "" {
		return "", false
	}
	return a, true
}
