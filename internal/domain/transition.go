package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyInState marks a request that would not change anything.
	ErrAlreadyInState = errors.New("ticket already in requested state")
	// ErrIllegalTransition marks a request the lifecycle never allows.
	ErrIllegalTransition = errors.New("illegal ticket transition")
)

// TransitionError describes a rejected transition.
type TransitionError struct {
	From   TicketStatus
	Action Action
	Err    error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s from %s: %v", e.Action, e.From, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

type transitionKey struct {
	from   TicketStatus
	action Action
}

var transitions = map[transitionKey]TicketStatus{
	{TicketStatusOpen, ActionClaim}:     TicketStatusClaimed,
	{TicketStatusClaimed, ActionUnclaim}: TicketStatusOpen,
	{TicketStatusOpen, ActionClose}:     TicketStatusClosed,
	{TicketStatusClaimed, ActionClose}:  TicketStatusClosed,
	{TicketStatusClosed, ActionReopen}:  TicketStatusOpen,
}

// Transition returns the status reached by applying action to current.
// Create and delete are not status changes and are always rejected here.
func Transition(current TicketStatus, action Action) (TicketStatus, error) {
	if next, ok := transitions[transitionKey{current, action}]; ok {
		return next, nil
	}
	reason := ErrAlreadyInState
	switch {
	case !current.Valid(), current == TicketStatusArchived:
		reason = ErrIllegalTransition
	case action == ActionCreate, action == ActionDelete:
		reason = ErrIllegalTransition
	case action.ControlID() == "":
		reason = ErrIllegalTransition
	}
	return current, &TransitionError{From: current, Action: action, Err: reason}
}

var statusOrder = []TicketStatus{TicketStatusOpen, TicketStatusClaimed, TicketStatusClosed, TicketStatusArchived}

// Sources lists, in a stable order, the statuses from which action is allowed.
func Sources(action Action) []TicketStatus {
	var out []TicketStatus
	for _, s := range statusOrder {
		if _, ok := transitions[transitionKey{s, action}]; ok {
			out = append(out, s)
		}
	}
	return out
}
