package quotes

import (
	"time"

	"github.com/google/uuid"
)

// Action is a requested status change.
type Action string

const (
	ActionClose            Action = "close"
	ActionReopen           Action = "reopen"
	ActionAccept           Action = "accept"
	ActionReject           Action = "reject"
	ActionRevokeAcceptance Action = "revoke_acceptance"
	ActionRevokeRejection  Action = "revoke_rejection"
	ActionComplete         Action = "complete"
	ActionRevokeCompletion Action = "revoke_completion"
)

type transition struct {
	next  Status
	event EventType
}

// transitions is the full legal transition table. Anything absent is a no-op.
var transitions = map[Status]map[Action]transition{
	StatusDraft: {
		ActionClose: {StatusClosed, EventClosed},
	},
	StatusClosed: {
		ActionReopen: {StatusDraft, EventReopened},
		ActionAccept: {StatusStarted, EventAccepted},
		ActionReject: {StatusRejected, EventRejected},
	},
	StatusStarted: {
		ActionComplete:         {StatusCompleted, EventCompleted},
		ActionRevokeAcceptance: {StatusClosed, EventAcceptanceRevoked},
	},
	StatusRejected: {
		ActionRevokeRejection: {StatusClosed, EventRejectionRevoked},
	},
	StatusCompleted: {
		ActionRevokeCompletion: {StatusStarted, EventCompletionRevoked},
	},
}

// CanTransition reports whether the action is legal from the current status.
func CanTransition(status Status, action Action) bool {
	_, ok := transitions[status][action]
	return ok
}

// Transition applies an action to the quote. Illegal requests, including any
// action on a deleted quote, are no-ops that report false; stale UI buttons
// must stay safe. A successful transition updates the status, stamps
// LastStatusChangeAt and appends exactly one matching event.
func Transition(q *Quote, action Action, doctorName string, now time.Time) bool {
	if q.IsDeleted {
		return false
	}
	tr, ok := transitions[q.Status][action]
	if !ok {
		return false
	}
	q.Status = tr.next
	q.LastStatusChangeAt = now
	q.Events = append(q.Events, NewEvent(tr.event, doctorName, now))
	return true
}

// SoftDelete marks the quote deleted if its status permits and appends a
// deleted event. It reports whether anything changed.
func SoftDelete(q *Quote, doctorName string, now time.Time) bool {
	if q.IsDeleted || !q.Deletable() {
		return false
	}
	q.IsDeleted = true
	q.Events = append(q.Events, NewEvent(EventDeleted, doctorName, now))
	return true
}

// Restore clears the soft-delete flag without altering the status.
func Restore(q *Quote, doctorName string, now time.Time) bool {
	if !q.IsDeleted {
		return false
	}
	q.IsDeleted = false
	q.Events = append(q.Events, NewEvent(EventRestored, doctorName, now))
	return true
}

// Duplicate builds a fresh draft copy of the quote under a new identity.
// Every copied line gets a new line id; the event log starts over with a
// single created event and the soft-delete flag is not carried.
func Duplicate(q *Quote, id int64, number string, doctorName string, now time.Time) *Quote {
	dup := &Quote{
		ID:                 id,
		Number:             number,
		PatientID:          q.PatientID,
		DoctorName:         q.DoctorName,
		Comment:            q.Comment,
		Kind:               q.Kind,
		Status:             StatusDraft,
		Currency:           q.Currency,
		GlobalDiscount:     q.GlobalDiscount,
		ExpectedTreatments: q.ExpectedTreatments,
		LastStatusChangeAt: now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	for _, it := range q.Items {
		copied := it
		copied.LineID = uuid.NewString()
		copied.SelectedSurfaces = append([]string(nil), it.SelectedSurfaces...)
		copied.ResolvedLayers = append([]string(nil), it.ResolvedLayers...)
		dup.Items = append(dup.Items, copied)
	}
	dup.Events = []QuoteEvent{NewEvent(EventCreated, doctorName, now)}
	return dup
}

// NewEvent builds an immutable event record.
func NewEvent(eventType EventType, doctorName string, now time.Time) QuoteEvent {
	return QuoteEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		At:         now,
		DoctorName: doctorName,
	}
}
