package servicerecord

import (
	"crewtransit/internal/core/apperror"
)

// Status is the lifecycle state of a service record.
type Status string

const (
	StatusPending     Status = "pending"
	StatusInProgress  Status = "in_progress"
	StatusCompleted   Status = "completed"
	StatusPrefactured Status = "prefactured"
	StatusInvoiced    Status = "invoiced"
)

// transitions is the full state machine. A target absent from the current
// state's row is rejected, so invoiced is terminal by construction.
var transitions = map[Status][]Status{
	StatusPending:     {StatusInProgress, StatusCompleted},
	StatusInProgress:  {StatusCompleted, StatusPending},
	StatusCompleted:   {StatusPrefactured, StatusPending, StatusInProgress},
	StatusPrefactured: {StatusInvoiced},
	StatusInvoiced:    {},
}

// ValidStatus reports whether s is a known status.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether the state machine allows from → to.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CheckTransition returns an InvalidTransition error when from → to is not in
// the table.
func CheckTransition(from, to Status) error {
	if !ValidStatus(to) {
		return apperror.NewValidation("unknown status").
			WithDetail("field", "status").
			WithDetail("value", string(to))
	}
	if !CanTransition(from, to) {
		return apperror.NewInvalidTransition(string(from), string(to))
	}
	return nil
}

// Editable reports whether business fields may still be modified.
func (s Status) Editable() bool {
	return s == StatusPending || s == StatusInProgress
}

// Terminal reports whether the record can never change again.
func (s Status) Terminal() bool {
	return s == StatusInvoiced
}

// Linked reports whether the record belongs to an invoice. The invoice
// reference is set if and only if the status is prefactured or invoiced.
func (s Status) Linked() bool {
	return s == StatusPrefactured || s == StatusInvoiced
}
