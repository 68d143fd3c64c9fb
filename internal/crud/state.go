// Package crud drives the list, create, edit and delete lifecycle of one resource page.
package crud

import (
	"errors"
	"fmt"
)

type State string

const (
	StateIdle          State = "idle"
	StateLoading       State = "loading"
	StateLoaded        State = "loaded"
	StateModalOpen     State = "modal_open"
	StateSubmitting    State = "submitting"
	StateDeleteConfirm State = "delete_confirm"
	StateDeleting      State = "deleting"
)

// busy reports whether a request owned by the state machine is in flight.
func (s State) busy() bool {
	return s == StateLoading || s == StateSubmitting || s == StateDeleting
}

var (
	ErrInvalidTransition = errors.New("crud: action not allowed in current state")
	ErrBusy              = errors.New("crud: a request is already in flight")
	ErrNotFound          = errors.New("crud: record not found")
	ErrClosed            = errors.New("crud: page closed")
)

// transitionError explains why action cannot run from state.
func transitionError(action string, from State) error {
	if from.busy() {
		return fmt.Errorf("%w: %s while %s", ErrBusy, action, from)
	}
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, from)
}
