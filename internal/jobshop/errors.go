package jobshop

import "errors"

var (
	// ErrInstance marks every problem that makes an instance unusable.
	// Detailed causes below are wrapped together with it.
	ErrInstance = errors.New("malformed instance")

	ErrUnschedulableTask = errors.New("task has no suitable machine")
	ErrTravelTable       = errors.New("invalid travel-time table")
	ErrDuplicateID       = errors.New("duplicate id")
	ErrDependency        = errors.New("invalid task dependency")

	ErrUnknownTask    = errors.New("unknown task")
	ErrUnknownMachine = errors.New("unknown machine")
	ErrNotAssigned    = errors.New("task is not assigned")
)
