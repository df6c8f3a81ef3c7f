package models

import (
	"time"
)

// Action represents what was (or would be) done with an entry
type Action string

const (
	// ActionCopy copies a file that does not exist in the destination
	ActionCopy Action = "copy"
	// ActionUpdate overwrites a destination file whose content differs
	ActionUpdate Action = "update"
	// ActionSkip leaves an identical destination file untouched
	ActionSkip Action = "skip"
	// ActionMkdir creates a missing destination directory
	ActionMkdir Action = "mkdir"
)

// Performed reports whether the action writes to the destination
func (a Action) Performed() bool {
	return a == ActionCopy || a == ActionUpdate || a == ActionMkdir
}

// FileOperation represents an operation applied to one entry
type FileOperation struct {
	// RelativePath is the path relative to the sync root
	RelativePath string
	Action       Action
	// Outcome is the change-detection outcome that led to Action
	Outcome     string
	Reason      string
	BytesCopied int64
	Duration    time.Duration
}
