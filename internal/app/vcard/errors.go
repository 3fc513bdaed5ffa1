package vcard

import (
	"errors"
	"fmt"
)

// ErrInsufficientContactData indicates a profile with neither a phone number nor a name.
var ErrInsufficientContactData = errors.New("profile has no phone number or name to export")

// Side-effect actions reported by SideEffectError.
const (
	ActionSave      = "save"
	ActionClipboard = "clipboard"
)

// SideEffectError reports a failed best-effort action. The card it accompanies is still valid.
type SideEffectError struct {
	Action string
	Err    error
}

func (e *SideEffectError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Action, e.Err)
}

func (e *SideEffectError) Unwrap() error { return e.Err }
