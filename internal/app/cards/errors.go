package cards

import "errors"

var (
	// ErrInvalidSlugFormat indicates a slug that does not split into 1-3 parts.
	ErrInvalidSlugFormat = errors.New("invalid name slug format")

	// ErrInvalidInput indicates both the company and the first name are missing.
	ErrInvalidInput = errors.New("company name and first name are both missing")

	// ErrNotShareable indicates a profile whose name or company cannot form a resolvable card address.
	ErrNotShareable = errors.New("profile cannot be addressed by a card slug")
)

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}
