package profiles

import (
	"time"

	"github.com/cardshare/digital-card-api/internal/domain"
)

// Optional is a tri-state field used to distinguish:
// - unspecified (omitted)
// - specified as null
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

// SaveProfileInput replaces the whole profile. Omitted strings are stored as "".
type SaveProfileInput struct {
	FirstName        string
	MiddleName       string
	LastName         string
	JobTitle         string
	CompanyName      string
	ContactEmail     string
	ContactPhone     string
	ContactTelephone string
	Address          string
	GoogleMapQuery   string
	DateOfBirth      *time.Time
	SocialLinks      map[string]string
	ProfilePicture   string
}

// UpdateProfileInput patches individual fields. Null clears a field; firstName cannot be null.
type UpdateProfileInput struct {
	FirstName        Optional[string]
	MiddleName       Optional[string]
	LastName         Optional[string]
	JobTitle         Optional[string]
	CompanyName      Optional[string]
	ContactEmail     Optional[string]
	ContactPhone     Optional[string]
	ContactTelephone Optional[string]
	Address          Optional[string]
	GoogleMapQuery   Optional[string]
	DateOfBirth      Optional[time.Time]
	// SocialLinks entries are merged per platform; a null entry clears that platform.
	SocialLinks    map[string]Optional[string]
	ProfilePicture Optional[string]
}

// ProfileView is the caller's profile plus its setup state.
type ProfileView struct {
	Profile              domain.Profile
	ProfileSetupComplete bool
}
